package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/platform/natsbridge"
	"github.com/arc-self/dds-statsbackend/internal/queue"
)

// durable is the JetStream consumer name. All replicas of this service
// share it, so that redundant instances compete rather than duplicate.
const durable = "dds-statsbackend-ingest"

// Consumer bridges natsbridge.SubjectTelemetry into a SampleQueue.
type Consumer struct {
	nats        *natsbridge.Client
	queue       *queue.Queue
	logger      *zap.Logger
	tracer      trace.Tracer
	pushTimeout time.Duration
	sessionID   uuid.UUID
}

// New constructs a Consumer. pushTimeout bounds how long the background
// fetch loop started by Start blocks trying to push a decoded event onto q
// before the queue drops it as backpressure.
func New(n *natsbridge.Client, q *queue.Queue, logger *zap.Logger, pushTimeout time.Duration) *Consumer {
	sessionID, err := uuid.NewV7()
	if err != nil {
		sessionID = uuid.New()
	}
	return &Consumer{
		nats: n, queue: q, logger: logger,
		tracer:      otel.Tracer("dds-ingest"),
		pushTimeout: pushTimeout,
		sessionID:   sessionID,
	}
}

// Start creates a durable pull subscription on natsbridge.SubjectTelemetry
// and runs the fetch loop in a background goroutine until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.nats.JS.PullSubscribe(
		natsbridge.SubjectTelemetry,
		durable,
		nats.BindStream(natsbridge.StreamTelemetry),
	)
	if err != nil {
		return fmt.Errorf("ingest consumer: PullSubscribe: %w", err)
	}

	c.logger.Info("ingest consumer initialised",
		zap.String("stream", natsbridge.StreamTelemetry),
		zap.String("durable", durable),
		zap.String("session_id", c.sessionID.String()),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("ingest consumer stopping")
				return
			default:
				msgs, err := sub.Fetch(20, nats.Context(ctx))
				if err != nil {
					continue // nats.ErrTimeout on an empty pull, not an error
				}
				for _, msg := range msgs {
					c.processMessage(ctx, msg)
				}
			}
		}
	}()

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg *nats.Msg) {
	_, span := c.tracer.Start(ctx, "ingest.processMessage")
	defer span.End()

	ev, err := decodeEnvelope(msg.Data)
	if err != nil {
		if isPoisonPill(err) {
			c.logger.Warn("terminating poison-pill telemetry event",
				zap.String("subject", msg.Subject), zap.Error(err))
			msg.Term()
			return
		}
		span.RecordError(err)
		c.logger.Error("NAK telemetry event (decode error)",
			zap.String("subject", msg.Subject), zap.Error(err))
		msg.Nak()
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.pushTimeout)
	defer cancel()
	c.queue.Push(pushCtx, queue.Item{SrcTs: ev.SrcTs, Event: ev}, c.pushTimeout)

	msg.Ack()
}
