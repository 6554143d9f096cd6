package natsbridge

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// StreamTelemetry is the durable stream that captures all DDS
	// telemetry events forwarded from the monitored domain.
	StreamTelemetry = "DDS_TELEMETRY"
	// SubjectTelemetry captures every event subject published by the
	// external DDS listener boundary.
	SubjectTelemetry = "dds.telemetry.>"
)

var streamSubjects = []string{SubjectTelemetry}

// ProvisionStreams idempotently ensures the DDS_TELEMETRY JetStream stream
// exists with the correct subject filter. It creates the stream on first
// run and is a no-op if the stream already exists.
func (c *Client) ProvisionStreams() error {
	info, err := c.JS.StreamInfo(StreamTelemetry)
	if err == nil {
		_ = info
		c.Log.Info("NATS stream already exists", zap.String("stream", StreamTelemetry))
		return nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamTelemetry,
		Subjects:  streamSubjects,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
	}

	if _, err := c.JS.AddStream(cfg); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	c.Log.Info("NATS stream provisioned",
		zap.String("stream", StreamTelemetry),
		zap.Strings("subjects", streamSubjects),
	)
	return nil
}
