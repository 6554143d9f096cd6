// Package queue implements the bounded, single-consumer sample queue that
// sits between the external DDS listener boundary and the resolver: a FIFO
// of (src_ts, DdsEvent) pairs with bounded-timeout backpressure on push and
// shutdown-aware blocking on pop.
//
// The target-language design note leaves the producer/consumer queue itself
// to whatever concurrency primitives the host language offers; here that
// means a buffered channel guarded by a context-aware push/pop pair, mirroring
// the ctx.Done() consumer loops used throughout this codebase's NATS
// consumers.
package queue

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/events"
)

// Item is one queued sample: the event plus its source timestamp (src_ts).
type Item struct {
	SrcTs int64
	Event events.DdsEvent
}

// Queue is a bounded FIFO of Item. The zero value is not usable; construct
// with New. Per-producer call order is preserved because Go channels are
// FIFO and Push never reorders.
type Queue struct {
	ch     chan Item
	logger *zap.Logger

	dropped atomic.Uint64
}

// New returns a Queue with the given capacity.
func New(capacity int, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		ch:     make(chan Item, capacity),
		logger: logger,
	}
}

// Push enqueues item, blocking for up to timeout if the queue is full. If
// the queue is still full when timeout elapses, or ctx is cancelled first,
// the item is dropped and the dropped-event counter is incremented; Push
// never blocks indefinitely and never silently reorders.
func (q *Queue) Push(ctx context.Context, item Item, timeout time.Duration) {
	select {
	case q.ch <- item:
		return
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case q.ch <- item:
	case <-timer.C:
		q.dropped.Add(1)
		q.logger.Warn("sample queue full, dropping event",
			zap.String("kind", item.Event.Kind.String()),
			zap.Int64("src_ts", item.SrcTs),
			zap.Uint64("total_dropped", q.dropped.Load()),
		)
	case <-ctx.Done():
		q.dropped.Add(1)
		q.logger.Warn("sample queue push cancelled, dropping event",
			zap.String("kind", item.Event.Kind.String()),
			zap.Int64("src_ts", item.SrcTs),
		)
	}
}

// Pop blocks until an item is available or ctx is cancelled, in which case
// it returns (Item{}, false). At-most-once: an item returned by Pop is
// removed from the queue and is never returned again. Buffered items always
// take priority over cancellation: Pop keeps returning them until the queue
// is empty, so a cancelled ctx never discards what is already queued.
func (q *Queue) Pop(ctx context.Context) (Item, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
	}

	select {
	case item := <-q.ch:
		return item, true
	case <-ctx.Done():
		return Item{}, false
	}
}

// Drain pops and returns every item currently buffered, without blocking.
// Used during graceful shutdown to let a caller flush or log what remained
// unprocessed instead of losing it silently.
func (q *Queue) Drain() []Item {
	var out []Item
	for {
		select {
		case item := <-q.ch:
			out = append(out, item)
		default:
			return out
		}
	}
}

// Dropped reports the total number of items dropped by Push due to the
// queue staying full past its timeout, or due to cancellation.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len reports the number of items currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}
