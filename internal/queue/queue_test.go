package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/dds-statsbackend/internal/events"
	"github.com/arc-self/dds-statsbackend/internal/queue"
)

func TestPushPopPreservesOrder(t *testing.T) {
	q := queue.New(4, zaptest.NewLogger(t))
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		q.Push(ctx, queue.Item{SrcTs: i, Event: events.DdsEvent{Kind: events.PdpPackets, SrcTs: i}}, time.Second)
	}

	for i := int64(0); i < 3; i++ {
		item, ok := q.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, i, item.SrcTs)
	}
}

func TestPushDropsWhenFullPastTimeout(t *testing.T) {
	q := queue.New(1, zaptest.NewLogger(t))
	ctx := context.Background()

	q.Push(ctx, queue.Item{SrcTs: 1}, time.Second)
	q.Push(ctx, queue.Item{SrcTs: 2}, 10*time.Millisecond)

	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 1, q.Len())

	item, ok := q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), item.SrcTs)
}

func TestPushUnblocksWhenConsumerDrainsBeforeTimeout(t *testing.T) {
	q := queue.New(1, zaptest.NewLogger(t))
	ctx := context.Background()
	q.Push(ctx, queue.Item{SrcTs: 1}, time.Second)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Pop(ctx)
	}()

	q.Push(ctx, queue.Item{SrcTs: 2}, time.Second)
	assert.Equal(t, uint64(0), q.Dropped())
}

func TestPopReturnsFalseOnCancellation(t *testing.T) {
	q := queue.New(1, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Pop(ctx)
	assert.False(t, ok)
}

func TestPopDrainsBufferedItemsBeforeCancellation(t *testing.T) {
	q := queue.New(4, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	q.Push(context.Background(), queue.Item{SrcTs: 1}, time.Second)
	q.Push(context.Background(), queue.Item{SrcTs: 2}, time.Second)
	cancel()

	item, ok := q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), item.SrcTs)

	item, ok = q.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(2), item.SrcTs)

	_, ok = q.Pop(ctx)
	assert.False(t, ok)
}

func TestDrainReturnsAllBufferedItemsWithoutBlocking(t *testing.T) {
	q := queue.New(4, zaptest.NewLogger(t))
	ctx := context.Background()
	q.Push(ctx, queue.Item{SrcTs: 1}, time.Second)
	q.Push(ctx, queue.Item{SrcTs: 2}, time.Second)

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, int64(1), drained[0].SrcTs)
	assert.Equal(t, int64(2), drained[1].SrcTs)
	assert.Equal(t, 0, q.Len())
}

func TestPushCancelledContextDropsEvent(t *testing.T) {
	q := queue.New(1, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	q.Push(context.Background(), queue.Item{SrcTs: 1}, time.Second)
	cancel()

	q.Push(ctx, queue.Item{SrcTs: 2}, time.Second)
	assert.Equal(t, uint64(1), q.Dropped())
}
