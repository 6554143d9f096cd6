package queue

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// RegisterMetrics publishes the queue's depth and dropped-event count as
// asynchronous OTel gauges/counters on meter, named "dds.queue.depth" and
// "dds.queue.dropped_total". Safe to call once per Queue; the callback
// holds no lock and reads both values through their existing atomic/
// channel-length accessors.
func (q *Queue) RegisterMetrics(meter metric.Meter) error {
	depth, err := meter.Int64ObservableGauge("dds.queue.depth",
		metric.WithDescription("number of samples currently buffered in the queue"))
	if err != nil {
		return err
	}

	dropped, err := meter.Int64ObservableCounter("dds.queue.dropped_total",
		metric.WithDescription("total samples dropped due to backpressure or cancellation"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(depth, int64(q.Len()))
		o.ObserveInt64(dropped, int64(q.Dropped()))
		return nil
	}, depth, dropped)
	return err
}
