// Package resolve implements the SampleResolver: it drains the sample
// queue, dispatches each DdsEvent on its kind, resolves the wire-format
// identifiers it carries against the entity graph, builds the typed
// Sample the event implies, and commits it. It is the one place that
// understands the full event-kind -> target-kind -> sample-shape mapping.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/events"
	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/queue"
)

// Resolver owns one consumer position on a Queue and commits every event it
// pops onto a single Graph. Run must not be invoked concurrently from more
// than one goroutine against the same Graph write path, though the graph
// itself tolerates concurrent readers.
type Resolver struct {
	graph  *graph.Graph
	logger *zap.Logger
	tracer trace.Tracer
}

// New returns a Resolver committing into g.
func New(g *graph.Graph, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{graph: g, logger: logger, tracer: otel.Tracer("dds-resolver")}
}

// Run pops events from q until ctx is cancelled, processing each with
// ProcessOne. Pop itself keeps returning buffered items ahead of
// cancellation, but once ctx is done Run also drains whatever arrived in the
// gap between the last Pop and ctx firing, and processes it the same way
// before returning: every event that reached the queue is still resolved
// exactly once.
func (r *Resolver) Run(ctx context.Context, q *queue.Queue) {
	for {
		item, ok := q.Pop(ctx)
		if !ok {
			break
		}
		r.ProcessOne(item.Event)
	}

	drained := q.Drain()
	if len(drained) > 0 {
		r.logger.Info("resolver shutting down, processing remaining buffered events", zap.Int("count", len(drained)))
		for _, item := range drained {
			r.ProcessOne(item.Event)
		}
	}
}

// ProcessOne dispatches a single event. Failures are logged and swallowed:
// per the failure semantics, a bad event never panics, never mutates the
// graph, and never blocks the next event from being processed.
func (r *Resolver) ProcessOne(ev events.DdsEvent) {
	_, span := r.tracer.Start(context.Background(), "resolve.process_one",
		trace.WithAttributes(attribute.String("dds.event_kind", ev.Kind.String())))
	defer span.End()

	if err := r.processOne(ev); err != nil {
		span.RecordError(err)
		r.logger.Warn("dropping event",
			zap.String("kind", ev.Kind.String()),
			zap.Int64("src_ts", ev.SrcTs),
			zap.Error(err),
		)
	}
}

func (r *Resolver) processOne(ev events.DdsEvent) error {
	switch ev.Kind {
	case events.History2HistoryLatency:
		p, ok := ev.Payload.(events.WriterReaderData)
		if !ok {
			return fmt.Errorf("%w: history2history_latency payload shape", graph.ErrBadParameter)
		}
		writer, err := r.resolveGuid(graph.KindDataWriter, p.WriterGuid)
		if err != nil {
			return err
		}
		reader, err := r.resolveGuid(graph.KindDataReader, p.ReaderGuid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(writer, ev.Kind, ev.SrcTs, graph.HistoryLatencySample{Data: p.Data, Reader: reader})

	case events.NetworkLatency:
		p, ok := ev.Payload.(events.Locator2LocatorData)
		if !ok {
			return fmt.Errorf("%w: network_latency payload shape", graph.ErrBadParameter)
		}
		srcLocator, err := r.resolveLocator(p.SrcLocator)
		if err != nil {
			return err
		}
		dstLocator, err := r.resolveLocator(p.DstLocator)
		if err != nil {
			return err
		}
		owners := r.graph.ParticipantsByLocator(srcLocator)
		if len(owners) == 0 {
			return fmt.Errorf("%w: no participant advertises src_locator %d", graph.ErrNotFound, srcLocator)
		}
		return r.graph.InsertSample(owners[0], ev.Kind, ev.SrcTs, graph.NetworkLatencySample{Data: p.Data, RemoteLocator: dstLocator})

	case events.PublicationThroughput:
		p, ok := ev.Payload.(events.EntityData)
		if !ok {
			return fmt.Errorf("%w: publication_throughput payload shape", graph.ErrBadParameter)
		}
		writer, err := r.resolveGuid(graph.KindDataWriter, p.Guid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(writer, ev.Kind, ev.SrcTs, graph.EntityDataSample{Data: p.Data})

	case events.SubscriptionThroughput:
		p, ok := ev.Payload.(events.EntityData)
		if !ok {
			return fmt.Errorf("%w: subscription_throughput payload shape", graph.ErrBadParameter)
		}
		reader, err := r.resolveGuid(graph.KindDataReader, p.Guid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(reader, ev.Kind, ev.SrcTs, graph.EntityDataSample{Data: p.Data})

	case events.RtpsSent, events.RtpsLost:
		p, ok := ev.Payload.(events.Entity2LocatorTraffic)
		if !ok {
			return fmt.Errorf("%w: rtps traffic payload shape", graph.ErrBadParameter)
		}
		writer, err := r.resolveGuid(graph.KindDataWriter, p.SrcGuid)
		if err != nil {
			return err
		}
		locator, err := r.resolveLocator(p.DstLocator)
		if err != nil {
			return err
		}
		if ev.Kind == events.RtpsSent {
			return r.graph.InsertRtpsSentPair(writer, ev.SrcTs,
				graph.RtpsPacketsSentSample{Count: p.PacketCount, RemoteLocator: locator},
				graph.RtpsBytesSentSample{Count: p.ByteCount, MagnitudeOrder: p.ByteMagnitudeOrder, RemoteLocator: locator},
			)
		}
		return r.graph.InsertRtpsLostPair(writer, ev.SrcTs,
			graph.RtpsPacketsLostSample{Count: p.PacketCount, RemoteLocator: locator},
			graph.RtpsBytesLostSample{Count: p.ByteCount, MagnitudeOrder: p.ByteMagnitudeOrder, RemoteLocator: locator},
		)

	case events.ResentDatas, events.HeartbeatCount, events.GapCount, events.DataCount:
		p, ok := ev.Payload.(events.EntityCount)
		if !ok {
			return fmt.Errorf("%w: %s payload shape", graph.ErrBadParameter, ev.Kind)
		}
		writer, err := r.resolveGuid(graph.KindDataWriter, p.Guid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(writer, ev.Kind, ev.SrcTs, graph.EntityCountSample{Count: p.Count})

	case events.AcknackCount, events.NackfragCount:
		p, ok := ev.Payload.(events.EntityCount)
		if !ok {
			return fmt.Errorf("%w: %s payload shape", graph.ErrBadParameter, ev.Kind)
		}
		reader, err := r.resolveGuid(graph.KindDataReader, p.Guid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(reader, ev.Kind, ev.SrcTs, graph.EntityCountSample{Count: p.Count})

	case events.PdpPackets, events.EdpPackets:
		p, ok := ev.Payload.(events.EntityCount)
		if !ok {
			return fmt.Errorf("%w: %s payload shape", graph.ErrBadParameter, ev.Kind)
		}
		participant, err := r.resolveGuid(graph.KindParticipant, p.Guid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(participant, ev.Kind, ev.SrcTs, graph.EntityCountSample{Count: p.Count})

	case events.DiscoveredEntity:
		p, ok := ev.Payload.(events.DiscoveryTime)
		if !ok {
			return fmt.Errorf("%w: discovered_entity payload shape", graph.ErrBadParameter)
		}
		participant, err := r.resolveGuid(graph.KindParticipant, p.LocalParticipantGuid)
		if err != nil {
			return err
		}
		remote, err := r.resolveAnyGuid(p.RemoteEntityGuid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(participant, ev.Kind, ev.SrcTs, graph.DiscoverySample{Time: p.Time, RemoteEntity: remote})

	case events.SampleDatas:
		p, ok := ev.Payload.(events.SampleIdentityCount)
		if !ok {
			return fmt.Errorf("%w: sample_datas payload shape", graph.ErrBadParameter)
		}
		writer, err := r.resolveGuid(graph.KindDataWriter, p.WriterGuid)
		if err != nil {
			return err
		}
		return r.graph.InsertSample(writer, ev.Kind, ev.SrcTs, graph.SampleDatasCountSample{Count: p.Count, Seq: p.Seq})

	case events.PhysicalData:
		p, ok := ev.Payload.(events.PhysicalData)
		if !ok {
			return fmt.Errorf("%w: physical_data payload shape", graph.ErrBadParameter)
		}
		return r.processPhysicalData(p)

	default:
		return fmt.Errorf("%w: unrecognised event kind %s", graph.ErrBadParameter, ev.Kind)
	}
}

// processPhysicalData is the one upsert path: it may create Host/User/
// Process entities rather than merely reference them.
func (r *Resolver) processPhysicalData(p events.PhysicalData) error {
	participant, err := r.resolveGuid(graph.KindParticipant, p.ParticipantGuid)
	if err != nil {
		return err
	}

	name, pid, ok := splitLastColon(p.Process)
	if !ok {
		return fmt.Errorf("%w: process %q has no ':' separator", graph.ErrBadParameter, p.Process)
	}

	host, err := r.graph.FindOrCreateHost(p.Host)
	if err != nil {
		return err
	}
	user, err := r.graph.FindOrCreateUser(host, p.User)
	if err != nil {
		return err
	}
	process, err := r.graph.FindOrCreateProcess(user, name, pid)
	if err != nil {
		return err
	}
	return r.graph.LinkParticipantWithProcess(participant, process)
}

// splitLastColon splits s at its last ':', returning (left, right, true).
// Returns ok=false if s has no ':'.
func splitLastColon(s string) (left, right string, ok bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func (r *Resolver) resolveGuid(kind graph.EntityKind, raw [16]byte) (graph.EntityId, error) {
	guid := events.DecodeGuid(raw)
	matches := r.graph.GetEntitiesByGuid(kind, guid)
	if len(matches) == 0 {
		return graph.InvalidEntityId, fmt.Errorf("%w: %s guid %s", graph.ErrNotFound, kind, guid)
	}
	return matches[0].EntityId, nil
}

// resolveAnyGuid resolves a guid of unknown kind, used for
// DISCOVERED_ENTITY's remote_entity_guid, which may name a participant,
// reader, or writer. It tries each DDS guid kind in turn.
func (r *Resolver) resolveAnyGuid(raw [16]byte) (graph.EntityId, error) {
	guid := events.DecodeGuid(raw)
	for _, kind := range []graph.EntityKind{graph.KindParticipant, graph.KindDataReader, graph.KindDataWriter} {
		if matches := r.graph.GetEntitiesByGuid(kind, guid); len(matches) > 0 {
			return matches[0].EntityId, nil
		}
	}
	return graph.InvalidEntityId, fmt.Errorf("%w: guid %s", graph.ErrNotFound, guid)
}

func (r *Resolver) resolveLocator(raw [28]byte) (graph.EntityId, error) {
	name := events.DecodeLocator(raw)
	matches := r.graph.GetEntitiesByName(graph.KindLocator, name)
	if len(matches) == 0 {
		return graph.InvalidEntityId, fmt.Errorf("%w: locator %s", graph.ErrNotFound, name)
	}
	return matches[0].EntityId, nil
}
