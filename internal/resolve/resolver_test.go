package resolve_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/dds-statsbackend/internal/events"
	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/queue"
	"github.com/arc-self/dds-statsbackend/internal/resolve"
)

func guidBytes(fill byte) [16]byte {
	var b [16]byte
	for i := range b {
		b[i] = fill
	}
	return b
}

func locatorBytes(kind uint32) [28]byte {
	var b [28]byte
	b[3] = byte(kind)
	b[7] = 1 // port = 1
	b[24], b[25], b[26], b[27] = 10, 0, 0, 1
	return b
}

type fixture struct {
	g           *graph.Graph
	r           *resolve.Resolver
	domain      graph.EntityId
	participant graph.EntityId
	topic       graph.EntityId
	writer      graph.EntityId
	reader      graph.EntityId
	locator     graph.EntityId
	writerGuid  [16]byte
	readerGuid  [16]byte
	participantGuid [16]byte
	locatorRaw  [28]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := graph.New()

	locatorRaw := locatorBytes(events.LocatorKindUDPv4)
	locatorName := events.DecodeLocator(locatorRaw)
	locatorID, err := g.InsertLocator(locatorName)
	require.NoError(t, err)

	domain, err := g.InsertDomain("d0")
	require.NoError(t, err)

	participantGuid := guidBytes(0xAA)
	participantStr := events.DecodeGuid(participantGuid)
	participant, err := g.InsertParticipant(domain, participantStr, "", []graph.EntityId{locatorID})
	require.NoError(t, err)

	topic, err := g.InsertTopic(domain, "chatter", "std_msgs::String")
	require.NoError(t, err)

	writerGuid := guidBytes(0xBB)
	writerStr := events.DecodeGuid(writerGuid)
	writer, err := g.InsertDataWriter(participant, topic, writerStr, "", []graph.EntityId{locatorID})
	require.NoError(t, err)

	readerGuid := guidBytes(0xCC)
	readerStr := events.DecodeGuid(readerGuid)
	reader, err := g.InsertDataReader(participant, topic, readerStr, "", []graph.EntityId{locatorID})
	require.NoError(t, err)

	return &fixture{
		g: g, r: resolve.New(g, zaptest.NewLogger(t)),
		domain: domain, participant: participant, topic: topic,
		writer: writer, reader: reader, locator: locatorID,
		writerGuid: writerGuid, readerGuid: readerGuid, participantGuid: participantGuid,
		locatorRaw: locatorRaw,
	}
}

func TestResolverPublicationThroughput(t *testing.T) {
	f := newFixture(t)
	f.r.ProcessOne(events.DdsEvent{
		Kind: events.PublicationThroughput, SrcTs: 100,
		Payload: events.EntityData{Guid: f.writerGuid, Data: 42.0},
	})

	entity, err := f.g.GetEntity(f.writer)
	require.NoError(t, err)
	series := entity.Payload.(graph.DataWriterPayload).Data.PublicationThroughput
	require.Len(t, series, 1)
	assert.Equal(t, float32(42.0), series[0].Value)
}

func TestResolverRtpsSentProducesTwoSamples(t *testing.T) {
	f := newFixture(t)
	f.r.ProcessOne(events.DdsEvent{
		Kind: events.RtpsSent, SrcTs: 10,
		Payload: events.Entity2LocatorTraffic{
			SrcGuid: f.writerGuid, DstLocator: f.locatorRaw,
			PacketCount: 10, ByteCount: 4096, ByteMagnitudeOrder: 0,
		},
	})

	entity, err := f.g.GetEntity(f.writer)
	require.NoError(t, err)
	dw := entity.Payload.(graph.DataWriterPayload)
	require.Contains(t, dw.Data.RtpsPacketsSent, f.locator)
	require.Contains(t, dw.Data.RtpsBytesSent, f.locator)
	assert.Equal(t, uint64(10), dw.Data.RtpsPacketsSent[f.locator].LastReported)
	assert.Equal(t, uint64(4096), dw.Data.RtpsBytesSent[f.locator].LastReported)
}

func TestResolverUnknownGuidDropsEventAndContinues(t *testing.T) {
	f := newFixture(t)
	unknown := guidBytes(0xFF)

	f.r.ProcessOne(events.DdsEvent{
		Kind: events.History2HistoryLatency, SrcTs: 1,
		Payload: events.WriterReaderData{WriterGuid: unknown, ReaderGuid: f.readerGuid, Data: 1.0},
	})

	entity, err := f.g.GetEntity(f.writer)
	require.NoError(t, err)
	assert.Empty(t, entity.Payload.(graph.DataWriterPayload).Data.History2HistoryLatency)

	// subsequent events still process normally.
	f.r.ProcessOne(events.DdsEvent{
		Kind: events.PublicationThroughput, SrcTs: 2,
		Payload: events.EntityData{Guid: f.writerGuid, Data: 7.0},
	})
	entity, err = f.g.GetEntity(f.writer)
	require.NoError(t, err)
	assert.Len(t, entity.Payload.(graph.DataWriterPayload).Data.PublicationThroughput, 1)
}

func TestResolverPhysicalDataBootstrapsTopology(t *testing.T) {
	f := newFixture(t)
	f.r.ProcessOne(events.DdsEvent{
		Kind: events.PhysicalData, SrcTs: 1,
		Payload: events.PhysicalData{ParticipantGuid: f.participantGuid, Host: "h1", User: "u1", Process: "svc:42"},
	})

	hostMatches := f.g.GetEntitiesByName(graph.KindHost, "h1")
	require.Len(t, hostMatches, 1)
	userMatches := f.g.GetEntitiesByName(graph.KindUser, "u1")
	require.Len(t, userMatches, 1)
	processMatches := f.g.GetEntitiesByName(graph.KindProcess, "svc")
	require.Len(t, processMatches, 1)

	procEntity, err := f.g.GetEntity(processMatches[0].EntityId)
	require.NoError(t, err)
	pp := procEntity.Payload.(graph.ProcessPayload)
	assert.Equal(t, "42", pp.Pid)
	assert.Contains(t, pp.Participants, f.participant)
}

func TestResolverProcessNameSplitsAtLastColon(t *testing.T) {
	f := newFixture(t)
	f.r.ProcessOne(events.DdsEvent{
		Kind: events.PhysicalData, SrcTs: 1,
		Payload: events.PhysicalData{ParticipantGuid: f.participantGuid, Host: "h1", User: "u1", Process: "path/to/bin:1234"},
	})

	processMatches := f.g.GetEntitiesByName(graph.KindProcess, "path/to/bin")
	require.Len(t, processMatches, 1)
	procEntity, err := f.g.GetEntity(processMatches[0].EntityId)
	require.NoError(t, err)
	assert.Equal(t, "1234", procEntity.Payload.(graph.ProcessPayload).Pid)
}

func TestResolverPhysicalDataNoColonDropsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	before := f.g.Dump()

	f.r.ProcessOne(events.DdsEvent{
		Kind: events.PhysicalData, SrcTs: 1,
		Payload: events.PhysicalData{ParticipantGuid: f.participantGuid, Host: "h1", User: "u1", Process: "no_colon"},
	})

	after := f.g.Dump()
	assert.Equal(t, before.NextId, after.NextId)
	assert.Len(t, after.Hosts, len(before.Hosts))
}

func TestRunProcessesBufferedEventsOnShutdown(t *testing.T) {
	f := newFixture(t)
	q := queue.New(4, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	q.Push(context.Background(), queue.Item{SrcTs: 1, Event: events.DdsEvent{
		Kind: events.PublicationThroughput, SrcTs: 1,
		Payload: events.EntityData{Guid: f.writerGuid, Data: 1.0},
	}}, time.Second)
	q.Push(context.Background(), queue.Item{SrcTs: 2, Event: events.DdsEvent{
		Kind: events.PublicationThroughput, SrcTs: 2,
		Payload: events.EntityData{Guid: f.writerGuid, Data: 2.0},
	}}, time.Second)
	cancel()

	done := make(chan struct{})
	go func() {
		f.r.Run(ctx, q)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	entity, err := f.g.GetEntity(f.writer)
	require.NoError(t, err)
	assert.Len(t, entity.Payload.(graph.DataWriterPayload).Data.PublicationThroughput, 2)
}

func TestResolverNetworkLatencyResolvesOwningParticipant(t *testing.T) {
	f := newFixture(t)
	remoteLocatorRaw := locatorBytes(events.LocatorKindUDPv4)
	remoteLocatorRaw[27] = 2 // distinct address so it's a different locator
	remoteLocatorName := events.DecodeLocator(remoteLocatorRaw)
	remoteLocator, err := f.g.InsertLocator(remoteLocatorName)
	require.NoError(t, err)

	f.r.ProcessOne(events.DdsEvent{
		Kind: events.NetworkLatency, SrcTs: 5,
		Payload: events.Locator2LocatorData{SrcLocator: f.locatorRaw, DstLocator: remoteLocatorRaw, Data: 0.5},
	})

	entity, err := f.g.GetEntity(f.participant)
	require.NoError(t, err)
	lat := entity.Payload.(graph.ParticipantPayload).Data.NetworkLatencyPerLocator[remoteLocator]
	require.Len(t, lat, 1)
	assert.Equal(t, float32(0.5), lat[0].Value)
}
