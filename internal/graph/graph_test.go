package graph_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/dds-statsbackend/internal/events"
	"github.com/arc-self/dds-statsbackend/internal/graph"
)

func newTopology(t *testing.T) (*graph.Graph, graph.EntityId, graph.EntityId) {
	t.Helper()
	g := graph.New()
	domain, err := g.InsertDomain("default")
	require.NoError(t, err)
	locator, err := g.InsertLocator("UDPv4:[127.0.0.1]:7400")
	require.NoError(t, err)
	participant, err := g.InsertParticipant(domain, "guid-p1", "", []graph.EntityId{locator})
	require.NoError(t, err)
	topic, err := g.InsertTopic(domain, "chatter", "std_msgs::String")
	require.NoError(t, err)
	writer, err := g.InsertDataWriter(participant, topic, "guid-w1", "", []graph.EntityId{locator})
	require.NoError(t, err)
	_ = writer
	return g, domain, participant
}

func TestInsertHostDuplicate(t *testing.T) {
	g := graph.New()
	_, err := g.InsertHost("host-a")
	require.NoError(t, err)

	_, err = g.InsertHost("host-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrDuplicate)
}

func TestInsertUserScopedUniqueness(t *testing.T) {
	g := graph.New()
	h1, err := g.InsertHost("host-a")
	require.NoError(t, err)
	h2, err := g.InsertHost("host-b")
	require.NoError(t, err)

	_, err = g.InsertUser(h1, "alice")
	require.NoError(t, err)

	// same name on a different host is fine.
	_, err = g.InsertUser(h2, "alice")
	require.NoError(t, err)

	// same name on the same host is a duplicate.
	_, err = g.InsertUser(h1, "alice")
	assert.ErrorIs(t, err, graph.ErrDuplicate)
}

func TestInsertParticipantRejectsDanglingLocator(t *testing.T) {
	g := graph.New()
	domain, err := g.InsertDomain("d0")
	require.NoError(t, err)

	_, err = g.InsertParticipant(domain, "guid-p1", "", []graph.EntityId{9999})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrNotFound)

	// the graph is unchanged: the guid was never registered.
	found := g.GetEntitiesByGuid(graph.KindParticipant, "guid-p1")
	assert.Empty(t, found)
}

func TestPhysicalDataBootstrapsTopology(t *testing.T) {
	g, _, participant := newTopology(t)

	host, err := g.FindOrCreateHost("build-host")
	require.NoError(t, err)
	user, err := g.FindOrCreateUser(host, "ci")
	require.NoError(t, err)
	process, err := g.FindOrCreateProcess(user, "talker", "4242")
	require.NoError(t, err)
	require.NoError(t, g.LinkParticipantWithProcess(participant, process))

	procEntity, err := g.GetEntity(process)
	require.NoError(t, err)
	pp := procEntity.Payload.(graph.ProcessPayload)
	assert.Equal(t, "4242", pp.Pid)
	assert.Contains(t, pp.Participants, participant)

	// a second sighting with the same name/host finds, not duplicates.
	host2, err := g.FindOrCreateHost("build-host")
	require.NoError(t, err)
	assert.Equal(t, host, host2)
}

func TestProcessNameSplitsAtLastColon(t *testing.T) {
	full := "/usr/bin/talker:4242"
	idx := -1
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ':' {
			idx = i
			break
		}
	}
	require.NotEqual(t, -1, idx)
	assert.Equal(t, "/usr/bin/talker", full[:idx])
	assert.Equal(t, "4242", full[idx+1:])
}

func TestLinkParticipantWithProcessIsIdempotent(t *testing.T) {
	g, domain, participant := newTopology(t)
	host, err := g.FindOrCreateHost("h")
	require.NoError(t, err)
	user, err := g.FindOrCreateUser(host, "u")
	require.NoError(t, err)
	process, err := g.FindOrCreateProcess(user, "p", "1")
	require.NoError(t, err)

	require.NoError(t, g.LinkParticipantWithProcess(participant, process))
	require.NoError(t, g.LinkParticipantWithProcess(participant, process))

	procEntity, err := g.GetEntity(process)
	require.NoError(t, err)
	pp := procEntity.Payload.(graph.ProcessPayload)
	assert.Len(t, pp.Participants, 1)
	assert.Len(t, pp.Domains, 1)
	assert.Equal(t, domain, pp.Domains[0])
}

func TestLinkParticipantWithProcessRelinkIsLastWriterWins(t *testing.T) {
	g, _, participant := newTopology(t)
	host, err := g.FindOrCreateHost("h")
	require.NoError(t, err)
	user, err := g.FindOrCreateUser(host, "u")
	require.NoError(t, err)
	p1, err := g.FindOrCreateProcess(user, "p1", "1")
	require.NoError(t, err)
	p2, err := g.FindOrCreateProcess(user, "p2", "2")
	require.NoError(t, err)

	require.NoError(t, g.LinkParticipantWithProcess(participant, p1))
	require.NoError(t, g.LinkParticipantWithProcess(participant, p2))

	e1, err := g.GetEntity(p1)
	require.NoError(t, err)
	e2, err := g.GetEntity(p2)
	require.NoError(t, err)
	assert.NotContains(t, e1.Payload.(graph.ProcessPayload).Participants, participant)
	assert.Contains(t, e2.Payload.(graph.ProcessPayload).Participants, participant)

	// the domain association recorded for p1 is never retracted.
	participantEntity, err := g.GetEntity(participant)
	require.NoError(t, err)
	domainID := participantEntity.Payload.(graph.ParticipantPayload).Domain
	assert.Contains(t, e1.Payload.(graph.ProcessPayload).Domains, domainID)
}

func TestInsertSampleRejectsUnknownEntity(t *testing.T) {
	g := graph.New()
	err := g.InsertSample(9999, events.PublicationThroughput, 1, graph.EntityDataSample{Data: 1.5})
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestInsertSamplePublicationThroughput(t *testing.T) {
	g, _, participant := newTopology(t)
	participantEntity, err := g.GetEntity(participant)
	require.NoError(t, err)
	writer := participantEntity.Payload.(graph.ParticipantPayload).Writers[0]

	require.NoError(t, g.InsertSample(writer, events.PublicationThroughput, 10, graph.EntityDataSample{Data: 3.5}))
	require.NoError(t, g.InsertSample(writer, events.PublicationThroughput, 20, graph.EntityDataSample{Data: 4.5}))

	writerEntity, err := g.GetEntity(writer)
	require.NoError(t, err)
	series := writerEntity.Payload.(graph.DataWriterPayload).Data.PublicationThroughput
	require.Len(t, series, 2)
	assert.Equal(t, float32(3.5), series[0].Value)
	assert.Equal(t, float32(4.5), series[1].Value)
}

func TestLastReportedIsMonotonicNonDecreasing(t *testing.T) {
	g, _, participant := newTopology(t)
	participantEntity, err := g.GetEntity(participant)
	require.NoError(t, err)
	writer := participantEntity.Payload.(graph.ParticipantPayload).Writers[0]

	require.NoError(t, g.InsertSample(writer, events.HeartbeatCount, 10, graph.EntityCountSample{Count: 5}))
	require.NoError(t, g.InsertSample(writer, events.HeartbeatCount, 20, graph.EntityCountSample{Count: 3}))
	require.NoError(t, g.InsertSample(writer, events.HeartbeatCount, 30, graph.EntityCountSample{Count: 9}))

	writerEntity, err := g.GetEntity(writer)
	require.NoError(t, err)
	hb := writerEntity.Payload.(graph.DataWriterPayload).Data.HeartbeatCount
	assert.Equal(t, uint64(9), hb.LastReported)
	require.Len(t, hb.Points, 3)
	assert.Equal(t, uint64(3), hb.Points[1].Value)
}

func TestInsertRtpsSentPairCommitsBothSeriesAtomically(t *testing.T) {
	g, _, participant := newTopology(t)
	participantEntity, err := g.GetEntity(participant)
	require.NoError(t, err)
	writer := participantEntity.Payload.(graph.ParticipantPayload).Writers[0]
	locator := participantEntity.Payload.(graph.ParticipantPayload).Locators[0]

	err = g.InsertRtpsSentPair(writer, 100,
		graph.RtpsPacketsSentSample{Count: 7, RemoteLocator: locator},
		graph.RtpsBytesSentSample{Count: 700, MagnitudeOrder: 0, RemoteLocator: locator},
	)
	require.NoError(t, err)

	writerEntity, err := g.GetEntity(writer)
	require.NoError(t, err)
	dw := writerEntity.Payload.(graph.DataWriterPayload)
	require.Contains(t, dw.Data.RtpsPacketsSent, locator)
	require.Contains(t, dw.Data.RtpsBytesSent, locator)
	assert.Equal(t, uint64(7), dw.Data.RtpsPacketsSent[locator].LastReported)
	assert.Equal(t, uint64(700), dw.Data.RtpsBytesSent[locator].LastReported)
}

func TestInsertRtpsPairOnWrongKindLeavesGraphUnchanged(t *testing.T) {
	g, _, participant := newTopology(t)
	before, err := json.Marshal(g.Dump())
	require.NoError(t, err)

	err = g.InsertRtpsSentPair(participant, 1, graph.RtpsPacketsSentSample{}, graph.RtpsBytesSentSample{})
	assert.ErrorIs(t, err, graph.ErrBadParameter)

	after, err := json.Marshal(g.Dump())
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestGetEntitiesByGuidUnknownReturnsEmpty(t *testing.T) {
	g := graph.New()
	found := g.GetEntitiesByGuid(graph.KindParticipant, "does-not-exist")
	assert.Empty(t, found)
}

func TestGetEntitiesByNameResolvesTopicDomain(t *testing.T) {
	g, domain, _ := newTopology(t)
	found := g.GetEntitiesByName(graph.KindTopic, "chatter")
	require.Len(t, found, 1)
	assert.Equal(t, domain, found[0].DomainId)
}

func errorIsNotFoundOrBadParameter(err error) bool {
	return errors.Is(err, graph.ErrNotFound) || errors.Is(err, graph.ErrBadParameter)
}

func TestFailureSemanticsAbortWithoutPanicking(t *testing.T) {
	g := graph.New()
	_, err := g.InsertUser(9999, "someone")
	require.True(t, errorIsNotFoundOrBadParameter(err))
}
