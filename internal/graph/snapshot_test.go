package graph_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/dds-statsbackend/internal/events"
	"github.com/arc-self/dds-statsbackend/internal/graph"
)

func TestDumpLoadRoundTrip(t *testing.T) {
	g, _, participant := newTopology(t)
	participantEntity, err := g.GetEntity(participant)
	require.NoError(t, err)
	writer := participantEntity.Payload.(graph.ParticipantPayload).Writers[0]
	locator := participantEntity.Payload.(graph.ParticipantPayload).Locators[0]

	require.NoError(t, g.InsertSample(writer, events.PublicationThroughput, 10, graph.EntityDataSample{Data: 1.25}))
	require.NoError(t, g.InsertRtpsSentPair(writer, 20,
		graph.RtpsPacketsSentSample{Count: 3, RemoteLocator: locator},
		graph.RtpsBytesSentSample{Count: 300, RemoteLocator: locator},
	))

	first, err := json.Marshal(g.Dump())
	require.NoError(t, err)

	reloaded := graph.New()
	reloaded.Load(g.Dump())

	second, err := json.Marshal(reloaded.Dump())
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, g.NextID(), reloaded.NextID())
}

func TestLoadPreservesIssuedIds(t *testing.T) {
	g, _, participant := newTopology(t)
	snap := g.Dump()

	reloaded := graph.New()
	reloaded.Load(snap)

	got, err := reloaded.GetEntity(participant)
	require.NoError(t, err)
	assert.Equal(t, participant, got.Id)
	assert.Equal(t, g.NextID(), reloaded.NextID())
}

func TestDumpIsDeterministicUnderRepeatedCalls(t *testing.T) {
	g, _, _ := newTopology(t)
	a, err := json.Marshal(g.Dump())
	require.NoError(t, err)
	b, err := json.Marshal(g.Dump())
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}
