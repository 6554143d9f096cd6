package ingest

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/dds-statsbackend/internal/events"
)

func b64Guid(fill byte) string {
	b := make([]byte, 16)
	for i := range b {
		b[i] = fill
	}
	return base64.StdEncoding.EncodeToString(b)
}

func TestDecodeEnvelopePublicationThroughput(t *testing.T) {
	raw := []byte(`{"kind":"PUBLICATION_THROUGHPUT","src_ts":100,"guid":"` + b64Guid(0xAB) + `","data":3.5}`)

	ev, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, events.PublicationThroughput, ev.Kind)
	assert.Equal(t, int64(100), ev.SrcTs)
	payload := ev.Payload.(events.EntityData)
	assert.Equal(t, float32(3.5), payload.Data)
}

func TestDecodeEnvelopeUnknownKindIsPoisonPill(t *testing.T) {
	raw := []byte(`{"kind":"NOT_A_REAL_KIND","src_ts":1}`)

	_, err := decodeEnvelope(raw)
	require.Error(t, err)
	assert.True(t, isPoisonPill(err))
}

func TestDecodeEnvelopeMalformedJSONIsPoisonPill(t *testing.T) {
	_, err := decodeEnvelope([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, isPoisonPill(err))
}

func TestDecodeEnvelopeBadGuidFieldIsPoisonPill(t *testing.T) {
	raw := []byte(`{"kind":"PUBLICATION_THROUGHPUT","src_ts":1,"guid":"not-base64!!","data":1}`)

	_, err := decodeEnvelope(raw)
	require.Error(t, err)
	assert.True(t, isPoisonPill(err))
}

func TestDecodeEnvelopePhysicalData(t *testing.T) {
	raw := []byte(`{"kind":"PHYSICAL_DATA","src_ts":1,"participant_guid":"` + b64Guid(0x01) + `","host":"h","user":"u","process":"svc:1"}`)

	ev, err := decodeEnvelope(raw)
	require.NoError(t, err)
	p := ev.Payload.(events.PhysicalData)
	assert.Equal(t, "h", p.Host)
	assert.Equal(t, "svc:1", p.Process)
}
