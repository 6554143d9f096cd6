// Package ingest bridges the external DDS listener boundary (published
// over NATS JetStream) into the in-process SampleQueue, the way the
// audit-service's global consumer bridges DOMAIN_EVENTS into Postgres.
package ingest

import (
	"encoding/json"
	"encoding/base64"
	"fmt"

	"github.com/arc-self/dds-statsbackend/internal/events"
)

// envelope is the wire shape the DDS listener publishes to
// natsbridge.SubjectTelemetry. Guid/Locator fields are fixed-width byte
// arrays base64-encoded into strings; only the fields relevant to Kind
// are populated.
type envelope struct {
	Kind  string `json:"kind"`
	SrcTs int64  `json:"src_ts"`

	WriterGuid string `json:"writer_guid,omitempty"`
	ReaderGuid string `json:"reader_guid,omitempty"`

	SrcLocator string `json:"src_locator,omitempty"`
	DstLocator string `json:"dst_locator,omitempty"`

	Guid string `json:"guid,omitempty"`

	SrcGuid            string `json:"src_guid,omitempty"`
	PacketCount        uint64 `json:"packet_count,omitempty"`
	ByteCount          uint64 `json:"byte_count,omitempty"`
	ByteMagnitudeOrder int16  `json:"byte_magnitude_order,omitempty"`

	Count uint64 `json:"count,omitempty"`

	LocalParticipantGuid string `json:"local_participant_guid,omitempty"`
	RemoteEntityGuid     string `json:"remote_entity_guid,omitempty"`
	Time                 int64  `json:"time,omitempty"`

	Seq uint64 `json:"seq,omitempty"`

	ParticipantGuid string `json:"participant_guid,omitempty"`
	Host            string `json:"host,omitempty"`
	User            string `json:"user,omitempty"`
	Process         string `json:"process,omitempty"`

	Data float32 `json:"data,omitempty"`
}

var kindByName = map[string]events.Kind{
	"HISTORY2HISTORY_LATENCY": events.History2HistoryLatency,
	"NETWORK_LATENCY":         events.NetworkLatency,
	"PUBLICATION_THROUGHPUT":  events.PublicationThroughput,
	"SUBSCRIPTION_THROUGHPUT": events.SubscriptionThroughput,
	"RTPS_SENT":               events.RtpsSent,
	"RTPS_LOST":               events.RtpsLost,
	"RESENT_DATAS":            events.ResentDatas,
	"HEARTBEAT_COUNT":         events.HeartbeatCount,
	"GAP_COUNT":               events.GapCount,
	"DATA_COUNT":              events.DataCount,
	"ACKNACK_COUNT":           events.AcknackCount,
	"NACKFRAG_COUNT":          events.NackfragCount,
	"PDP_PACKETS":             events.PdpPackets,
	"EDP_PACKETS":             events.EdpPackets,
	"DISCOVERED_ENTITY":       events.DiscoveredEntity,
	"SAMPLE_DATAS":            events.SampleDatas,
	"PHYSICAL_DATA":           events.PhysicalData,
}

// DecodeEvent parses one JSON-encoded wire envelope into a DdsEvent. It is
// exported for cmd/statsbackend's replay subcommand, which feeds a
// recorded stream of envelopes through the resolver outside of NATS.
func DecodeEvent(raw []byte) (events.DdsEvent, error) {
	return decodeEnvelope(raw)
}

// decodeEnvelope parses raw JSON into a DdsEvent, or returns a
// poisonPillError if the message is structurally invalid.
func decodeEnvelope(raw []byte) (events.DdsEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.DdsEvent{}, &poisonPillError{fmt.Sprintf("unmarshal envelope: %v", err)}
	}

	kind, ok := kindByName[env.Kind]
	if !ok {
		return events.DdsEvent{}, &poisonPillError{fmt.Sprintf("unknown event kind %q", env.Kind)}
	}

	payload, err := env.toPayload(kind)
	if err != nil {
		return events.DdsEvent{}, err
	}

	return events.DdsEvent{Kind: kind, SrcTs: env.SrcTs, Payload: payload}, nil
}

func (env envelope) toPayload(kind events.Kind) (any, error) {
	switch kind {
	case events.History2HistoryLatency:
		w, err := decodeGuidField(env.WriterGuid)
		if err != nil {
			return nil, err
		}
		r, err := decodeGuidField(env.ReaderGuid)
		if err != nil {
			return nil, err
		}
		return events.WriterReaderData{WriterGuid: w, ReaderGuid: r, Data: env.Data}, nil

	case events.NetworkLatency:
		src, err := decodeLocatorField(env.SrcLocator)
		if err != nil {
			return nil, err
		}
		dst, err := decodeLocatorField(env.DstLocator)
		if err != nil {
			return nil, err
		}
		return events.Locator2LocatorData{SrcLocator: src, DstLocator: dst, Data: env.Data}, nil

	case events.PublicationThroughput, events.SubscriptionThroughput:
		g, err := decodeGuidField(env.Guid)
		if err != nil {
			return nil, err
		}
		return events.EntityData{Guid: g, Data: env.Data}, nil

	case events.RtpsSent, events.RtpsLost:
		src, err := decodeGuidField(env.SrcGuid)
		if err != nil {
			return nil, err
		}
		dst, err := decodeLocatorField(env.DstLocator)
		if err != nil {
			return nil, err
		}
		return events.Entity2LocatorTraffic{
			SrcGuid: src, DstLocator: dst,
			PacketCount: env.PacketCount, ByteCount: env.ByteCount,
			ByteMagnitudeOrder: env.ByteMagnitudeOrder,
		}, nil

	case events.ResentDatas, events.HeartbeatCount, events.GapCount, events.DataCount,
		events.AcknackCount, events.NackfragCount, events.PdpPackets, events.EdpPackets:
		g, err := decodeGuidField(env.Guid)
		if err != nil {
			return nil, err
		}
		return events.EntityCount{Guid: g, Count: env.Count}, nil

	case events.DiscoveredEntity:
		local, err := decodeGuidField(env.LocalParticipantGuid)
		if err != nil {
			return nil, err
		}
		remote, err := decodeGuidField(env.RemoteEntityGuid)
		if err != nil {
			return nil, err
		}
		return events.DiscoveryTime{LocalParticipantGuid: local, RemoteEntityGuid: remote, Time: env.Time}, nil

	case events.SampleDatas:
		g, err := decodeGuidField(env.WriterGuid)
		if err != nil {
			return nil, err
		}
		return events.SampleIdentityCount{WriterGuid: g, Seq: env.Seq, Count: env.Count}, nil

	case events.PhysicalData:
		g, err := decodeGuidField(env.ParticipantGuid)
		if err != nil {
			return nil, err
		}
		return events.PhysicalData{ParticipantGuid: g, Host: env.Host, User: env.User, Process: env.Process}, nil

	default:
		return nil, &poisonPillError{fmt.Sprintf("unhandled kind %v", kind)}
	}
}

func decodeGuidField(s string) ([16]byte, error) {
	var out [16]byte
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != 16 {
		return out, &poisonPillError{fmt.Sprintf("malformed guid field %q", s)}
	}
	copy(out[:], raw)
	return out, nil
}

func decodeLocatorField(s string) ([28]byte, error) {
	var out [28]byte
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != 28 {
		return out, &poisonPillError{fmt.Sprintf("malformed locator field %q", s)}
	}
	copy(out[:], raw)
	return out, nil
}

// poisonPillError marks a message as structurally unrecoverable: the
// consumer Terms it rather than Nak-ing it for redelivery.
type poisonPillError struct{ msg string }

func (e *poisonPillError) Error() string { return "poison pill: " + e.msg }

func isPoisonPill(err error) bool {
	_, ok := err.(*poisonPillError)
	return ok
}

// IsPoisonPill reports whether err marks a structurally invalid envelope
// (as opposed to a transient failure). Exported for replay tooling.
func IsPoisonPill(err error) bool {
	return isPoisonPill(err)
}
