// Package events defines the wire-level DDS telemetry event protocol: the
// 17-kind tagged DdsEvent sum and its typed payloads, plus the GUID/locator
// binary codecs used to decode identifiers embedded in those payloads.
package events

// Kind discriminates the 17 DDS telemetry event kinds. The zero value is
// never a valid wire event.
type Kind uint8

const (
	KindInvalid Kind = iota
	History2HistoryLatency
	NetworkLatency
	PublicationThroughput
	SubscriptionThroughput
	RtpsSent
	RtpsLost
	ResentDatas
	HeartbeatCount
	GapCount
	DataCount
	AcknackCount
	NackfragCount
	PdpPackets
	EdpPackets
	DiscoveredEntity
	SampleDatas
	PhysicalData
)

func (k Kind) String() string {
	switch k {
	case History2HistoryLatency:
		return "HISTORY2HISTORY_LATENCY"
	case NetworkLatency:
		return "NETWORK_LATENCY"
	case PublicationThroughput:
		return "PUBLICATION_THROUGHPUT"
	case SubscriptionThroughput:
		return "SUBSCRIPTION_THROUGHPUT"
	case RtpsSent:
		return "RTPS_SENT"
	case RtpsLost:
		return "RTPS_LOST"
	case ResentDatas:
		return "RESENT_DATAS"
	case HeartbeatCount:
		return "HEARTBEAT_COUNT"
	case GapCount:
		return "GAP_COUNT"
	case DataCount:
		return "DATA_COUNT"
	case AcknackCount:
		return "ACKNACK_COUNT"
	case NackfragCount:
		return "NACKFRAG_COUNT"
	case PdpPackets:
		return "PDP_PACKETS"
	case EdpPackets:
		return "EDP_PACKETS"
	case DiscoveredEntity:
		return "DISCOVERED_ENTITY"
	case SampleDatas:
		return "SAMPLE_DATAS"
	case PhysicalData:
		return "PHYSICAL_DATA"
	default:
		return "INVALID"
	}
}

// WriterReaderData is the payload for HISTORY2HISTORY_LATENCY.
type WriterReaderData struct {
	WriterGuid [16]byte
	ReaderGuid [16]byte
	Data       float32
}

// Locator2LocatorData is the payload for NETWORK_LATENCY.
type Locator2LocatorData struct {
	SrcLocator [28]byte
	DstLocator [28]byte
	Data       float32
}

// EntityData is the payload for PUBLICATION_THROUGHPUT / SUBSCRIPTION_THROUGHPUT.
type EntityData struct {
	Guid [16]byte
	Data float32
}

// Entity2LocatorTraffic is the payload for RTPS_SENT / RTPS_LOST.
type Entity2LocatorTraffic struct {
	SrcGuid            [16]byte
	DstLocator         [28]byte
	PacketCount        uint64
	ByteCount          uint64
	ByteMagnitudeOrder int16
}

// EntityCount is the payload for RESENT_DATAS, HEARTBEAT_COUNT, GAP_COUNT,
// DATA_COUNT, ACKNACK_COUNT, NACKFRAG_COUNT, PDP_PACKETS, EDP_PACKETS.
type EntityCount struct {
	Guid  [16]byte
	Count uint64
}

// DiscoveryTime is the payload for DISCOVERED_ENTITY.
type DiscoveryTime struct {
	LocalParticipantGuid [16]byte
	RemoteEntityGuid     [16]byte
	Time                 int64
}

// SampleIdentityCount is the payload for SAMPLE_DATAS.
type SampleIdentityCount struct {
	WriterGuid [16]byte
	Seq        uint64
	Count      uint64
}

// PhysicalData is the payload for PHYSICAL_DATA, the one event that may
// create topology rather than merely reference it.
type PhysicalData struct {
	ParticipantGuid [16]byte
	Host            string
	User            string
	// Process is "cmd:pid", split at the last ':' by the resolver.
	Process string
}

// DdsEvent is the tagged sum over all 17 event kinds. Payload holds the
// payload type that Kind selects. It is stored as `any` rather than one
// optional field per payload type because the resolver always switches on
// Kind before touching it; there is no ambiguity at the call site.
type DdsEvent struct {
	Kind    Kind
	SrcTs   int64
	Payload any
}
