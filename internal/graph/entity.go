// Package graph implements the in-process entity graph: a cross-indexed,
// in-memory inventory of the DDS fleet (hosts, users, processes, domains,
// topics, participants, endpoints, locators) carrying per-entity aggregated
// time-series sample buckets.
//
// The graph owns every entity in a single primary table; all cross-entity
// relations are stored as EntityId values resolved back through that table,
// never as raw pointers, so there is no reference cycle to leak.
package graph

// EntityId is an opaque, monotonically increasing identifier issued by the
// graph on insert. It is never reused. The zero value is reserved for
// "invalid" / "no entity".
type EntityId uint64

// InvalidEntityId is the sentinel reserved id, never issued by Insert.
const InvalidEntityId EntityId = 0

// EntityKind tags which variant of Entity a given id denotes.
type EntityKind uint8

const (
	KindInvalid EntityKind = iota
	KindHost
	KindUser
	KindProcess
	KindDomain
	KindTopic
	KindParticipant
	KindDataReader
	KindDataWriter
	KindLocator
)

func (k EntityKind) String() string {
	switch k {
	case KindHost:
		return "HOST"
	case KindUser:
		return "USER"
	case KindProcess:
		return "PROCESS"
	case KindDomain:
		return "DOMAIN"
	case KindTopic:
		return "TOPIC"
	case KindParticipant:
		return "PARTICIPANT"
	case KindDataReader:
		return "DATAREADER"
	case KindDataWriter:
		return "DATAWRITER"
	case KindLocator:
		return "LOCATOR"
	default:
		return "INVALID"
	}
}

// Entity is the single discriminated node type of the graph: common fields
// plus a kind-tagged payload. There is no inheritance hierarchy; every
// entity, regardless of kind, is one of these structs.
type Entity struct {
	Id    EntityId
	Kind  EntityKind
	Name  string
	Alias string

	Payload EntityPayload
}

// EntityPayload is the per-kind variant data: relations (as EntityId values)
// and, for DDS entities, the aggregated sample buckets.
type EntityPayload interface {
	entityKind() EntityKind
}

// HostPayload is the payload for KindHost.
type HostPayload struct {
	Users []EntityId
}

func (HostPayload) entityKind() EntityKind { return KindHost }

// UserPayload is the payload for KindUser.
type UserPayload struct {
	Host      EntityId
	Processes []EntityId
}

func (UserPayload) entityKind() EntityKind { return KindUser }

// ProcessPayload is the payload for KindProcess.
type ProcessPayload struct {
	Pid          string
	User         EntityId
	Participants []EntityId
	// Domains is the additive M:N side of domains_by_process /
	// processes_by_domain, populated by LinkParticipantWithProcess.
	Domains []EntityId
}

func (ProcessPayload) entityKind() EntityKind { return KindProcess }

// DomainPayload is the payload for KindDomain.
type DomainPayload struct {
	Topics       []EntityId
	Participants []EntityId
	// Processes is the additive M:N side of processes_by_domain.
	Processes []EntityId
}

func (DomainPayload) entityKind() EntityKind { return KindDomain }

// TopicPayload is the payload for KindTopic.
type TopicPayload struct {
	DataType string
	Domain   EntityId
	Readers  []EntityId
	Writers  []EntityId
}

func (TopicPayload) entityKind() EntityKind { return KindTopic }

// ParticipantPayload is the payload for KindParticipant.
type ParticipantPayload struct {
	Guid      string
	Qos       string
	Process   EntityId
	Domain    EntityId
	Readers   []EntityId
	Writers   []EntityId
	Locators  []EntityId
	Data      ParticipantData
}

func (ParticipantPayload) entityKind() EntityKind { return KindParticipant }

// DataReaderPayload is the payload for KindDataReader.
type DataReaderPayload struct {
	Guid        string
	Qos         string
	Participant EntityId
	Topic       EntityId
	Locators    []EntityId
	Data        DataReaderData
}

func (DataReaderPayload) entityKind() EntityKind { return KindDataReader }

// DataWriterPayload is the payload for KindDataWriter.
type DataWriterPayload struct {
	Guid        string
	Qos         string
	Participant EntityId
	Topic       EntityId
	Locators    []EntityId
	Data        DataWriterData
}

func (DataWriterPayload) entityKind() EntityKind { return KindDataWriter }

// LocatorPayload is the payload for KindLocator.
type LocatorPayload struct {
	Participants []EntityId
	Readers      []EntityId
	Writers      []EntityId
}

func (LocatorPayload) entityKind() EntityKind { return KindLocator }

// removeId returns ids with the first occurrence of v removed.
func removeId(ids []EntityId, v EntityId) []EntityId {
	for i, id := range ids {
		if id == v {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// containsId reports whether v is present in ids.
func containsId(ids []EntityId, v EntityId) bool {
	for _, id := range ids {
		if id == v {
			return true
		}
	}
	return false
}

// appendIdUnique appends v to ids only if not already present.
func appendIdUnique(ids []EntityId, v EntityId) []EntityId {
	if containsId(ids, v) {
		return ids
	}
	return append(ids, v)
}
