package graph

import (
	"fmt"
	"sync"

	"github.com/arc-self/dds-statsbackend/internal/events"
)

// NoDomain is the sentinel "no domain" domain id returned by lookups for
// entity kinds that aren't domain-scoped (Host, User, Process, Domain,
// Locator).
const NoDomain EntityId = InvalidEntityId

// DomainEntityId pairs an entity id with the domain it was found under, or
// NoDomain if the kind isn't domain-scoped.
type DomainEntityId struct {
	DomainId EntityId
	EntityId EntityId
}

// topicKey disambiguates topics sharing a name within one domain.
type topicKey struct {
	domain   EntityId
	name     string
	dataType string
}

// Graph is the in-memory, cross-indexed entity graph. The zero value is not
// usable; construct with New. All exported methods are safe for concurrent
// use: mutations take the write lock, lookups the read lock.
type Graph struct {
	mu sync.RWMutex

	nextID   EntityId
	entities map[EntityId]*Entity

	hostsByName     map[string]EntityId
	usersByName     map[string][]EntityId
	processesByName map[string][]EntityId
	domainsByName   map[string]EntityId
	topicsByName    map[topicKey]EntityId
	locatorsByName  map[string]EntityId

	participantsByGuid map[string]EntityId
	readersByGuid      map[string]EntityId
	writersByGuid      map[string]EntityId

	locatorsByParticipant map[EntityId][]EntityId
	participantsByLocator map[EntityId][]EntityId
	domainsByProcess      map[EntityId][]EntityId
	processesByDomain     map[EntityId][]EntityId
}

// New returns an empty graph ready to accept inserts. The first id issued is
// 1; 0 is reserved (InvalidEntityId).
func New() *Graph {
	return &Graph{
		nextID:                1,
		entities:              make(map[EntityId]*Entity),
		hostsByName:           make(map[string]EntityId),
		usersByName:           make(map[string][]EntityId),
		processesByName:       make(map[string][]EntityId),
		domainsByName:         make(map[string]EntityId),
		topicsByName:          make(map[topicKey]EntityId),
		locatorsByName:        make(map[string]EntityId),
		participantsByGuid:    make(map[string]EntityId),
		readersByGuid:         make(map[string]EntityId),
		writersByGuid:         make(map[string]EntityId),
		locatorsByParticipant: make(map[EntityId][]EntityId),
		participantsByLocator: make(map[EntityId][]EntityId),
		domainsByProcess:      make(map[EntityId][]EntityId),
		processesByDomain:     make(map[EntityId][]EntityId),
	}
}

// NextID reports the id that would be issued by the next insert. Used by
// persistence to restore issuance state on load.
func (g *Graph) NextID() EntityId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nextID
}

func (g *Graph) allocID() EntityId {
	id := g.nextID
	g.nextID++
	return id
}

// getLocked returns the entity for id, assuming the lock is already held.
func (g *Graph) getLocked(id EntityId) (*Entity, error) {
	e, ok := g.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: entity %d", ErrNotFound, id)
	}
	return e, nil
}

// GetEntity returns a snapshot copy of the entity for id. Slices within the
// returned Payload alias the graph's own backing arrays and must be treated
// as read-only by the caller.
func (g *Graph) GetEntity(id EntityId) (Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, err := g.getLocked(id)
	if err != nil {
		return Entity{}, err
	}
	return *e, nil
}

// SetAlias updates the user-editable alias of an entity. Supplements the
// operation implied, but not tabulated, by the alias field itself.
func (g *Graph) SetAlias(id EntityId, alias string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, err := g.getLocked(id)
	if err != nil {
		return err
	}
	e.Alias = alias
	return nil
}

// GetEntitiesByGuid returns every entity of the given kind keyed by guid.
// Guids are globally unique among DDS entities of a kind, so the result has
// at most one element; the list shape accommodates future disambiguation.
func (g *Graph) GetEntitiesByGuid(kind EntityKind, guid string) []DomainEntityId {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var idx map[string]EntityId
	switch kind {
	case KindParticipant:
		idx = g.participantsByGuid
	case KindDataReader:
		idx = g.readersByGuid
	case KindDataWriter:
		idx = g.writersByGuid
	default:
		return nil
	}

	id, ok := idx[guid]
	if !ok {
		return nil
	}
	return []DomainEntityId{{DomainId: g.domainOfLocked(id), EntityId: id}}
}

// domainOfLocked returns the domain id an entity belongs to, or NoDomain.
func (g *Graph) domainOfLocked(id EntityId) EntityId {
	e, ok := g.entities[id]
	if !ok {
		return NoDomain
	}
	switch p := e.Payload.(type) {
	case TopicPayload:
		return p.Domain
	case ParticipantPayload:
		return p.Domain
	case DataReaderPayload:
		if participant, ok := g.entities[p.Participant]; ok {
			if pp, ok := participant.Payload.(ParticipantPayload); ok {
				return pp.Domain
			}
		}
	case DataWriterPayload:
		if participant, ok := g.entities[p.Participant]; ok {
			if pp, ok := participant.Payload.(ParticipantPayload); ok {
				return pp.Domain
			}
		}
	}
	return NoDomain
}

// GetEntitiesByName returns every entity of the given kind with the given
// name, each paired with its owning domain (NoDomain if the kind isn't
// domain-scoped).
func (g *Graph) GetEntitiesByName(kind EntityKind, name string) []DomainEntityId {
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch kind {
	case KindHost:
		if id, ok := g.hostsByName[name]; ok {
			return []DomainEntityId{{DomainId: NoDomain, EntityId: id}}
		}
		return nil
	case KindDomain:
		if id, ok := g.domainsByName[name]; ok {
			return []DomainEntityId{{DomainId: NoDomain, EntityId: id}}
		}
		return nil
	case KindLocator:
		if id, ok := g.locatorsByName[name]; ok {
			return []DomainEntityId{{DomainId: NoDomain, EntityId: id}}
		}
		return nil
	case KindUser:
		return g.wrapNoDomain(g.usersByName[name])
	case KindProcess:
		return g.wrapNoDomain(g.processesByName[name])
	case KindTopic:
		var out []DomainEntityId
		for k, id := range g.topicsByName {
			if k.name == name {
				out = append(out, DomainEntityId{DomainId: k.domain, EntityId: id})
			}
		}
		return out
	default:
		return nil
	}
}

// ParticipantsByLocator returns the participants that advertise locatorID
// among their own locators. Used by the resolver to find the local
// participant owning a src_locator for NETWORK_LATENCY, since that event's
// payload carries no guid.
func (g *Graph) ParticipantsByLocator(locatorID EntityId) []EntityId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyIds(g.participantsByLocator[locatorID])
}

func (g *Graph) wrapNoDomain(ids []EntityId) []DomainEntityId {
	if len(ids) == 0 {
		return nil
	}
	out := make([]DomainEntityId, len(ids))
	for i, id := range ids {
		out[i] = DomainEntityId{DomainId: NoDomain, EntityId: id}
	}
	return out
}

// InsertHost inserts a new Host, unique globally by name.
func (g *Graph) InsertHost(name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.hostsByName[name]; exists {
		return InvalidEntityId, fmt.Errorf("%w: host %q", ErrDuplicate, name)
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindHost, Name: name, Alias: name, Payload: HostPayload{}}
	g.hostsByName[name] = id
	return id, nil
}

// InsertUser inserts a new User scoped to host, unique by (host, name).
func (g *Graph) InsertUser(host EntityId, name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	hostEntity, err := g.getLocked(host)
	if err != nil || hostEntity.Kind != KindHost {
		return InvalidEntityId, fmt.Errorf("%w: host %d", ErrBadParameter, host)
	}
	for _, id := range g.usersByName[name] {
		if u, ok := g.entities[id].Payload.(UserPayload); ok && u.Host == host {
			return InvalidEntityId, fmt.Errorf("%w: user %q on host %d", ErrDuplicate, name, host)
		}
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindUser, Name: name, Alias: name, Payload: UserPayload{Host: host}}
	g.usersByName[name] = append(g.usersByName[name], id)

	hp := hostEntity.Payload.(HostPayload)
	hp.Users = appendIdUnique(hp.Users, id)
	hostEntity.Payload = hp
	return id, nil
}

// InsertProcess inserts a new Process scoped to user, unique by (user, name).
func (g *Graph) InsertProcess(user EntityId, name, pid string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	userEntity, err := g.getLocked(user)
	if err != nil || userEntity.Kind != KindUser {
		return InvalidEntityId, fmt.Errorf("%w: user %d", ErrBadParameter, user)
	}
	for _, id := range g.processesByName[name] {
		if p, ok := g.entities[id].Payload.(ProcessPayload); ok && p.User == user {
			return InvalidEntityId, fmt.Errorf("%w: process %q on user %d", ErrDuplicate, name, user)
		}
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindProcess, Name: name, Alias: name, Payload: ProcessPayload{Pid: pid, User: user}}
	g.processesByName[name] = append(g.processesByName[name], id)

	up := userEntity.Payload.(UserPayload)
	up.Processes = appendIdUnique(up.Processes, id)
	userEntity.Payload = up
	return id, nil
}

// InsertDomain inserts a new Domain, unique globally by name.
func (g *Graph) InsertDomain(name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.domainsByName[name]; exists {
		return InvalidEntityId, fmt.Errorf("%w: domain %q", ErrDuplicate, name)
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindDomain, Name: name, Alias: name, Payload: DomainPayload{}}
	g.domainsByName[name] = id
	return id, nil
}

// InsertTopic inserts a new Topic scoped to domain, unique by
// (domain, name, dataType).
func (g *Graph) InsertTopic(domain EntityId, name, dataType string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	domainEntity, err := g.getLocked(domain)
	if err != nil || domainEntity.Kind != KindDomain {
		return InvalidEntityId, fmt.Errorf("%w: domain %d", ErrBadParameter, domain)
	}
	key := topicKey{domain: domain, name: name, dataType: dataType}
	if _, exists := g.topicsByName[key]; exists {
		return InvalidEntityId, fmt.Errorf("%w: topic %q/%q in domain %d", ErrDuplicate, name, dataType, domain)
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindTopic, Name: name, Alias: name, Payload: TopicPayload{DataType: dataType, Domain: domain}}
	g.topicsByName[key] = id

	dp := domainEntity.Payload.(DomainPayload)
	dp.Topics = appendIdUnique(dp.Topics, id)
	domainEntity.Payload = dp
	return id, nil
}

// InsertLocator inserts a new Locator, unique globally by name.
func (g *Graph) InsertLocator(name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.locatorsByName[name]; exists {
		return InvalidEntityId, fmt.Errorf("%w: locator %q", ErrDuplicate, name)
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindLocator, Name: name, Alias: name, Payload: LocatorPayload{}}
	g.locatorsByName[name] = id
	return id, nil
}

// InsertParticipant inserts a new Participant, unique globally by guid.
// locators must already exist (invariant 4: no dangling references).
func (g *Graph) InsertParticipant(domain EntityId, guid, qos string, locators []EntityId) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	domainEntity, err := g.getLocked(domain)
	if err != nil || domainEntity.Kind != KindDomain {
		return InvalidEntityId, fmt.Errorf("%w: domain %d", ErrBadParameter, domain)
	}
	if _, exists := g.participantsByGuid[guid]; exists {
		return InvalidEntityId, fmt.Errorf("%w: participant guid %q", ErrDuplicate, guid)
	}
	locatorEntities, err := g.resolveLocatorsLocked(locators)
	if err != nil {
		return InvalidEntityId, err
	}

	id := g.allocID()
	g.entities[id] = &Entity{
		Id: id, Kind: KindParticipant, Name: guid, Alias: guid,
		Payload: ParticipantPayload{Guid: guid, Qos: qos, Domain: domain, Locators: append([]EntityId(nil), locators...), Data: newParticipantData()},
	}
	g.participantsByGuid[guid] = id

	dp := domainEntity.Payload.(DomainPayload)
	dp.Participants = appendIdUnique(dp.Participants, id)
	domainEntity.Payload = dp

	g.linkParticipantLocatorsLocked(id, locatorEntities)
	return id, nil
}

// InsertDataReader inserts a new DataReader, unique globally by guid.
func (g *Graph) InsertDataReader(participant, topic EntityId, guid, qos string, locators []EntityId) (EntityId, error) {
	return g.insertEndpoint(KindDataReader, participant, topic, guid, qos, locators)
}

// InsertDataWriter inserts a new DataWriter, unique globally by guid.
func (g *Graph) InsertDataWriter(participant, topic EntityId, guid, qos string, locators []EntityId) (EntityId, error) {
	return g.insertEndpoint(KindDataWriter, participant, topic, guid, qos, locators)
}

func (g *Graph) insertEndpoint(kind EntityKind, participant, topic EntityId, guid, qos string, locators []EntityId) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	participantEntity, err := g.getLocked(participant)
	if err != nil || participantEntity.Kind != KindParticipant {
		return InvalidEntityId, fmt.Errorf("%w: participant %d", ErrBadParameter, participant)
	}
	topicEntity, err := g.getLocked(topic)
	if err != nil || topicEntity.Kind != KindTopic {
		return InvalidEntityId, fmt.Errorf("%w: topic %d", ErrBadParameter, topic)
	}

	guidIdx := g.readersByGuid
	if kind == KindDataWriter {
		guidIdx = g.writersByGuid
	}
	if _, exists := guidIdx[guid]; exists {
		return InvalidEntityId, fmt.Errorf("%w: %s guid %q", ErrDuplicate, kind, guid)
	}

	locatorEntities, err := g.resolveLocatorsLocked(locators)
	if err != nil {
		return InvalidEntityId, err
	}

	id := g.allocID()
	locatorsCopy := append([]EntityId(nil), locators...)
	switch kind {
	case KindDataReader:
		g.entities[id] = &Entity{Id: id, Kind: kind, Name: guid, Alias: guid, Payload: DataReaderPayload{Guid: guid, Qos: qos, Participant: participant, Topic: topic, Locators: locatorsCopy}}
		g.readersByGuid[guid] = id
		pp := participantEntity.Payload.(ParticipantPayload)
		pp.Readers = appendIdUnique(pp.Readers, id)
		participantEntity.Payload = pp
		tp := topicEntity.Payload.(TopicPayload)
		tp.Readers = appendIdUnique(tp.Readers, id)
		topicEntity.Payload = tp
		g.linkEndpointLocatorsLocked(id, locatorEntities, false)
	case KindDataWriter:
		g.entities[id] = &Entity{Id: id, Kind: kind, Name: guid, Alias: guid, Payload: DataWriterPayload{Guid: guid, Qos: qos, Participant: participant, Topic: topic, Locators: locatorsCopy, Data: newDataWriterData()}}
		g.writersByGuid[guid] = id
		pp := participantEntity.Payload.(ParticipantPayload)
		pp.Writers = appendIdUnique(pp.Writers, id)
		participantEntity.Payload = pp
		tp := topicEntity.Payload.(TopicPayload)
		tp.Writers = appendIdUnique(tp.Writers, id)
		topicEntity.Payload = tp
		g.linkEndpointLocatorsLocked(id, locatorEntities, true)
	}
	return id, nil
}

func (g *Graph) resolveLocatorsLocked(locators []EntityId) ([]*Entity, error) {
	out := make([]*Entity, 0, len(locators))
	for _, lid := range locators {
		le, ok := g.entities[lid]
		if !ok || le.Kind != KindLocator {
			return nil, fmt.Errorf("%w: locator %d", ErrNotFound, lid)
		}
		out = append(out, le)
	}
	return out, nil
}

func (g *Graph) linkParticipantLocatorsLocked(participantID EntityId, locators []*Entity) {
	for _, le := range locators {
		lp := le.Payload.(LocatorPayload)
		lp.Participants = appendIdUnique(lp.Participants, participantID)
		le.Payload = lp
		g.participantsByLocator[le.Id] = appendIdUnique(g.participantsByLocator[le.Id], participantID)
		g.locatorsByParticipant[participantID] = appendIdUnique(g.locatorsByParticipant[participantID], le.Id)
	}
}

func (g *Graph) linkEndpointLocatorsLocked(endpointID EntityId, locators []*Entity, isWriter bool) {
	for _, le := range locators {
		lp := le.Payload.(LocatorPayload)
		if isWriter {
			lp.Writers = appendIdUnique(lp.Writers, endpointID)
		} else {
			lp.Readers = appendIdUnique(lp.Readers, endpointID)
		}
		le.Payload = lp
	}
}

// LinkParticipantWithProcess establishes the Process<->Domain M:N link
// through a participant. Idempotent: calling it twice with the same
// (participant, process) pair, or a participant whose process hasn't
// changed, leaves domains_by_process/processes_by_domain unchanged beyond
// the first call. Re-linking a participant to a different process is
// last-writer-wins: the participant's recorded process is overwritten, but
// the domain association already recorded for the old process is never
// retracted (see SPEC_FULL.md, Open Question resolution 1, for the
// reasoning).
func (g *Graph) LinkParticipantWithProcess(participantID, processID EntityId) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	participantEntity, err := g.getLocked(participantID)
	if err != nil || participantEntity.Kind != KindParticipant {
		return fmt.Errorf("%w: participant %d", ErrBadParameter, participantID)
	}
	processEntity, err := g.getLocked(processID)
	if err != nil || processEntity.Kind != KindProcess {
		return fmt.Errorf("%w: process %d", ErrBadParameter, processID)
	}

	pp := participantEntity.Payload.(ParticipantPayload)
	domainID := pp.Domain

	if oldProcess := pp.Process; oldProcess != processID {
		if oldProcess != InvalidEntityId {
			if oldEntity, ok := g.entities[oldProcess]; ok {
				if oldPayload, ok := oldEntity.Payload.(ProcessPayload); ok {
					oldPayload.Participants = removeId(oldPayload.Participants, participantID)
					oldEntity.Payload = oldPayload
				}
			}
		}
		pp.Process = processID
		participantEntity.Payload = pp

		procPayload := processEntity.Payload.(ProcessPayload)
		procPayload.Participants = appendIdUnique(procPayload.Participants, participantID)
		processEntity.Payload = procPayload
	}

	procPayload := processEntity.Payload.(ProcessPayload)
	if !containsId(procPayload.Domains, domainID) {
		procPayload.Domains = append(procPayload.Domains, domainID)
		processEntity.Payload = procPayload
	}
	if domainEntity, ok := g.entities[domainID]; ok {
		if dp, ok := domainEntity.Payload.(DomainPayload); ok && !containsId(dp.Processes, processID) {
			dp.Processes = append(dp.Processes, processID)
			domainEntity.Payload = dp
		}
	}
	g.domainsByProcess[processID] = appendIdUnique(g.domainsByProcess[processID], domainID)
	g.processesByDomain[domainID] = appendIdUnique(g.processesByDomain[domainID], processID)
	return nil
}

// FindOrCreateHost returns the id of the Host named name, creating it if
// absent.
func (g *Graph) FindOrCreateHost(name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.hostsByName[name]; ok {
		return id, nil
	}
	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindHost, Name: name, Alias: name, Payload: HostPayload{}}
	g.hostsByName[name] = id
	return id, nil
}

// FindOrCreateUser returns the id of the User named name scoped to host,
// creating it if absent.
func (g *Graph) FindOrCreateUser(host EntityId, name string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	hostEntity, err := g.getLocked(host)
	if err != nil || hostEntity.Kind != KindHost {
		return InvalidEntityId, fmt.Errorf("%w: host %d", ErrBadParameter, host)
	}
	for _, id := range g.usersByName[name] {
		if u, ok := g.entities[id].Payload.(UserPayload); ok && u.Host == host {
			return id, nil
		}
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindUser, Name: name, Alias: name, Payload: UserPayload{Host: host}}
	g.usersByName[name] = append(g.usersByName[name], id)
	hp := hostEntity.Payload.(HostPayload)
	hp.Users = appendIdUnique(hp.Users, id)
	hostEntity.Payload = hp
	return id, nil
}

// FindOrCreateProcess returns the id of the Process named name scoped to
// user, creating it if absent. pid is recorded only on first sighting, per
// the PHYSICAL_DATA handling contract; a later sighting with a different
// pid does not overwrite it.
func (g *Graph) FindOrCreateProcess(user EntityId, name, pid string) (EntityId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	userEntity, err := g.getLocked(user)
	if err != nil || userEntity.Kind != KindUser {
		return InvalidEntityId, fmt.Errorf("%w: user %d", ErrBadParameter, user)
	}
	for _, id := range g.processesByName[name] {
		if p, ok := g.entities[id].Payload.(ProcessPayload); ok && p.User == user {
			return id, nil
		}
	}

	id := g.allocID()
	g.entities[id] = &Entity{Id: id, Kind: KindProcess, Name: name, Alias: name, Payload: ProcessPayload{Pid: pid, User: user}}
	g.processesByName[name] = append(g.processesByName[name], id)
	up := userEntity.Payload.(UserPayload)
	up.Processes = appendIdUnique(up.Processes, id)
	userEntity.Payload = up
	return id, nil
}

// InsertSample appends a typed sample to the bucket selected by kind onto
// entityID, failing if the entity is absent or its kind doesn't match the
// event's target kind (invariant 5). RTPS_SENT/RTPS_LOST are rejected here:
// they commit two samples atomically and must go through InsertRtpsSentPair
// or InsertRtpsLostPair.
func (g *Graph) InsertSample(entityID EntityId, kind events.Kind, ts int64, sample Sample) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.getLocked(entityID)
	if err != nil {
		return err
	}
	return commitSampleLocked(e, kind, ts, sample)
}

func commitSampleLocked(e *Entity, kind events.Kind, ts int64, sample Sample) error {
	switch kind {
	case events.PublicationThroughput:
		return withWriter(e, func(dw *DataWriterPayload) error {
			s, ok := sample.(EntityDataSample)
			if !ok {
				return fmt.Errorf("%w: publication_throughput wants EntityDataSample", ErrBadParameter)
			}
			dw.Data.PublicationThroughput.append(ts, s.Data)
			return nil
		})
	case events.SubscriptionThroughput:
		return withReader(e, func(dr *DataReaderPayload) error {
			s, ok := sample.(EntityDataSample)
			if !ok {
				return fmt.Errorf("%w: subscription_throughput wants EntityDataSample", ErrBadParameter)
			}
			dr.Data.SubscriptionThroughput.append(ts, s.Data)
			return nil
		})
	case events.History2HistoryLatency:
		return withWriter(e, func(dw *DataWriterPayload) error {
			s, ok := sample.(HistoryLatencySample)
			if !ok {
				return fmt.Errorf("%w: history2history_latency wants HistoryLatencySample", ErrBadParameter)
			}
			series := dw.Data.History2HistoryLatency[s.Reader]
			series.append(ts, s.Data)
			dw.Data.History2HistoryLatency[s.Reader] = series
			return nil
		})
	case events.NetworkLatency:
		return withParticipant(e, func(p *ParticipantPayload) error {
			s, ok := sample.(NetworkLatencySample)
			if !ok {
				return fmt.Errorf("%w: network_latency wants NetworkLatencySample", ErrBadParameter)
			}
			series := p.Data.NetworkLatencyPerLocator[s.RemoteLocator]
			series.append(ts, s.Data)
			p.Data.NetworkLatencyPerLocator[s.RemoteLocator] = series
			return nil
		})
	case events.ResentDatas:
		return withWriter(e, func(dw *DataWriterPayload) error { return commitCount(sample, &dw.Data.ResentDatas, ts) })
	case events.HeartbeatCount:
		return withWriter(e, func(dw *DataWriterPayload) error { return commitCount(sample, &dw.Data.HeartbeatCount, ts) })
	case events.GapCount:
		return withWriter(e, func(dw *DataWriterPayload) error { return commitCount(sample, &dw.Data.GapCount, ts) })
	case events.DataCount:
		return withWriter(e, func(dw *DataWriterPayload) error { return commitCount(sample, &dw.Data.DataCount, ts) })
	case events.AcknackCount:
		return withReader(e, func(dr *DataReaderPayload) error { return commitCount(sample, &dr.Data.AcknackCount, ts) })
	case events.NackfragCount:
		return withReader(e, func(dr *DataReaderPayload) error { return commitCount(sample, &dr.Data.NackfragCount, ts) })
	case events.PdpPackets:
		return withParticipant(e, func(p *ParticipantPayload) error { return commitCount(sample, &p.Data.PdpPackets, ts) })
	case events.EdpPackets:
		return withParticipant(e, func(p *ParticipantPayload) error { return commitCount(sample, &p.Data.EdpPackets, ts) })
	case events.DiscoveredEntity:
		return withParticipant(e, func(p *ParticipantPayload) error {
			s, ok := sample.(DiscoverySample)
			if !ok {
				return fmt.Errorf("%w: discovered_entity wants DiscoverySample", ErrBadParameter)
			}
			p.Data.DiscoveredEntity[s.RemoteEntity] = append(p.Data.DiscoveredEntity[s.RemoteEntity], DiscoveryTimeSample{SrcTs: ts, Time: s.Time, RemoteEntity: s.RemoteEntity})
			return nil
		})
	case events.SampleDatas:
		return withWriter(e, func(dw *DataWriterPayload) error {
			s, ok := sample.(SampleDatasCountSample)
			if !ok {
				return fmt.Errorf("%w: sample_datas wants SampleDatasCountSample", ErrBadParameter)
			}
			cs := dw.Data.SampleDatas[s.Seq]
			if cs == nil {
				cs = &CounterSeries{}
				dw.Data.SampleDatas[s.Seq] = cs
			}
			cs.append(ts, s.Count)
			return nil
		})
	default:
		return fmt.Errorf("%w: unsupported sample kind %s", ErrBadParameter, kind)
	}
}

func commitCount(sample Sample, target *CounterSeries, ts int64) error {
	s, ok := sample.(EntityCountSample)
	if !ok {
		return fmt.Errorf("%w: wants EntityCountSample", ErrBadParameter)
	}
	target.append(ts, s.Count)
	return nil
}

func withWriter(e *Entity, fn func(*DataWriterPayload) error) error {
	if e.Kind != KindDataWriter {
		return fmt.Errorf("%w: entity %d is %s, want DATAWRITER", ErrBadParameter, e.Id, e.Kind)
	}
	dw := e.Payload.(DataWriterPayload)
	if err := fn(&dw); err != nil {
		return err
	}
	e.Payload = dw
	return nil
}

func withReader(e *Entity, fn func(*DataReaderPayload) error) error {
	if e.Kind != KindDataReader {
		return fmt.Errorf("%w: entity %d is %s, want DATAREADER", ErrBadParameter, e.Id, e.Kind)
	}
	dr := e.Payload.(DataReaderPayload)
	if err := fn(&dr); err != nil {
		return err
	}
	e.Payload = dr
	return nil
}

func withParticipant(e *Entity, fn func(*ParticipantPayload) error) error {
	if e.Kind != KindParticipant {
		return fmt.Errorf("%w: entity %d is %s, want PARTICIPANT", ErrBadParameter, e.Id, e.Kind)
	}
	p := e.Payload.(ParticipantPayload)
	if err := fn(&p); err != nil {
		return err
	}
	e.Payload = p
	return nil
}

// InsertRtpsSentPair commits the two samples an RTPS_SENT event produces
// (packets + bytes) atomically onto the target DataWriter: either both are
// committed or neither is, and the graph is left unchanged on failure
// (resolver atomicity).
func (g *Graph) InsertRtpsSentPair(entityID EntityId, ts int64, packets RtpsPacketsSentSample, bytes RtpsBytesSentSample) error {
	return g.insertRtpsPair(entityID, ts, packets.RemoteLocator, packets.Count, bytes.Count, bytes.MagnitudeOrder, false)
}

// InsertRtpsLostPair is InsertRtpsSentPair's RTPS_LOST counterpart.
func (g *Graph) InsertRtpsLostPair(entityID EntityId, ts int64, packets RtpsPacketsLostSample, bytes RtpsBytesLostSample) error {
	return g.insertRtpsPair(entityID, ts, packets.RemoteLocator, packets.Count, bytes.Count, bytes.MagnitudeOrder, true)
}

func (g *Graph) insertRtpsPair(entityID EntityId, ts int64, remoteLocator EntityId, packetCount, byteCount uint64, byteMagnitudeOrder int16, lost bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, err := g.getLocked(entityID)
	if err != nil {
		return err
	}
	if e.Kind != KindDataWriter {
		return fmt.Errorf("%w: entity %d is %s, want DATAWRITER", ErrBadParameter, entityID, e.Kind)
	}
	dw := e.Payload.(DataWriterPayload)

	packetsIdx, bytesIdx := dw.Data.RtpsPacketsSent, dw.Data.RtpsBytesSent
	if lost {
		packetsIdx, bytesIdx = dw.Data.RtpsPacketsLost, dw.Data.RtpsBytesLost
	}

	packets := packetsIdx[remoteLocator]
	if packets == nil {
		packets = &CounterSeries{}
		packetsIdx[remoteLocator] = packets
	}
	bytesSeries := bytesIdx[remoteLocator]
	if bytesSeries == nil {
		bytesSeries = &ByteCounterSeries{}
		bytesIdx[remoteLocator] = bytesSeries
	}

	packets.append(ts, packetCount)
	bytesSeries.append(ts, ByteSample{Count: byteCount, MagnitudeOrder: byteMagnitudeOrder})

	e.Payload = dw
	return nil
}
