package graph

// Snapshot is the full serializable image of the graph: every entity
// section, the cross-index sections, and next_id. Map keys are EntityId;
// encoding/json renders integer map keys as their decimal string form and
// sorts them lexicographically, which is exactly the canonical ordering the
// round-trip contract (dump(load(dump(G))) == dump(G)) requires.
type Snapshot struct {
	Hosts        map[EntityId]hostSnap        `json:"hosts"`
	Users        map[EntityId]userSnap        `json:"users"`
	Processes    map[EntityId]processSnap     `json:"processes"`
	Domains      map[EntityId]domainSnap      `json:"domains"`
	Topics       map[EntityId]topicSnap       `json:"topics"`
	Participants map[EntityId]participantSnap `json:"participants"`
	DataReaders  map[EntityId]dataReaderSnap  `json:"data_readers"`
	DataWriters  map[EntityId]dataWriterSnap  `json:"data_writers"`
	Locators     map[EntityId]locatorSnap     `json:"locators"`

	LocatorsByParticipant map[EntityId][]EntityId `json:"locators_by_participant"`
	ParticipantsByLocator map[EntityId][]EntityId `json:"participants_by_locator"`
	DomainsByProcess      map[EntityId][]EntityId `json:"domains_by_process"`
	ProcessesByDomain     map[EntityId][]EntityId `json:"processes_by_domain"`

	NextId EntityId `json:"next_id"`
}

type tsValue[T any] struct {
	SrcTs int64 `json:"src_ts"`
	Value T     `json:"value"`
}

func seriesToJSON[T any](s Series[T]) []tsValue[T] {
	out := make([]tsValue[T], len(s))
	for i, p := range s {
		out[i] = tsValue[T]{SrcTs: p.SrcTs, Value: p.Value}
	}
	return out
}

func seriesFromJSON[T any](in []tsValue[T]) Series[T] {
	out := make(Series[T], len(in))
	for i, p := range in {
		out[i] = DataPoint[T]{SrcTs: p.SrcTs, Value: p.Value}
	}
	return out
}

type counterSeriesSnap struct {
	Points       []tsValue[uint64] `json:"points"`
	LastReported uint64            `json:"last_reported"`
}

func counterToJSON(c CounterSeries) counterSeriesSnap {
	return counterSeriesSnap{Points: seriesToJSON(c.Points), LastReported: c.LastReported}
}

func counterFromJSON(s counterSeriesSnap) CounterSeries {
	return CounterSeries{Points: seriesFromJSON(s.Points), LastReported: s.LastReported}
}

type byteSampleSnap struct {
	Count          uint64 `json:"count"`
	MagnitudeOrder int16  `json:"magnitude_order"`
}

type byteCounterSeriesSnap struct {
	Points       []tsValue[byteSampleSnap] `json:"points"`
	LastReported uint64                    `json:"last_reported"`
}

func byteCounterToJSON(b ByteCounterSeries) byteCounterSeriesSnap {
	points := make([]tsValue[byteSampleSnap], len(b.Points))
	for i, p := range b.Points {
		points[i] = tsValue[byteSampleSnap]{SrcTs: p.SrcTs, Value: byteSampleSnap{Count: p.Value.Count, MagnitudeOrder: p.Value.MagnitudeOrder}}
	}
	return byteCounterSeriesSnap{Points: points, LastReported: b.LastReported}
}

func byteCounterFromJSON(s byteCounterSeriesSnap) ByteCounterSeries {
	points := make(Series[ByteSample], len(s.Points))
	for i, p := range s.Points {
		points[i] = DataPoint[ByteSample]{SrcTs: p.SrcTs, Value: ByteSample{Count: p.Value.Count, MagnitudeOrder: p.Value.MagnitudeOrder}}
	}
	return ByteCounterSeries{Points: points, LastReported: s.LastReported}
}

type discoveryTimeSnap struct {
	SrcTs        int64    `json:"src_ts"`
	Time         int64    `json:"time"`
	RemoteEntity EntityId `json:"remote_entity"`
}

type hostSnap struct {
	Kind  string     `json:"kind"`
	Name  string     `json:"name"`
	Alias string     `json:"alias"`
	Users []EntityId `json:"users"`
}

type userSnap struct {
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Alias     string     `json:"alias"`
	Host      EntityId   `json:"host"`
	Processes []EntityId `json:"processes"`
}

type processSnap struct {
	Kind         string     `json:"kind"`
	Name         string     `json:"name"`
	Alias        string     `json:"alias"`
	Pid          string     `json:"pid"`
	User         EntityId   `json:"user"`
	Participants []EntityId `json:"participants"`
	Domains      []EntityId `json:"domains"`
}

type domainSnap struct {
	Kind         string     `json:"kind"`
	Name         string     `json:"name"`
	Alias        string     `json:"alias"`
	Topics       []EntityId `json:"topics"`
	Participants []EntityId `json:"participants"`
	Processes    []EntityId `json:"processes"`
}

type topicSnap struct {
	Kind     string     `json:"kind"`
	Name     string     `json:"name"`
	Alias    string     `json:"alias"`
	DataType string     `json:"data_type"`
	Domain   EntityId   `json:"domain"`
	Readers  []EntityId `json:"readers"`
	Writers  []EntityId `json:"writers"`
}

type participantDataSnap struct {
	DiscoveredEntity         map[EntityId][]discoveryTimeSnap `json:"discovered_entity"`
	PdpPackets               counterSeriesSnap                `json:"pdp_packets"`
	EdpPackets               counterSeriesSnap                `json:"edp_packets"`
	NetworkLatencyPerLocator map[EntityId][]tsValue[float32]  `json:"network_latency_per_locator"`
}

type participantSnap struct {
	Kind     string              `json:"kind"`
	Name     string              `json:"name"`
	Alias    string              `json:"alias"`
	Guid     string              `json:"guid"`
	Qos      string              `json:"qos"`
	Process  EntityId            `json:"process"`
	Domain   EntityId            `json:"domain"`
	Readers  []EntityId          `json:"readers"`
	Writers  []EntityId          `json:"writers"`
	Locators []EntityId          `json:"locators"`
	Data     participantDataSnap `json:"data"`
}

type dataWriterDataSnap struct {
	PublicationThroughput  []tsValue[float32]                 `json:"publication_throughput"`
	ResentDatas            counterSeriesSnap                  `json:"resent_datas"`
	HeartbeatCount         counterSeriesSnap                  `json:"heartbeat_count"`
	GapCount               counterSeriesSnap                  `json:"gap_count"`
	DataCount              counterSeriesSnap                  `json:"data_count"`
	RtpsPacketsSent        map[EntityId]counterSeriesSnap     `json:"rtps_packets_sent"`
	RtpsPacketsLost        map[EntityId]counterSeriesSnap     `json:"rtps_packets_lost"`
	RtpsBytesSent          map[EntityId]byteCounterSeriesSnap `json:"rtps_bytes_sent"`
	RtpsBytesLost          map[EntityId]byteCounterSeriesSnap `json:"rtps_bytes_lost"`
	SampleDatas            map[uint64]counterSeriesSnap       `json:"sample_datas"`
	History2HistoryLatency map[EntityId][]tsValue[float32]    `json:"history2history_latency"`
}

type dataWriterSnap struct {
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Alias       string             `json:"alias"`
	Guid        string             `json:"guid"`
	Qos         string             `json:"qos"`
	Participant EntityId           `json:"participant"`
	Topic       EntityId           `json:"topic"`
	Locators    []EntityId         `json:"locators"`
	Data        dataWriterDataSnap `json:"data"`
}

type dataReaderDataSnap struct {
	SubscriptionThroughput []tsValue[float32] `json:"subscription_throughput"`
	AcknackCount           counterSeriesSnap  `json:"acknack_count"`
	NackfragCount          counterSeriesSnap  `json:"nackfrag_count"`
}

type dataReaderSnap struct {
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Alias       string             `json:"alias"`
	Guid        string             `json:"guid"`
	Qos         string             `json:"qos"`
	Participant EntityId           `json:"participant"`
	Topic       EntityId           `json:"topic"`
	Locators    []EntityId         `json:"locators"`
	Data        dataReaderDataSnap `json:"data"`
}

type locatorSnap struct {
	Kind         string     `json:"kind"`
	Name         string     `json:"name"`
	Alias        string     `json:"alias"`
	Participants []EntityId `json:"participants"`
	Readers      []EntityId `json:"readers"`
	Writers      []EntityId `json:"writers"`
}

// Dump produces a serializable full snapshot of the graph.
func (g *Graph) Dump() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := Snapshot{
		Hosts:                 make(map[EntityId]hostSnap),
		Users:                 make(map[EntityId]userSnap),
		Processes:             make(map[EntityId]processSnap),
		Domains:               make(map[EntityId]domainSnap),
		Topics:                make(map[EntityId]topicSnap),
		Participants:          make(map[EntityId]participantSnap),
		DataReaders:           make(map[EntityId]dataReaderSnap),
		DataWriters:           make(map[EntityId]dataWriterSnap),
		Locators:              make(map[EntityId]locatorSnap),
		LocatorsByParticipant: copyRelIndex(g.locatorsByParticipant),
		ParticipantsByLocator: copyRelIndex(g.participantsByLocator),
		DomainsByProcess:      copyRelIndex(g.domainsByProcess),
		ProcessesByDomain:     copyRelIndex(g.processesByDomain),
		NextId:                g.nextID,
	}

	for id, e := range g.entities {
		switch p := e.Payload.(type) {
		case HostPayload:
			snap.Hosts[id] = hostSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Users: copyIds(p.Users)}
		case UserPayload:
			snap.Users[id] = userSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Host: p.Host, Processes: copyIds(p.Processes)}
		case ProcessPayload:
			snap.Processes[id] = processSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Pid: p.Pid, User: p.User, Participants: copyIds(p.Participants), Domains: copyIds(p.Domains)}
		case DomainPayload:
			snap.Domains[id] = domainSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Topics: copyIds(p.Topics), Participants: copyIds(p.Participants), Processes: copyIds(p.Processes)}
		case TopicPayload:
			snap.Topics[id] = topicSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, DataType: p.DataType, Domain: p.Domain, Readers: copyIds(p.Readers), Writers: copyIds(p.Writers)}
		case ParticipantPayload:
			snap.Participants[id] = participantSnap{
				Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Guid: p.Guid, Qos: p.Qos,
				Process: p.Process, Domain: p.Domain, Readers: copyIds(p.Readers), Writers: copyIds(p.Writers), Locators: copyIds(p.Locators),
				Data: participantDataToJSON(p.Data),
			}
		case DataReaderPayload:
			snap.DataReaders[id] = dataReaderSnap{
				Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Guid: p.Guid, Qos: p.Qos,
				Participant: p.Participant, Topic: p.Topic, Locators: copyIds(p.Locators),
				Data: dataReaderDataSnap{
					SubscriptionThroughput: seriesToJSON(p.Data.SubscriptionThroughput),
					AcknackCount:           counterToJSON(p.Data.AcknackCount),
					NackfragCount:          counterToJSON(p.Data.NackfragCount),
				},
			}
		case DataWriterPayload:
			snap.DataWriters[id] = dataWriterSnap{
				Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Guid: p.Guid, Qos: p.Qos,
				Participant: p.Participant, Topic: p.Topic, Locators: copyIds(p.Locators),
				Data: dataWriterDataToJSON(p.Data),
			}
		case LocatorPayload:
			snap.Locators[id] = locatorSnap{Kind: e.Kind.String(), Name: e.Name, Alias: e.Alias, Participants: copyIds(p.Participants), Readers: copyIds(p.Readers), Writers: copyIds(p.Writers)}
		}
	}

	return snap
}

func participantDataToJSON(d ParticipantData) participantDataSnap {
	disc := make(map[EntityId][]discoveryTimeSnap, len(d.DiscoveredEntity))
	for k, v := range d.DiscoveredEntity {
		out := make([]discoveryTimeSnap, len(v))
		for i, s := range v {
			out[i] = discoveryTimeSnap{SrcTs: s.SrcTs, Time: s.Time, RemoteEntity: s.RemoteEntity}
		}
		disc[k] = out
	}
	lat := make(map[EntityId][]tsValue[float32], len(d.NetworkLatencyPerLocator))
	for k, v := range d.NetworkLatencyPerLocator {
		lat[k] = seriesToJSON(v)
	}
	return participantDataSnap{
		DiscoveredEntity:         disc,
		PdpPackets:               counterToJSON(d.PdpPackets),
		EdpPackets:               counterToJSON(d.EdpPackets),
		NetworkLatencyPerLocator: lat,
	}
}

func dataWriterDataToJSON(d DataWriterData) dataWriterDataSnap {
	packetsSent := make(map[EntityId]counterSeriesSnap, len(d.RtpsPacketsSent))
	for k, v := range d.RtpsPacketsSent {
		packetsSent[k] = counterToJSON(*v)
	}
	packetsLost := make(map[EntityId]counterSeriesSnap, len(d.RtpsPacketsLost))
	for k, v := range d.RtpsPacketsLost {
		packetsLost[k] = counterToJSON(*v)
	}
	bytesSent := make(map[EntityId]byteCounterSeriesSnap, len(d.RtpsBytesSent))
	for k, v := range d.RtpsBytesSent {
		bytesSent[k] = byteCounterToJSON(*v)
	}
	bytesLost := make(map[EntityId]byteCounterSeriesSnap, len(d.RtpsBytesLost))
	for k, v := range d.RtpsBytesLost {
		bytesLost[k] = byteCounterToJSON(*v)
	}
	sampleDatas := make(map[uint64]counterSeriesSnap, len(d.SampleDatas))
	for k, v := range d.SampleDatas {
		sampleDatas[k] = counterToJSON(*v)
	}
	h2h := make(map[EntityId][]tsValue[float32], len(d.History2HistoryLatency))
	for k, v := range d.History2HistoryLatency {
		h2h[k] = seriesToJSON(v)
	}
	return dataWriterDataSnap{
		PublicationThroughput:  seriesToJSON(d.PublicationThroughput),
		ResentDatas:            counterToJSON(d.ResentDatas),
		HeartbeatCount:         counterToJSON(d.HeartbeatCount),
		GapCount:               counterToJSON(d.GapCount),
		DataCount:              counterToJSON(d.DataCount),
		RtpsPacketsSent:        packetsSent,
		RtpsPacketsLost:        packetsLost,
		RtpsBytesSent:          bytesSent,
		RtpsBytesLost:          bytesLost,
		SampleDatas:            sampleDatas,
		History2HistoryLatency: h2h,
	}
}

func copyIds(ids []EntityId) []EntityId {
	if ids == nil {
		return nil
	}
	return append([]EntityId(nil), ids...)
}

func copyRelIndex(m map[EntityId][]EntityId) map[EntityId][]EntityId {
	out := make(map[EntityId][]EntityId, len(m))
	for k, v := range m {
		out[k] = copyIds(v)
	}
	return out
}

// Load replaces the graph's entire state with snap, issuing no new ids:
// every id is restored exactly as recorded, so a dump -> load -> dump cycle
// is bit-identical. The name and guid indices are rebuilt from the restored
// entities; the four cross-index sections (locators_by_participant,
// participants_by_locator, domains_by_process, processes_by_domain) are
// restored as recorded in snap.
func (g *Graph) Load(snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entities = make(map[EntityId]*Entity)
	g.hostsByName = make(map[string]EntityId)
	g.usersByName = make(map[string][]EntityId)
	g.processesByName = make(map[string][]EntityId)
	g.domainsByName = make(map[string]EntityId)
	g.topicsByName = make(map[topicKey]EntityId)
	g.locatorsByName = make(map[string]EntityId)
	g.participantsByGuid = make(map[string]EntityId)
	g.readersByGuid = make(map[string]EntityId)
	g.writersByGuid = make(map[string]EntityId)
	g.locatorsByParticipant = copyRelIndex(snap.LocatorsByParticipant)
	g.participantsByLocator = copyRelIndex(snap.ParticipantsByLocator)
	g.domainsByProcess = copyRelIndex(snap.DomainsByProcess)
	g.processesByDomain = copyRelIndex(snap.ProcessesByDomain)
	g.nextID = snap.NextId

	for id, h := range snap.Hosts {
		g.entities[id] = &Entity{Id: id, Kind: KindHost, Name: h.Name, Alias: h.Alias, Payload: HostPayload{Users: copyIds(h.Users)}}
		g.hostsByName[h.Name] = id
	}
	for id, u := range snap.Users {
		g.entities[id] = &Entity{Id: id, Kind: KindUser, Name: u.Name, Alias: u.Alias, Payload: UserPayload{Host: u.Host, Processes: copyIds(u.Processes)}}
		g.usersByName[u.Name] = append(g.usersByName[u.Name], id)
	}
	for id, p := range snap.Processes {
		g.entities[id] = &Entity{Id: id, Kind: KindProcess, Name: p.Name, Alias: p.Alias, Payload: ProcessPayload{Pid: p.Pid, User: p.User, Participants: copyIds(p.Participants), Domains: copyIds(p.Domains)}}
		g.processesByName[p.Name] = append(g.processesByName[p.Name], id)
	}
	for id, d := range snap.Domains {
		g.entities[id] = &Entity{Id: id, Kind: KindDomain, Name: d.Name, Alias: d.Alias, Payload: DomainPayload{Topics: copyIds(d.Topics), Participants: copyIds(d.Participants), Processes: copyIds(d.Processes)}}
		g.domainsByName[d.Name] = id
	}
	for id, t := range snap.Topics {
		g.entities[id] = &Entity{Id: id, Kind: KindTopic, Name: t.Name, Alias: t.Alias, Payload: TopicPayload{DataType: t.DataType, Domain: t.Domain, Readers: copyIds(t.Readers), Writers: copyIds(t.Writers)}}
		g.topicsByName[topicKey{domain: t.Domain, name: t.Name, dataType: t.DataType}] = id
	}
	for id, l := range snap.Locators {
		g.entities[id] = &Entity{Id: id, Kind: KindLocator, Name: l.Name, Alias: l.Alias, Payload: LocatorPayload{Participants: copyIds(l.Participants), Readers: copyIds(l.Readers), Writers: copyIds(l.Writers)}}
		g.locatorsByName[l.Name] = id
	}
	for id, p := range snap.Participants {
		g.entities[id] = &Entity{
			Id: id, Kind: KindParticipant, Name: p.Name, Alias: p.Alias,
			Payload: ParticipantPayload{
				Guid: p.Guid, Qos: p.Qos, Process: p.Process, Domain: p.Domain,
				Readers: copyIds(p.Readers), Writers: copyIds(p.Writers), Locators: copyIds(p.Locators),
				Data: participantDataFromJSON(p.Data),
			},
		}
		g.participantsByGuid[p.Guid] = id
	}
	for id, r := range snap.DataReaders {
		g.entities[id] = &Entity{
			Id: id, Kind: KindDataReader, Name: r.Name, Alias: r.Alias,
			Payload: DataReaderPayload{
				Guid: r.Guid, Qos: r.Qos, Participant: r.Participant, Topic: r.Topic, Locators: copyIds(r.Locators),
				Data: DataReaderData{
					SubscriptionThroughput: seriesFromJSON(r.Data.SubscriptionThroughput),
					AcknackCount:           counterFromJSON(r.Data.AcknackCount),
					NackfragCount:          counterFromJSON(r.Data.NackfragCount),
				},
			},
		}
		g.readersByGuid[r.Guid] = id
	}
	for id, w := range snap.DataWriters {
		g.entities[id] = &Entity{
			Id: id, Kind: KindDataWriter, Name: w.Name, Alias: w.Alias,
			Payload: DataWriterPayload{
				Guid: w.Guid, Qos: w.Qos, Participant: w.Participant, Topic: w.Topic, Locators: copyIds(w.Locators),
				Data: dataWriterDataFromJSON(w.Data),
			},
		}
		g.writersByGuid[w.Guid] = id
	}
}

func participantDataFromJSON(s participantDataSnap) ParticipantData {
	disc := make(map[EntityId][]DiscoveryTimeSample, len(s.DiscoveredEntity))
	for k, v := range s.DiscoveredEntity {
		out := make([]DiscoveryTimeSample, len(v))
		for i, d := range v {
			out[i] = DiscoveryTimeSample{SrcTs: d.SrcTs, Time: d.Time, RemoteEntity: d.RemoteEntity}
		}
		disc[k] = out
	}
	lat := make(map[EntityId]Series[float32], len(s.NetworkLatencyPerLocator))
	for k, v := range s.NetworkLatencyPerLocator {
		lat[k] = seriesFromJSON(v)
	}
	return ParticipantData{
		DiscoveredEntity:         disc,
		PdpPackets:               counterFromJSON(s.PdpPackets),
		EdpPackets:               counterFromJSON(s.EdpPackets),
		NetworkLatencyPerLocator: lat,
	}
}

func dataWriterDataFromJSON(s dataWriterDataSnap) DataWriterData {
	packetsSent := make(map[EntityId]*CounterSeries, len(s.RtpsPacketsSent))
	for k, v := range s.RtpsPacketsSent {
		cs := counterFromJSON(v)
		packetsSent[k] = &cs
	}
	packetsLost := make(map[EntityId]*CounterSeries, len(s.RtpsPacketsLost))
	for k, v := range s.RtpsPacketsLost {
		cs := counterFromJSON(v)
		packetsLost[k] = &cs
	}
	bytesSent := make(map[EntityId]*ByteCounterSeries, len(s.RtpsBytesSent))
	for k, v := range s.RtpsBytesSent {
		bs := byteCounterFromJSON(v)
		bytesSent[k] = &bs
	}
	bytesLost := make(map[EntityId]*ByteCounterSeries, len(s.RtpsBytesLost))
	for k, v := range s.RtpsBytesLost {
		bs := byteCounterFromJSON(v)
		bytesLost[k] = &bs
	}
	sampleDatas := make(map[uint64]*CounterSeries, len(s.SampleDatas))
	for k, v := range s.SampleDatas {
		cs := counterFromJSON(v)
		sampleDatas[k] = &cs
	}
	h2h := make(map[EntityId]Series[float32], len(s.History2HistoryLatency))
	for k, v := range s.History2HistoryLatency {
		h2h[k] = seriesFromJSON(v)
	}
	return DataWriterData{
		PublicationThroughput:  seriesFromJSON(s.PublicationThroughput),
		ResentDatas:            counterFromJSON(s.ResentDatas),
		HeartbeatCount:         counterFromJSON(s.HeartbeatCount),
		GapCount:               counterFromJSON(s.GapCount),
		DataCount:              counterFromJSON(s.DataCount),
		RtpsPacketsSent:        packetsSent,
		RtpsPacketsLost:        packetsLost,
		RtpsBytesSent:          bytesSent,
		RtpsBytesLost:          bytesLost,
		SampleDatas:            sampleDatas,
		History2HistoryLatency: h2h,
	}
}
