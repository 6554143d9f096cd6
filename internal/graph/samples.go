package graph

// DataPoint is one time-stamped entry in a sample series. SrcTs is nanoseconds
// since the Unix epoch. Series keep points in arrival order and are
// serialized in that same order; nothing here reorders them by SrcTs.
type DataPoint[T any] struct {
	SrcTs int64
	Value T
}

// Series is a sequence of DataPoint in arrival order.
type Series[T any] []DataPoint[T]

func (s *Series[T]) append(ts int64, v T) {
	*s = append(*s, DataPoint[T]{SrcTs: ts, Value: v})
}

// ByteSample is the value type for RTPS byte counters, which carry a
// magnitude order alongside the raw count (see RtpsBytesSentSample).
type ByteSample struct {
	Count          uint64
	MagnitudeOrder int16
}

// CounterSeries is a time series of cumulative counts paired with a
// monotonically non-decreasing last_reported_* counter (invariant 6). The
// last-reported value tracks the maximum count ever observed rather than the
// most recent one, so it cannot regress even if a late or out-of-order
// sample arrives with a smaller count.
type CounterSeries struct {
	Points       Series[uint64]
	LastReported uint64
}

func (c *CounterSeries) append(ts int64, count uint64) {
	c.Points.append(ts, count)
	if count > c.LastReported {
		c.LastReported = count
	}
}

// ByteCounterSeries is CounterSeries for RTPS byte counters, which need the
// magnitude order alongside the count.
type ByteCounterSeries struct {
	Points       Series[ByteSample]
	LastReported uint64
}

func (b *ByteCounterSeries) append(ts int64, s ByteSample) {
	b.Points.append(ts, s)
	if s.Count > b.LastReported {
		b.LastReported = s.Count
	}
}

// DiscoveryTimeSample records one discovery timing event for a remote entity.
type DiscoveryTimeSample struct {
	SrcTs        int64
	Time         int64
	RemoteEntity EntityId
}

// ParticipantData is the aggregated sample bucket set carried by every
// Participant entity. RTPS packet/byte counters are NOT here: they land on
// DataWriter instead (see SPEC_FULL.md, Open Question resolution 2, for the
// reasoning).
type ParticipantData struct {
	// keyed by remote entity id.
	DiscoveredEntity map[EntityId][]DiscoveryTimeSample

	PdpPackets CounterSeries
	EdpPackets CounterSeries

	// keyed by remote locator id.
	NetworkLatencyPerLocator map[EntityId]Series[float32]
}

func newParticipantData() ParticipantData {
	return ParticipantData{
		DiscoveredEntity:         make(map[EntityId][]DiscoveryTimeSample),
		NetworkLatencyPerLocator: make(map[EntityId]Series[float32]),
	}
}

// DataWriterData is the aggregated sample bucket set carried by every
// DataWriter entity.
type DataWriterData struct {
	PublicationThroughput Series[float32]

	ResentDatas    CounterSeries
	HeartbeatCount CounterSeries
	GapCount       CounterSeries
	DataCount      CounterSeries

	// keyed by remote locator id.
	RtpsPacketsSent map[EntityId]*CounterSeries
	RtpsPacketsLost map[EntityId]*CounterSeries
	RtpsBytesSent   map[EntityId]*ByteCounterSeries
	RtpsBytesLost   map[EntityId]*ByteCounterSeries

	// keyed by sequence number.
	SampleDatas map[uint64]*CounterSeries

	// keyed by remote reader id.
	History2HistoryLatency map[EntityId]Series[float32]
}

func newDataWriterData() DataWriterData {
	return DataWriterData{
		RtpsPacketsSent:        make(map[EntityId]*CounterSeries),
		RtpsPacketsLost:        make(map[EntityId]*CounterSeries),
		RtpsBytesSent:          make(map[EntityId]*ByteCounterSeries),
		RtpsBytesLost:          make(map[EntityId]*ByteCounterSeries),
		SampleDatas:            make(map[uint64]*CounterSeries),
		History2HistoryLatency: make(map[EntityId]Series[float32]),
	}
}

// DataReaderData is the aggregated sample bucket set carried by every
// DataReader entity.
type DataReaderData struct {
	SubscriptionThroughput Series[float32]

	AcknackCount  CounterSeries
	NackfragCount CounterSeries
}

// Sample is the sum of all committable sample shapes. Dispatch is by type
// switch in InsertSample, never by upcast.
type Sample interface {
	isSample()
}

// EntityDataSample carries a single scalar measurement (publication or
// subscription throughput).
type EntityDataSample struct{ Data float32 }

func (EntityDataSample) isSample() {}

// EntityCountSample carries a single cumulative count. Which bucket it
// targets (resent_datas, heartbeat_count, pdp_packets, acknack_count, ...) is
// determined by the originating event kind, not by this type; see
// Graph.InsertSample.
type EntityCountSample struct{ Count uint64 }

func (EntityCountSample) isSample() {}

// HistoryLatencySample is history-to-history latency, keyed by the remote
// reader.
type HistoryLatencySample struct {
	Data   float32
	Reader EntityId
}

func (HistoryLatencySample) isSample() {}

// NetworkLatencySample is network latency, keyed by the remote locator.
type NetworkLatencySample struct {
	Data          float32
	RemoteLocator EntityId
}

func (NetworkLatencySample) isSample() {}

// RtpsPacketsSentSample is one of the two samples committed for an
// RTPS_SENT event.
type RtpsPacketsSentSample struct {
	Count         uint64
	RemoteLocator EntityId
}

func (RtpsPacketsSentSample) isSample() {}

// RtpsPacketsLostSample is one of the two samples committed for an
// RTPS_LOST event.
type RtpsPacketsLostSample struct {
	Count         uint64
	RemoteLocator EntityId
}

func (RtpsPacketsLostSample) isSample() {}

// RtpsBytesSentSample is the byte-magnitude counterpart committed alongside
// RtpsPacketsSentSample for an RTPS_SENT event.
type RtpsBytesSentSample struct {
	Count          uint64
	MagnitudeOrder int16
	RemoteLocator  EntityId
}

func (RtpsBytesSentSample) isSample() {}

// RtpsBytesLostSample is the byte-magnitude counterpart committed alongside
// RtpsPacketsLostSample for an RTPS_LOST event.
type RtpsBytesLostSample struct {
	Count          uint64
	MagnitudeOrder int16
	RemoteLocator  EntityId
}

func (RtpsBytesLostSample) isSample() {}

// DiscoverySample carries a discovery timing, keyed by the remote entity.
type DiscoverySample struct {
	Time         int64
	RemoteEntity EntityId
}

func (DiscoverySample) isSample() {}

// SampleDatasCountSample carries a per-sequence-number count for a writer's
// sample_datas bucket.
type SampleDatasCountSample struct {
	Count uint64
	Seq   uint64
}

func (SampleDatasCountSample) isSample() {}
