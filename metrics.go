package rtps

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets are the observed-delivery-latency histogram boundaries in
// nanoseconds, from submission (writer add_change) to the matched reader's
// HistoryCache insertion.
var LatencyBuckets = []uint64{
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 6

// Metrics tracks per-participant protocol counters. One instance is shared
// across all endpoints of a participant; events reach it through the
// Observer interface, and its counters are not split per endpoint.
type Metrics struct {
	DatagramsSent     atomic.Uint64
	DatagramsReceived atomic.Uint64
	BytesSent         atomic.Uint64
	BytesReceived     atomic.Uint64

	DataSent       atomic.Uint64
	DataReceived   atomic.Uint64
	GapSent        atomic.Uint64
	HeartbeatSent  atomic.Uint64
	AckNackSent    atomic.Uint64
	ProtocolErrors atomic.Uint64
	WireSizeErrors atomic.Uint64
	OutOfResources atomic.Uint64

	TotalLatencyNs atomic.Uint64
	LatencySamples atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) RecordSent(bytes uint64) {
	m.DatagramsSent.Add(1)
	m.BytesSent.Add(bytes)
}

func (m *Metrics) RecordReceived(bytes uint64) {
	m.DatagramsReceived.Add(1)
	m.BytesReceived.Add(bytes)
}

func (m *Metrics) RecordDeliveryLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.LatencySamples.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// MetricsSnapshot is a point-in-time read of Metrics, safe to hand to a
// reporting layer (e.g. rtps/promobserver) without further synchronization.
type MetricsSnapshot struct {
	DatagramsSent     uint64
	DatagramsReceived uint64
	BytesSent         uint64
	BytesReceived     uint64
	DataSent          uint64
	DataReceived      uint64
	GapSent           uint64
	HeartbeatSent     uint64
	AckNackSent       uint64
	ProtocolErrors    uint64
	WireSizeErrors    uint64
	OutOfResources    uint64
	AvgLatencyNs      uint64
	LatencyHistogram  [numLatencyBuckets]uint64
	UptimeNs          uint64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		DatagramsSent:     m.DatagramsSent.Load(),
		DatagramsReceived: m.DatagramsReceived.Load(),
		BytesSent:         m.BytesSent.Load(),
		BytesReceived:     m.BytesReceived.Load(),
		DataSent:          m.DataSent.Load(),
		DataReceived:      m.DataReceived.Load(),
		GapSent:           m.GapSent.Load(),
		HeartbeatSent:     m.HeartbeatSent.Load(),
		AckNackSent:       m.AckNackSent.Load(),
		ProtocolErrors:    m.ProtocolErrors.Load(),
		WireSizeErrors:    m.WireSizeErrors.Load(),
		OutOfResources:    m.OutOfResources.Load(),
		UptimeNs:          uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if n := m.LatencySamples.Load(); n > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / n
	}
	for i := range m.LatencyBuckets {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	return snap
}

// Observer receives lifecycle and protocol events as they happen, decoupled
// from whatever exports them (Prometheus, logs, nothing). Implementations
// must not block the caller for long; the engine tick loop calls these
// inline.
type Observer interface {
	OnDatagramSent(dst string, bytes int)
	OnDatagramReceived(src string, bytes int)
	OnSubmessageSent(kind string)
	OnProtocolError(reason string)
	OnWireSizeError()
	OnOutOfResources(entity string)
	OnDeliveryLatency(latencyNs uint64)
}

// MetricsObserver is the default Observer, backed by Metrics. Additional
// Observers (e.g. promobserver.Observer) can be composed with
// MultiObserver.
type MetricsObserver struct {
	M *Metrics
}

func NewMetricsObserver() *MetricsObserver { return &MetricsObserver{M: NewMetrics()} }

func (o *MetricsObserver) OnDatagramSent(_ string, bytes int) { o.M.RecordSent(uint64(bytes)) }
func (o *MetricsObserver) OnDatagramReceived(_ string, bytes int) {
	o.M.RecordReceived(uint64(bytes))
}

func (o *MetricsObserver) OnSubmessageSent(kind string) {
	switch kind {
	case "DATA":
		o.M.DataSent.Add(1)
	case "GAP":
		o.M.GapSent.Add(1)
	case "HEARTBEAT":
		o.M.HeartbeatSent.Add(1)
	case "ACKNACK":
		o.M.AckNackSent.Add(1)
	}
}

func (o *MetricsObserver) OnProtocolError(_ string)           { o.M.ProtocolErrors.Add(1) }
func (o *MetricsObserver) OnWireSizeError()                   { o.M.WireSizeErrors.Add(1) }
func (o *MetricsObserver) OnOutOfResources(_ string)          { o.M.OutOfResources.Add(1) }
func (o *MetricsObserver) OnDeliveryLatency(latencyNs uint64) { o.M.RecordDeliveryLatency(latencyNs) }

// MultiObserver fans events out to several Observers, e.g. the metrics
// counter plus a Prometheus exporter.
type MultiObserver []Observer

func (m MultiObserver) OnDatagramSent(dst string, bytes int) {
	for _, o := range m {
		o.OnDatagramSent(dst, bytes)
	}
}
func (m MultiObserver) OnDatagramReceived(src string, bytes int) {
	for _, o := range m {
		o.OnDatagramReceived(src, bytes)
	}
}
func (m MultiObserver) OnSubmessageSent(kind string) {
	for _, o := range m {
		o.OnSubmessageSent(kind)
	}
}
func (m MultiObserver) OnProtocolError(reason string) {
	for _, o := range m {
		o.OnProtocolError(reason)
	}
}
func (m MultiObserver) OnWireSizeError() {
	for _, o := range m {
		o.OnWireSizeError()
	}
}
func (m MultiObserver) OnOutOfResources(entity string) {
	for _, o := range m {
		o.OnOutOfResources(entity)
	}
}
func (m MultiObserver) OnDeliveryLatency(latencyNs uint64) {
	for _, o := range m {
		o.OnDeliveryLatency(latencyNs)
	}
}
