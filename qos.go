package rtps

import "github.com/gortps/rtps/internal/wire"

// Reliability selects the writer/reader behavior state machine a
// DataWriter/DataReader runs (spec.md §4.5, §4.6).
type Reliability int

const (
	BestEffort Reliability = iota
	Reliable
)

// Durability selects whether late-joining readers receive historical
// samples. TransientLocal is the only durability level this core's
// HistoryCache-backed writers support beyond Volatile: a writer retains
// its cache up to ResourceLimits regardless, so a late joiner's first
// ACKNACK repair phase already recovers anything still cached.
type Durability int

const (
	Volatile Durability = iota
	TransientLocal
)

// TopicQos configures a Topic's entity kind (spec.md §4.8).
type TopicQos struct {
	Keyed bool
}

// DataWriterQos configures a DataWriter's underlying behavior.Writer and
// HistoryCache (spec.md §4.5, §4.2).
type DataWriterQos struct {
	Reliability       Reliability
	Durability        Durability
	HeartbeatPeriod   wire.Duration
	NackResponseDelay wire.Duration
	ResourceLimits    ResourceLimits
}

// DataReaderQos configures a DataReader's underlying behavior.Reader.
type DataReaderQos struct {
	Reliability            Reliability
	Durability             Durability
	HeartbeatResponseDelay wire.Duration
	ResourceLimits         ResourceLimits
}

// ResourceLimits mirrors internal/history.ResourceLimits at the façade
// boundary so callers don't import internal packages. Zero/negative
// fields mean unbounded (spec.md §4.2).
type ResourceLimits struct {
	MaxSamples            int
	MaxInstances          int
	MaxSamplesPerInstance int
}

// DefaultDataWriterQos matches spec.md §4.9's SEDP defaults, a reasonable
// baseline for user data too: reliable, 2s heartbeat period, 200ms nack
// response delay.
func DefaultDataWriterQos() DataWriterQos {
	return DataWriterQos{
		Reliability:       Reliable,
		HeartbeatPeriod:   wire.DurationFromSeconds(2),
		NackResponseDelay: wire.DurationFromSeconds(0.2),
	}
}

// DefaultDataReaderQos matches spec.md §4.9's SEDP defaults.
func DefaultDataReaderQos() DataReaderQos {
	return DataReaderQos{
		Reliability:            Reliable,
		HeartbeatResponseDelay: wire.DurationFromSeconds(0.5),
	}
}
