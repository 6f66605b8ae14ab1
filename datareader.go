package rtps

import (
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

// Sample is one delivered CacheChange, surfaced at the façade boundary
// (spec.md §6 "take/read(reader, max, filters) -> [sample]").
type Sample struct {
	Kind           wire.ChangeKind
	WriterGUID     wire.GUID
	InstanceHandle wire.InstanceHandle
	SequenceNumber wire.SequenceNumber
	Data           []byte
}

func sampleFromChange(c history.CacheChange) Sample {
	return Sample{
		Kind:           c.Kind,
		WriterGUID:     c.WriterGUID,
		InstanceHandle: c.InstanceHandle,
		SequenceNumber: c.SequenceNumber,
		Data:           c.DataValue,
	}
}

// DataReader is a handle to one reader endpoint (spec.md §6).
type DataReader struct {
	endpoint   *endpoint.Reader
	subscriber *Subscriber
}

// GUID returns this reader's global identity.
func (r *DataReader) GUID() wire.GUID { return r.endpoint.GUID }

// Read returns up to max samples, ordered by writer GUID and then by
// sequence number, without
// removing them from the reader's HistoryCache (spec.md §6). max<=0
// means unbounded. The core has no filter predicates of its own — the
// "filters" parameter named by the spec is a layer above this one; pass
// a non-nil filter to restrict by instance handle.
func (r *DataReader) Read(max int, filter func(Sample) bool) []Sample {
	return filterSamples(r.endpoint.Behavior.Cache.Samples(max), filter)
}

// Take is Read plus removal: returned samples are gone from the cache
// afterward (spec.md §6).
func (r *DataReader) Take(max int, filter func(Sample) bool) []Sample {
	if filter == nil {
		return toSamples(r.endpoint.Behavior.Cache.TakeSamples(max))
	}
	// A filter may reject some of the oldest max changes, so over-fetch
	// unfiltered, keep what passes, and only remove what we return.
	candidates := r.endpoint.Behavior.Cache.Samples(0)
	var kept []Sample
	for _, c := range candidates {
		s := sampleFromChange(c)
		if !filter(s) {
			continue
		}
		kept = append(kept, s)
		r.endpoint.Behavior.Cache.RemoveChange(c)
		if max > 0 && len(kept) >= max {
			break
		}
	}
	return kept
}

func toSamples(changes []history.CacheChange) []Sample {
	out := make([]Sample, len(changes))
	for i, c := range changes {
		out[i] = sampleFromChange(c)
	}
	return out
}

func filterSamples(changes []history.CacheChange, filter func(Sample) bool) []Sample {
	if filter == nil {
		return toSamples(changes)
	}
	var out []Sample
	for _, c := range changes {
		s := sampleFromChange(c)
		if filter(s) {
			out = append(out, s)
		}
	}
	return out
}
