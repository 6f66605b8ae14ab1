// Package history implements the HistoryCache (spec.md §4.2), the ordered
// store of CacheChanges shared by writer- and reader-side endpoint state.
// Ordering is kept in a btree.BTree keyed by (writer GUID, sequence number),
// adapted from the original source's std::collections::BTreeMap<SequenceNumber, CacheChange>
// (original_source/rtps/src/structure/history_cache.rs).
package history

import (
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/google/btree"

	"github.com/gortps/rtps/internal/wire"
)

// CacheChange is one sample in a HistoryCache: spec.md §3's
// (kind, writer_guid, instance_handle, sequence_number, inline_qos, data_value?).
type CacheChange struct {
	Kind           wire.ChangeKind
	WriterGUID     wire.GUID
	InstanceHandle wire.InstanceHandle
	SequenceNumber wire.SequenceNumber
	InlineQos      *wire.ParameterList
	DataValue      []byte
}

// Equal implements the set-equality CacheChanges are compared by for the
// "no two equality-equal changes" invariant: writer GUID + sequence number
// uniquely identify a change within one cache.
func (c CacheChange) Equal(o CacheChange) bool {
	return c.WriterGUID.Equal(o.WriterGUID) && c.SequenceNumber == o.SequenceNumber
}

// InstanceHandleFromKeyHash returns the handle carried in inline QoS
// PID_KEY_HASH, when present.
func InstanceHandleFromKeyHash(pl *wire.ParameterList) (wire.InstanceHandle, bool) {
	if pl == nil {
		return wire.InstanceHandle{}, false
	}
	p, ok := pl.Get(wire.PIDKeyHash)
	if !ok || len(p.Value) != 16 {
		return wire.InstanceHandle{}, false
	}
	var h wire.InstanceHandle
	copy(h[:], p.Value)
	return h, true
}

// SynthesizeInstanceHandle derives an InstanceHandle from a payload when no
// PID_KEY_HASH was carried (spec.md §4.6), by hashing the serialized data
// with xxhash and spreading the 64-bit digest across the 16-byte handle.
func SynthesizeInstanceHandle(payload []byte) wire.InstanceHandle {
	var h wire.InstanceHandle
	sum := xxhash.Checksum64(payload)
	for i := 0; i < 8; i++ {
		h[i] = byte(sum >> (8 * i))
		h[i+8] = byte(sum >> (8 * i))
	}
	return h
}

// ResourceLimits bounds a HistoryCache the way spec.md §4.2 requires:
// add_change fails OUT_OF_RESOURCES iff accepting the change would violate
// any configured limit. Zero/negative fields mean "unbounded".
type ResourceLimits struct {
	MaxSamples             int
	MaxInstances           int
	MaxSamplesPerInstance  int
}

// Validate performs the "consistency check on limits performed at
// construction" invariant (spec.md §4.2): max_samples must be able to hold
// at least one full instance.
func (r ResourceLimits) Validate() error {
	if r.MaxSamples > 0 && r.MaxSamplesPerInstance > 0 && r.MaxSamples < r.MaxSamplesPerInstance {
		return ErrInconsistentLimits
	}
	if r.MaxInstances > 0 && r.MaxSamples > 0 && r.MaxInstances > r.MaxSamples {
		return ErrInconsistentLimits
	}
	return nil
}

func unbounded(n int) bool { return n <= 0 }

// changeItem's btree key is (WriterGUID, sn): a HistoryCache on the reader
// side is shared across every matched WriterProxy (spec.md §4.4), and each
// remote writer numbers its own sequence independently starting at 1, so sn
// alone cannot distinguish changes from different writers.
type changeItem struct {
	writerGUID wire.GUID
	sn         wire.SequenceNumber
	change     CacheChange
}

func (a changeItem) Less(b btree.Item) bool {
	o := b.(changeItem)
	if !a.writerGUID.Equal(o.writerGUID) {
		return a.writerGUID.Less(o.writerGUID)
	}
	return a.sn < o.sn
}

// OnAddChangeFunc is the synchronous hook fired inside AddChange after
// insertion (spec.md §4.2). SetOnAddChange may be called repeatedly to
// re-install a different hook, e.g. when a ReaderProxy's forwarding target
// changes.
type OnAddChangeFunc func(CacheChange)

// Cache is the HistoryCache: a store ordered by writer GUID, then sequence
// number, with
// per-instance sample counting for resource limit enforcement.
type Cache struct {
	mu       sync.Mutex
	limits   ResourceLimits
	tree     *btree.BTree
	byInstance map[wire.InstanceHandle]int // live sample count per instance
	onAdd    OnAddChangeFunc
}

// NewCache constructs a HistoryCache, validating limits per spec.md §4.2's
// "consistency check on limits performed at construction".
func NewCache(limits ResourceLimits) (*Cache, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		limits:     limits,
		tree:       btree.New(32),
		byInstance: make(map[wire.InstanceHandle]int),
	}, nil
}

// SetOnAddChange installs (or replaces) the on_add_change hook.
func (c *Cache) SetOnAddChange(fn OnAddChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdd = fn
}

// AddChange inserts c, rejecting it with ErrOutOfResources if any
// configured limit would be violated by the insertion (spec.md §4.2,
// §8 property 8). Equality-duplicate insertions (same writer+sn already
// present) are silently accepted as no-ops — set semantics.
func (c *Cache) AddChange(change CacheChange) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := changeItem{writerGUID: change.WriterGUID, sn: change.SequenceNumber, change: change}
	if existing := c.tree.Get(item); existing != nil {
		if existing.(changeItem).change.Equal(change) {
			return nil
		}
	}

	instanceCount := c.byInstance[change.InstanceHandle]
	isNewInstance := instanceCount == 0

	if !unbounded(c.limits.MaxSamples) && c.tree.Len()+1 > c.limits.MaxSamples {
		return ErrOutOfResources
	}
	if !unbounded(c.limits.MaxSamplesPerInstance) && instanceCount+1 > c.limits.MaxSamplesPerInstance {
		return ErrOutOfResources
	}
	if isNewInstance && !unbounded(c.limits.MaxInstances) && len(c.byInstance)+1 > c.limits.MaxInstances {
		return ErrOutOfResources
	}

	c.tree.ReplaceOrInsert(item)
	c.byInstance[change.InstanceHandle] = instanceCount + 1

	hook := c.onAdd
	if hook != nil {
		hook(change)
	}
	return nil
}

// RemoveChange idempotently removes the equality-equal change, if present.
func (c *Cache) RemoveChange(change CacheChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := changeItem{writerGUID: change.WriterGUID, sn: change.SequenceNumber}
	existing := c.tree.Get(item)
	if existing == nil {
		return
	}
	stored := existing.(changeItem).change
	if !stored.Equal(change) {
		return
	}
	c.tree.Delete(item)
	if n := c.byInstance[stored.InstanceHandle]; n <= 1 {
		delete(c.byInstance, stored.InstanceHandle)
	} else {
		c.byInstance[stored.InstanceHandle] = n - 1
	}
}

// GetChange looks up a change by its owning writer and sequence number.
func (c *Cache) GetChange(writerGUID wire.GUID, sn wire.SequenceNumber) (CacheChange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.tree.Get(changeItem{writerGUID: writerGUID, sn: sn})
	if item == nil {
		return CacheChange{}, false
	}
	return item.(changeItem).change, true
}

// SeqNumMin returns the smallest present sequence number, if any.
func (c *Cache) SeqNumMin() (wire.SequenceNumber, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var min wire.SequenceNumber
	found := false
	c.tree.Ascend(func(i btree.Item) bool {
		if sn := i.(changeItem).sn; !found || sn < min {
			min = sn
		}
		found = true
		return true
	})
	return min, found
}

// SeqNumMax returns the largest present sequence number, if any.
func (c *Cache) SeqNumMax() (wire.SequenceNumber, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var max wire.SequenceNumber
	found := false
	c.tree.Descend(func(i btree.Item) bool {
		if sn := i.(changeItem).sn; !found || sn > max {
			max = sn
		}
		found = true
		return true
	})
	return max, found
}

// Len returns the number of changes currently stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Len()
}

// Samples returns up to max changes ordered by writer GUID, then sequence
// number (max<=0 means unbounded), for the DDS façade's read/take operations.
func (c *Cache) Samples(max int) []CacheChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []CacheChange
	c.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(changeItem).change)
		return max <= 0 || len(out) < max
	})
	return out
}

// TakeSamples is Samples plus removal: the façade's take() operation
// consumes what it returns.
func (c *Cache) TakeSamples(max int) []CacheChange {
	samples := c.Samples(max)
	for _, s := range samples {
		c.RemoveChange(s)
	}
	return samples
}
