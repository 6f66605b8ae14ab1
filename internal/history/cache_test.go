package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/wire"
)

var defaultWriterGUID = wire.GUID{Entity: wire.EntityId{EntityKey: [3]byte{1, 2, 3}}}

func change(sn wire.SequenceNumber, instance byte) CacheChange {
	return changeFromWriter(defaultWriterGUID, sn, instance)
}

func changeFromWriter(writerGUID wire.GUID, sn wire.SequenceNumber, instance byte) CacheChange {
	return CacheChange{
		Kind:           wire.ChangeKindAlive,
		WriterGUID:     writerGUID,
		InstanceHandle: wire.InstanceHandle{instance},
		SequenceNumber: sn,
	}
}

func TestAddChangeAndLookup(t *testing.T) {
	c, err := NewCache(ResourceLimits{})
	require.NoError(t, err)

	require.NoError(t, c.AddChange(change(1, 0)))
	require.NoError(t, c.AddChange(change(2, 0)))

	min, ok := c.SeqNumMin()
	require.True(t, ok)
	assert.Equal(t, wire.SequenceNumber(1), min)

	max, ok := c.SeqNumMax()
	require.True(t, ok)
	assert.Equal(t, wire.SequenceNumber(2), max)

	got, ok := c.GetChange(defaultWriterGUID, 1)
	require.True(t, ok)
	assert.Equal(t, wire.SequenceNumber(1), got.SequenceNumber)
}

// TestAddChangeAcrossMultipleWritersDoesNotCollide guards the SEDP discovery
// path (spec.md §4.4): a reader's HistoryCache is shared across every
// matched WriterProxy, and independent remote writers each start their own
// sequence numbering at 1, so sn alone must never be the cache key.
func TestAddChangeAcrossMultipleWritersDoesNotCollide(t *testing.T) {
	c, err := NewCache(ResourceLimits{})
	require.NoError(t, err)

	writerA := wire.GUID{Prefix: wire.GuidPrefix{1}, Entity: wire.EntityId{EntityKey: [3]byte{1, 2, 3}}}
	writerB := wire.GUID{Prefix: wire.GuidPrefix{2}, Entity: wire.EntityId{EntityKey: [3]byte{1, 2, 3}}}

	require.NoError(t, c.AddChange(changeFromWriter(writerA, 1, 0)))
	require.NoError(t, c.AddChange(changeFromWriter(writerB, 1, 0)))

	assert.Equal(t, 2, c.Len())

	gotA, ok := c.GetChange(writerA, 1)
	require.True(t, ok)
	assert.True(t, gotA.WriterGUID.Equal(writerA))

	gotB, ok := c.GetChange(writerB, 1)
	require.True(t, ok)
	assert.True(t, gotB.WriterGUID.Equal(writerB))
}

func TestAddChangeDuplicateIsNoop(t *testing.T) {
	c, err := NewCache(ResourceLimits{})
	require.NoError(t, err)
	ch := change(1, 0)
	require.NoError(t, c.AddChange(ch))
	require.NoError(t, c.AddChange(ch))
	assert.Equal(t, 1, c.Len())
}

func TestResourceLimitsRejectOverflow(t *testing.T) {
	c, err := NewCache(ResourceLimits{MaxSamples: 1})
	require.NoError(t, err)
	require.NoError(t, c.AddChange(change(1, 0)))
	err = c.AddChange(change(2, 1))
	assert.ErrorIs(t, err, ErrOutOfResources)
}

func TestResourceLimitsPerInstance(t *testing.T) {
	c, err := NewCache(ResourceLimits{MaxSamplesPerInstance: 1})
	require.NoError(t, err)
	require.NoError(t, c.AddChange(change(1, 0)))
	err = c.AddChange(change(2, 0))
	assert.ErrorIs(t, err, ErrOutOfResources)
	require.NoError(t, c.AddChange(change(3, 1)))
}

func TestInconsistentLimitsRejectedAtConstruction(t *testing.T) {
	_, err := NewCache(ResourceLimits{MaxSamples: 1, MaxSamplesPerInstance: 2})
	assert.ErrorIs(t, err, ErrInconsistentLimits)
}

func TestRemoveChangeIdempotent(t *testing.T) {
	c, err := NewCache(ResourceLimits{})
	require.NoError(t, err)
	ch := change(1, 0)
	require.NoError(t, c.AddChange(ch))
	c.RemoveChange(ch)
	c.RemoveChange(ch)
	assert.Equal(t, 0, c.Len())
}

func TestOnAddChangeHookFiresSynchronously(t *testing.T) {
	c, err := NewCache(ResourceLimits{})
	require.NoError(t, err)
	var seen []wire.SequenceNumber
	c.SetOnAddChange(func(ch CacheChange) {
		seen = append(seen, ch.SequenceNumber)
	})
	require.NoError(t, c.AddChange(change(5, 0)))
	assert.Equal(t, []wire.SequenceNumber{5}, seen)
}

func TestSynthesizeInstanceHandleDeterministic(t *testing.T) {
	h1 := SynthesizeInstanceHandle([]byte("payload"))
	h2 := SynthesizeInstanceHandle([]byte("payload"))
	assert.Equal(t, h1, h2)
	h3 := SynthesizeInstanceHandle([]byte("other"))
	assert.NotEqual(t, h1, h3)
}
