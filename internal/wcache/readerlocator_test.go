package wcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

func TestNextUnsentChangeThenAbsentFromUnsentChanges(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	rl := NewReaderLocator(wire.LocatorInvalid, cache, false)

	sn, ok := rl.NextUnsentChange(3)
	require.True(t, ok)
	assert.Equal(t, wire.SequenceNumber(1), sn)

	remaining := rl.UnsentChanges(3)
	assert.NotContains(t, remaining, sn)
	assert.Equal(t, []wire.SequenceNumber{2, 3}, remaining)
}

func TestUnsentChangesResetResendsAll(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	rl := NewReaderLocator(wire.LocatorInvalid, cache, false)
	_, _ = rl.NextUnsentChange(5)
	rl.UnsentChangesReset()
	assert.Equal(t, []wire.SequenceNumber{1, 2, 3, 4, 5}, rl.UnsentChanges(5))
}

func TestRequestedChangesFIFOByValue(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	rl := NewReaderLocator(wire.LocatorInvalid, cache, false)
	rl.RequestedChangesSet([]wire.SequenceNumber{5, 2, 3})
	assert.Equal(t, []wire.SequenceNumber{2, 3, 5}, rl.RequestedChanges())

	sn, ok := rl.NextRequestedChange()
	require.True(t, ok)
	assert.Equal(t, wire.SequenceNumber(2), sn)
}

func TestReaderProxyAckNackMonotonicity(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	rp := NewReaderProxy(wire.GUID{}, nil, nil, cache, false)

	assert.True(t, rp.AcceptAckNackCount(1))
	assert.False(t, rp.AcceptAckNackCount(1))
	assert.True(t, rp.AcceptAckNackCount(2))
}

func TestReaderProxyAckedChangesSetMonotone(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	rp := NewReaderProxy(wire.GUID{}, nil, nil, cache, false)
	rp.AckedChangesSet(5)
	rp.AckedChangesSet(2) // must not move backwards
	assert.Equal(t, wire.SequenceNumber(5), rp.HighestSNAcknowledged())
	assert.Equal(t, []wire.SequenceNumber{6, 7}, rp.UnackedChanges(7))
}
