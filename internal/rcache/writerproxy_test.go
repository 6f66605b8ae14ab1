package rcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gortps/rtps/internal/wire"
)

func TestAvailableChangesMaxAdvancesOnContiguousReceive(t *testing.T) {
	wp := NewWriterProxy(wire.GUID{}, nil, nil)
	wp.ReceivedChangeSet(1)
	wp.ReceivedChangeSet(2)
	assert.Equal(t, wire.SequenceNumber(2), wp.AvailableChangesMax())

	wp.ReceivedChangeSet(4) // gap at 3
	assert.Equal(t, wire.SequenceNumber(2), wp.AvailableChangesMax())

	wp.IrrelevantChangeSet(3)
	assert.Equal(t, wire.SequenceNumber(4), wp.AvailableChangesMax())
}

func TestAvailableChangesMaxIsMonotone(t *testing.T) {
	wp := NewWriterProxy(wire.GUID{}, nil, nil)
	var last wire.SequenceNumber
	for _, sn := range []wire.SequenceNumber{1, 3, 2, 5, 4} {
		wp.ReceivedChangeSet(sn)
		cur := wp.AvailableChangesMax()
		assert.GreaterOrEqual(t, cur, last)
		last = cur
	}
}

func TestMissingChangesUpdateAndLostChangesUpdate(t *testing.T) {
	wp := NewWriterProxy(wire.GUID{}, nil, nil)
	wp.ReceivedChangeSet(1)
	wp.MissingChangesUpdate(5)
	assert.Equal(t, []wire.SequenceNumber{2, 3, 4, 5}, wp.MissingChanges())

	wp.LostChangesUpdate(4)
	assert.Equal(t, []wire.SequenceNumber{4, 5}, wp.MissingChanges())
}

func TestHeartbeatCountMonotonicity(t *testing.T) {
	wp := NewWriterProxy(wire.GUID{}, nil, nil)
	assert.True(t, wp.AcceptHeartbeatCount(1))
	assert.False(t, wp.AcceptHeartbeatCount(1))
	assert.True(t, wp.AcceptHeartbeatCount(2))
}
