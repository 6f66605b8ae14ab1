package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/rcache"
	"github.com/gortps/rtps/internal/wcache"
	"github.com/gortps/rtps/internal/wire"
)

func testWriterGUID() wire.GUID {
	return wire.GUID{Entity: wire.EntityIdSpdpBuiltinParticipantWriter}
}

// S1: stateless best-effort push, single locator.
func TestScenarioS1StatelessBestEffortPush(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	w := NewWriter(testWriterGUID(), cache, WriterConfig{})
	_, err = w.NewChange(wire.ChangeKindAlive, wire.InstanceHandle{}, nil)
	require.NoError(t, err)
	_, err = w.NewChange(wire.ChangeKindAlive, wire.InstanceHandle{}, nil)
	require.NoError(t, err)

	rl := wcache.NewReaderLocator(wire.LocatorFromUDPv4(239, 255, 0, 1, 7400), cache, false)
	w.AddReaderLocator(rl)

	out := w.Tick(0)
	require.Len(t, out, 1)
	subs := out[0].Submessages
	// [INFO_TS, DATA(sn=1), INFO_TS, DATA(sn=2)]: every DATA carries its own
	// fresh leading INFO_TS.
	require.Len(t, subs, 4)
	assert.Equal(t, wire.KindInfoTimestamp, subs[0].Header.Kind)
	assert.Equal(t, wire.KindData, subs[1].Header.Kind)
	assert.Equal(t, wire.KindInfoTimestamp, subs[2].Header.Kind)
	assert.Equal(t, wire.KindData, subs[3].Header.Kind)

	out2 := w.Tick(0)
	assert.Empty(t, out2)
}

// S2: stateless gap emission when earlier sequence numbers were never added.
func TestScenarioS2StatelessGapEmission(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	w := NewWriter(testWriterGUID(), cache, WriterConfig{})
	w.LastChangeSequenceNumber = 4
	w.LastChangeSequenceNumber++ // 5, matching "new_change'd without being added" for 1..4
	require.NoError(t, cache.AddChange(history.CacheChange{WriterGUID: w.GUID, SequenceNumber: 5}))

	rl := wcache.NewReaderLocator(wire.LocatorFromUDPv4(239, 255, 0, 1, 7400), cache, false)
	w.AddReaderLocator(rl)

	out := w.Tick(0)
	require.Len(t, out, 1)
	subs := out[0].Submessages
	// [INFO_TS, GAP(1), GAP(2), GAP(3), GAP(4), INFO_TS, DATA(sn=5)]: the
	// four consecutive GAPs share a single leading INFO_TS, and the
	// following DATA gets a fresh one of its own.
	require.Len(t, subs, 7)
	assert.Equal(t, wire.KindInfoTimestamp, subs[0].Header.Kind)
	for i := 1; i <= 4; i++ {
		assert.Equal(t, wire.KindGap, subs[i].Header.Kind)
	}
	assert.Equal(t, wire.KindInfoTimestamp, subs[5].Header.Kind)
	assert.Equal(t, wire.KindData, subs[6].Header.Kind)
}

// S3: reliable reader receives a non-final heartbeat.
func TestScenarioS3ReliableReaderNonFinalHeartbeat(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	r := NewReader(wire.GUID{}, cache, ReaderConfig{Reliable: true})
	wp := rcache.NewWriterProxy(wire.GUID{Entity: wire.EntityIdSpdpBuiltinParticipantWriter}, nil, nil)
	r.AddWriterProxy(wp)

	ok := r.OnHeartbeat(wire.GuidPrefix{}, wire.HeartbeatSubmessage{
		ReaderId: r.GUID.Entity, WriterId: wp.RemoteWriterGUID.Entity,
		FirstSN: 3, LastSN: 6, Count: 1, Final: false,
	}, 0)
	require.True(t, ok)
	assert.Equal(t, []wire.SequenceNumber{3, 4, 5, 6}, wp.MissingChanges())
	assert.Equal(t, rcache.ReaderMustSendAck, wp.ReaderState)
}

// S4: reliable reader receives a final heartbeat with no gaps.
func TestScenarioS4ReliableReaderFinalHeartbeatNoGaps(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	r := NewReader(wire.GUID{}, cache, ReaderConfig{Reliable: true})
	wp := rcache.NewWriterProxy(wire.GUID{Entity: wire.EntityIdSpdpBuiltinParticipantWriter}, nil, nil)
	r.AddWriterProxy(wp)

	ok := r.OnHeartbeat(wire.GuidPrefix{}, wire.HeartbeatSubmessage{
		ReaderId: r.GUID.Entity, WriterId: wp.RemoteWriterGUID.Entity,
		FirstSN: 1, LastSN: 0, Count: 1, Final: true,
	}, 0)
	require.True(t, ok)
	assert.Empty(t, wp.MissingChanges())
	assert.Equal(t, rcache.ReaderReady, wp.ReaderState)
}

// S5: reliable reader emits exactly one ACKNACK after heartbeat_response_delay.
func TestScenarioS5ReliableReaderAckNackAfterDelay(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	delay := wire.DurationFromSeconds(0.3)
	r := NewReader(wire.GUID{}, cache, ReaderConfig{Reliable: true, HeartbeatResponseDelay: delay})
	wp := rcache.NewWriterProxy(wire.GUID{Entity: wire.EntityIdSpdpBuiltinParticipantWriter}, nil, nil)
	r.AddWriterProxy(wp)

	r.OnHeartbeat(wire.GuidPrefix{}, wire.HeartbeatSubmessage{
		ReaderId: r.GUID.Entity, WriterId: wp.RemoteWriterGUID.Entity,
		FirstSN: 3, LastSN: 6, Count: 1, Final: false,
	}, 0)

	before := r.Tick(delay.Nanoseconds() - 1)
	assert.Empty(t, before)

	after := r.Tick(delay.Nanoseconds())
	require.Len(t, after, 1)
	subs := after[0].Submessages
	require.Len(t, subs, 1)
	assert.Equal(t, wire.KindAckNack, subs[0].Header.Kind)

	got, err := wire.DecodeAckNack(subs[0].Header.Flags, subs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, wire.SequenceNumber(3), got.ReaderSNState.Base)
	assert.Equal(t, []wire.SequenceNumber{3, 4, 5, 6}, got.ReaderSNState.Members())
	assert.Equal(t, uint32(1), got.Count)
	assert.True(t, got.Final)
}

// S6: stateful writer repair after ACKNACK + nack_response_delay.
func TestScenarioS6StatefulWriterRepair(t *testing.T) {
	cache, err := history.NewCache(history.ResourceLimits{})
	require.NoError(t, err)
	delay := wire.DurationFromSeconds(0.2)
	w := NewWriter(testWriterGUID(), cache, WriterConfig{Stateful: true, Reliable: true, NackResponseDelay: delay, HeartbeatPeriod: wire.DurationFromSeconds(1)})
	_, err = w.NewChange(wire.ChangeKindAlive, wire.InstanceHandle{}, nil)
	require.NoError(t, err)
	_, err = w.NewChange(wire.ChangeKindAlive, wire.InstanceHandle{}, nil)
	require.NoError(t, err)

	remote := wire.GUID{Entity: wire.EntityId{EntityKey: [3]byte{9, 9, 9}, Kind: wire.EntityKindReaderWithKey}}
	rp := wcache.NewReaderProxy(remote, nil, nil, cache, false)
	w.AddReaderProxy(rp)

	// drain the initial push so the proxy reaches ANNOUNCING before the nack.
	w.Tick(0)

	ok := w.OnAckNack(wire.AckNackSubmessage{
		ReaderId:      remote.Entity,
		WriterId:      testWriterGUID().Entity,
		ReaderSNState: wire.NewSequenceNumberSet(2, 2),
		Count:         1,
	}, 0)
	require.True(t, ok)

	before := w.Tick(delay.Nanoseconds() - 1)
	assert.Empty(t, before)

	after := w.Tick(delay.Nanoseconds())
	require.Len(t, after, 1)
	// [INFO_TS, DATA(sn=2, reader_id=R)].
	require.Len(t, after[0].Submessages, 2)
	assert.Equal(t, wire.KindInfoTimestamp, after[0].Submessages[0].Header.Kind)
	assert.Equal(t, wire.KindData, after[0].Submessages[1].Header.Kind)
}
