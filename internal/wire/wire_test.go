package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHeaderRoundTrip(t *testing.T) {
	h := MessageHeader{
		Version:    ProtocolVersion24,
		VendorId:   VendorIdThis,
		GuidPrefix: GuidPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	buf := EncodeMessageHeader(h)
	got, n, err := DecodeMessageHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, h, got)
}

func TestDecodeMessageHeaderBadMagic(t *testing.T) {
	buf := EncodeMessageHeader(MessageHeader{Version: ProtocolVersion24})
	buf[0] = 'X'
	_, _, err := DecodeMessageHeader(buf)
	var protoErr ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestDataSubmessageRoundTrip(t *testing.T) {
	for _, littleEndian := range []bool{true, false} {
		payload := SerializedPayload{Representation: ReprCDRLE, Payload: []byte("hello world")}
		msg := DataSubmessage{
			ReaderId:       EntityIdUnknown,
			WriterId:       EntityId{EntityKey: [3]byte{0, 0, 1}, Kind: EntityKindWriterWithKey},
			WriterSN:       42,
			SerializedData: &payload,
		}
		flags, body := EncodeData(littleEndian, msg)
		got, err := DecodeData(flags, body)
		require.NoError(t, err)
		assert.Equal(t, msg.ReaderId, got.ReaderId)
		assert.Equal(t, msg.WriterId, got.WriterId)
		assert.Equal(t, msg.WriterSN, got.WriterSN)
		require.NotNil(t, got.SerializedData)
		assert.Equal(t, payload.Payload, got.SerializedData.Payload)
		assert.False(t, got.HasKey)
	}
}

func TestDataSubmessageWithInlineQos(t *testing.T) {
	var pl ParameterList
	pl.Add(PIDTopicName, []byte("Square\x00"))
	msg := DataSubmessage{
		ReaderId:  EntityIdUnknown,
		WriterId:  EntityIdSedpBuiltinTopicsWriter,
		WriterSN:  1,
		InlineQos: &pl,
	}
	flags, body := EncodeData(true, msg)
	got, err := DecodeData(flags, body)
	require.NoError(t, err)
	require.NotNil(t, got.InlineQos)
	p, ok := got.InlineQos.Get(PIDTopicName)
	require.True(t, ok)
	assert.Equal(t, pl.Params[0].Value, p.Value)
}

func TestDataRejectsBothDAndK(t *testing.T) {
	_, err := DecodeData(DataFlagData|DataFlagKey|DataFlagEndianness, []byte{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	})
	var protoErr ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestHeartbeatRoundTripAndValidation(t *testing.T) {
	msg := HeartbeatSubmessage{
		ReaderId: EntityIdUnknown,
		WriterId: EntityIdSpdpBuiltinParticipantWriter,
		FirstSN:  1,
		LastSN:   10,
		Count:    3,
		Final:    true,
	}
	flags, body, err := EncodeHeartbeat(true, msg)
	require.NoError(t, err)
	got, err := DecodeHeartbeat(flags, body)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	bad := msg
	bad.LastSN = -1
	_, _, err = EncodeHeartbeat(true, bad)
	require.Error(t, err)
}

func TestAckNackRoundTrip(t *testing.T) {
	set := NewSequenceNumberSet(5, 5, 7, 9)
	msg := AckNackSubmessage{
		ReaderId:      EntityIdUnknown,
		WriterId:      EntityIdSpdpBuiltinParticipantWriter,
		ReaderSNState: set,
		Count:         1,
	}
	flags, body, err := EncodeAckNack(false, msg)
	require.NoError(t, err)
	got, err := DecodeAckNack(flags, body)
	require.NoError(t, err)
	assert.Equal(t, msg.ReaderId, got.ReaderId)
	assert.Equal(t, msg.ReaderSNState.Members(), got.ReaderSNState.Members())
}

func TestGapRoundTrip(t *testing.T) {
	gapList := NewSequenceNumberSet(10, 11, 12)
	msg := GapSubmessage{
		ReaderId: EntityIdUnknown,
		WriterId: EntityIdSpdpBuiltinParticipantWriter,
		GapStart: 5,
		GapList:  gapList,
	}
	flags, body, err := EncodeGap(true, msg)
	require.NoError(t, err)
	got, err := DecodeGap(flags, body)
	require.NoError(t, err)
	assert.Equal(t, msg.GapStart, got.GapStart)
	assert.Equal(t, msg.GapList.Members(), got.GapList.Members())
}

func TestInfoTimestampRoundTrip(t *testing.T) {
	ts := TimeNow(1700000000, 500_000_000)
	flags, body := EncodeInfoTimestamp(true, InfoTimestampSubmessage{Timestamp: ts})
	got, err := DecodeInfoTimestamp(flags, body)
	require.NoError(t, err)
	assert.Equal(t, ts, got.Timestamp)

	flags, body = EncodeInfoTimestamp(true, InfoTimestampSubmessage{Invalidate: true})
	got, err = DecodeInfoTimestamp(flags, body)
	require.NoError(t, err)
	assert.True(t, got.Invalidate)
}

func TestInfoDestinationRoundTrip(t *testing.T) {
	gp := GuidPrefix{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	flags, body := EncodeInfoDestination(true, InfoDestinationSubmessage{GuidPrefix: gp})
	got, err := DecodeInfoDestination(flags, body)
	require.NoError(t, err)
	assert.Equal(t, gp, got.GuidPrefix)
}

func TestInfoSourceRoundTrip(t *testing.T) {
	msg := InfoSourceSubmessage{
		ProtocolVersion: ProtocolVersion24,
		VendorId:        VendorIdThis,
		GuidPrefix:      GuidPrefix{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	flags, body := EncodeInfoSource(false, msg)
	got, err := DecodeInfoSource(flags, body)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestParameterListRoundTripWithOddLengths(t *testing.T) {
	var pl ParameterList
	pl.Add(PIDTopicName, []byte("Sq\x00"))
	pl.Add(PIDTypeName, []byte("ShapeType"))

	w := NewWriter(ByteOrder(true))
	EncodeParameterList(w, pl)
	r := NewReader(w.Bytes(), ByteOrder(true))
	got, err := DecodeParameterList(r)
	require.NoError(t, err)
	require.Len(t, got.Params, 2)
	assert.Equal(t, pl.Params[0].Value, got.Params[0].Value)
	assert.Equal(t, pl.Params[1].Value, got.Params[1].Value)
	assert.Equal(t, 0, r.Remaining())
}

func TestSequenceNumberSetValidation(t *testing.T) {
	s := SequenceNumberSet{Base: 0, NumBits: 1}
	require.Error(t, s.Validate())

	s = SequenceNumberSet{Base: 1, NumBits: 0}
	require.Error(t, s.Validate())

	s = SequenceNumberSet{Base: 1, NumBits: 257}
	require.Error(t, s.Validate())
}

func TestParseAndEncodeMessageRoundTrip(t *testing.T) {
	header := MessageHeader{Version: ProtocolVersion24, VendorId: VendorIdThis, GuidPrefix: GuidPrefix{1}}
	flags, body, err := EncodeHeartbeat(true, HeartbeatSubmessage{
		ReaderId: EntityIdUnknown, WriterId: EntityIdSpdpBuiltinParticipantWriter,
		FirstSN: 1, LastSN: 1, Count: 1,
	})
	require.NoError(t, err)
	subs := []Submessage{{Header: SubmessageHeader{Kind: KindHeartbeat, Flags: flags}, Body: body}}

	datagram := EncodeMessage(header, subs)
	gotHeader, gotSubs, err := ParseMessage(datagram)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	require.Len(t, gotSubs, 1)
	assert.Equal(t, KindHeartbeat, gotSubs[0].Header.Kind)
	assert.Equal(t, body, gotSubs[0].Body)
}

func TestParseMessageLengthZeroMustBeLast(t *testing.T) {
	header := MessageHeader{Version: ProtocolVersion24, VendorId: VendorIdThis}
	datagram := EncodeMessageHeader(header)
	datagram = append(datagram, byte(KindPad), 0, 0, 0) // length=0, no following bytes: fine, extends to end
	_, subs, err := ParseMessage(datagram)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 0, len(subs[0].Body))
}
