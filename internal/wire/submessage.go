package wire

import "encoding/binary"

// SubmessageKind is the wire id byte of a submessage (spec.md §4.1).
type SubmessageKind uint8

const (
	KindPad           SubmessageKind = 0x01
	KindAckNack       SubmessageKind = 0x06
	KindHeartbeat     SubmessageKind = 0x07
	KindGap           SubmessageKind = 0x08
	KindInfoTimestamp SubmessageKind = 0x09
	KindInfoSource    SubmessageKind = 0x0c
	KindInfoDestination SubmessageKind = 0x0e
	KindData          SubmessageKind = 0x15
	KindDataFrag      SubmessageKind = 0x16
	KindNackFrag      SubmessageKind = 0x12
	KindHeartbeatFrag SubmessageKind = 0x13
)

// String names a submessage kind for logging and metrics labels.
func (k SubmessageKind) String() string {
	switch k {
	case KindPad:
		return "PAD"
	case KindAckNack:
		return "ACKNACK"
	case KindHeartbeat:
		return "HEARTBEAT"
	case KindGap:
		return "GAP"
	case KindInfoTimestamp:
		return "INFO_TS"
	case KindInfoSource:
		return "INFO_SRC"
	case KindInfoDestination:
		return "INFO_DST"
	case KindData:
		return "DATA"
	case KindDataFrag:
		return "DATA_FRAG"
	case KindNackFrag:
		return "NACK_FRAG"
	case KindHeartbeatFrag:
		return "HEARTBEAT_FRAG"
	default:
		return "UNKNOWN"
	}
}

// SubmessageHeader is the 4-byte (id, flags, length) prefix common to all
// submessages. The low bit of Flags is the endianness flag E.
type SubmessageHeader struct {
	Kind   SubmessageKind
	Flags  uint8
	Length uint16
}

func (h SubmessageHeader) LittleEndian() bool { return h.Flags&0x01 != 0 }

func (h SubmessageHeader) Flag(bit uint8) bool { return h.Flags&(1<<bit) != 0 }

// encodeHeader writes the 4-byte header in the submessage's own endianness.
func encodeHeader(buf []byte, kind SubmessageKind, flags uint8, length uint16, order binary.ByteOrder) {
	buf[0] = byte(kind)
	buf[1] = flags
	order.PutUint16(buf[2:4], length)
}

func decodeSubmessageHeader(buf []byte) (SubmessageHeader, error) {
	if len(buf) < 4 {
		return SubmessageHeader{}, WireSizeError{Needed: 4, Available: len(buf)}
	}
	flags := buf[1]
	order := ByteOrder(flags&0x01 != 0)
	length := order.Uint16(buf[2:4])
	return SubmessageHeader{Kind: SubmessageKind(buf[0]), Flags: flags, Length: length}, nil
}

// Submessage is a decoded submessage: its header plus the raw body bytes
// (already sliced to Length, or to end-of-datagram when Length==0 on the
// final submessage).
type Submessage struct {
	Header SubmessageHeader
	Body   []byte
}
