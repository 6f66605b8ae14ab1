package wire

// Heartbeat/AckNack flag bits beyond endianness (spec.md §4.1).
const (
	HeartbeatFlagFinal   uint8 = 1 << 1
	HeartbeatFlagLiveliness uint8 = 1 << 2
	AckNackFlagFinal     uint8 = 1 << 1
)

// HeartbeatSubmessage announces the writer's available range
// [FirstSN, LastSN] (spec.md §4.1). Valid iff FirstSN>=1, LastSN>=0,
// LastSN>=FirstSN-1.
type HeartbeatSubmessage struct {
	ReaderId EntityId
	WriterId EntityId
	FirstSN  SequenceNumber
	LastSN   SequenceNumber
	Count    uint32
	Final    bool
	Liveliness bool
}

func (h HeartbeatSubmessage) Validate() error {
	if h.FirstSN < 1 || h.LastSN < 0 || h.LastSN < h.FirstSN-1 {
		return ProtocolError{Reason: "invalid HEARTBEAT sequence number range"}
	}
	return nil
}

func EncodeHeartbeat(littleEndian bool, msg HeartbeatSubmessage) (flags uint8, body []byte, err error) {
	if err := msg.Validate(); err != nil {
		return 0, nil, err
	}
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	w.PutEntityId(msg.ReaderId)
	w.PutEntityId(msg.WriterId)
	w.PutSequenceNumber(msg.FirstSN)
	w.PutSequenceNumber(msg.LastSN)
	w.PutU32(msg.Count)
	if littleEndian {
		flags |= DataFlagEndianness
	}
	if msg.Final {
		flags |= HeartbeatFlagFinal
	}
	if msg.Liveliness {
		flags |= HeartbeatFlagLiveliness
	}
	return flags, w.Bytes(), nil
}

func DecodeHeartbeat(flags uint8, body []byte) (HeartbeatSubmessage, error) {
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	readerId, err := r.EntityId()
	if err != nil {
		return HeartbeatSubmessage{}, err
	}
	writerId, err := r.EntityId()
	if err != nil {
		return HeartbeatSubmessage{}, err
	}
	firstSN, err := r.SequenceNumber()
	if err != nil {
		return HeartbeatSubmessage{}, err
	}
	lastSN, err := r.SequenceNumber()
	if err != nil {
		return HeartbeatSubmessage{}, err
	}
	count, err := r.U32()
	if err != nil {
		return HeartbeatSubmessage{}, err
	}
	msg := HeartbeatSubmessage{
		ReaderId: readerId, WriterId: writerId,
		FirstSN: firstSN, LastSN: lastSN, Count: count,
		Final:      flags&HeartbeatFlagFinal != 0,
		Liveliness: flags&HeartbeatFlagLiveliness != 0,
	}
	if err := msg.Validate(); err != nil {
		return HeartbeatSubmessage{}, err
	}
	return msg, nil
}

// AckNackSubmessage reports a reader's receive state: ReaderSNState.Base is
// the next expected sequence number, its bits mark still-missing changes
// (spec.md §4.1).
type AckNackSubmessage struct {
	ReaderId      EntityId
	WriterId      EntityId
	ReaderSNState SequenceNumberSet
	Count         uint32
	Final         bool
}

func EncodeAckNack(littleEndian bool, msg AckNackSubmessage) (flags uint8, body []byte, err error) {
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	w.PutEntityId(msg.ReaderId)
	w.PutEntityId(msg.WriterId)
	if err := w.PutSequenceNumberSet(msg.ReaderSNState); err != nil {
		return 0, nil, err
	}
	w.PutU32(msg.Count)
	if littleEndian {
		flags |= DataFlagEndianness
	}
	if msg.Final {
		flags |= AckNackFlagFinal
	}
	return flags, w.Bytes(), nil
}

func DecodeAckNack(flags uint8, body []byte) (AckNackSubmessage, error) {
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	readerId, err := r.EntityId()
	if err != nil {
		return AckNackSubmessage{}, err
	}
	writerId, err := r.EntityId()
	if err != nil {
		return AckNackSubmessage{}, err
	}
	state, err := r.SequenceNumberSet()
	if err != nil {
		return AckNackSubmessage{}, err
	}
	count, err := r.U32()
	if err != nil {
		return AckNackSubmessage{}, err
	}
	return AckNackSubmessage{
		ReaderId: readerId, WriterId: writerId, ReaderSNState: state, Count: count,
		Final: flags&AckNackFlagFinal != 0,
	}, nil
}
