package wire

// GapSubmessage declares CacheChanges as irrelevant to a reader: the range
// [GapStart, GapList.Base-1] plus the bits set in GapList (spec.md §4.1).
type GapSubmessage struct {
	ReaderId EntityId
	WriterId EntityId
	GapStart SequenceNumber
	GapList  SequenceNumberSet
}

func EncodeGap(littleEndian bool, msg GapSubmessage) (flags uint8, body []byte, err error) {
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	w.PutEntityId(msg.ReaderId)
	w.PutEntityId(msg.WriterId)
	w.PutSequenceNumber(msg.GapStart)
	if err := w.PutSequenceNumberSet(msg.GapList); err != nil {
		return 0, nil, err
	}
	if littleEndian {
		flags |= DataFlagEndianness
	}
	return flags, w.Bytes(), nil
}

func DecodeGap(flags uint8, body []byte) (GapSubmessage, error) {
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	readerId, err := r.EntityId()
	if err != nil {
		return GapSubmessage{}, err
	}
	writerId, err := r.EntityId()
	if err != nil {
		return GapSubmessage{}, err
	}
	gapStart, err := r.SequenceNumber()
	if err != nil {
		return GapSubmessage{}, err
	}
	gapList, err := r.SequenceNumberSet()
	if err != nil {
		return GapSubmessage{}, err
	}
	return GapSubmessage{ReaderId: readerId, WriterId: writerId, GapStart: gapStart, GapList: gapList}, nil
}
