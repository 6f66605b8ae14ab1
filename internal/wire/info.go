package wire

// InfoTimestampFlagInvalidate is the I bit: when set, no Timestamp field is
// present and the receiver context's timestamp becomes invalid (spec.md §4.1).
const InfoTimestampFlagInvalidate uint8 = 1 << 1

// InfoTimestampSubmessage carries the source timestamp applied to
// subsequent submessages in the datagram, unless I is set.
type InfoTimestampSubmessage struct {
	Invalidate bool
	Timestamp  Time
}

func EncodeInfoTimestamp(littleEndian bool, msg InfoTimestampSubmessage) (flags uint8, body []byte) {
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	if littleEndian {
		flags |= DataFlagEndianness
	}
	if msg.Invalidate {
		flags |= InfoTimestampFlagInvalidate
		return flags, nil
	}
	w.PutTime(msg.Timestamp)
	return flags, w.Bytes()
}

func DecodeInfoTimestamp(flags uint8, body []byte) (InfoTimestampSubmessage, error) {
	if flags&InfoTimestampFlagInvalidate != 0 {
		return InfoTimestampSubmessage{Invalidate: true}, nil
	}
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	t, err := r.Time()
	if err != nil {
		return InfoTimestampSubmessage{}, err
	}
	return InfoTimestampSubmessage{Timestamp: t}, nil
}

// InfoDestinationSubmessage overrides the destination GuidPrefix applied to
// subsequent submessages in the datagram (spec.md §4.1).
type InfoDestinationSubmessage struct {
	GuidPrefix GuidPrefix
}

func EncodeInfoDestination(littleEndian bool, msg InfoDestinationSubmessage) (flags uint8, body []byte) {
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	w.PutGuidPrefix(msg.GuidPrefix)
	if littleEndian {
		flags |= DataFlagEndianness
	}
	return flags, w.Bytes()
}

func DecodeInfoDestination(flags uint8, body []byte) (InfoDestinationSubmessage, error) {
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	gp, err := r.GuidPrefix()
	if err != nil {
		return InfoDestinationSubmessage{}, err
	}
	return InfoDestinationSubmessage{GuidPrefix: gp}, nil
}

// InfoSourceSubmessage overrides the source protocol version, vendor id,
// and GuidPrefix applied to subsequent submessages (spec.md §4.1).
type InfoSourceSubmessage struct {
	ProtocolVersion ProtocolVersion
	VendorId        VendorId
	GuidPrefix      GuidPrefix
}

func EncodeInfoSource(littleEndian bool, msg InfoSourceSubmessage) (flags uint8, body []byte) {
	order := ByteOrder(littleEndian)
	w := NewWriter(order)
	w.PutU32(0) // reserved
	w.PutU8(msg.ProtocolVersion.Major)
	w.PutU8(msg.ProtocolVersion.Minor)
	w.PutBytes(msg.VendorId[:])
	w.PutGuidPrefix(msg.GuidPrefix)
	if littleEndian {
		flags |= DataFlagEndianness
	}
	return flags, w.Bytes()
}

func DecodeInfoSource(flags uint8, body []byte) (InfoSourceSubmessage, error) {
	order := ByteOrder(flags&0x01 != 0)
	r := NewReader(body, order)
	if _, err := r.U32(); err != nil { // reserved
		return InfoSourceSubmessage{}, err
	}
	major, err := r.U8()
	if err != nil {
		return InfoSourceSubmessage{}, err
	}
	minor, err := r.U8()
	if err != nil {
		return InfoSourceSubmessage{}, err
	}
	vendorBytes, err := r.Bytes(2)
	if err != nil {
		return InfoSourceSubmessage{}, err
	}
	var vendor VendorId
	copy(vendor[:], vendorBytes)
	gp, err := r.GuidPrefix()
	if err != nil {
		return InfoSourceSubmessage{}, err
	}
	return InfoSourceSubmessage{
		ProtocolVersion: ProtocolVersion{Major: major, Minor: minor},
		VendorId:        vendor,
		GuidPrefix:      gp,
	}, nil
}
