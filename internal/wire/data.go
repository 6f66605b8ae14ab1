package wire

// SerializedPayload is the (representation_identifier, representation_options,
// payload) triple carried by DATA's D/K bit (spec.md §4.1). The core only
// interprets PL_CDR_* for discovery records; user data passes through opaque.
type SerializedPayloadRepr uint16

const (
	ReprPLCDRBE SerializedPayloadRepr = 0x0002
	ReprPLCDRLE SerializedPayloadRepr = 0x0003
	ReprCDRBE   SerializedPayloadRepr = 0x0000
	ReprCDRLE   SerializedPayloadRepr = 0x0001
)

type SerializedPayload struct {
	Representation SerializedPayloadRepr
	Options        uint16
	Payload        []byte
}

func EncodeSerializedPayload(w *Writer, p SerializedPayload) {
	w.PutU16(uint16(p.Representation))
	w.PutU16(p.Options)
	w.PutBytes(p.Payload)
}

func DecodeSerializedPayload(r *Reader) (SerializedPayload, error) {
	repr, err := r.U16()
	if err != nil {
		return SerializedPayload{}, err
	}
	opts, err := r.U16()
	if err != nil {
		return SerializedPayload{}, err
	}
	payload, err := r.Bytes(r.Remaining())
	if err != nil {
		return SerializedPayload{}, err
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return SerializedPayload{Representation: SerializedPayloadRepr(repr), Options: opts, Payload: buf}, nil
}

// DataFlags are the DATA submessage's flag bits (spec.md §4.1: X|X|X|N|K|D|Q|E).
const (
	DataFlagEndianness uint8 = 1 << 0
	DataFlagInlineQos  uint8 = 1 << 1
	DataFlagData       uint8 = 1 << 2
	DataFlagKey        uint8 = 1 << 3
	DataFlagNonStandardPayload uint8 = 1 << 4
)

// DataSubmessage carries one CacheChange (spec.md §4.1). Q => InlineQos is
// present; D => SerializedData holds the data value; K => SerializedData
// holds the key instead. D and K are mutually exclusive.
type DataSubmessage struct {
	ReaderId         EntityId
	WriterId         EntityId
	WriterSN         SequenceNumber
	InlineQos        *ParameterList
	SerializedData   *SerializedPayload
	HasKey           bool
}

// EncodeData writes the DATA submessage body (after the 4-byte submessage
// header) in the given byte order, returning the flags to place in the
// header alongside the endianness bit.
func EncodeData(order_littleEndian bool, msg DataSubmessage) (flags uint8, body []byte) {
	order := ByteOrder(order_littleEndian)
	w := NewWriter(order)
	w.PutU16(0) // extraFlags
	octetsPos := w.Len()
	w.PutU16(0) // octetsToInlineQos placeholder
	w.PutEntityId(msg.ReaderId)
	w.PutEntityId(msg.WriterId)
	w.PutSequenceNumber(msg.WriterSN)

	octetsToInlineQos := w.Len() - (octetsPos + 2)
	buf := w.Bytes()
	order.PutUint16(buf[octetsPos:octetsPos+2], uint16(octetsToInlineQos))

	if order_littleEndian {
		flags |= DataFlagEndianness
	}
	if msg.InlineQos != nil {
		flags |= DataFlagInlineQos
		EncodeParameterList(w, *msg.InlineQos)
	}
	if msg.SerializedData != nil {
		if msg.HasKey {
			flags |= DataFlagKey
		} else {
			flags |= DataFlagData
		}
		EncodeSerializedPayload(w, *msg.SerializedData)
	}
	return flags, w.Bytes()
}

func DecodeData(flags uint8, body []byte) (DataSubmessage, error) {
	order := ByteOrder(flags&DataFlagEndianness != 0)
	r := NewReader(body, order)
	if _, err := r.U16(); err != nil { // extraFlags
		return DataSubmessage{}, err
	}
	octetsToInlineQos, err := r.U16()
	if err != nil {
		return DataSubmessage{}, err
	}
	afterOctets := r.pos
	readerId, err := r.EntityId()
	if err != nil {
		return DataSubmessage{}, err
	}
	writerId, err := r.EntityId()
	if err != nil {
		return DataSubmessage{}, err
	}
	sn, err := r.SequenceNumber()
	if err != nil {
		return DataSubmessage{}, err
	}

	if skip := int(octetsToInlineQos) - (r.pos - afterOctets); skip > 0 {
		if err := r.Skip(skip); err != nil {
			return DataSubmessage{}, err
		}
	}

	msg := DataSubmessage{ReaderId: readerId, WriterId: writerId, WriterSN: sn}
	if flags&DataFlagInlineQos != 0 {
		pl, err := DecodeParameterList(r)
		if err != nil {
			return DataSubmessage{}, err
		}
		msg.InlineQos = &pl
	}
	hasData := flags&DataFlagData != 0
	hasKey := flags&DataFlagKey != 0
	if hasData && hasKey {
		return DataSubmessage{}, ProtocolError{Reason: "DATA submessage sets both D and K"}
	}
	if hasData || hasKey {
		payload, err := DecodeSerializedPayload(r)
		if err != nil {
			return DataSubmessage{}, err
		}
		msg.SerializedData = &payload
		msg.HasKey = hasKey
	}
	return msg, nil
}
