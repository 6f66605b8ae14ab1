package wire

// Parameter ids used by the builtin discovery payloads (spec.md §6 and the
// SEDP endpoint records it builds on). Values follow the standard RTPS
// parameter id assignment so this codec interoperates with other
// implementations on the wire.
const (
	PIDPad                       uint16 = 0x0000
	PIDSentinel                  uint16 = 0x0001
	PIDParticipantLeaseDuration  uint16 = 0x0002
	PIDTopicName                 uint16 = 0x0005
	PIDTypeName                  uint16 = 0x0007
	PIDKeyHash                   uint16 = 0x0070
	PIDStatusInfo                uint16 = 0x0071
	PIDProtocolVersion           uint16 = 0x0015
	PIDVendorId                  uint16 = 0x0016
	PIDReliability               uint16 = 0x001a
	PIDDurability                uint16 = 0x001d
	PIDDefaultUnicastLocator     uint16 = 0x0031
	PIDMetatrafficUnicastLocator uint16 = 0x0032
	PIDMetatrafficMulticastLocator uint16 = 0x0033
	PIDDefaultMulticastLocator   uint16 = 0x0048
	PIDParticipantGUID           uint16 = 0x0050
	PIDEndpointGUID              uint16 = 0x005a
	PIDBuiltinEndpointSet        uint16 = 0x0058
)

// StatusInfo bits carried by PID_STATUS_INFO (spec.md §4.6): the low two
// bits of the fourth octet signal dispose/unregister independent of the
// DATA submessage's own D flag.
const (
	StatusInfoDisposed   uint32 = 1 << 0
	StatusInfoUnregistered uint32 = 1 << 1
)

// Parameter is one (id, value) entry of a ParameterList. Value is the raw,
// already-4-byte-aligned-on-write payload; Length on the wire is len(Value)
// before padding.
type Parameter struct {
	ID    uint16
	Value []byte
}

// ParameterList is the inline-QoS / discovery-payload parameter sequence
// (spec.md §4.1, §6): each entry is `parameterId:short, length:short, value`,
// 4-byte aligned, terminated by PID_SENTINEL with length 0.
type ParameterList struct {
	Params []Parameter
}

func (pl ParameterList) Get(id uint16) (Parameter, bool) {
	for _, p := range pl.Params {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

func (pl *ParameterList) Add(id uint16, value []byte) {
	pl.Params = append(pl.Params, Parameter{ID: id, Value: value})
}

// EncodeParameterList appends the wire form, including the sentinel, to w.
func EncodeParameterList(w *Writer, pl ParameterList) {
	for _, p := range pl.Params {
		w.PutU16(p.ID)
		w.PutU16(uint16(len(p.Value)))
		w.PutBytes(p.Value)
		w.Pad4()
	}
	w.PutU16(PIDSentinel)
	w.PutU16(0)
}

// DecodeParameterList reads parameters until PID_SENTINEL or the reader is
// exhausted. A length that would run past the remaining bytes is a
// ProtocolError: the payload is malformed, not merely short.
func DecodeParameterList(r *Reader) (ParameterList, error) {
	var pl ParameterList
	for {
		if r.Remaining() < 4 {
			return pl, ProtocolError{Reason: "parameter list missing PID_SENTINEL"}
		}
		id, err := r.U16()
		if err != nil {
			return pl, err
		}
		length, err := r.U16()
		if err != nil {
			return pl, err
		}
		if id == PIDSentinel {
			return pl, nil
		}
		if int(length) > r.Remaining() {
			return pl, ProtocolError{Reason: "parameter length exceeds remaining payload"}
		}
		value, err := r.Bytes(int(length))
		if err != nil {
			return pl, err
		}
		buf := make([]byte, len(value))
		copy(buf, value)
		pl.Params = append(pl.Params, Parameter{ID: id, Value: buf})
		if pad := int(length) % 4; pad != 0 {
			if err := r.Skip(4 - pad); err != nil {
				return pl, err
			}
		}
	}
}
