package wire

// MessageHeader is the fixed RTPS message prologue: "RTPS", version,
// vendor id, sender guid prefix (spec.md §4.1).
type MessageHeader struct {
	Version    ProtocolVersion
	VendorId   VendorId
	GuidPrefix GuidPrefix
}

const messageHeaderLen = 4 + 2 + 2 + 12

// EncodeMessageHeader writes the 20-byte prologue.
func EncodeMessageHeader(h MessageHeader) []byte {
	buf := make([]byte, 0, messageHeaderLen)
	buf = append(buf, rtpsMagic[:]...)
	buf = append(buf, h.Version.Major, h.Version.Minor)
	buf = append(buf, h.VendorId[:]...)
	buf = append(buf, h.GuidPrefix[:]...)
	return buf
}

func DecodeMessageHeader(buf []byte) (MessageHeader, int, error) {
	if len(buf) < messageHeaderLen {
		return MessageHeader{}, 0, WireSizeError{Needed: messageHeaderLen, Available: len(buf)}
	}
	if buf[0] != 'R' || buf[1] != 'T' || buf[2] != 'P' || buf[3] != 'S' {
		return MessageHeader{}, 0, ProtocolError{Reason: "bad RTPS magic"}
	}
	h := MessageHeader{
		Version: ProtocolVersion{Major: buf[4], Minor: buf[5]},
	}
	copy(h.VendorId[:], buf[6:8])
	copy(h.GuidPrefix[:], buf[8:20])
	return h, messageHeaderLen, nil
}

// ParseMessage splits a full RTPS datagram into its header and the raw
// submessages it carries, in wire order. Unknown submessage kinds are kept
// as opaque Submessage values (skipped via Length, never interpreted) so
// callers can forward or drop them without understanding their payload.
//
// A submessage with Length==0 extends to the end of the datagram; this is
// only legal for the last submessage (spec.md §4.1).
func ParseMessage(datagram []byte) (MessageHeader, []Submessage, error) {
	header, n, err := DecodeMessageHeader(datagram)
	if err != nil {
		return MessageHeader{}, nil, err
	}

	var subs []Submessage
	pos := n
	for pos < len(datagram) {
		hdr, err := decodeSubmessageHeader(datagram[pos:])
		if err != nil {
			return MessageHeader{}, nil, err
		}
		bodyStart := pos + 4
		var bodyEnd int
		if hdr.Length == 0 {
			bodyEnd = len(datagram)
		} else {
			bodyEnd = bodyStart + int(hdr.Length)
		}
		if bodyEnd > len(datagram) {
			return MessageHeader{}, nil, WireSizeError{Needed: bodyEnd - bodyStart, Available: len(datagram) - bodyStart}
		}
		subs = append(subs, Submessage{Header: hdr, Body: datagram[bodyStart:bodyEnd]})
		pos = bodyEnd
	}
	return header, subs, nil
}

// EncodeMessage serializes a header and its submessages back into one
// datagram. Every submessage's Length is re-derived from its body, except
// that a last submessage built with Length==0 (to-end-of-datagram) keeps 0,
// so such a message round-trips exactly.
func EncodeMessage(header MessageHeader, subs []Submessage) []byte {
	out := EncodeMessageHeader(header)
	for i, s := range subs {
		hdrBuf := make([]byte, 4)
		order := ByteOrder(s.Header.LittleEndian())
		length := uint16(len(s.Body))
		if i == len(subs)-1 && s.Header.Length == 0 {
			length = 0
		}
		encodeHeader(hdrBuf, s.Header.Kind, s.Header.Flags, length, order)
		out = append(out, hdrBuf...)
		out = append(out, s.Body...)
	}
	return out
}
