package wire

import (
	"encoding/binary"
)

// ByteOrder picks the concrete binary.ByteOrder for a submessage's E flag.
// E=0 means big-endian, E=1 means little-endian (spec.md §4.1).
func ByteOrder(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Writer accumulates bytes for one submessage body, tracking alignment so
// callers can pad to 4-byte boundaries the way ParameterList entries require.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutU64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutI32(v int32) { w.PutU32(uint32(v)) }

func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// Pad4 pads the buffer to a 4-byte boundary with zero bytes.
func (w *Writer) Pad4() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) PutGuidPrefix(p GuidPrefix) { w.PutBytes(p[:]) }

func (w *Writer) PutEntityId(e EntityId) {
	b := e.Bytes()
	w.PutBytes(b[:])
}

func (w *Writer) PutSequenceNumber(sn SequenceNumber) {
	w.PutI32(int32(int64(sn) >> 32))
	w.PutU32(uint32(int64(sn)))
}

func (w *Writer) PutTime(t Time) {
	w.PutU32(t.Seconds)
	w.PutU32(t.Fraction)
}

func (w *Writer) PutDuration(d Duration) {
	w.PutI32(d.Seconds)
	w.PutU32(d.Fraction)
}

func (w *Writer) PutLocator(l Locator) {
	w.PutI32(int32(l.Kind))
	w.PutU32(l.Port)
	w.PutBytes(l.Address[:])
}

func (w *Writer) PutSequenceNumberSet(s SequenceNumberSet) error {
	if err := s.Validate(); err != nil {
		return err
	}
	w.PutSequenceNumber(s.Base)
	w.PutU32(s.NumBits)
	for _, word := range s.bitmapWords() {
		w.PutU32(word)
	}
	return nil
}

// Reader consumes bytes from a submessage body in the submessage's declared
// byte order, reporting WireSizeError when the body runs out early.
type Reader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, order: order}
}

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return WireSizeError{Needed: n, Available: r.Remaining()}
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.order.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.order.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *Reader) Align4(from int) error {
	rem := (r.pos - from) % 4
	if rem == 0 {
		return nil
	}
	return r.Skip(4 - rem)
}

func (r *Reader) GuidPrefix() (GuidPrefix, error) {
	b, err := r.Bytes(12)
	if err != nil {
		return GuidPrefix{}, err
	}
	var p GuidPrefix
	copy(p[:], b)
	return p, nil
}

func (r *Reader) EntityId() (EntityId, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return EntityId{}, err
	}
	var arr [4]byte
	copy(arr[:], b)
	return EntityIdFromBytes(arr), nil
}

func (r *Reader) SequenceNumber() (SequenceNumber, error) {
	hi, err := r.I32()
	if err != nil {
		return 0, err
	}
	lo, err := r.U32()
	if err != nil {
		return 0, err
	}
	return SequenceNumber(int64(hi)<<32 | int64(lo)), nil
}

func (r *Reader) Time() (Time, error) {
	s, err := r.U32()
	if err != nil {
		return Time{}, err
	}
	f, err := r.U32()
	if err != nil {
		return Time{}, err
	}
	return Time{Seconds: s, Fraction: f}, nil
}

func (r *Reader) Duration() (Duration, error) {
	s, err := r.I32()
	if err != nil {
		return Duration{}, err
	}
	f, err := r.U32()
	if err != nil {
		return Duration{}, err
	}
	return Duration{Seconds: s, Fraction: f}, nil
}

func (r *Reader) Locator() (Locator, error) {
	k, err := r.I32()
	if err != nil {
		return Locator{}, err
	}
	p, err := r.U32()
	if err != nil {
		return Locator{}, err
	}
	addr, err := r.Bytes(16)
	if err != nil {
		return Locator{}, err
	}
	var a [16]byte
	copy(a[:], addr)
	return Locator{Kind: LocatorKind(k), Port: p, Address: a}, nil
}

func (r *Reader) SequenceNumberSet() (SequenceNumberSet, error) {
	base, err := r.SequenceNumber()
	if err != nil {
		return SequenceNumberSet{}, err
	}
	numBits, err := r.U32()
	if err != nil {
		return SequenceNumberSet{}, err
	}
	s := SequenceNumberSet{Base: base, NumBits: numBits}
	if err := s.Validate(); err != nil {
		return SequenceNumberSet{}, err
	}
	nWords := (int(numBits) + 31) / 32
	words := make([]uint32, nWords)
	for i := range words {
		w, err := r.U32()
		if err != nil {
			return SequenceNumberSet{}, err
		}
		words[i] = w
	}
	s.setBitmapWords(words)
	return s, nil
}
