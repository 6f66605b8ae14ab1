// Package netbuf pools datagram-sized byte buffers so Transport
// implementations don't allocate on every Read (spec.md §6's Transport
// boundary is called once per tick per participant, a hot path). Adapted
// from the teacher's internal/queue/pool.go size-bucketed sync.Pool, with
// buckets rebased from block-I/O sizes to UDP datagram sizes.
package netbuf

import "sync"

// Bucket sizes: standard Ethernet MTU payload, common jumbo-frame MTU, and
// the maximum possible UDPv4 payload (spec.md §4.1 frames one RTPS Message
// per UDP datagram).
const (
	size1500  = 1500
	size9000  = 9000
	size65507 = 65507
)

var globalPool = struct {
	pool1500  sync.Pool
	pool9000  sync.Pool
	pool65507 sync.Pool
}{
	pool1500:  sync.Pool{New: func() any { b := make([]byte, size1500); return &b }},
	pool9000:  sync.Pool{New: func() any { b := make([]byte, size9000); return &b }},
	pool65507: sync.Pool{New: func() any { b := make([]byte, size65507); return &b }},
}

// Get returns a pooled buffer of at least size bytes. Caller must call Put
// when done with it.
func Get(size int) []byte {
	switch {
	case size <= size1500:
		return (*globalPool.pool1500.Get().(*[]byte))[:size]
	case size <= size9000:
		return (*globalPool.pool9000.Get().(*[]byte))[:size]
	case size <= size65507:
		return (*globalPool.pool65507.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// Put returns a buffer to the pool its capacity matches. Buffers with a
// non-standard capacity (e.g. a slice of a pooled buffer) are dropped.
func Put(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size1500:
		globalPool.pool1500.Put(&buf)
	case size9000:
		globalPool.pool9000.Put(&buf)
	case size65507:
		globalPool.pool65507.Put(&buf)
	}
}
