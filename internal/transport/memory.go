// Package transport holds interfaces.Transport implementations that need
// no real network, for deterministic tests and single-process demos.
// MemoryBus is grounded on backend/mem.go's sharded-locking style, adapted
// from byte-range concurrency to per-locator queue concurrency.
package transport

import (
	"sync"

	"github.com/gortps/rtps/internal/wire"
)

// MemoryBus is a shared, in-process multicast medium: every Endpoint
// registered on it can Write a datagram to one or more locators and every
// other Endpoint whose own locator is among the targets (or who listens on
// a matching multicast locator) will see it on its next Read.
type MemoryBus struct {
	mu        sync.Mutex
	listeners map[wire.Locator]*MemoryEndpoint
}

// NewMemoryBus constructs an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{listeners: make(map[wire.Locator]*MemoryEndpoint)}
}

// MemoryEndpoint is one participant's view of a MemoryBus: it implements
// interfaces.Transport.
type MemoryEndpoint struct {
	bus    *MemoryBus
	self   wire.Locator
	mu     sync.Mutex
	inbox  [][2]interface{} // [0]=wire.Locator src, [1]=[]byte datagram
	closed bool
}

// Listen registers an Endpoint bound to locator self. Datagrams addressed
// to self, or to a multicast locator no listener has individually claimed,
// are delivered to it.
func (b *MemoryBus) Listen(self wire.Locator) *MemoryEndpoint {
	e := &MemoryEndpoint{bus: b, self: self}
	b.mu.Lock()
	b.listeners[self] = e
	b.mu.Unlock()
	return e
}

func (b *MemoryBus) unregister(self wire.Locator) {
	b.mu.Lock()
	delete(b.listeners, self)
	b.mu.Unlock()
}

// Write implements interfaces.Transport: the datagram is fanned out to
// every registered listener whose locator is in dst, multicast membership
// aside — this bus treats dst as an exact address list, which is enough
// for SPDP/SEDP's reader-locator-per-metatraffic-locator model.
func (e *MemoryEndpoint) Write(datagram []byte, dst []wire.Locator) error {
	cp := make([]byte, len(datagram))
	copy(cp, datagram)

	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	for _, loc := range dst {
		target, ok := e.bus.listeners[loc]
		if !ok || target == e {
			continue
		}
		target.mu.Lock()
		target.inbox = append(target.inbox, [2]interface{}{e.self, cp})
		target.mu.Unlock()
	}
	return nil
}

// Read implements interfaces.Transport: non-blocking, FIFO.
func (e *MemoryEndpoint) Read() (wire.Locator, []byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.inbox) == 0 {
		return wire.Locator{}, nil, false, nil
	}
	next := e.inbox[0]
	e.inbox = e.inbox[1:]
	return next[0].(wire.Locator), next[1].([]byte), true, nil
}

// Close implements interfaces.Transport: it deregisters from the bus.
func (e *MemoryEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.bus.unregister(e.self)
	return nil
}
