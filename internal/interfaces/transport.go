// Package interfaces holds the pluggable boundaries the rtps core depends
// on, kept separate from the root package to avoid import cycles between
// internal/* and the public façade.
package interfaces

import "github.com/gortps/rtps/internal/wire"

// Transport is the pluggable send/receive boundary (spec.md §6). read
// returns immediately with no datagram pending rather than blocking, so
// the engine tick loop never stalls on it.
type Transport interface {
	Write(datagram []byte, dst []wire.Locator) error
	Read() (src wire.Locator, datagram []byte, ok bool, err error)
	Close() error
}

// Logger is the minimal logging surface internal packages depend on.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer mirrors the root package's Observer so internal/* packages can
// report without importing the root package (which would cycle back).
type Observer interface {
	OnDatagramSent(dst string, bytes int)
	OnDatagramReceived(src string, bytes int)
	OnSubmessageSent(kind string)
	OnProtocolError(reason string)
	OnWireSizeError()
	OnOutOfResources(entity string)
	OnDeliveryLatency(latencyNs uint64)
}

// NopObserver discards every event; the zero value NopObserver{} is ready
// to use.
type NopObserver struct{}

func (NopObserver) OnDatagramSent(string, int)     {}
func (NopObserver) OnDatagramReceived(string, int) {}
func (NopObserver) OnSubmessageSent(string)        {}
func (NopObserver) OnProtocolError(string)         {}
func (NopObserver) OnWireSizeError()               {}
func (NopObserver) OnOutOfResources(string)        {}
func (NopObserver) OnDeliveryLatency(uint64)       {}
