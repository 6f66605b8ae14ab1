package wire

import "fmt"

// ProtocolError is fatal to the current datagram: it is malformed beyond
// recovery at the submessage it occurred in. Callers discard the datagram
// and continue (spec.md §7).
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string { return "rtps: protocol error: " + e.Reason }

// WireSizeError means fewer bytes remained than a declared length required.
// Recovery: discard the rest of the datagram.
type WireSizeError struct {
	Needed    int
	Available int
}

func (e WireSizeError) Error() string {
	return fmt.Sprintf("rtps: wire size error: needed %d bytes, %d available", e.Needed, e.Available)
}
