package wcache

import (
	"sync"

	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

// WriterState is the reliable stateful writer's per-ReaderProxy state
// machine (spec.md §4.5): IDLE, PUSHING, ANNOUNCING, WAITING, MUST_REPAIR,
// REPAIRING.
type WriterState int

const (
	StateIdle WriterState = iota
	StatePushing
	StateAnnouncing
	StateWaiting
	StateMustRepair
	StateRepairing
)

// ReaderProxy extends ReaderLocator with the ACK watermark a matched
// reader has reported, plus the reliable-writer state machine fields
// (spec.md §4.3, §4.5).
type ReaderProxy struct {
	*ReaderLocator

	RemoteReaderGUID wire.GUID
	Unicast          []wire.Locator
	Multicast        []wire.Locator
	IsActive         bool

	mu                    sync.Mutex
	highestSNAcknowledged wire.SequenceNumber
	State                 WriterState
	TimeLastSentData      int64 // unix nanos, set by the caller's now()
	TimeNackReceived      int64
	HeartbeatCount        uint32
	lastAckNackCount      uint32
	haveLastAckNackCount  bool
}

func NewReaderProxy(remote wire.GUID, unicast, multicast []wire.Locator, cache *history.Cache, expectsInlineQos bool) *ReaderProxy {
	return &ReaderProxy{
		ReaderLocator:    NewReaderLocator(wire.LocatorInvalid, cache, expectsInlineQos),
		RemoteReaderGUID: remote,
		Unicast:          unicast,
		Multicast:        multicast,
		IsActive:         true,
		State:            StateIdle,
	}
}

// Locators returns the union of unicast and multicast destinations
// (spec.md §4.5: "routed to proxy.unicast ∪ proxy.multicast").
func (rp *ReaderProxy) Locators() []wire.Locator {
	out := make([]wire.Locator, 0, len(rp.Unicast)+len(rp.Multicast))
	out = append(out, rp.Unicast...)
	out = append(out, rp.Multicast...)
	return out
}

// AckedChangesSet raises highest_sn_acknowledged to committed (spec.md
// §4.3). Monotone: a lower committed value never moves the watermark back.
func (rp *ReaderProxy) AckedChangesSet(committed wire.SequenceNumber) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if committed > rp.highestSNAcknowledged {
		rp.highestSNAcknowledged = committed
	}
}

// HighestSNAcknowledged returns the current ACK watermark.
func (rp *ReaderProxy) HighestSNAcknowledged() wire.SequenceNumber {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.highestSNAcknowledged
}

// UnackedChanges returns (highest_sn_acknowledged, last_sn].
func (rp *ReaderProxy) UnackedChanges(lastSN wire.SequenceNumber) []wire.SequenceNumber {
	rp.mu.Lock()
	ack := rp.highestSNAcknowledged
	rp.mu.Unlock()
	return rangeExclusive(ack, lastSN)
}

// AcceptAckNackCount enforces the strictly-monotone count invariant
// (spec.md §4.5, §8 property 4): returns false if count is not strictly
// greater than the highest previously accepted from this reader, in which
// case the caller must discard the ACKNACK.
func (rp *ReaderProxy) AcceptAckNackCount(count uint32) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.haveLastAckNackCount && count <= rp.lastAckNackCount {
		return false
	}
	rp.lastAckNackCount = count
	rp.haveLastAckNackCount = true
	return true
}
