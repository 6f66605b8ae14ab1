// Package rcache implements the reader-side cache-tracking structure
// (spec.md §4.4): WriterProxy, tracking what a matched remote writer has
// sent, what is missing, and the available-changes watermark exposed to
// the application in order.
package rcache

import (
	"sort"
	"sync"

	"github.com/gortps/rtps/internal/wire"
)

// WriterProxy tracks one matched remote writer's delivery state.
type WriterProxy struct {
	RemoteWriterGUID wire.GUID
	Unicast          []wire.Locator
	Multicast        []wire.Locator

	mu                  sync.Mutex
	received            map[wire.SequenceNumber]struct{}
	irrelevant          map[wire.SequenceNumber]struct{}
	missing             map[wire.SequenceNumber]struct{}
	availableChangesMax wire.SequenceNumber
	lostWatermark       wire.SequenceNumber

	ReaderState            ReaderState
	TimeHeartbeatReceived  int64
	AckNackCount           uint32
	lastHeartbeatCount     uint32
	haveLastHeartbeatCount bool
}

// ReaderState is the reliable reader's acknack-side state machine
// (spec.md §4.6): READY, WAITING_HEARTBEAT, MUST_SEND_ACK.
type ReaderState int

const (
	ReaderReady ReaderState = iota
	ReaderWaitingHeartbeat
	ReaderMustSendAck
)

func NewWriterProxy(remote wire.GUID, unicast, multicast []wire.Locator) *WriterProxy {
	return &WriterProxy{
		RemoteWriterGUID: remote,
		Unicast:          unicast,
		Multicast:        multicast,
		received:         make(map[wire.SequenceNumber]struct{}),
		irrelevant:       make(map[wire.SequenceNumber]struct{}),
		missing:          make(map[wire.SequenceNumber]struct{}),
	}
}

// ReceivedChangeSet records that sn was received, then advances
// available_changes_max through any contiguous prefix of received ∪
// irrelevant starting at available_changes_max+1 (spec.md §4.4).
func (wp *WriterProxy) ReceivedChangeSet(sn wire.SequenceNumber) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.received[sn] = struct{}{}
	delete(wp.missing, sn)
	wp.advanceWatermarkLocked()
}

// IrrelevantChangeSet marks sn skippable (from GAP), contributing to the
// same prefix advancement as ReceivedChangeSet.
func (wp *WriterProxy) IrrelevantChangeSet(sn wire.SequenceNumber) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.irrelevant[sn] = struct{}{}
	delete(wp.missing, sn)
	wp.advanceWatermarkLocked()
}

func (wp *WriterProxy) advanceWatermarkLocked() {
	for {
		next := wp.availableChangesMax + 1
		_, gotReceived := wp.received[next]
		_, gotIrrelevant := wp.irrelevant[next]
		if !gotReceived && !gotIrrelevant {
			return
		}
		wp.availableChangesMax = next
	}
}

// MissingChangesUpdate adds every sn in (available_changes_max, lastSN]
// not yet received or irrelevant to the missing set (spec.md §4.4).
func (wp *WriterProxy) MissingChangesUpdate(lastSN wire.SequenceNumber) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for sn := wp.availableChangesMax + 1; sn <= lastSN; sn++ {
		_, gotReceived := wp.received[sn]
		_, gotIrrelevant := wp.irrelevant[sn]
		if !gotReceived && !gotIrrelevant {
			wp.missing[sn] = struct{}{}
		}
	}
}

// LostChangesUpdate discards anything below firstSN from missing_set and
// advances the lost watermark (spec.md §4.4).
func (wp *WriterProxy) LostChangesUpdate(firstSN wire.SequenceNumber) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for sn := range wp.missing {
		if sn < firstSN {
			delete(wp.missing, sn)
		}
	}
	if firstSN-1 > wp.lostWatermark {
		wp.lostWatermark = firstSN - 1
	}
	if wp.lostWatermark > wp.availableChangesMax {
		wp.availableChangesMax = wp.lostWatermark
	}
	wp.advanceWatermarkLocked()
}

// AvailableChangesMax returns the watermark below which data is available
// to the application in order (spec.md §8 property 3: non-decreasing).
func (wp *WriterProxy) AvailableChangesMax() wire.SequenceNumber {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.availableChangesMax
}

// MissingChanges returns missing_set minus any sn <= available watermark,
// in ascending order.
func (wp *WriterProxy) MissingChanges() []wire.SequenceNumber {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make([]wire.SequenceNumber, 0, len(wp.missing))
	for sn := range wp.missing {
		if sn > wp.availableChangesMax {
			out = append(out, sn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Locators returns unicast ∪ multicast, the destinations an ACKNACK to
// this writer should be sent to.
func (wp *WriterProxy) Locators() []wire.Locator {
	out := make([]wire.Locator, 0, len(wp.Unicast)+len(wp.Multicast))
	out = append(out, wp.Unicast...)
	out = append(out, wp.Multicast...)
	return out
}

// AcceptHeartbeatCount enforces the reader-side half of the strictly
// monotone count invariant (spec.md §4.5, §8 property 5).
func (wp *WriterProxy) AcceptHeartbeatCount(count uint32) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.haveLastHeartbeatCount && count <= wp.lastHeartbeatCount {
		return false
	}
	wp.lastHeartbeatCount = count
	wp.haveLastHeartbeatCount = true
	return true
}
