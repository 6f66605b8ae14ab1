// Package wcache implements the writer-side cache-tracking structures
// (spec.md §4.3): ReaderLocator for stateless writers, ReaderProxy for
// stateful ones. Both are grounded on the per-destination unsent/requested
// change tracking in original_source/rtps/src/structure/ (ReaderProxy /
// reader_locator equivalents), adapted to Go value receivers plus an
// explicit mutex instead of RefCell.
package wcache

import (
	"sort"
	"sync"

	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

// ReaderLocator tracks, for one destination Locator of a stateless writer,
// which sequence numbers have been sent and which have been explicitly
// requested (SPDP/SEDP repair via ACKNACK).
type ReaderLocator struct {
	mu             sync.Mutex
	Locator        wire.Locator
	ExpectsInlineQos bool
	cache          *history.Cache
	highestSNSent  wire.SequenceNumber
	requested      map[wire.SequenceNumber]struct{}
}

func NewReaderLocator(loc wire.Locator, cache *history.Cache, expectsInlineQos bool) *ReaderLocator {
	return &ReaderLocator{
		Locator:          loc,
		ExpectsInlineQos: expectsInlineQos,
		cache:            cache,
		requested:        make(map[wire.SequenceNumber]struct{}),
	}
}

// NextUnsentChange pops the smallest unsent sequence number <= lastSN,
// advancing highest_sn_sent, per spec.md §4.3 and the unsent-change law
// (§8 property 7): once returned, that sn never reappears from
// UnsentChanges.
func (rl *ReaderLocator) NextUnsentChange(lastSN wire.SequenceNumber) (wire.SequenceNumber, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	next := rl.highestSNSent + 1
	if next > lastSN {
		return 0, false
	}
	rl.highestSNSent = next
	return next, true
}

// UnsentChanges returns the half-open-below range (highest_sn_sent, lastSN].
func (rl *ReaderLocator) UnsentChanges(lastSN wire.SequenceNumber) []wire.SequenceNumber {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rangeExclusive(rl.highestSNSent, lastSN)
}

// UnsentChangesReset sets highest_sn_sent back to 0, causing every change
// up to last_sn to be resent (e.g. on a new matched reader).
func (rl *ReaderLocator) UnsentChangesReset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.highestSNSent = 0
}

// RequestedChangesSet records an explicit repair request (from ACKNACK).
func (rl *ReaderLocator) RequestedChangesSet(sns []wire.SequenceNumber) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, sn := range sns {
		rl.requested[sn] = struct{}{}
	}
}

// NextRequestedChange pops and returns one pending requested sequence
// number in ascending order, if any.
func (rl *ReaderLocator) NextRequestedChange() (wire.SequenceNumber, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.requested) == 0 {
		return 0, false
	}
	min := rl.minRequestedLocked()
	delete(rl.requested, min)
	return min, true
}

// RequestedChanges returns the pending requested sequence numbers in
// ascending order without consuming them.
func (rl *ReaderLocator) RequestedChanges() []wire.SequenceNumber {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	out := make([]wire.SequenceNumber, 0, len(rl.requested))
	for sn := range rl.requested {
		out = append(out, sn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (rl *ReaderLocator) minRequestedLocked() wire.SequenceNumber {
	first := true
	var min wire.SequenceNumber
	for sn := range rl.requested {
		if first || sn < min {
			min = sn
			first = false
		}
	}
	return min
}

func rangeExclusive(fromExclusive, toInclusive wire.SequenceNumber) []wire.SequenceNumber {
	if fromExclusive+1 > toInclusive {
		return nil
	}
	out := make([]wire.SequenceNumber, 0, int(toInclusive-fromExclusive))
	for sn := fromExclusive + 1; sn <= toInclusive; sn++ {
		out = append(out, sn)
	}
	return out
}
