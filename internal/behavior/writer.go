// Package behavior implements the writer and reader behavior state
// machines (spec.md §4.5, §4.6): the deterministic per-tick transitions
// that turn HistoryCache state and inbound submessages into outbound
// submessages. Grounded on the tagged per-item state machine pattern in
// the teacher's internal/queue/runner.go (a TagState enum driving an I/O
// loop under a per-item mutex), generalized here to RTPS's six-state
// reliable writer machine.
package behavior

import (
	"time"

	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wcache"
	"github.com/gortps/rtps/internal/wire"
)

// Outbound is one destination-addressed bundle of submessages produced by
// a tick, already carrying whatever INFO_TS submessages spec.md §4.1/§4.5
// require (dataOrGapSubmessage emits them inline); the engine only frames
// Submessages as a datagram and addresses it to Locators.
type Outbound struct {
	Locators    []wire.Locator
	Submessages []wire.Submessage
}

// WriterConfig holds the per-writer QoS-derived constants spec.md §4.5 and
// §4.9 name: heartbeat_period, nack_response_delay, and whether this
// writer is reliable/stateful at all.
type WriterConfig struct {
	Reliable          bool
	Stateful          bool
	HeartbeatPeriod   wire.Duration
	NackResponseDelay wire.Duration
	PushMode          bool
}

// Writer drives one writer endpoint's HistoryCache and matched-reader
// proxies/locators through a tick.
type Writer struct {
	GUID   wire.GUID
	Cache  *history.Cache
	Config WriterConfig

	LastChangeSequenceNumber wire.SequenceNumber
	heartbeatCount           uint32

	locators []*wcache.ReaderLocator // stateless destinations
	proxies  []*wcache.ReaderProxy   // stateful destinations
}

func NewWriter(guid wire.GUID, cache *history.Cache, cfg WriterConfig) *Writer {
	return &Writer{GUID: guid, Cache: cache, Config: cfg}
}

func (w *Writer) AddReaderLocator(rl *wcache.ReaderLocator) { w.locators = append(w.locators, rl) }
func (w *Writer) AddReaderProxy(rp *wcache.ReaderProxy)     { w.proxies = append(w.proxies, rp) }

func (w *Writer) ReaderProxies() []*wcache.ReaderProxy { return w.proxies }

// NewChange allocates the next sequence number and stores the change.
func (w *Writer) NewChange(kind wire.ChangeKind, instance wire.InstanceHandle, data *wire.SerializedPayload) (history.CacheChange, error) {
	return w.NewChangeWithQos(kind, instance, data, nil)
}

// NewChangeWithQos is NewChange plus an inline QoS parameter list attached
// to the change (spec.md §6 "write(writer, payload, inline_qos?)").
func (w *Writer) NewChangeWithQos(kind wire.ChangeKind, instance wire.InstanceHandle, data *wire.SerializedPayload, inlineQos *wire.ParameterList) (history.CacheChange, error) {
	w.LastChangeSequenceNumber++
	change := history.CacheChange{
		Kind:           kind,
		WriterGUID:     w.GUID,
		InstanceHandle: instance,
		SequenceNumber: w.LastChangeSequenceNumber,
		InlineQos:      inlineQos,
	}
	if data != nil {
		change.DataValue = data.Payload
	}
	if err := w.Cache.AddChange(change); err != nil {
		return history.CacheChange{}, err
	}
	return change, nil
}

// Tick runs one pass of the writer behavior machine and returns the
// outbound bundles it produced (spec.md §4.5). nowNanos is the scheduler's
// monotonic clock in nanoseconds.
func (w *Writer) Tick(nowNanos int64) []Outbound {
	if !w.Config.Stateful {
		return w.tickStateless(nowNanos)
	}
	if !w.Config.Reliable {
		return w.tickStatefulBestEffort(nowNanos)
	}
	return w.tickStatefulReliable(nowNanos)
}

// tickStateless implements the stateless best-effort (SPDP announcer) and
// reliable-stateless (SPDP repair) loops (spec.md §4.5 "Stateless writer,
// best-effort" and "Reliable stateless writer").
func (w *Writer) tickStateless(nowNanos int64) []Outbound {
	var out []Outbound
	for _, rl := range w.locators {
		var subs []wire.Submessage
		needsLeadingGapTS := true
		for {
			sn, ok := rl.NextUnsentChange(w.LastChangeSequenceNumber)
			if !ok {
				break
			}
			subs = append(subs, w.dataOrGapSubmessage(wire.EntityIdUnknown, sn, nowNanos, &needsLeadingGapTS)...)
		}
		if w.Config.Reliable {
			for {
				sn, ok := rl.NextRequestedChange()
				if !ok {
					break
				}
				subs = append(subs, w.dataOrGapSubmessage(wire.EntityIdUnknown, sn, nowNanos, &needsLeadingGapTS)...)
			}
		}
		if len(subs) > 0 {
			out = append(out, Outbound{Locators: []wire.Locator{rl.Locator}, Submessages: subs})
		}
	}
	return out
}

// tickStatefulBestEffort mirrors the stateless loop but addresses DATA to
// the proxy's remote reader entity id and routes to its locators.
func (w *Writer) tickStatefulBestEffort(nowNanos int64) []Outbound {
	var out []Outbound
	for _, rp := range w.proxies {
		var subs []wire.Submessage
		needsLeadingGapTS := true
		for {
			sn, ok := rp.NextUnsentChange(w.LastChangeSequenceNumber)
			if !ok {
				break
			}
			subs = append(subs, w.dataOrGapSubmessage(rp.RemoteReaderGUID.Entity, sn, nowNanos, &needsLeadingGapTS)...)
		}
		if len(subs) > 0 {
			out = append(out, Outbound{Locators: rp.Locators(), Submessages: subs})
		}
	}
	return out
}

// tickStatefulReliable implements the six-state reliable writer machine
// (spec.md §4.5): IDLE/PUSHING/ANNOUNCING/WAITING/MUST_REPAIR/REPAIRING.
func (w *Writer) tickStatefulReliable(nowNanos int64) []Outbound {
	var out []Outbound
	for _, rp := range w.proxies {
		subs := w.tickReliableProxy(rp, nowNanos)
		if len(subs) > 0 {
			out = append(out, Outbound{Locators: rp.Locators(), Submessages: subs})
		}
	}
	return out
}

func (w *Writer) tickReliableProxy(rp *wcache.ReaderProxy, nowNanos int64) []wire.Submessage {
	var subs []wire.Submessage
	needsLeadingGapTS := true

	if rp.State == wcache.StateIdle {
		if len(rp.UnsentChanges(w.LastChangeSequenceNumber)) > 0 {
			rp.State = wcache.StatePushing
		} else if len(rp.UnackedChanges(w.LastChangeSequenceNumber)) > 0 {
			rp.State = wcache.StateAnnouncing
		}
	}

	if rp.State == wcache.StatePushing {
		for {
			sn, ok := rp.NextUnsentChange(w.LastChangeSequenceNumber)
			if !ok {
				break
			}
			subs = append(subs, w.dataOrGapSubmessage(rp.RemoteReaderGUID.Entity, sn, nowNanos, &needsLeadingGapTS)...)
		}
		rp.TimeLastSentData = nowNanos
		rp.State = wcache.StateAnnouncing
	}

	if rp.State == wcache.StateAnnouncing {
		if nowNanos-rp.TimeLastSentData >= w.Config.HeartbeatPeriod.Nanoseconds() {
			w.heartbeatCount++
			firstSN, ok := w.Cache.SeqNumMin()
			if !ok {
				firstSN = w.LastChangeSequenceNumber + 1
			}
			hb := wire.HeartbeatSubmessage{
				ReaderId: rp.RemoteReaderGUID.Entity,
				WriterId: w.GUID.Entity,
				FirstSN:  firstSN,
				LastSN:   w.LastChangeSequenceNumber,
				Count:    w.heartbeatCount,
			}
			flags, body, err := wire.EncodeHeartbeat(true, hb)
			if err == nil {
				subs = append(subs, wire.Submessage{Header: wire.SubmessageHeader{Kind: wire.KindHeartbeat, Flags: flags, Length: uint16(len(body))}, Body: body})
			}
			rp.TimeLastSentData = nowNanos
		}
	}

	if rp.State == wcache.StateMustRepair {
		if nowNanos-rp.TimeNackReceived >= w.Config.NackResponseDelay.Nanoseconds() {
			rp.State = wcache.StateRepairing
		}
	}

	if rp.State == wcache.StateRepairing {
		for {
			sn, ok := rp.NextRequestedChange()
			if !ok {
				break
			}
			subs = append(subs, w.dataOrGapSubmessage(rp.RemoteReaderGUID.Entity, sn, nowNanos, &needsLeadingGapTS)...)
		}
		rp.State = wcache.StateIdle
	}

	return subs
}

// OnAckNack applies an ACKNACK to the matching proxy's state (spec.md
// §4.5 transition T8). Returns false if the ACKNACK's count was not
// strictly greater than the last accepted (discard, per §8 property 4).
func (w *Writer) OnAckNack(msg wire.AckNackSubmessage, nowNanos int64) bool {
	for _, rp := range w.proxies {
		if !rp.RemoteReaderGUID.Entity.Equal(msg.ReaderId) {
			continue
		}
		if !rp.AcceptAckNackCount(msg.Count) {
			return false
		}
		rp.AckedChangesSet(msg.ReaderSNState.Base - 1)
		rp.RequestedChangesSet(msg.ReaderSNState.Members())
		rp.TimeNackReceived = nowNanos
		rp.State = wcache.StateMustRepair
		return true
	}
	return false
}

// infoTimestampSubmessage builds the INFO_TS submessage that precedes
// outbound DATA/GAP per spec.md §4.1/§4.5 scenarios S1/S2/S6.
func infoTimestampSubmessage(nowNanos int64) wire.Submessage {
	ts := wire.TimeNow(nowNanos/int64(time.Second), uint32(nowNanos%int64(time.Second)))
	flags, body := wire.EncodeInfoTimestamp(true, wire.InfoTimestampSubmessage{Timestamp: ts})
	return wire.Submessage{Header: wire.SubmessageHeader{Kind: wire.KindInfoTimestamp, Flags: flags, Length: uint16(len(body))}, Body: body}
}

// dataOrGapSubmessage emits DATA for sn if present in the cache, otherwise
// GAP covering exactly that single sequence number (spec.md §4.5 T4). Every
// DATA gets its own fresh leading INFO_TS (spec.md S1); a run of consecutive
// GAPs shares a single leading INFO_TS, tracked via needsLeadingGapTS, which
// a following DATA resets so the next GAP run gets a fresh one of its own
// (spec.md S2).
func (w *Writer) dataOrGapSubmessage(readerId wire.EntityId, sn wire.SequenceNumber, nowNanos int64, needsLeadingGapTS *bool) []wire.Submessage {
	if change, ok := w.Cache.GetChange(w.GUID, sn); ok {
		var payload *wire.SerializedPayload
		if change.DataValue != nil {
			payload = &wire.SerializedPayload{Representation: wire.ReprCDRLE, Payload: change.DataValue}
		}
		data := wire.DataSubmessage{
			ReaderId:       readerId,
			WriterId:       w.GUID.Entity,
			WriterSN:       sn,
			InlineQos:      change.InlineQos,
			SerializedData: payload,
		}
		flags, body := wire.EncodeData(true, data)
		*needsLeadingGapTS = true
		return []wire.Submessage{
			infoTimestampSubmessage(nowNanos),
			{Header: wire.SubmessageHeader{Kind: wire.KindData, Flags: flags, Length: uint16(len(body))}, Body: body},
		}
	}

	gapList := wire.NewSequenceNumberSet(sn + 1)
	gap := wire.GapSubmessage{ReaderId: readerId, WriterId: w.GUID.Entity, GapStart: sn, GapList: gapList}
	flags, body, err := wire.EncodeGap(true, gap)
	if err != nil {
		return nil
	}
	gapSub := wire.Submessage{Header: wire.SubmessageHeader{Kind: wire.KindGap, Flags: flags, Length: uint16(len(body))}, Body: body}
	if *needsLeadingGapTS {
		*needsLeadingGapTS = false
		return []wire.Submessage{infoTimestampSubmessage(nowNanos), gapSub}
	}
	return []wire.Submessage{gapSub}
}
