package behavior

import (
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/rcache"
	"github.com/gortps/rtps/internal/wire"
)

// ReaderConfig holds the per-reader QoS-derived constants (spec.md §4.6,
// §4.9): whether this reader is reliable, and its heartbeat_response_delay.
type ReaderConfig struct {
	Reliable               bool
	HeartbeatResponseDelay wire.Duration
}

// Reader drives one reader endpoint's HistoryCache and matched-writer
// proxies through inbound DATA/GAP/HEARTBEAT and produces outbound
// ACKNACKs when reliable (spec.md §4.6).
type Reader struct {
	GUID   wire.GUID
	Cache  *history.Cache
	Config ReaderConfig

	proxies []*rcache.WriterProxy
	acknackCount uint32
}

func NewReader(guid wire.GUID, cache *history.Cache, cfg ReaderConfig) *Reader {
	return &Reader{GUID: guid, Cache: cache, Config: cfg}
}

func (r *Reader) AddWriterProxy(wp *rcache.WriterProxy) { r.proxies = append(r.proxies, wp) }
func (r *Reader) WriterProxies() []*rcache.WriterProxy  { return r.proxies }

func (r *Reader) proxyFor(writerEntity wire.EntityId, sourcePrefix wire.GuidPrefix) *rcache.WriterProxy {
	for _, wp := range r.proxies {
		if wp.RemoteWriterGUID.Entity.Equal(writerEntity) && wp.RemoteWriterGUID.Prefix == sourcePrefix {
			return wp
		}
	}
	return nil
}

// OnData applies an inbound DATA submessage: derive and store a
// CacheChange, then update the matched WriterProxy's received set
// (spec.md §4.6 "Best-effort reader").
func (r *Reader) OnData(sourcePrefix wire.GuidPrefix, data wire.DataSubmessage) error {
	wp := r.proxyFor(data.WriterId, sourcePrefix)
	if wp == nil {
		return nil // unmatched, dropped silently per spec.md §4.7
	}
	if !r.Config.Reliable && data.WriterSN < wp.AvailableChangesMax()+1 {
		return nil // best-effort reader: spec.md §4.6 "writer_sn >= available_changes_max + 1"
	}

	change := changeFromData(wire.GUID{Prefix: sourcePrefix, Entity: data.WriterId}, data)
	if err := r.Cache.AddChange(change); err != nil {
		return err
	}
	wp.ReceivedChangeSet(data.WriterSN)
	return nil
}

// changeFromData builds a CacheChange from an inbound DATA submessage
// (spec.md §4.6): instance handle from PID_KEY_HASH if present, else
// synthesized from the payload; kind from PID_STATUS_INFO bits.
func changeFromData(writerGUID wire.GUID, data wire.DataSubmessage) history.CacheChange {
	change := history.CacheChange{
		Kind:           wire.ChangeKindAlive,
		WriterGUID:     writerGUID,
		SequenceNumber: data.WriterSN,
		InlineQos:      data.InlineQos,
	}
	if data.SerializedData != nil {
		change.DataValue = data.SerializedData.Payload
	}
	if handle, ok := history.InstanceHandleFromKeyHash(data.InlineQos); ok {
		change.InstanceHandle = handle
	} else if change.DataValue != nil {
		change.InstanceHandle = history.SynthesizeInstanceHandle(change.DataValue)
	}
	if data.InlineQos != nil {
		if p, ok := data.InlineQos.Get(wire.PIDStatusInfo); ok && len(p.Value) == 4 {
			bits := uint32(p.Value[0])<<24 | uint32(p.Value[1])<<16 | uint32(p.Value[2])<<8 | uint32(p.Value[3])
			switch {
			case bits&wire.StatusInfoDisposed != 0:
				change.Kind = wire.ChangeKindNotAliveDisposed
			case bits&wire.StatusInfoUnregistered != 0:
				change.Kind = wire.ChangeKindNotAliveUnregistered
			}
		}
	}
	return change
}

// OnGap applies an inbound GAP submessage as an irrelevant-change range
// (spec.md §4.1, §4.4): [gapStart, gapList.Base-1] plus gapList's members.
func (r *Reader) OnGap(sourcePrefix wire.GuidPrefix, gap wire.GapSubmessage) {
	wp := r.proxyFor(gap.WriterId, sourcePrefix)
	if wp == nil {
		return
	}
	for sn := gap.GapStart; sn < gap.GapList.Base; sn++ {
		wp.IrrelevantChangeSet(sn)
	}
	for _, sn := range gap.GapList.Members() {
		wp.IrrelevantChangeSet(sn)
	}
}

// OnHeartbeat applies an inbound HEARTBEAT per the reliable reader's
// parallel state machine (spec.md §4.6). Returns false if the heartbeat's
// count was not strictly greater than the last accepted (discard).
func (r *Reader) OnHeartbeat(sourcePrefix wire.GuidPrefix, hb wire.HeartbeatSubmessage, nowNanos int64) bool {
	wp := r.proxyFor(hb.WriterId, sourcePrefix)
	if wp == nil || !r.Config.Reliable {
		return false
	}
	if !wp.AcceptHeartbeatCount(hb.Count) {
		return false
	}
	wp.MissingChangesUpdate(hb.LastSN)
	wp.LostChangesUpdate(hb.FirstSN)

	if !hb.Final || len(wp.MissingChanges()) > 0 {
		wp.ReaderState = rcache.ReaderMustSendAck
		wp.TimeHeartbeatReceived = nowNanos
	}
	return true
}

// Tick runs the MUST_SEND_ACK timer: once heartbeat_response_delay has
// elapsed, emit one ACKNACK per pending WriterProxy and return to READY
// (spec.md §4.6).
func (r *Reader) Tick(nowNanos int64) []Outbound {
	if !r.Config.Reliable {
		return nil
	}
	var out []Outbound
	for _, wp := range r.proxies {
		if wp.ReaderState != rcache.ReaderMustSendAck {
			continue
		}
		if nowNanos-wp.TimeHeartbeatReceived < r.Config.HeartbeatResponseDelay.Nanoseconds() {
			continue
		}
		r.acknackCount++
		state := wire.NewSequenceNumberSet(wp.AvailableChangesMax()+1, wp.MissingChanges()...)
		msg := wire.AckNackSubmessage{
			ReaderId:      r.GUID.Entity,
			WriterId:      wp.RemoteWriterGUID.Entity,
			ReaderSNState: state,
			Count:         r.acknackCount,
			Final:         true,
		}
		flags, body, err := wire.EncodeAckNack(true, msg)
		if err != nil {
			continue
		}
		out = append(out, Outbound{
			Locators:    wp.Locators(),
			Submessages: []wire.Submessage{{Header: wire.SubmessageHeader{Kind: wire.KindAckNack, Flags: flags, Length: uint16(len(body))}, Body: body}},
		})
		wp.ReaderState = rcache.ReaderReady
	}
	return out
}
