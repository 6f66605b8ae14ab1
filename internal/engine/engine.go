// Package engine drives the per-tick sequence spec.md §5 describes: drain
// transport reads into the message receiver, run every endpoint's behavior
// machine once, flush the resulting outbound submessage bundles back to
// the transport. Grounded on the teacher's internal/queue/runner.go
// ioLoop: a context-cancellable goroutine pinned to a select loop, with
// Logger/Observer hooks at every I/O boundary, generalized here from a
// single io_uring completion loop to a fixed-period protocol tick.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/discovery"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/interfaces"
	"github.com/gortps/rtps/internal/receiver"
	"github.com/gortps/rtps/internal/wire"
)

// Config configures one Engine instance: one per local Participant.
type Config struct {
	Participant *endpoint.Participant
	SPDP        *discovery.SPDP
	SEDP        *discovery.SEDP
	Transport   interfaces.Transport
	Logger      interfaces.Logger
	Observer    interfaces.Observer
	TickPeriod  time.Duration // default 100ms if zero
}

// Engine owns the tick goroutine for one participant. It is the adaptation
// of the teacher's per-queue Runner to RTPS: instead of one hardware queue
// it drives one participant's full set of writers, readers, and the
// SPDP/SEDP builtin endpoints.
type Engine struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an Engine; call Start to begin ticking.
func New(ctx context.Context, cfg Config) *Engine {
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = 100 * time.Millisecond
	}
	if cfg.Observer == nil {
		cfg.Observer = interfaces.NopObserver{}
	}
	childCtx, cancel := context.WithCancel(ctx)
	return &Engine{cfg: cfg, ctx: childCtx, cancel: cancel}
}

// Start launches the tick loop in its own goroutine (mirrors the teacher's
// Start/ioLoop split: Start returns once the loop is actually running).
func (e *Engine) Start() {
	e.wg.Add(1)
	running := make(chan struct{})
	go func() {
		close(running)
		e.loop()
	}()
	<-running
}

// Stop cancels the tick loop and waits for it to exit.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	if e.cfg.Logger != nil {
		e.cfg.Logger.Debugf("engine: tick loop started for participant %s", e.cfg.Participant.GuidPrefix)
	}

	for {
		select {
		case <-e.ctx.Done():
			if e.cfg.Logger != nil {
				e.cfg.Logger.Debugf("engine: tick loop stopping")
			}
			return
		case now := <-ticker.C:
			e.Tick(now.UnixNano())
		}
	}
}

// Tick runs exactly one pass of spec.md §5's three steps. It is exported
// so tests and deterministic single-step drivers can call it directly
// instead of waiting on the ticker.
func (e *Engine) Tick(nowNanos int64) {
	e.drainInbound(nowNanos)
	e.runBehaviors(nowNanos)
}

// drainInbound reads every pending datagram off the transport without
// blocking and dispatches its submessages (spec.md §4.7 Message Receiver).
func (e *Engine) drainInbound(nowNanos int64) {
	for {
		src, datagram, ok, err := e.cfg.Transport.Read()
		if err != nil {
			if e.cfg.Logger != nil {
				e.cfg.Logger.Printf("engine: transport read error: %v", err)
			}
			return
		}
		if !ok {
			return
		}
		e.cfg.Observer.OnDatagramReceived(src.String(), len(datagram))

		header, subs, err := wire.ParseMessage(datagram)
		if err != nil {
			if _, isProtocolErr := err.(wire.ProtocolError); isProtocolErr {
				e.cfg.Observer.OnProtocolError(err.Error())
			} else {
				e.cfg.Observer.OnWireSizeError()
			}
			continue
		}

		dispatch := &participantDispatch{e: e, sourcePrefix: header.GuidPrefix, nowNanos: nowNanos}
		if err := receiver.ProcessMessage(header, subs, e.cfg.Participant.GuidPrefix, dispatch); err != nil {
			if _, isProtocolErr := err.(wire.ProtocolError); isProtocolErr {
				e.cfg.Observer.OnProtocolError(err.Error())
			} else {
				e.cfg.Observer.OnWireSizeError()
			}
		}
	}
}

// runBehaviors ticks every writer and reader of every group (the SPDP/SEDP
// builtin endpoints included, since they live in the builtin groups), then
// SPDP and SEDP, which tick their builtin endpoints a second time, flushing
// all outbound bundles to the transport.
func (e *Engine) runBehaviors(nowNanos int64) {
	for _, w := range e.cfg.Participant.AllWriters() {
		e.flush(w.Behavior.Tick(nowNanos))
	}
	for _, r := range e.cfg.Participant.AllReaders() {
		e.flush(r.Behavior.Tick(nowNanos))
	}
	if e.cfg.SPDP != nil {
		e.flush(e.cfg.SPDP.Tick(nowNanos))
	}
	if e.cfg.SEDP != nil {
		e.flush(e.cfg.SEDP.Tick(nowNanos))
	}
}

func (e *Engine) flush(outbound []behavior.Outbound) {
	for _, ob := range outbound {
		header := wire.MessageHeader{
			Version:    wire.ProtocolVersion{Major: 2, Minor: 4},
			GuidPrefix: e.cfg.Participant.GuidPrefix,
		}
		datagram := wire.EncodeMessage(header, ob.Submessages)

		if err := e.cfg.Transport.Write(datagram, ob.Locators); err != nil {
			if e.cfg.Logger != nil {
				e.cfg.Logger.Printf("engine: transport write error: %v", err)
			}
			continue
		}
		e.cfg.Observer.OnDatagramSent(locatorsString(ob.Locators), len(datagram))
		for _, sub := range ob.Submessages {
			e.cfg.Observer.OnSubmessageSent(sub.Header.Kind.String())
		}
	}
}

func locatorsString(locs []wire.Locator) string {
	if len(locs) == 0 {
		return ""
	}
	return locs[0].String()
}

// participantDispatch implements receiver.Dispatch, routing each
// demultiplexed entity submessage to the matching local writer/reader or
// to the SPDP/SEDP decoders when it targets a builtin entity id.
type participantDispatch struct {
	e            *Engine
	sourcePrefix wire.GuidPrefix
	nowNanos     int64
}

func (d *participantDispatch) Deliver(readerIdOrUnknown, writerId wire.EntityId, msg receiver.EntitySubmessage) {
	p := d.e.cfg.Participant

	// SPDP's announcer is a stateless writer (internal/discovery/spdp.go),
	// so its outbound DATA always carries readerId=ENTITYID_UNKNOWN
	// (internal/behavior/writer.go's tickStateless hard-codes it); the
	// only reliable way to recognize builtin discovery traffic is by
	// writerId, never by readerIdOrUnknown.
	switch {
	case writerId.Equal(wire.EntityIdSpdpBuiltinParticipantWriter) && d.e.cfg.SPDP != nil:
		d.deliverSpdp(msg)
		return
	case (writerId.Equal(wire.EntityIdSedpBuiltinPublicationsWriter) || writerId.Equal(wire.EntityIdSedpBuiltinSubscriptionsWriter)) && d.e.cfg.SEDP != nil:
		d.deliverSedp(writerId, msg)
		return
	}

	if msg.Kind == wire.KindAckNack {
		w := p.FindWriter(writerId)
		if w != nil {
			w.Behavior.OnAckNack(*msg.AckNack, d.nowNanos)
		}
		return
	}

	readers := p.AllReaders()
	if !readerIdOrUnknown.Equal(wire.EntityIdUnknown) {
		r := p.FindReader(readerIdOrUnknown)
		if r == nil {
			return
		}
		readers = []*endpoint.Reader{r}
	}
	for _, r := range readers {
		switch msg.Kind {
		case wire.KindData:
			_ = r.Behavior.OnData(d.sourcePrefix, *msg.Data)
		case wire.KindGap:
			r.Behavior.OnGap(d.sourcePrefix, *msg.Gap)
		case wire.KindHeartbeat:
			r.Behavior.OnHeartbeat(d.sourcePrefix, *msg.Heartbeat, d.nowNanos)
		}
	}
}

func (d *participantDispatch) deliverSpdp(msg receiver.EntitySubmessage) {
	if msg.Kind != wire.KindData || msg.Data == nil || msg.Data.SerializedData == nil {
		return
	}
	_ = d.e.cfg.SPDP.OnAnnouncement(msg.Data.SerializedData.Payload)
}

func (d *participantDispatch) deliverSedp(writerId wire.EntityId, msg receiver.EntitySubmessage) {
	if msg.Kind != wire.KindData || msg.Data == nil || msg.Data.SerializedData == nil {
		return
	}
	if writerId.Equal(wire.EntityIdSedpBuiltinPublicationsWriter) {
		_ = d.e.cfg.SEDP.OnPublicationData(msg.Data.SerializedData.Payload)
	} else {
		_ = d.e.cfg.SEDP.OnSubscriptionData(msg.Data.SerializedData.Payload)
	}
}
