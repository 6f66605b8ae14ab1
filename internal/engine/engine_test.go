package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/discovery"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/rcache"
	"github.com/gortps/rtps/internal/wcache"
	"github.com/gortps/rtps/internal/wire"
)

// loopbackTransport feeds every Write back out as a pending Read on its
// peer, so a pair of these connect two Engines directly without sockets.
type loopbackTransport struct {
	mu    sync.Mutex
	inbox [][]byte
	peer  *loopbackTransport
}

func newLoopbackPair() (*loopbackTransport, *loopbackTransport) {
	a := &loopbackTransport{}
	b := &loopbackTransport{}
	a.peer = b
	b.peer = a
	return a, b
}

func (t *loopbackTransport) Write(datagram []byte, _ []wire.Locator) error {
	t.peer.mu.Lock()
	t.peer.inbox = append(t.peer.inbox, append([]byte(nil), datagram...))
	t.peer.mu.Unlock()
	return nil
}

func (t *loopbackTransport) Read() (wire.Locator, []byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbox) == 0 {
		return wire.Locator{}, nil, false, nil
	}
	d := t.inbox[0]
	t.inbox = t.inbox[1:]
	return wire.LocatorFromUDPv4(127, 0, 0, 1, 0), d, true, nil
}

func (t *loopbackTransport) Close() error { return nil }

// TestEngineDeliversBestEffortUserData exercises the full path: a
// stateless best-effort writer's Tick produces an Outbound, the engine
// frames and writes it, the peer engine's next Tick reads, demultiplexes,
// and delivers it to the matching reader, landing the change in its
// HistoryCache (scenario S1).
func TestEngineDeliversBestEffortUserData(t *testing.T) {
	writerTransport, readerTransport := newLoopbackPair()

	writerPrefix := wire.GuidPrefix{1}
	readerPrefix := wire.GuidPrefix{2}

	writerParticipant := endpoint.NewParticipant(writerPrefix, 0)
	readerParticipant := endpoint.NewParticipant(readerPrefix, 0)

	writerEntity, err := writerParticipant.BuiltinPublisher.CreateWriter(
		"Square", "ShapeType", endpoint.TopicNoKey,
		behavior.WriterConfig{PushMode: true}, history.ResourceLimits{})
	require.NoError(t, err)

	readerEntity, err := readerParticipant.BuiltinSubscriber.CreateReader(
		"Square", "ShapeType", endpoint.TopicNoKey,
		behavior.ReaderConfig{}, history.ResourceLimits{})
	require.NoError(t, err)

	// Wire the writer to the reader's (fictitious, test-only) locator, and
	// give the reader a WriterProxy so OnData can match the inbound DATA.
	destLocator := wire.LocatorFromUDPv4(127, 0, 0, 1, 1)
	writerEntity.Behavior.AddReaderLocator(wcache.NewReaderLocator(destLocator, writerEntity.Behavior.Cache, false))
	readerEntity.Behavior.AddWriterProxy(rcache.NewWriterProxy(writerEntity.GUID, nil, nil))

	_, err = writerEntity.Behavior.NewChange(wire.ChangeKindAlive, wire.InstanceHandle{1}, &wire.SerializedPayload{
		Representation: wire.ReprCDRLE,
		Payload:        []byte("hello"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	we := New(ctx, Config{Participant: writerParticipant, Transport: writerTransport})
	re := New(ctx, Config{Participant: readerParticipant, Transport: readerTransport})

	we.Tick(1) // writer pushes DATA out
	re.Tick(2) // reader drains and delivers it

	require.Equal(t, 1, readerEntity.Behavior.Cache.Len())
	change, ok := readerEntity.Behavior.Cache.GetChange(writerEntity.GUID, 1)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), change.DataValue)
}

// TestEngineDeliversSpdpAnnouncement exercises the builtin-discovery
// dispatch path end to end: SPDP's stateless announcer sends its DATA with
// readerId=ENTITYID_UNKNOWN (internal/behavior/writer.go's tickStateless),
// so the engine must recognize it by writerId instead, and route it to
// SPDP.OnAnnouncement rather than dropping it as an unmatched reader.
func TestEngineDeliversSpdpAnnouncement(t *testing.T) {
	aTransport, bTransport := newLoopbackPair()

	metatrafficLocator := wire.LocatorFromUDPv4(239, 255, 0, 1, 7400)

	a := endpoint.NewParticipant(wire.GuidPrefix{1}, 0)
	a.MetatrafficMulticastLocators = []wire.Locator{metatrafficLocator}
	aSedp, err := discovery.NewSEDP(a)
	require.NoError(t, err)
	aSpdp, err := discovery.NewSPDP(a, aSedp)
	require.NoError(t, err)

	b := endpoint.NewParticipant(wire.GuidPrefix{2}, 0)
	b.MetatrafficMulticastLocators = []wire.Locator{metatrafficLocator}
	bSedp, err := discovery.NewSEDP(b)
	require.NoError(t, err)
	bSpdp, err := discovery.NewSPDP(b, bSedp)
	require.NoError(t, err)

	require.NoError(t, aSpdp.Announce())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ae := New(ctx, Config{Participant: a, SPDP: aSpdp, SEDP: aSedp, Transport: aTransport})
	be := New(ctx, Config{Participant: b, SPDP: bSpdp, SEDP: bSedp, Transport: bTransport})

	ae.Tick(1) // a's SPDP announcer pushes its DATA out
	be.Tick(2) // b drains it and must hand it to SPDP, not drop it

	discovered := bSpdp.DiscoveredParticipants()
	require.Len(t, discovered, 1)
	require.Equal(t, a.GuidPrefix, discovered[0].Record.GUID.Prefix)
}
