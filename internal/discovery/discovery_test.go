package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/wire"
)

func testPrefix(b byte) wire.GuidPrefix {
	var p wire.GuidPrefix
	p[0] = b
	return p
}

func newTestParticipant(b byte) (*endpointParticipantFixture, error) {
	return newEndpointParticipantFixture(testPrefix(b))
}

func TestParticipantRecordRoundTrip(t *testing.T) {
	rec := ParticipantRecord{
		ProtocolVersion:              wire.ProtocolVersion{Major: 2, Minor: 4},
		VendorId:                     wire.VendorId{1, 2},
		DefaultUnicastLocators:       []wire.Locator{{Kind: wire.LocatorKindUDPv4, Port: 7410}},
		MetatrafficMulticastLocators: []wire.Locator{{Kind: wire.LocatorKindUDPv4, Port: 7400}},
		LeaseDuration:                wire.DurationFromSeconds(100),
		GUID:                         wire.GUID{Prefix: testPrefix(9), Entity: wire.EntityIdParticipant},
		AvailableBuiltinEndpoints:    DefaultBuiltinEndpointSet,
	}
	pl := EncodeParticipantRecord(rec)
	got, err := DecodeParticipantRecord(pl)
	require.NoError(t, err)
	require.Equal(t, rec.GUID, got.GUID)
	require.Equal(t, rec.AvailableBuiltinEndpoints, got.AvailableBuiltinEndpoints)
	require.Len(t, got.DefaultUnicastLocators, 1)
	require.Len(t, got.MetatrafficMulticastLocators, 1)
}

func TestParticipantRecordInstanceHandleDeterministic(t *testing.T) {
	rec := ParticipantRecord{GUID: wire.GUID{Prefix: testPrefix(3), Entity: wire.EntityIdParticipant}}
	require.Equal(t, rec.InstanceHandle(), rec.InstanceHandle())
}

func TestEndpointRecordRoundTrip(t *testing.T) {
	rec := EndpointRecord{
		GUID:      wire.GUID{Prefix: testPrefix(1), Entity: wire.EntityId{EntityKey: [3]byte{0, 0, 1}, Kind: wire.EntityKindWriterWithKey}},
		TopicName: "Square",
		TypeName:  "ShapeType",
		Reliable:  true,
	}
	pl := EncodeEndpointRecord(rec)
	got := DecodeEndpointRecord(pl)
	require.Equal(t, rec.GUID, got.GUID)
	require.Equal(t, rec.TopicName, got.TopicName)
	require.Equal(t, rec.TypeName, got.TypeName)
	require.True(t, got.Reliable)
}

func TestEndpointCompatibility(t *testing.T) {
	w := EndpointRecord{TopicName: "Square", TypeName: "ShapeType", Reliable: true}
	bestEffortWriter := EndpointRecord{TopicName: "Square", TypeName: "ShapeType", Reliable: false}
	reliableReader := EndpointRecord{TopicName: "Square", TypeName: "ShapeType", Reliable: true}
	bestEffortReader := EndpointRecord{TopicName: "Square", TypeName: "ShapeType", Reliable: false}

	require.True(t, reliableReader.Compatible(w, true, true), "reliable reader matches reliable writer")
	require.False(t, reliableReader.Compatible(bestEffortWriter, true, true), "reliable reader cannot be served by a best-effort writer")
	require.True(t, bestEffortReader.Compatible(w, true, false), "best-effort reader matches any writer")

	differentTopic := EndpointRecord{TopicName: "Circle", TypeName: "ShapeType"}
	require.False(t, w.Compatible(differentTopic, false, true), "topic name mismatch never matches")
}

func TestSPDPMatchesSEDPOnAnnouncerBit(t *testing.T) {
	local, err := newTestParticipant(1)
	require.NoError(t, err)
	sedp, err := NewSEDP(local.p)
	require.NoError(t, err)
	spdp, err := NewSPDP(local.p, sedp)
	require.NoError(t, err)

	remotePrefix := testPrefix(2)
	remote := ParticipantRecord{
		GUID:                      wire.GUID{Prefix: remotePrefix, Entity: wire.EntityIdParticipant},
		AvailableBuiltinEndpoints: DefaultBuiltinEndpointSet,
	}
	pl := EncodeParticipantRecord(remote)
	w := wire.NewWriter(wire.ByteOrder(true))
	wire.EncodeParameterList(w, pl)

	require.NoError(t, spdp.OnAnnouncement(w.Bytes()))

	discovered := spdp.DiscoveredParticipants()
	require.Len(t, discovered, 1)
	require.True(t, discovered[0].Matched)

	// The local DCPSPublication reader should now have a WriterProxy
	// pointing at the remote's publications announcer, since
	// BuiltinPublicationsAnnouncer was set in the remote's bitmap.
	pubReader := local.p.FindReader(wire.EntityIdSedpBuiltinPublicationsReader)
	require.NotNil(t, pubReader)
	require.Len(t, pubReader.Behavior.WriterProxies(), 1)
}

func TestSPDPIgnoresOwnAnnouncement(t *testing.T) {
	local, err := newTestParticipant(5)
	require.NoError(t, err)
	sedp, err := NewSEDP(local.p)
	require.NoError(t, err)
	spdp, err := NewSPDP(local.p, sedp)
	require.NoError(t, err)

	rec := ParticipantRecord{GUID: wire.GUID{Prefix: local.p.GuidPrefix, Entity: wire.EntityIdParticipant}}
	pl := EncodeParticipantRecord(rec)
	w := wire.NewWriter(wire.ByteOrder(true))
	wire.EncodeParameterList(w, pl)

	require.NoError(t, spdp.OnAnnouncement(w.Bytes()))
	require.Empty(t, spdp.DiscoveredParticipants())
}
