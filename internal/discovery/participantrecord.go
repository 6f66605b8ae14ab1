// Package discovery implements SPDP (participant discovery) and SEDP
// (endpoint discovery), both built on the same writer/reader behavior
// machines as user data, on reserved EntityIds (spec.md §4.9). Grounded on
// the wire layout original_source/src/participant.rs's test vectors
// exercise byte-for-byte (PID_PROTOCOL_VERSION, PID_VENDORID,
// PID_DEFAULT_UNICAST_LOCATOR, PID_METATRAFFIC_UNICAST_LOCATOR,
// PID_PARTICIPANT_LEASE_DURATION, PID_PARTICIPANT_GUID,
// PID_BUILTIN_ENDPOINT_SET, PID_SENTINEL).
package discovery

import "github.com/gortps/rtps/internal/wire"

// BuiltinEndpointSet bit positions (spec.md §6).
const (
	BuiltinParticipantAnnouncer     uint32 = 1 << 0
	BuiltinParticipantDetector      uint32 = 1 << 1
	BuiltinPublicationsAnnouncer    uint32 = 1 << 2
	BuiltinPublicationsDetector     uint32 = 1 << 3
	BuiltinSubscriptionsAnnouncer   uint32 = 1 << 4
	BuiltinSubscriptionsDetector    uint32 = 1 << 5
	BuiltinParticipantMessageWriter uint32 = 1 << 10
	BuiltinParticipantMessageReader uint32 = 1 << 11
	BuiltinTopicsAnnouncer          uint32 = 1 << 28
	BuiltinTopicsDetector           uint32 = 1 << 29
)

// DefaultBuiltinEndpointSet is what this implementation always announces:
// the SPDP participant announcer/detector, the SEDP publications and
// subscriptions announcer/detector pairs, and the participant message
// writer bit. No participant message writer endpoint is created, and the
// SEDP topics pair bits are not set.
const DefaultBuiltinEndpointSet = BuiltinParticipantAnnouncer | BuiltinParticipantDetector |
	BuiltinPublicationsAnnouncer | BuiltinPublicationsDetector |
	BuiltinSubscriptionsAnnouncer | BuiltinSubscriptionsDetector |
	BuiltinParticipantMessageWriter

// ParticipantRecord is the SPDP participant announcement payload
// (spec.md §6 "Participant record").
type ParticipantRecord struct {
	ProtocolVersion           wire.ProtocolVersion
	VendorId                  wire.VendorId
	DefaultUnicastLocators    []wire.Locator
	DefaultMulticastLocators  []wire.Locator
	MetatrafficUnicastLocators []wire.Locator
	MetatrafficMulticastLocators []wire.Locator
	LeaseDuration             wire.Duration
	GUID                      wire.GUID
	AvailableBuiltinEndpoints uint32
}

func encodeLocator(pl *wire.ParameterList, pid uint16, loc wire.Locator) {
	w := wire.NewWriter(wire.ByteOrder(true))
	w.PutLocator(loc)
	pl.Add(pid, w.Bytes())
}

func decodeLocator(p wire.Parameter) (wire.Locator, error) {
	r := wire.NewReader(p.Value, wire.ByteOrder(true))
	return r.Locator()
}

// EncodeParticipantRecord builds the PL_CDR parameter list wire form.
func EncodeParticipantRecord(rec ParticipantRecord) wire.ParameterList {
	var pl wire.ParameterList
	pl.Add(wire.PIDProtocolVersion, []byte{rec.ProtocolVersion.Major, rec.ProtocolVersion.Minor, 0, 0})
	pl.Add(wire.PIDVendorId, []byte{rec.VendorId[0], rec.VendorId[1], 0, 0})
	for _, l := range rec.DefaultUnicastLocators {
		encodeLocator(&pl, wire.PIDDefaultUnicastLocator, l)
	}
	for _, l := range rec.DefaultMulticastLocators {
		encodeLocator(&pl, wire.PIDDefaultMulticastLocator, l)
	}
	for _, l := range rec.MetatrafficUnicastLocators {
		encodeLocator(&pl, wire.PIDMetatrafficUnicastLocator, l)
	}
	for _, l := range rec.MetatrafficMulticastLocators {
		encodeLocator(&pl, wire.PIDMetatrafficMulticastLocator, l)
	}
	durW := wire.NewWriter(wire.ByteOrder(true))
	durW.PutDuration(rec.LeaseDuration)
	pl.Add(wire.PIDParticipantLeaseDuration, durW.Bytes())

	guidW := wire.NewWriter(wire.ByteOrder(true))
	guidW.PutGuidPrefix(rec.GUID.Prefix)
	guidW.PutEntityId(rec.GUID.Entity)
	pl.Add(wire.PIDParticipantGUID, guidW.Bytes())

	besW := wire.NewWriter(wire.ByteOrder(true))
	besW.PutU32(rec.AvailableBuiltinEndpoints)
	pl.Add(wire.PIDBuiltinEndpointSet, besW.Bytes())

	return pl
}

// DecodeParticipantRecord reconstructs a ParticipantRecord from a decoded
// ParameterList (e.g. from a DATA submessage's inline QoS or serialized
// data, both PL_CDR-encoded per spec.md §4.1).
func DecodeParticipantRecord(pl wire.ParameterList) (ParticipantRecord, error) {
	var rec ParticipantRecord
	for _, p := range pl.Params {
		switch p.ID {
		case wire.PIDProtocolVersion:
			if len(p.Value) >= 2 {
				rec.ProtocolVersion = wire.ProtocolVersion{Major: p.Value[0], Minor: p.Value[1]}
			}
		case wire.PIDVendorId:
			if len(p.Value) >= 2 {
				rec.VendorId = wire.VendorId{p.Value[0], p.Value[1]}
			}
		case wire.PIDDefaultUnicastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.DefaultUnicastLocators = append(rec.DefaultUnicastLocators, l)
			}
		case wire.PIDDefaultMulticastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.DefaultMulticastLocators = append(rec.DefaultMulticastLocators, l)
			}
		case wire.PIDMetatrafficUnicastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.MetatrafficUnicastLocators = append(rec.MetatrafficUnicastLocators, l)
			}
		case wire.PIDMetatrafficMulticastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.MetatrafficMulticastLocators = append(rec.MetatrafficMulticastLocators, l)
			}
		case wire.PIDParticipantLeaseDuration:
			r := wire.NewReader(p.Value, wire.ByteOrder(true))
			if d, err := r.Duration(); err == nil {
				rec.LeaseDuration = d
			}
		case wire.PIDParticipantGUID:
			if len(p.Value) >= 16 {
				r := wire.NewReader(p.Value, wire.ByteOrder(true))
				prefix, _ := r.GuidPrefix()
				entity, _ := r.EntityId()
				rec.GUID = wire.GUID{Prefix: prefix, Entity: entity}
			}
		case wire.PIDBuiltinEndpointSet:
			if len(p.Value) >= 4 {
				r := wire.NewReader(p.Value, wire.ByteOrder(true))
				bes, _ := r.U32()
				rec.AvailableBuiltinEndpoints = bes
			}
		}
	}
	return rec, nil
}

// InstanceHandle returns the PID_PARTICIPANT_GUID-derived handle
// DiscoveredParticipants are keyed by (spec.md §4.9).
func (rec ParticipantRecord) InstanceHandle() wire.InstanceHandle {
	var h wire.InstanceHandle
	copy(h[:12], rec.GUID.Prefix[:])
	b := rec.GUID.Entity.Bytes()
	copy(h[12:], b[:])
	return h
}
