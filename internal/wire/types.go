// Package wire implements the DDSI-RTPS 2.4 wire types and submessage
// codec: bit-exact encode/decode of GUIDs, sequence numbers, locators,
// times, and every submessage the core dispatches.
package wire

import (
	"bytes"
	"fmt"
)

// GuidPrefix identifies a participant uniquely on the network (12 bytes).
type GuidPrefix [12]byte

var GuidPrefixUnknown = GuidPrefix{}

func (p GuidPrefix) String() string {
	return fmt.Sprintf("%x", [12]byte(p))
}

// EntityKind occupies the low byte of an EntityId.
type EntityKind uint8

const (
	EntityKindUnknown             EntityKind = 0x00
	EntityKindParticipant         EntityKind = 0x01
	EntityKindWriterWithKey       EntityKind = 0x02
	EntityKindWriterNoKey         EntityKind = 0x03
	EntityKindReaderNoKey         EntityKind = 0x04
	EntityKindReaderWithKey       EntityKind = 0x07
	EntityKindWriterGroup         EntityKind = 0x08
	EntityKindReaderGroup         EntityKind = 0x09
	EntityKindBuiltinParticipant  EntityKind = 0xc1
	EntityKindBuiltinWriterWithKey EntityKind = 0xc2
	EntityKindBuiltinWriterNoKey  EntityKind = 0xc3
	EntityKindBuiltinReaderNoKey  EntityKind = 0xc4
	EntityKindBuiltinReaderWithKey EntityKind = 0xc7
	EntityKindBuiltinWriterGroup  EntityKind = 0xc8
	EntityKindBuiltinReaderGroup  EntityKind = 0xc9
)

// EntityId identifies an entity inside a participant (4 bytes: 3-byte key + kind).
type EntityId struct {
	EntityKey [3]byte
	Kind      EntityKind
}

func (e EntityId) Bytes() [4]byte {
	return [4]byte{e.EntityKey[0], e.EntityKey[1], e.EntityKey[2], byte(e.Kind)}
}

func EntityIdFromBytes(b [4]byte) EntityId {
	return EntityId{EntityKey: [3]byte{b[0], b[1], b[2]}, Kind: EntityKind(b[3])}
}

func (e EntityId) Equal(o EntityId) bool {
	return e.EntityKey == o.EntityKey && e.Kind == o.Kind
}

var (
	EntityIdUnknown                      = EntityId{}
	EntityIdParticipant                   = EntityId{EntityKey: [3]byte{0, 0, 0x01}, Kind: EntityKindBuiltinParticipant}
	EntityIdSpdpBuiltinParticipantWriter  = EntityId{EntityKey: [3]byte{0, 0x01, 0}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSpdpBuiltinParticipantReader  = EntityId{EntityKey: [3]byte{0, 0x01, 0}, Kind: EntityKindBuiltinReaderWithKey}
	EntityIdSedpBuiltinPublicationsWriter = EntityId{EntityKey: [3]byte{0, 0x03, 0}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSedpBuiltinPublicationsReader = EntityId{EntityKey: [3]byte{0, 0x03, 0}, Kind: EntityKindBuiltinReaderWithKey}
	EntityIdSedpBuiltinSubscriptionsWriter = EntityId{EntityKey: [3]byte{0, 0x04, 0}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSedpBuiltinSubscriptionsReader = EntityId{EntityKey: [3]byte{0, 0x04, 0}, Kind: EntityKindBuiltinReaderWithKey}
	EntityIdSedpBuiltinTopicsWriter       = EntityId{EntityKey: [3]byte{0, 0x02, 0}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSedpBuiltinTopicsReader       = EntityId{EntityKey: [3]byte{0, 0x02, 0}, Kind: EntityKindBuiltinReaderWithKey}
	EntityIdParticipantMessageWriter      = EntityId{EntityKey: [3]byte{0, 0x02, 0x00}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdParticipantMessageReader      = EntityId{EntityKey: [3]byte{0, 0x02, 0x00}, Kind: EntityKindBuiltinReaderWithKey}
)

// GUID globally identifies an entity: GuidPrefix + EntityId.
type GUID struct {
	Prefix GuidPrefix
	Entity EntityId
}

var GUIDUnknown = GUID{}

func (g GUID) Equal(o GUID) bool {
	return g.Prefix == o.Prefix && g.Entity.Equal(o.Entity)
}

// Less orders GUIDs by prefix then entity id, for use as a btree key
// component (internal/history.Cache keys changes by (WriterGUID, sn)).
func (g GUID) Less(o GUID) bool {
	if cmp := bytes.Compare(g.Prefix[:], o.Prefix[:]); cmp != 0 {
		return cmp < 0
	}
	ga, oa := g.Entity.Bytes(), o.Entity.Bytes()
	return bytes.Compare(ga[:], oa[:]) < 0
}

func (g GUID) String() string {
	return fmt.Sprintf("%s:%x", g.Prefix, g.Entity.Bytes())
}

// InstanceHandle identifies a keyed instance within a topic.
type InstanceHandle [16]byte

var InstanceHandleNil = InstanceHandle{}

func (h InstanceHandle) Equal(o InstanceHandle) bool { return h == o }

// SequenceNumber is signed 64-bit, wire-encoded as (high int32, low uint32).
type SequenceNumber int64

const SequenceNumberUnknown SequenceNumber = -1

// Time is (seconds, fraction) where fraction is in 2^-32 second units.
type Time struct {
	Seconds  uint32
	Fraction uint32
}

var TimeInvalid = Time{Seconds: 0xffffffff, Fraction: 0xffffffff}

func TimeNow(unixSec int64, nanos uint32) Time {
	frac := uint32((uint64(nanos) << 32) / 1_000_000_000)
	return Time{Seconds: uint32(unixSec), Fraction: frac}
}

// Duration is the signed analogue of Time.
type Duration struct {
	Seconds  int32
	Fraction uint32
}

var (
	DurationZero    = Duration{}
	DurationInfinite = Duration{Seconds: 0x7fffffff, Fraction: 0xffffffff}
)

func DurationFromSeconds(sec float64) Duration {
	whole := int32(sec)
	frac := sec - float64(whole)
	return Duration{Seconds: whole, Fraction: uint32(frac * 4294967296.0)}
}

func (d Duration) Nanoseconds() int64 {
	return int64(d.Seconds)*1_000_000_000 + int64(uint64(d.Fraction)*1_000_000_000/4294967296)
}

// LocatorKind enumerates the address family carried by a Locator.
type LocatorKind int32

const (
	LocatorKindInvalid LocatorKind = -1
	LocatorKindReserved LocatorKind = 0
	LocatorKindUDPv4    LocatorKind = 1
	LocatorKindUDPv6    LocatorKind = 2
)

// Locator is a transport-agnostic network address: kind, port, 16-byte address.
type Locator struct {
	Kind    LocatorKind
	Port    uint32
	Address [16]byte
}

var LocatorInvalid = Locator{Kind: LocatorKindInvalid}

func (l Locator) Equal(o Locator) bool {
	return l.Kind == o.Kind && l.Port == o.Port && l.Address == o.Address
}

func (l Locator) String() string {
	if l.Kind == LocatorKindUDPv4 {
		a := l.Address
		return fmt.Sprintf("%d.%d.%d.%d:%d", a[12], a[13], a[14], a[15], l.Port)
	}
	return fmt.Sprintf("locator(kind=%d,port=%d)", l.Kind, l.Port)
}

// LocatorFromUDPv4 builds a Locator for an IPv4 address and port.
func LocatorFromUDPv4(a, b, c, d byte, port uint32) Locator {
	var addr [16]byte
	addr[12], addr[13], addr[14], addr[15] = a, b, c, d
	return Locator{Kind: LocatorKindUDPv4, Port: port, Address: addr}
}

// ChangeKind classifies a CacheChange's effect on an instance's lifecycle.
type ChangeKind uint8

const (
	ChangeKindAlive ChangeKind = iota
	ChangeKindAliveFiltered
	ChangeKindNotAliveDisposed
	ChangeKindNotAliveUnregistered
)

// ProtocolVersion is the RTPS protocol version carried in the message header.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

var ProtocolVersion24 = ProtocolVersion{Major: 2, Minor: 4}

// VendorId identifies the implementation that produced a message.
type VendorId [2]byte

var VendorIdUnknown = VendorId{0, 0}

// VendorIdThis is an unregistered vendor id this implementation uses on the wire.
var VendorIdThis = VendorId{0x01, 0x23}

var rtpsMagic = [4]byte{'R', 'T', 'P', 'S'}

func equalBytes(a, b []byte) bool { return bytes.Equal(a, b) }
