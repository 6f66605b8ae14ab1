// Package endpoint implements the endpoint-group containment hierarchy
// (spec.md §4.8): Participant owns publisher/subscriber Groups, each
// holding Endpoints (writers or readers). Cyclic ownership is modeled per
// spec.md §9 "Cyclic ownership": children hold their parent's identity
// (GUID), not a pointer, and are resolved back through the Participant's
// lookup tables — never a raw back-reference that could dangle.
package endpoint

import (
	"sync"

	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

// GroupKind distinguishes publisher groups (own writers) from subscriber
// groups (own readers); it is folded into entity id assignment.
type GroupKind int

const (
	GroupPublisher GroupKind = iota
	GroupSubscriber
)

// TopicKind selects the WithKey/NoKey entity-kind pair an endpoint is
// assigned from (spec.md §4.8).
type TopicKind int

const (
	TopicNoKey TopicKind = iota
	TopicWithKey
)

// Writer is a user or builtin writer endpoint: its GUID plus the behavior
// state machine driving it.
type Writer struct {
	GUID     wire.GUID
	TopicName string
	TypeName  string
	Behavior *behavior.Writer
}

// Reader is a user or builtin reader endpoint.
type Reader struct {
	GUID     wire.GUID
	TopicName string
	TypeName  string
	Behavior *behavior.Reader
}

// Group is a publisher or subscriber: a participant-scoped container that
// assigns entity ids to the endpoints it owns (spec.md §4.8).
type Group struct {
	GUID         wire.GUID
	Kind         GroupKind
	participantGuidPrefix wire.GuidPrefix

	mu      sync.Mutex
	counter uint8
	writers map[wire.EntityId]*Writer
	readers map[wire.EntityId]*Reader
}

func newGroup(participantPrefix wire.GuidPrefix, kind GroupKind, groupEntityId wire.EntityId) *Group {
	return &Group{
		GUID:                  wire.GUID{Prefix: participantPrefix, Entity: groupEntityId},
		Kind:                  kind,
		participantGuidPrefix: participantPrefix,
		writers:               make(map[wire.EntityId]*Writer),
		readers:                make(map[wire.EntityId]*Reader),
	}
}

// nextEntityId assigns a deterministic entity id: a monotonic counter
// concatenated with the entity-kind byte derived from topic kind
// (spec.md §4.8).
func (g *Group) nextEntityId(topicKind TopicKind, isWriter bool) wire.EntityId {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	var kind wire.EntityKind
	switch {
	case isWriter && topicKind == TopicWithKey:
		kind = wire.EntityKindWriterWithKey
	case isWriter && topicKind == TopicNoKey:
		kind = wire.EntityKindWriterNoKey
	case !isWriter && topicKind == TopicWithKey:
		kind = wire.EntityKindReaderWithKey
	default:
		kind = wire.EntityKindReaderNoKey
	}
	return wire.EntityId{EntityKey: [3]byte{0, 0, g.counter}, Kind: kind}
}

// CreateWriter allocates an entity id, constructs its behavior.Writer, and
// registers it with the group.
func (g *Group) CreateWriter(topicName, typeName string, topicKind TopicKind, cfg behavior.WriterConfig, limits history.ResourceLimits) (*Writer, error) {
	cache, err := history.NewCache(limits)
	if err != nil {
		return nil, err
	}
	entityId := g.nextEntityId(topicKind, true)
	guid := wire.GUID{Prefix: g.participantGuidPrefix, Entity: entityId}
	w := &Writer{GUID: guid, TopicName: topicName, TypeName: typeName, Behavior: behavior.NewWriter(guid, cache, cfg)}
	g.mu.Lock()
	g.writers[entityId] = w
	g.mu.Unlock()
	return w, nil
}

// CreateReader allocates an entity id, constructs its behavior.Reader, and
// registers it with the group.
func (g *Group) CreateReader(topicName, typeName string, topicKind TopicKind, cfg behavior.ReaderConfig, limits history.ResourceLimits) (*Reader, error) {
	cache, err := history.NewCache(limits)
	if err != nil {
		return nil, err
	}
	entityId := g.nextEntityId(topicKind, false)
	guid := wire.GUID{Prefix: g.participantGuidPrefix, Entity: entityId}
	r := &Reader{GUID: guid, TopicName: topicName, TypeName: typeName, Behavior: behavior.NewReader(guid, cache, cfg)}
	g.mu.Lock()
	g.readers[entityId] = r
	g.mu.Unlock()
	return r, nil
}

// DeleteWriter removes a writer, failing PreconditionNotMet-equivalent
// (ErrEntityNotFound) if it does not belong to this group.
func (g *Group) DeleteWriter(entityId wire.EntityId) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.writers[entityId]; !ok {
		return ErrEntityNotFound
	}
	delete(g.writers, entityId)
	return nil
}

func (g *Group) DeleteReader(entityId wire.EntityId) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.readers[entityId]; !ok {
		return ErrEntityNotFound
	}
	delete(g.readers, entityId)
	return nil
}

// Writers/Readers snapshot the group's current endpoints.
func (g *Group) Writers() []*Writer {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Writer, 0, len(g.writers))
	for _, w := range g.writers {
		out = append(out, w)
	}
	return out
}

func (g *Group) Readers() []*Reader {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Reader, 0, len(g.readers))
	for _, r := range g.readers {
		out = append(out, r)
	}
	return out
}

func (g *Group) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writers) == 0 && len(g.readers) == 0
}

// Participant owns the built-in publisher/subscriber (with the six
// built-in endpoints) plus user-created groups (spec.md §4.8).
type Participant struct {
	GuidPrefix wire.GuidPrefix
	DomainID   int // supplemented feature: stored, exposed via DomainID()

	DefaultUnicastLocators     []wire.Locator
	DefaultMulticastLocators   []wire.Locator
	MetatrafficUnicastLocators []wire.Locator
	MetatrafficMulticastLocators []wire.Locator
	LeaseDuration              wire.Duration

	mu             sync.Mutex
	groupCounter   uint8
	groups         map[wire.EntityId]*Group

	BuiltinPublisher  *Group
	BuiltinSubscriber *Group
}

// NewParticipant constructs a participant with empty builtin groups; the
// caller (discovery package) populates the six builtin endpoints.
func NewParticipant(prefix wire.GuidPrefix, domainID int) *Participant {
	p := &Participant{
		GuidPrefix: prefix,
		DomainID:   domainID,
		groups:     make(map[wire.EntityId]*Group),
	}
	p.BuiltinPublisher = p.newGroupLocked(GroupPublisher, wire.EntityId{EntityKey: [3]byte{0, 0, 0}, Kind: wire.EntityKindWriterGroup})
	p.BuiltinSubscriber = p.newGroupLocked(GroupSubscriber, wire.EntityId{EntityKey: [3]byte{0, 0, 0}, Kind: wire.EntityKindReaderGroup})
	return p
}

func (p *Participant) newGroupLocked(kind GroupKind, entityId wire.EntityId) *Group {
	g := newGroup(p.GuidPrefix, kind, entityId)
	p.groups[entityId] = g
	return g
}

// CreateGroup allocates a user publisher or subscriber.
func (p *Participant) CreateGroup(kind GroupKind) *Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groupCounter++
	var entKind wire.EntityKind
	if kind == GroupPublisher {
		entKind = wire.EntityKindWriterGroup
	} else {
		entKind = wire.EntityKindReaderGroup
	}
	entityId := wire.EntityId{EntityKey: [3]byte{0, p.groupCounter, 0}, Kind: entKind}
	g := p.newGroupLocked(kind, entityId)
	return g
}

// DeleteGroup fails with ErrGroupNotEmpty if it still contains endpoints
// (spec.md §5 "Endpoint deletion with non-empty contained children fails
// with PreconditionNotMet").
func (p *Participant) DeleteGroup(entityId wire.EntityId) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.groups[entityId]
	if !ok {
		return ErrEntityNotFound
	}
	if !g.Empty() {
		return ErrGroupNotEmpty
	}
	delete(p.groups, entityId)
	return nil
}

// AllGroups returns every group, builtin and user-created.
func (p *Participant) AllGroups() []*Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Group, 0, len(p.groups))
	for _, g := range p.groups {
		out = append(out, g)
	}
	return out
}

// FindWriter/FindReader resolve a local GUID to its endpoint, as the
// receiver's dispatch step needs (spec.md §4.7).
func (p *Participant) FindWriter(entityId wire.EntityId) *Writer {
	for _, g := range p.AllGroups() {
		for _, w := range g.Writers() {
			if w.GUID.Entity.Equal(entityId) {
				return w
			}
		}
	}
	return nil
}

func (p *Participant) FindReader(entityId wire.EntityId) *Reader {
	for _, g := range p.AllGroups() {
		for _, r := range g.Readers() {
			if r.GUID.Entity.Equal(entityId) {
				return r
			}
		}
	}
	return nil
}

// AllReaders/AllWriters flatten every endpoint across every group, used
// for SPDP's ENTITYID_UNKNOWN fan-out (spec.md §4.7) and for the engine's
// tick loop.
func (p *Participant) AllReaders() []*Reader {
	var out []*Reader
	for _, g := range p.AllGroups() {
		out = append(out, g.Readers()...)
	}
	return out
}

func (p *Participant) AllWriters() []*Writer {
	var out []*Writer
	for _, g := range p.AllGroups() {
		out = append(out, g.Writers()...)
	}
	return out
}
