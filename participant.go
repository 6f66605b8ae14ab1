package rtps

import (
	"context"
	"sync"

	"github.com/gortps/rtps/internal/discovery"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/engine"
	"github.com/gortps/rtps/internal/interfaces"
	"github.com/gortps/rtps/internal/wire"
)

// ParticipantConfig constructs a Participant (spec.md §4.8, §4.9).
type ParticipantConfig struct {
	DomainID                     int
	GuidPrefix                   wire.GuidPrefix
	DefaultUnicastLocators       []wire.Locator
	DefaultMulticastLocators     []wire.Locator
	MetatrafficUnicastLocators   []wire.Locator
	MetatrafficMulticastLocators []wire.Locator
	LeaseDuration                wire.Duration
	Transport                    interfaces.Transport
	Logger                       interfaces.Logger
	Observer                     Observer
}

// Participant is the DDS-facing entry point: it owns the discovery
// sub-protocols, the tick engine, and every Publisher/Subscriber/Topic/
// DataWriter/DataReader created beneath it.
type Participant struct {
	internal *endpoint.Participant
	spdp     *discovery.SPDP
	sedp     *discovery.SEDP
	engine   *engine.Engine

	mu     sync.Mutex
	topics map[string]*Topic
}

// NewParticipant constructs and starts a Participant: the SPDP/SEDP
// builtin endpoints are created, the local participant record is
// announced once, and the tick engine starts running in the background.
func NewParticipant(ctx context.Context, cfg ParticipantConfig) (*Participant, error) {
	if cfg.LeaseDuration == (wire.Duration{}) {
		cfg.LeaseDuration = wire.DurationFromSeconds(100)
	}

	internalParticipant := endpoint.NewParticipant(cfg.GuidPrefix, cfg.DomainID)
	internalParticipant.DefaultUnicastLocators = cfg.DefaultUnicastLocators
	internalParticipant.DefaultMulticastLocators = cfg.DefaultMulticastLocators
	internalParticipant.MetatrafficUnicastLocators = cfg.MetatrafficUnicastLocators
	internalParticipant.MetatrafficMulticastLocators = cfg.MetatrafficMulticastLocators
	internalParticipant.LeaseDuration = cfg.LeaseDuration

	sedp, err := discovery.NewSEDP(internalParticipant)
	if err != nil {
		return nil, &Error{Op: "create_participant", Code: ErrCodeOutOfResources, Inner: err}
	}
	spdp, err := discovery.NewSPDP(internalParticipant, sedp)
	if err != nil {
		return nil, &Error{Op: "create_participant", Code: ErrCodeOutOfResources, Inner: err}
	}

	var obs interfaces.Observer = interfaces.NopObserver{}
	if cfg.Observer != nil {
		obs = &observerAdapter{cfg.Observer}
	}

	e := engine.New(ctx, engine.Config{
		Participant: internalParticipant,
		SPDP:        spdp,
		SEDP:        sedp,
		Transport:   cfg.Transport,
		Logger:      cfg.Logger,
		Observer:    obs,
	})

	p := &Participant{internal: internalParticipant, spdp: spdp, sedp: sedp, engine: e, topics: make(map[string]*Topic)}

	if err := spdp.Announce(); err != nil {
		return nil, &Error{Op: "create_participant", Code: ErrCodeOutOfResources, Inner: err}
	}

	e.Start()
	return p, nil
}

// Close stops the tick engine. The Transport supplied in ParticipantConfig
// is not closed.
func (p *Participant) Close() error {
	p.engine.Stop()
	return nil
}

// DomainID returns the domain this participant was created in
// (supplemented feature, spec.md §9: stored field, no computation).
func (p *Participant) DomainID() int { return p.internal.DomainID }

// GuidPrefix returns this participant's identity prefix.
func (p *Participant) GuidPrefix() wire.GuidPrefix { return p.internal.GuidPrefix }

// observerAdapter bridges the façade's Observer to internal/interfaces.Observer.
type observerAdapter struct{ Observer }

var _ interfaces.Observer = (*observerAdapter)(nil)

// Topic names the (topic_name, type_name, keyed) triple DataWriters and
// DataReaders are created against (spec.md §4.8).
type Topic struct {
	Name string
	Type string
	Qos  TopicQos
}

// CreateTopic registers a topic name/type pair on this participant. Unlike
// OMG DDS, topics here are purely descriptive: they carry no entity of
// their own beyond what create_datawriter/create_datareader consult.
func (p *Participant) CreateTopic(name, typeName string, qos TopicQos) (*Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.topics[name]; exists {
		return nil, &Error{Op: "create_topic", Entity: name, Code: ErrCodeBadParameter, Msg: "topic already exists"}
	}
	t := &Topic{Name: name, Type: typeName, Qos: qos}
	p.topics[name] = t
	return t, nil
}

// DeleteTopic removes a topic's registration (spec.md §6's
// create/delete_topic pair). It does not affect DataWriters/DataReaders
// already created against it.
func (p *Participant) DeleteTopic(t *Topic) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.topics[t.Name]; !exists {
		return &Error{Op: "delete_topic", Entity: t.Name, Code: ErrCodeAlreadyDeleted}
	}
	delete(p.topics, t.Name)
	return nil
}

// Ignore_participant/ignore_topic/ignore_publication/ignore_subscription
// are recognized by name but not implemented: this core has no ignore-list
// enforced at discovery time (spec.md §9 Open Question (i), resolved as
// "documented not implemented" rather than silently accepted).

func (p *Participant) IgnoreParticipant(handle wire.InstanceHandle) error {
	return &Error{Op: "ignore_participant", Code: ErrCodeNotImplemented}
}

func (p *Participant) IgnoreTopic(handle wire.InstanceHandle) error {
	return &Error{Op: "ignore_topic", Code: ErrCodeNotImplemented}
}

func (p *Participant) IgnorePublication(handle wire.InstanceHandle) error {
	return &Error{Op: "ignore_publication", Code: ErrCodeNotImplemented}
}

func (p *Participant) IgnoreSubscription(handle wire.InstanceHandle) error {
	return &Error{Op: "ignore_subscription", Code: ErrCodeNotImplemented}
}
