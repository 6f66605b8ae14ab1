package rtps

import (
	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
)

// Publisher owns DataWriters (spec.md §4.8, §6 create/delete_publisher).
type Publisher struct {
	p       *Participant
	group   *endpoint.Group
}

// CreatePublisher allocates a user publisher group.
func (p *Participant) CreatePublisher() (*Publisher, error) {
	g := p.internal.CreateGroup(endpoint.GroupPublisher)
	return &Publisher{p: p, group: g}, nil
}

// DeletePublisher fails with PreconditionNotMet if the publisher still
// owns DataWriters (spec.md §5).
func (p *Participant) DeletePublisher(pub *Publisher) error {
	if err := p.internal.DeleteGroup(pub.group.GUID.Entity); err != nil {
		return &Error{Op: "delete_publisher", Code: ErrCodePreconditionNotMet, Inner: err}
	}
	return nil
}

// CreateDataWriter allocates a DataWriter on this publisher for the given
// topic, with the behavior.Writer/HistoryCache QoS translation spec.md
// §4.5/§4.2 describes, and announces it via SEDP so remote subscribers can
// match against it (spec.md §4.9).
func (p *Publisher) CreateDataWriter(topic *Topic, qos DataWriterQos) (*DataWriter, error) {
	topicKind := endpoint.TopicNoKey
	if topic.Qos.Keyed {
		topicKind = endpoint.TopicWithKey
	}
	cfg := behavior.WriterConfig{
		Reliable:          qos.Reliability == Reliable,
		Stateful:          true,
		HeartbeatPeriod:   qos.HeartbeatPeriod,
		NackResponseDelay: qos.NackResponseDelay,
		PushMode:          true,
	}
	limits := history.ResourceLimits{
		MaxSamples:            qos.ResourceLimits.MaxSamples,
		MaxInstances:          qos.ResourceLimits.MaxInstances,
		MaxSamplesPerInstance: qos.ResourceLimits.MaxSamplesPerInstance,
	}
	w, err := p.group.CreateWriter(topic.Name, topic.Type, topicKind, cfg, limits)
	if err != nil {
		return nil, &Error{Op: "create_datawriter", Entity: topic.Name, Code: ErrCodeOutOfResources, Inner: err}
	}
	if err := p.p.sedp.AnnounceWriter(w, qos.Reliability == Reliable); err != nil {
		return nil, &Error{Op: "create_datawriter", Entity: topic.Name, Code: ErrCodeOutOfResources, Inner: err}
	}
	return &DataWriter{endpoint: w, publisher: p}, nil
}

// DeleteDataWriter removes a DataWriter from its owning publisher.
func (p *Publisher) DeleteDataWriter(w *DataWriter) error {
	if err := p.group.DeleteWriter(w.endpoint.GUID.Entity); err != nil {
		return &Error{Op: "delete_datawriter", Entity: w.endpoint.GUID.String(), Code: ErrCodeAlreadyDeleted, Inner: err}
	}
	return nil
}
