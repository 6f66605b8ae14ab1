package rtps

import (
	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
)

// Subscriber owns DataReaders (spec.md §4.8, §6 create/delete_subscriber).
type Subscriber struct {
	p     *Participant
	group *endpoint.Group
}

// CreateSubscriber allocates a user subscriber group.
func (p *Participant) CreateSubscriber() (*Subscriber, error) {
	g := p.internal.CreateGroup(endpoint.GroupSubscriber)
	return &Subscriber{p: p, group: g}, nil
}

// DeleteSubscriber fails with PreconditionNotMet if the subscriber still
// owns DataReaders (spec.md §5).
func (p *Participant) DeleteSubscriber(sub *Subscriber) error {
	if err := p.internal.DeleteGroup(sub.group.GUID.Entity); err != nil {
		return &Error{Op: "delete_subscriber", Code: ErrCodePreconditionNotMet, Inner: err}
	}
	return nil
}

// CreateDataReader allocates a DataReader on this subscriber for the given
// topic and announces it via SEDP so remote publishers can match against
// it (spec.md §4.9).
func (s *Subscriber) CreateDataReader(topic *Topic, qos DataReaderQos) (*DataReader, error) {
	topicKind := endpoint.TopicNoKey
	if topic.Qos.Keyed {
		topicKind = endpoint.TopicWithKey
	}
	cfg := behavior.ReaderConfig{
		Reliable:               qos.Reliability == Reliable,
		HeartbeatResponseDelay: qos.HeartbeatResponseDelay,
	}
	limits := history.ResourceLimits{
		MaxSamples:            qos.ResourceLimits.MaxSamples,
		MaxInstances:          qos.ResourceLimits.MaxInstances,
		MaxSamplesPerInstance: qos.ResourceLimits.MaxSamplesPerInstance,
	}
	r, err := s.group.CreateReader(topic.Name, topic.Type, topicKind, cfg, limits)
	if err != nil {
		return nil, &Error{Op: "create_datareader", Entity: topic.Name, Code: ErrCodeOutOfResources, Inner: err}
	}
	if err := s.p.sedp.AnnounceReader(r, qos.Reliability == Reliable); err != nil {
		return nil, &Error{Op: "create_datareader", Entity: topic.Name, Code: ErrCodeOutOfResources, Inner: err}
	}
	return &DataReader{endpoint: r, subscriber: s}, nil
}

// DeleteDataReader removes a DataReader from its owning subscriber.
func (s *Subscriber) DeleteDataReader(r *DataReader) error {
	if err := s.group.DeleteReader(r.endpoint.GUID.Entity); err != nil {
		return &Error{Op: "delete_datareader", Entity: r.endpoint.GUID.String(), Code: ErrCodeAlreadyDeleted, Inner: err}
	}
	return nil
}
