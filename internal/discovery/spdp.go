package discovery

import (
	"sync"

	"github.com/gortps/rtps/internal/behavior"
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/rcache"
	"github.com/gortps/rtps/internal/wcache"
	"github.com/gortps/rtps/internal/wire"
)

// sedpPairKind enumerates the three SEDP topics, each carrying one
// announcer/detector pair of builtin endpoints (spec.md §4.9).
type sedpPairKind int

const (
	sedpPublications sedpPairKind = iota
	sedpSubscriptions
	sedpTopics
)

// sedpDefaultWriterConfig/sedpDefaultReaderConfig are the QoS defaults
// spec.md §4.9 assigns the SEDP pairs: "WithKey, Reliable,
// heartbeat_period=2s, nack_response_delay=200ms,
// heartbeat_response_delay=500ms".
func sedpDefaultWriterConfig() behavior.WriterConfig {
	return behavior.WriterConfig{
		Reliable:          true,
		Stateful:          true,
		HeartbeatPeriod:   wire.DurationFromSeconds(2),
		NackResponseDelay: wire.DurationFromSeconds(0.2),
		PushMode:          true,
	}
}

func sedpDefaultReaderConfig() behavior.ReaderConfig {
	return behavior.ReaderConfig{
		Reliable:               true,
		HeartbeatResponseDelay: wire.DurationFromSeconds(0.5),
	}
}

// spdpDefaultWriterConfig is the SPDP pair's QoS: "BestEffort, all
// durations zero, push_mode=true" (spec.md §4.9).
func spdpDefaultWriterConfig() behavior.WriterConfig {
	return behavior.WriterConfig{Reliable: false, Stateful: false, PushMode: true}
}

func spdpDefaultReaderConfig() behavior.ReaderConfig {
	return behavior.ReaderConfig{Reliable: false}
}

// guidInstanceHandle derives an InstanceHandle from a GUID the same way
// ParticipantRecord.InstanceHandle does, for endpoint records keyed by
// PID_ENDPOINT_GUID rather than PID_PARTICIPANT_GUID.
func guidInstanceHandle(guid wire.GUID) wire.InstanceHandle {
	var h wire.InstanceHandle
	copy(h[:12], guid.Prefix[:])
	b := guid.Entity.Bytes()
	copy(h[12:], b[:])
	return h
}

const defaultResourceLimitUnbounded = -1

func unboundedLimits() history.ResourceLimits {
	return history.ResourceLimits{MaxSamples: defaultResourceLimitUnbounded, MaxInstances: defaultResourceLimitUnbounded, MaxSamplesPerInstance: defaultResourceLimitUnbounded}
}

// DiscoveredParticipant is one entry of a participant's
// discovered_participant_list (spec.md §4.9), keyed by
// ParticipantRecord.InstanceHandle().
type DiscoveredParticipant struct {
	Record  ParticipantRecord
	Matched bool // true once the six SEDP pairs have been wired
}

// SPDP drives participant discovery for one local Participant: the
// stateless best-effort announcer/detector pair on
// ENTITYID_SPDP_BUILTIN_PARTICIPANT_{WRITER,READER}, plus the resulting
// discovered_participant_list and SEDP endpoint matching (spec.md §4.9).
type SPDP struct {
	local     *endpoint.Participant
	announcer *endpoint.Writer
	detector  *endpoint.Reader
	sedp      *SEDP

	mu         sync.Mutex
	discovered map[wire.InstanceHandle]*DiscoveredParticipant
}

// NewSPDP constructs the SPDP writer/reader on the participant's builtin
// groups, adding a ReaderLocator for every metatraffic multicast locator
// so the announcement multicasts from the first tick (spec.md §4.9:
// "every multicast locator listed in metatraffic_multicast_locator_list
// is added as a ReaderLocator on creation").
func NewSPDP(local *endpoint.Participant, sedp *SEDP) (*SPDP, error) {
	w, err := local.BuiltinPublisher.CreateWriter("DCPSParticipant", "SPDPDiscoveredParticipantData", endpoint.TopicWithKey, spdpDefaultWriterConfig(), unboundedLimits())
	if err != nil {
		return nil, err
	}
	w.GUID.Entity = wire.EntityIdSpdpBuiltinParticipantWriter
	w.Behavior.GUID.Entity = w.GUID.Entity

	r, err := local.BuiltinSubscriber.CreateReader("DCPSParticipant", "SPDPDiscoveredParticipantData", endpoint.TopicWithKey, spdpDefaultReaderConfig(), unboundedLimits())
	if err != nil {
		return nil, err
	}
	r.GUID.Entity = wire.EntityIdSpdpBuiltinParticipantReader
	r.Behavior.GUID.Entity = r.GUID.Entity

	for _, loc := range local.MetatrafficMulticastLocators {
		w.Behavior.AddReaderLocator(wcache.NewReaderLocator(loc, w.Behavior.Cache, true))
	}

	s := &SPDP{
		local:      local,
		announcer:  w,
		detector:   r,
		sedp:       sedp,
		discovered: make(map[wire.InstanceHandle]*DiscoveredParticipant),
	}
	return s, nil
}

// Announce publishes (or republishes) the local participant's record,
// adding a fresh change to the announcer's history cache; the announcer's
// next Tick pushes it to every ReaderLocator (spec.md §4.9 "the writer
// periodically re-sends a DATA... describing the local participant").
func (s *SPDP) Announce() error {
	rec := ParticipantRecord{
		ProtocolVersion:               wire.ProtocolVersion{Major: 2, Minor: 4},
		DefaultUnicastLocators:        s.local.DefaultUnicastLocators,
		DefaultMulticastLocators:      s.local.DefaultMulticastLocators,
		MetatrafficUnicastLocators:    s.local.MetatrafficUnicastLocators,
		MetatrafficMulticastLocators:  s.local.MetatrafficMulticastLocators,
		LeaseDuration:                 s.local.LeaseDuration,
		GUID:                          wire.GUID{Prefix: s.local.GuidPrefix, Entity: wire.EntityIdParticipant},
		AvailableBuiltinEndpoints:     DefaultBuiltinEndpointSet,
	}
	pl := EncodeParticipantRecord(rec)
	payload := &wire.SerializedPayload{Representation: wire.ReprPLCDRLE}
	w := wire.NewWriter(wire.ByteOrder(true))
	EncodeParameterList(w, pl)
	payload.Payload = w.Bytes()

	_, err := s.announcer.Behavior.NewChange(wire.ChangeKindAlive, rec.InstanceHandle(), payload)
	return err
}

// EncodeParameterList is re-exported from wire for callers in this package
// that build a serialized payload rather than inline QoS.
func EncodeParameterList(w *wire.Writer, pl wire.ParameterList) { wire.EncodeParameterList(w, pl) }

// OnAnnouncement handles a decoded inbound SPDP DATA payload: it updates
// discovered_participant_list and, for a never-before-seen participant,
// runs endpoint matching for the six SEDP pairs (spec.md §4.9 "Endpoint
// matching on new participant").
func (s *SPDP) OnAnnouncement(payload []byte) error {
	r := wire.NewReader(payload, wire.ByteOrder(true))
	pl, err := wire.DecodeParameterList(r)
	if err != nil {
		return err
	}
	rec, err := DecodeParticipantRecord(pl)
	if err != nil {
		return err
	}
	if rec.GUID.Prefix == s.local.GuidPrefix {
		return nil // never discover ourselves
	}

	handle := rec.InstanceHandle()
	s.mu.Lock()
	dp, known := s.discovered[handle]
	if !known {
		dp = &DiscoveredParticipant{Record: rec}
		s.discovered[handle] = dp
	} else {
		dp.Record = rec
	}
	s.mu.Unlock()

	if known && dp.Matched {
		return nil
	}
	s.matchSedpEndpoints(rec)
	dp.Matched = true
	return nil
}

// matchSedpEndpoints implements spec.md §4.9's rule verbatim: "for each of
// the six SEDP endpoint pairs whose corresponding bit is set in the
// remote's available_builtin_endpoints, add a ReaderProxy (if the local
// pair member is a writer) or WriterProxy (if a reader) pointing at the
// remote's metatraffic_unicast_locator_list ∪ metatraffic_multicast_locator_list."
func (s *SPDP) matchSedpEndpoints(remote ParticipantRecord) {
	locators := append(append([]wire.Locator{}, remote.MetatrafficUnicastLocators...), remote.MetatrafficMulticastLocators...)
	bes := remote.AvailableBuiltinEndpoints

	pair := func(writerEntity, readerEntity wire.EntityId, announcerBit, detectorBit uint32, local *SEDP) {
		remoteWriterGUID := wire.GUID{Prefix: remote.GUID.Prefix, Entity: writerEntity}
		remoteReaderGUID := wire.GUID{Prefix: remote.GUID.Prefix, Entity: readerEntity}
		if bes&announcerBit != 0 {
			local.addWriterProxyToOurReader(readerEntity, remoteWriterGUID, locators)
		}
		if bes&detectorBit != 0 {
			local.addReaderProxyToOurWriter(writerEntity, remoteReaderGUID, locators)
		}
	}

	pair(wire.EntityIdSedpBuiltinPublicationsWriter, wire.EntityIdSedpBuiltinPublicationsReader,
		BuiltinPublicationsAnnouncer, BuiltinPublicationsDetector, s.sedp)
	pair(wire.EntityIdSedpBuiltinSubscriptionsWriter, wire.EntityIdSedpBuiltinSubscriptionsReader,
		BuiltinSubscriptionsAnnouncer, BuiltinSubscriptionsDetector, s.sedp)
	pair(wire.EntityIdSedpBuiltinTopicsWriter, wire.EntityIdSedpBuiltinTopicsReader,
		BuiltinTopicsAnnouncer, BuiltinTopicsDetector, s.sedp)
}

// DiscoveredParticipants snapshots the current table, for diagnostics and
// tests.
func (s *SPDP) DiscoveredParticipants() []DiscoveredParticipant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DiscoveredParticipant, 0, len(s.discovered))
	for _, dp := range s.discovered {
		out = append(out, *dp)
	}
	return out
}

// Tick drives the SPDP announcer's resend timer and the (disabled,
// best-effort) detector's no-op Tick, returning any outbound bundles.
func (s *SPDP) Tick(nowNanos int64) []behavior.Outbound {
	return s.announcer.Behavior.Tick(nowNanos)
}

// SEDP drives endpoint discovery for one local Participant: the three
// stateful reliable announcer/detector pairs (DCPSPublication,
// DCPSSubscription, DCPSTopic) plus the matching rule that, on each
// inbound record, checks topic-name/type-name/QoS compatibility against
// every locally owned endpoint of the opposite role and wires a
// ReaderProxy/WriterProxy when they match (spec.md §4.9, supplemented
// feature: SEDP endpoint matching, since the distilled spec named the
// sub-protocol but left matching unspecified).
type SEDP struct {
	local *endpoint.Participant

	pubAnnouncer, subAnnouncer, topicAnnouncer *endpoint.Writer
	pubDetector, subDetector, topicDetector    *endpoint.Reader

	mu       sync.Mutex
	matchedW map[wire.GUID]EndpointRecord // remote writer GUID -> record, for local readers to match against
	matchedR map[wire.GUID]EndpointRecord // remote reader GUID -> record, for local writers to match against
}

// NewSEDP constructs the three builtin SEDP endpoint pairs on the
// participant's builtin groups.
func NewSEDP(local *endpoint.Participant) (*SEDP, error) {
	s := &SEDP{
		local:    local,
		matchedW: make(map[wire.GUID]EndpointRecord),
		matchedR: make(map[wire.GUID]EndpointRecord),
	}

	mk := func(topic string, writerEntity, readerEntity wire.EntityId) (*endpoint.Writer, *endpoint.Reader, error) {
		w, err := local.BuiltinPublisher.CreateWriter(topic, "SEDPBuiltinEndpointData", endpoint.TopicWithKey, sedpDefaultWriterConfig(), unboundedLimits())
		if err != nil {
			return nil, nil, err
		}
		w.GUID.Entity = writerEntity
		w.Behavior.GUID.Entity = writerEntity
		r, err := local.BuiltinSubscriber.CreateReader(topic, "SEDPBuiltinEndpointData", endpoint.TopicWithKey, sedpDefaultReaderConfig(), unboundedLimits())
		if err != nil {
			return nil, nil, err
		}
		r.GUID.Entity = readerEntity
		r.Behavior.GUID.Entity = readerEntity
		return w, r, nil
	}

	var err error
	s.pubAnnouncer, s.pubDetector, err = mk("DCPSPublication", wire.EntityIdSedpBuiltinPublicationsWriter, wire.EntityIdSedpBuiltinPublicationsReader)
	if err != nil {
		return nil, err
	}
	s.subAnnouncer, s.subDetector, err = mk("DCPSSubscription", wire.EntityIdSedpBuiltinSubscriptionsWriter, wire.EntityIdSedpBuiltinSubscriptionsReader)
	if err != nil {
		return nil, err
	}
	s.topicAnnouncer, s.topicDetector, err = mk("DCPSTopic", wire.EntityIdSedpBuiltinTopicsWriter, wire.EntityIdSedpBuiltinTopicsReader)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// addWriterProxyToOurReader wires a remote SEDP announcer writer to our
// matching builtin reader (called once per newly discovered participant,
// per announcer/detector bit — spec.md §4.9).
func (s *SEDP) addWriterProxyToOurReader(ourReaderEntity wire.EntityId, remoteWriter wire.GUID, locators []wire.Locator) {
	r := s.local.FindReader(ourReaderEntity)
	if r == nil {
		return
	}
	r.Behavior.AddWriterProxy(rcache.NewWriterProxy(remoteWriter, nil, locators))
}

func (s *SEDP) addReaderProxyToOurWriter(ourWriterEntity wire.EntityId, remoteReader wire.GUID, locators []wire.Locator) {
	w := s.local.FindWriter(ourWriterEntity)
	if w == nil {
		return
	}
	w.Behavior.AddReaderProxy(wcache.NewReaderProxy(remoteReader, nil, locators, w.Behavior.Cache, true))
}

// AnnounceWriter/AnnounceReader publish a local user endpoint's
// DiscoveredWriterData/DiscoveredReaderData so remote participants can
// match against it (spec.md §4.9).
func (s *SEDP) AnnounceWriter(w *endpoint.Writer, reliable bool) error {
	rec := EndpointRecord{GUID: w.GUID, TopicName: w.TopicName, TypeName: w.TypeName, Reliable: reliable}
	return s.announce(s.pubAnnouncer, rec)
}

func (s *SEDP) AnnounceReader(r *endpoint.Reader, reliable bool) error {
	rec := EndpointRecord{GUID: r.GUID, TopicName: r.TopicName, TypeName: r.TypeName, Reliable: reliable}
	return s.announce(s.subAnnouncer, rec)
}

func (s *SEDP) announce(w *endpoint.Writer, rec EndpointRecord) error {
	pl := EncodeEndpointRecord(rec)
	payload := &wire.SerializedPayload{Representation: wire.ReprPLCDRLE}
	pw := wire.NewWriter(wire.ByteOrder(true))
	wire.EncodeParameterList(pw, pl)
	payload.Payload = pw.Bytes()
	_, err := w.Behavior.NewChange(wire.ChangeKindAlive, guidInstanceHandle(rec.GUID), payload)
	return err
}

// OnPublicationData/OnSubscriptionData handle an inbound SEDP record:
// decode it, remember it, and match it against every locally owned
// endpoint of the opposite role (supplemented feature: matching rule).
func (s *SEDP) OnPublicationData(payload []byte) error {
	return s.onEndpointData(payload, false)
}

func (s *SEDP) OnSubscriptionData(payload []byte) error {
	return s.onEndpointData(payload, true)
}

func (s *SEDP) onEndpointData(payload []byte, remoteIsReader bool) error {
	r := wire.NewReader(payload, wire.ByteOrder(true))
	pl, err := wire.DecodeParameterList(r)
	if err != nil {
		return err
	}
	remote := DecodeEndpointRecord(pl)

	s.mu.Lock()
	if remoteIsReader {
		s.matchedR[remote.GUID] = remote
	} else {
		s.matchedW[remote.GUID] = remote
	}
	s.mu.Unlock()

	if remoteIsReader {
		for _, w := range s.local.AllWriters() {
			local := EndpointRecord{GUID: w.GUID, TopicName: w.TopicName, TypeName: w.TypeName, Reliable: w.Behavior.Config.Reliable}
			if local.Compatible(remote, false, local.Reliable) {
				w.Behavior.AddReaderProxy(wcache.NewReaderProxy(remote.GUID, remote.UnicastLocators, remote.MulticastLocators, w.Behavior.Cache, true))
			}
		}
	} else {
		for _, rd := range s.local.AllReaders() {
			local := EndpointRecord{GUID: rd.GUID, TopicName: rd.TopicName, TypeName: rd.TypeName, Reliable: rd.Behavior.Config.Reliable}
			if local.Compatible(remote, true, local.Reliable) {
				rd.Behavior.AddWriterProxy(rcache.NewWriterProxy(remote.GUID, remote.UnicastLocators, remote.MulticastLocators))
			}
		}
	}
	return nil
}

// Tick drives the three SEDP announcers' resend/heartbeat timers and the
// three detectors' ACKNACK timers.
func (s *SEDP) Tick(nowNanos int64) []behavior.Outbound {
	var out []behavior.Outbound
	out = append(out, s.pubAnnouncer.Behavior.Tick(nowNanos)...)
	out = append(out, s.subAnnouncer.Behavior.Tick(nowNanos)...)
	out = append(out, s.topicAnnouncer.Behavior.Tick(nowNanos)...)
	out = append(out, s.pubDetector.Behavior.Tick(nowNanos)...)
	out = append(out, s.subDetector.Behavior.Tick(nowNanos)...)
	out = append(out, s.topicDetector.Behavior.Tick(nowNanos)...)
	return out
}
