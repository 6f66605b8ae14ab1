package discovery

import "github.com/gortps/rtps/internal/wire"

// EndpointRecord is the common shape of DiscoveredWriterData and
// DiscoveredReaderData (spec.md §4.9 SEDP): enough to run the matching
// rule (topic name, type name, QoS compatibility).
type EndpointRecord struct {
	GUID        wire.GUID
	TopicName   string
	TypeName    string
	Reliable    bool
	UnicastLocators   []wire.Locator
	MulticastLocators []wire.Locator
}

func encodeString(pl *wire.ParameterList, pid uint16, s string) {
	b := append([]byte(s), 0) // NUL-terminated, matching CDR string convention
	pl.Add(pid, b)
}

func decodeString(p wire.Parameter) string {
	b := p.Value
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}

// EncodeEndpointRecord builds the PL_CDR parameter list for one SEDP
// DiscoveredWriterData/DiscoveredReaderData record.
func EncodeEndpointRecord(rec EndpointRecord) wire.ParameterList {
	var pl wire.ParameterList
	guidW := wire.NewWriter(wire.ByteOrder(true))
	guidW.PutGuidPrefix(rec.GUID.Prefix)
	guidW.PutEntityId(rec.GUID.Entity)
	pl.Add(wire.PIDEndpointGUID, guidW.Bytes())

	encodeString(&pl, wire.PIDTopicName, rec.TopicName)
	encodeString(&pl, wire.PIDTypeName, rec.TypeName)

	reliability := byte(0)
	if rec.Reliable {
		reliability = 1
	}
	pl.Add(wire.PIDReliability, []byte{reliability, 0, 0, 0})

	for _, l := range rec.UnicastLocators {
		encodeLocator(&pl, wire.PIDDefaultUnicastLocator, l)
	}
	for _, l := range rec.MulticastLocators {
		encodeLocator(&pl, wire.PIDDefaultMulticastLocator, l)
	}
	return pl
}

// DecodeEndpointRecord reverses EncodeEndpointRecord.
func DecodeEndpointRecord(pl wire.ParameterList) EndpointRecord {
	var rec EndpointRecord
	for _, p := range pl.Params {
		switch p.ID {
		case wire.PIDEndpointGUID:
			if len(p.Value) >= 16 {
				r := wire.NewReader(p.Value, wire.ByteOrder(true))
				prefix, _ := r.GuidPrefix()
				entity, _ := r.EntityId()
				rec.GUID = wire.GUID{Prefix: prefix, Entity: entity}
			}
		case wire.PIDTopicName:
			rec.TopicName = decodeString(p)
		case wire.PIDTypeName:
			rec.TypeName = decodeString(p)
		case wire.PIDReliability:
			if len(p.Value) >= 1 {
				rec.Reliable = p.Value[0] != 0
			}
		case wire.PIDDefaultUnicastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.UnicastLocators = append(rec.UnicastLocators, l)
			}
		case wire.PIDDefaultMulticastLocator:
			if l, err := decodeLocator(p); err == nil {
				rec.MulticastLocators = append(rec.MulticastLocators, l)
			}
		}
	}
	return rec
}

// Compatible implements the SEDP matching rule (spec.md §4.9): "if
// topic-name, type-name, and QoS compatibility all hold". QoS
// compatibility here is the standard reliable-writer-can-serve-any-reader,
// best-effort-writer-cannot-serve-reliable-reader rule (supplemented
// feature, grounded on original_source's proxy matching).
func (local EndpointRecord) Compatible(remote EndpointRecord, localIsReader, localReliable bool) bool {
	if local.TopicName != remote.TopicName || local.TypeName != remote.TypeName {
		return false
	}
	if localIsReader {
		readerReliable := localReliable
		writerReliable := remote.Reliable
		if readerReliable && !writerReliable {
			return false
		}
		return true
	}
	writerReliable := localReliable
	readerReliable := remote.Reliable
	if readerReliable && !writerReliable {
		return false
	}
	return true
}
