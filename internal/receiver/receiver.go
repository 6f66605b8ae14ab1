// Package receiver implements the Message Receiver (spec.md §4.7): the
// per-datagram submessage demultiplexer that interprets INFO_TS/INFO_DST/
// INFO_SRC context submessages and routes entity submessages to the
// matching local endpoint's behavior machine.
package receiver

import (
	"github.com/gortps/rtps/internal/wire"
)

// Context carries the per-datagram interpreter state spec.md §4.7
// initializes and mutates as submessages are processed in wire order.
type Context struct {
	SourceVersion  wire.ProtocolVersion
	SourceVendorId wire.VendorId
	SourceGuidPrefix wire.GuidPrefix
	DestGuidPrefix wire.GuidPrefix
	HaveTimestamp  bool
	Timestamp      wire.Time
}

// NewContext initializes the receiver context for one datagram (spec.md
// §4.7): source_* from the message header, dest_guid_prefix from the
// local participant.
func NewContext(header wire.MessageHeader, localGuidPrefix wire.GuidPrefix) Context {
	return Context{
		SourceVersion:    header.Version,
		SourceVendorId:   header.VendorId,
		SourceGuidPrefix: header.GuidPrefix,
		DestGuidPrefix:   localGuidPrefix,
	}
}

// EntitySubmessage is a demultiplexed DATA/GAP/HEARTBEAT/ACKNACK ready for
// dispatch to its matching endpoint.
type EntitySubmessage struct {
	Kind     wire.SubmessageKind
	Data     *wire.DataSubmessage
	Gap      *wire.GapSubmessage
	Heartbeat *wire.HeartbeatSubmessage
	AckNack  *wire.AckNackSubmessage
	Context  Context // receiver context at the time this submessage was processed
}

// Dispatch is the sink entity submessages are routed to: readerId/writerId
// resolve a local endpoint GUID, and (for DATA/GAP/HEARTBEAT) writerId
// additionally identifies the remote WriterProxy, while (for ACKNACK)
// readerId identifies the remote ReaderProxy.
type Dispatch interface {
	// Deliver is called once per entity submessage that passed the
	// destination-prefix check. readerIdOrUnknown is ENTITYID_UNKNOWN for
	// submessages that fan out to every matching reader (SPDP).
	Deliver(readerIdOrUnknown wire.EntityId, writerId wire.EntityId, msg EntitySubmessage)
}

// ProcessMessage walks a parsed RTPS message's submessages in order,
// updating ctx for INFO_* submessages and delivering entity submessages to
// dispatch. Unknown submessage kinds (outside the catalogue below) are
// already skipped by wire.ParseMessage via Length and never reach here.
func ProcessMessage(header wire.MessageHeader, subs []wire.Submessage, localGuidPrefix wire.GuidPrefix, dispatch Dispatch) error {
	ctx := NewContext(header, localGuidPrefix)

	for _, sub := range subs {
		switch sub.Header.Kind {
		case wire.KindInfoTimestamp:
			info, err := wire.DecodeInfoTimestamp(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			ctx.HaveTimestamp = !info.Invalidate
			ctx.Timestamp = info.Timestamp

		case wire.KindInfoDestination:
			info, err := wire.DecodeInfoDestination(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			ctx.DestGuidPrefix = info.GuidPrefix

		case wire.KindInfoSource:
			info, err := wire.DecodeInfoSource(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			ctx.SourceVersion = info.ProtocolVersion
			ctx.SourceVendorId = info.VendorId
			ctx.SourceGuidPrefix = info.GuidPrefix

		case wire.KindData:
			data, err := wire.DecodeData(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			if ctx.DestGuidPrefix != localGuidPrefix {
				continue
			}
			dispatch.Deliver(data.ReaderId, data.WriterId, EntitySubmessage{Kind: wire.KindData, Data: &data, Context: ctx})

		case wire.KindGap:
			gap, err := wire.DecodeGap(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			if ctx.DestGuidPrefix != localGuidPrefix {
				continue
			}
			dispatch.Deliver(gap.ReaderId, gap.WriterId, EntitySubmessage{Kind: wire.KindGap, Gap: &gap, Context: ctx})

		case wire.KindHeartbeat:
			hb, err := wire.DecodeHeartbeat(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			if ctx.DestGuidPrefix != localGuidPrefix {
				continue
			}
			dispatch.Deliver(hb.ReaderId, hb.WriterId, EntitySubmessage{Kind: wire.KindHeartbeat, Heartbeat: &hb, Context: ctx})

		case wire.KindAckNack:
			an, err := wire.DecodeAckNack(sub.Header.Flags, sub.Body)
			if err != nil {
				return err
			}
			if ctx.DestGuidPrefix != localGuidPrefix {
				continue
			}
			dispatch.Deliver(an.ReaderId, an.WriterId, EntitySubmessage{Kind: wire.KindAckNack, AckNack: &an, Context: ctx})

		case wire.KindDataFrag, wire.KindNackFrag, wire.KindHeartbeatFrag:
			// Recognized but undispatched (spec.md §9 Open Question (ii)):
			// no fragmentation reassembly behavior is implemented.
			continue

		default:
			continue
		}
	}
	return nil
}
