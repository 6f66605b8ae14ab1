package rtps

import (
	"github.com/gortps/rtps/internal/endpoint"
	"github.com/gortps/rtps/internal/history"
	"github.com/gortps/rtps/internal/wire"
)

// DataWriter is a handle to one writer endpoint (spec.md §6).
type DataWriter struct {
	endpoint  *endpoint.Writer
	publisher *Publisher
}

// GUID returns this writer's global identity.
func (w *DataWriter) GUID() wire.GUID { return w.endpoint.GUID }

// Write allocates the next sequence number, stores payload in the
// writer's HistoryCache, and hands it to the next Tick for delivery
// (spec.md §6 "write(writer, payload, inline_qos?)"). instanceHandle
// identifies the keyed instance this sample belongs to; pass
// wire.InstanceHandleNil for an unkeyed topic.
func (w *DataWriter) Write(payload []byte, instanceHandle wire.InstanceHandle, inlineQos *wire.ParameterList) error {
	sp := &wire.SerializedPayload{Representation: wire.ReprCDRLE, Payload: payload}
	_, err := w.endpoint.Behavior.NewChangeWithQos(wire.ChangeKindAlive, instanceHandle, sp, inlineQos)
	if err != nil {
		if err == history.ErrOutOfResources {
			return &Error{Op: "write", Entity: w.endpoint.GUID.String(), Code: ErrCodeOutOfResources, Inner: err}
		}
		return &Error{Op: "write", Entity: w.endpoint.GUID.String(), Code: ErrCodeBadParameter, Inner: err}
	}
	return nil
}

// Dispose marks an instance as not-alive-disposed (spec.md §3's
// ChangeKind, PID_STATUS_INFO on the wire).
func (w *DataWriter) Dispose(instanceHandle wire.InstanceHandle) error {
	_, err := w.endpoint.Behavior.NewChange(wire.ChangeKindNotAliveDisposed, instanceHandle, nil)
	if err != nil {
		return &Error{Op: "dispose", Entity: w.endpoint.GUID.String(), Code: ErrCodeOutOfResources, Inner: err}
	}
	return nil
}
