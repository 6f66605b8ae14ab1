package rtps

import "fmt"

// ErrorCode is the DDS-facing error taxonomy (spec.md §7). It names
// semantic categories, not wire conditions — those live in internal/wire
// as ProtocolError / WireSizeError and never reach the DDS caller.
type ErrorCode string

const (
	ErrCodeOutOfResources     ErrorCode = "out of resources"
	ErrCodePreconditionNotMet ErrorCode = "precondition not met"
	ErrCodeAlreadyDeleted     ErrorCode = "already deleted"
	ErrCodeBadParameter       ErrorCode = "bad parameter"
	ErrCodeNotEnabled         ErrorCode = "not enabled"
	ErrCodeNotImplemented     ErrorCode = "not implemented"
)

// Error is a structured DDS-facing error: the operation that failed, the
// entity it concerned (if any), a category, and an optional wrapped cause.
type Error struct {
	Op     string
	Entity string // GUID string or handle, empty if not entity-scoped
	Code   ErrorCode
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Entity != "" {
		return fmt.Sprintf("rtps: %s: %s (op=%s entity=%s)", e.Code, msg, e.Op, e.Entity)
	}
	return fmt.Sprintf("rtps: %s: %s (op=%s)", e.Code, msg, e.Op)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

func NewEntityError(op, entity string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Entity: entity, Code: code, Msg: msg}
}

func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// ErrOutOfResources reports that a HistoryCache insertion was blocked by a
// configured resource limit (spec.md §4.2, §8 property 8).
func ErrOutOfResources(op, entity string) *Error {
	return NewEntityError(op, entity, ErrCodeOutOfResources, "resource limit exceeded")
}

// ErrPreconditionNotMet reports a delete of a non-empty container, or a
// lookup with a caller-supplied identifier that does not resolve.
func ErrPreconditionNotMet(op, entity, msg string) *Error {
	return NewEntityError(op, entity, ErrCodePreconditionNotMet, msg)
}

func ErrAlreadyDeleted(op, entity string) *Error {
	return NewEntityError(op, entity, ErrCodeAlreadyDeleted, "handle refers to a deleted entity")
}

func ErrBadParameter(op, msg string) *Error {
	return NewError(op, ErrCodeBadParameter, msg)
}

func ErrNotEnabled(op, entity string) *Error {
	return NewEntityError(op, entity, ErrCodeNotEnabled, "entity not enabled")
}

// ErrNotImplemented marks an operation the core documents but deliberately
// does not implement (spec.md §9, Open Question (i)): ignore_participant,
// ignore_topic, ignore_publication, ignore_subscription.
func ErrNotImplemented(op string) *Error {
	return NewError(op, ErrCodeNotImplemented, "not implemented")
}
