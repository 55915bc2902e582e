package model

import (
	"errors"
	"strings"
)

// Error kinds. Callers branch on them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnresolvableName = errors.New("unresolvable name")
	ErrSourceFetch      = errors.New("source fetch failed")
	ErrPersistence      = errors.New("persistence failed")
)

// Error annotates a failure with the operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind for op with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind annotates err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap annotates err with op, keeping whatever kind err already has.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Validation is shorthand for a validation failure with a caller-facing message.
func Validation(op, msg string) error {
	return &Error{Op: op, Kind: ErrValidation, Err: errors.New(msg)}
}

// Message returns the innermost caller-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return Message(e.Err)
	}
	if e != nil && e.Kind != nil {
		return e.Kind.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
