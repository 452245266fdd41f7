package common

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error produced while loading or inspecting an asset wraps
// exactly one of these, so callers can classify failures with errors.Is.
var (
	// ErrIO reports a missing, unreadable, or short buffer or document file.
	ErrIO = errors.New("io error")

	// ErrJSON reports a document that is not valid UTF-8 JSON.
	ErrJSON = errors.New("json error")

	// ErrSchema reports a missing required field, an unsupported enum value,
	// or a missing attribute semantic.
	ErrSchema = errors.New("schema error")

	// ErrIndex reports a JSON index that refers to a nonexistent entity.
	ErrIndex = errors.New("index error")

	// ErrRange reports an accessor or buffer view span that exceeds its container.
	ErrRange = errors.New("range error")

	// ErrBounds reports an element index outside an accessor view.
	ErrBounds = errors.New("bounds error")

	// ErrDecode reports a malformed data URI.
	ErrDecode = errors.New("decode error")
)

// Error is a classified failure tied to a glTF entity.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Entity names the entity kind involved ("accessor", "bufferView", ...).
	// Empty when the failure concerns the document as a whole.
	Entity string

	// Index is the entity index, or -1 when it does not apply.
	Index int

	// Name is an optional qualifier such as an attribute semantic or a URI.
	Name string

	// Err is the underlying cause, may be nil.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.Index >= 0 {
			fmt.Fprintf(&b, " %d", e.Index)
		}
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError creates a classified error.
//
// Parameters:
//   - kind: one of the Err* sentinels
//   - entity: the entity kind, or "" for document-level errors
//   - index: the entity index, or -1
//   - err: the underlying cause, may be nil
//
// Returns:
//   - *Error: the classified error
func NewError(kind error, entity string, index int, err error) *Error {
	return &Error{Kind: kind, Entity: entity, Index: index, Err: err}
}

// Errorf creates a classified error whose cause is built from a format string.
//
// Parameters:
//   - kind: one of the Err* sentinels
//   - entity: the entity kind, or "" for document-level errors
//   - index: the entity index, or -1
//   - format: fmt format for the cause
//   - args: format arguments
//
// Returns:
//   - *Error: the classified error
func Errorf(kind error, entity string, index int, format string, args ...any) *Error {
	return NewError(kind, entity, index, fmt.Errorf(format, args...))
}

// IndexError reports that a reference to entity[index] does not resolve.
//
// Parameters:
//   - entity: the referenced entity kind
//   - index: the referenced index
//   - from: a description of the referring entity, e.g. "mesh 0 primitive 1"
//
// Returns:
//   - *Error: an ErrIndex error
func IndexError(entity string, index int, from string) *Error {
	return Errorf(ErrIndex, entity, index, "referenced by %s", from)
}

// KindOf returns the Err* sentinel wrapped by err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrIO, ErrJSON, ErrSchema, ErrIndex, ErrRange, ErrBounds, ErrDecode} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
