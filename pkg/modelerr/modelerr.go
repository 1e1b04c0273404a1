// Package modelerr tags failures of the verification pipeline with the
// step category that produced them.
package modelerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the category of a pipeline failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that carry no Kind.
	KindUnknown Kind = iota
	// KindIO means the model file is missing or unreadable.
	KindIO
	// KindFormat means the bytes are not a valid serialized model.
	KindFormat
	// KindValidation means the model failed the structural checks.
	KindValidation
	// KindSession means the inference runtime could not build a session.
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	}
	return "unknown"
}

// Error is a failure tagged with its Kind and the model path involved.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// New wraps err with kind and path. It returns nil when err is nil.
func New(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

// Newf builds a tagged error from a format string.
func Newf(kind Kind, path, format string, args ...any) error {
	return &Error{Kind: kind, Path: path, Err: errors.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause see through the tag.
func (e *Error) Cause() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
