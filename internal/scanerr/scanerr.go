package scanerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind int

const (
	NotFound Kind = iota + 1
	IOFailure
	MalformedDescriptor
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case IOFailure:
		return "io failure"
	case MalformedDescriptor:
		return "malformed descriptor"
	default:
		return "unknown"
	}
}

// Error is a classified failure for one path.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as a failure of the given kind for path.
func New(kind Kind, path string, err error) error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }

// IsIOFailure reports whether err is an IOFailure.
func IsIOFailure(err error) bool { return KindOf(err) == IOFailure }

// IsMalformed reports whether err is a MalformedDescriptor failure.
func IsMalformed(err error) bool { return KindOf(err) == MalformedDescriptor }
