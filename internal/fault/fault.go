// Package fault defines the error taxonomy shared by the whole engine.
//
// Failures inside the engine are programming errors or unrecoverable
// resource failures; nothing is retried locally. Errors carry a Kind that
// main maps to a process exit code after logging the message.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind int

const (
	// Unknown is the zero Kind, used for errors that did not originate in
	// this package.
	Unknown Kind = iota

	// InvalidInput covers shape and dimension mismatches, illegal
	// arguments and out-of-vocabulary token ids.
	InvalidInput

	// IndexError covers element access past matrix bounds.
	IndexError

	// MemoryError covers allocation failures, in practice the size
	// overflow guards on matrix construction.
	MemoryError

	// FileError covers weight-file open and read failures.
	FileError

	// ValueError covers malformed paths and configuration strings.
	ValueError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case IndexError:
		return "index error"
	case MemoryError:
		return "memory error"
	case FileError:
		return "file error"
	case ValueError:
		return "value error"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code for the kind. Zero is never
// returned; an unknown kind maps to the generic failure code 1.
func (k Kind) ExitCode() int {
	switch k {
	case InvalidInput:
		return 2
	case IndexError:
		return 3
	case MemoryError:
		return 4
	case FileError:
		return 5
	case ValueError:
		return 6
	default:
		return 1
	}
}

// Error is an engine failure with a Kind. It supports errors.As, and
// errors.Is reaches a wrapped cause. Two *Error values are not matched by
// Kind under errors.Is; IsKind compares kinds.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the failure classification.
func (e *Error) Kind() Kind { return e.kind }

// Errorf builds a new classified error.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it reachable via errors.Unwrap.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf walks the error chain and returns the first Kind found, or
// Unknown when the chain carries no classified error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return Unknown
}

// IsKind reports whether the chain contains an error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
