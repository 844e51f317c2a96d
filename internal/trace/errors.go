package trace

import (
	"errors"
	"fmt"

	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/record"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// CodeNotFound: the operation needs an existing record and there is none.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists: Create targets an id that already holds a record.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeBackendUnavailable: the ledger failed. Propagated as-is.
	CodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// CodeCorruptRecord: stored bytes do not decode into a record.
	CodeCorruptRecord ErrorCode = "CORRUPT_RECORD"

	// CodeInvalidArgument: the request itself is malformed.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Code.
var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrCorruptRecord      = record.ErrCorrupt
	ErrBackendUnavailable = ledger.ErrUnavailable
)

// Error is returned by every Store operation that fails.
type Error struct {
	Code ErrorCode

	// Op is the operation name, e.g. "create" or "attachInput".
	Op string

	// ID is the record id the failure concerns. For attachInput it is the
	// owner or the input, whichever failed.
	ID string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.ID, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the cause so ledger and codec errors stay matchable.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to e.Code.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Code)
}

func sentinelFor(code ErrorCode) error {
	switch code {
	case CodeNotFound:
		return ErrNotFound
	case CodeAlreadyExists:
		return ErrAlreadyExists
	case CodeInvalidArgument:
		return ErrInvalidArgument
	case CodeCorruptRecord:
		return ErrCorruptRecord
	case CodeBackendUnavailable:
		return ErrBackendUnavailable
	default:
		return nil
	}
}

// IsNotFound reports whether err is a NOT_FOUND error.
// Uses errors.Is to handle wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// CodeOf returns the code carried by err. Ledger failures that did not pass
// through a Store still report CodeBackendUnavailable. Other errors return "".
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	switch {
	case errors.Is(err, ledger.ErrUnavailable):
		return CodeBackendUnavailable
	case errors.Is(err, record.ErrCorrupt):
		return CodeCorruptRecord
	}
	return ""
}

func notFound(op, id string) *Error {
	return &Error{Code: CodeNotFound, Op: op, ID: id}
}

func alreadyExists(op, id string) *Error {
	return &Error{Code: CodeAlreadyExists, Op: op, ID: id}
}

func backendError(op, id string, err error) *Error {
	return &Error{Code: CodeBackendUnavailable, Op: op, ID: id, Err: err}
}

func corrupt(op, id string, err error) *Error {
	return &Error{Code: CodeCorruptRecord, Op: op, ID: id, Err: err}
}

// InvalidArgument builds an INVALID_ARGUMENT error. Transports use it for
// malformed requests that never reach the Store.
func InvalidArgument(op, id, reason string) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, ID: id, Err: errors.New(reason)}
}
