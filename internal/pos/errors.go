package pos

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes failures surfaced to callers.
type ErrorCode string

const (
	// ErrCodeConfigMissing means remote sync is not configured.
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"

	// ErrCodeRemoteUnavailable covers transport failures and server errors.
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"

	// ErrCodeRemoteRejected covers permission, credential and not-found answers.
	ErrCodeRemoteRejected ErrorCode = "REMOTE_REJECTED"

	// ErrCodeValidation rejects an operation before any state changes.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound means the referenced table, item, ticket or expense is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeSyncFailed wraps a failed push or pull.
	ErrCodeSyncFailed ErrorCode = "SYNC_FAILED"

	// ErrCodeSyncBusy is returned when a push or pull is already running.
	ErrCodeSyncBusy ErrorCode = "SYNC_BUSY"
)

// Error is the structured error type shared by every layer.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error with a formatted message.
func Errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and op to err. A nil err yields nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code of the outermost Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

func IsConfigMissing(err error) bool { return HasCode(err, ErrCodeConfigMissing) }

// IsRemote reports whether err came from the remote store, either kind.
func IsRemote(err error) bool {
	return HasCode(err, ErrCodeRemoteUnavailable) || HasCode(err, ErrCodeRemoteRejected)
}
