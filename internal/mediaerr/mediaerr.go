// Package mediaerr defines the error taxonomy shared across the media
// pipeline. Instead of a class hierarchy, a single tagged Error carries a
// Kind discriminator, a user-facing message, and an optional machine-log
// message. Only the outermost entry points (Lambda handlers) convert these
// into external response shapes; internal layers pass them through unchanged.
package mediaerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and HTTP-status decisions.
type Kind int

const (
	// KindInternal is the fall-through for unexpected faults.
	KindInternal Kind = iota

	// KindValidation marks client-caused input errors (missing parameter,
	// unsupported size/extension/content type). Never retried.
	KindValidation

	// KindNotFound marks an absent raw source object or metadata row.
	// Never retried.
	KindNotFound

	// KindStorageAccess marks a transient storage-provider fault. The only
	// retryable kind.
	KindStorageAccess

	// KindUnsupportedImage marks a decode failure on corrupt or
	// unrecognized image data.
	KindUnsupportedImage

	// KindNotImplemented marks a request for a feature the pipeline does
	// not support (video processing). Always fatal.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorageAccess:
		return "storage_access"
	case KindUnsupportedImage:
		return "unsupported_image"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "internal"
	}
}

// Error is the tagged error variant used throughout the pipeline.
type Error struct {
	Kind Kind

	// Message is safe to return to an external caller.
	Message string

	// LogMessage carries internal detail (bucket names, keys, provider
	// errors). Logged server-side, never sent to the client.
	LogMessage string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted user-facing message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithLog attaches an internal log message and returns the same Error.
func (e *Error) WithLog(format string, args ...interface{}) *Error {
	e.LogMessage = fmt.Sprintf(format, args...)
	return e
}

// KindOf reports the Kind of err. Errors outside the taxonomy, including
// nil wrappers around foreign errors, classify as KindInternal.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether err is a transient fault worth retrying.
// Validation, not-found, and not-implemented outcomes are never retried.
func Retryable(err error) bool {
	return IsKind(err, KindStorageAccess)
}

// HTTPStatus maps a Kind to the HTTP-equivalent status for external responses.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUnsupportedImage:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the client-safe message for err. Foreign errors
// collapse to a generic message so provider detail never leaks.
func UserMessage(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Message
	}
	return "internal error"
}
