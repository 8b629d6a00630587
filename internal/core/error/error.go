package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing key where absence is an error.
	RedisNotFoundMessage = "not found"
	// CorruptRecordMessage describes a stored turn that could not be decoded.
	CorruptRecordMessage = "stored conversation record is corrupt"
	// UnregisteredClientMessage describes a chat attempt for a client
	// that has no system prompt registered.
	UnregisteredClientMessage = "client not registered or unauthorized"
)

// Sentinels for the error kinds callers branch on via errors.Is.
var (
	ErrUnregisteredClient = errors.New("client not registered")
	ErrCorruptRecord      = errors.New("corrupt conversation record")
)

// Error wraps an underlying error with an HTTP status and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NewUnregisteredClient builds the rejection returned when a chat turn
// arrives for a client without a registered system prompt.
func NewUnregisteredClient(clientID string) *Error {
	return New(
		fmt.Errorf("%w: %s", ErrUnregisteredClient, clientID),
		http.StatusForbidden,
		UnregisteredClientMessage,
	)
}

// WrapCorrupt marks a stored record that failed to decode. Corruption is
// surfaced as a store failure, never skipped over.
func WrapCorrupt(err error) *Error {
	if err == nil {
		return nil
	}
	return New(
		fmt.Errorf("%w: %w", ErrCorruptRecord, err),
		http.StatusBadGateway,
		CorruptRecordMessage,
	)
}

// WrapModel converts a model invocation failure into a user-visible
// diagnostic. The message intentionally carries the underlying error text
// so the caller always gets an answer describing what went wrong.
func WrapModel(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, fmt.Sprintf("Error occurred: %v", err))
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
