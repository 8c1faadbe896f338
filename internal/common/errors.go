// Package common defines shared constants and sentinel errors used across
// fencrypt layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// Validation errors, reported before any side effect is performed.
	ErrInvalidInput = errors.New("invalid input")

	// Filesystem read/write/create/remove failures.
	ErrIO = errors.New("i/o error")

	// Cipher errors. ErrAuthentication specifically means "wrong key or
	// corrupted data".
	ErrCrypto         = errors.New("crypto error")
	ErrAuthentication = errors.New("authentication failed")
	ErrInvalidKey     = errors.New("invalid key")

	// Pack container errors.
	ErrMalformedContainer = errors.New("malformed container")
	ErrNotADirectory      = errors.New("not a directory")
	ErrAlreadyExists      = errors.New("already exists")

	// Overwrite protection.
	ErrOutputExists = errors.New("output already exists")
)

// Error is a structured error with a short user-facing message, a kind from
// the sentinel list above and an optional cause. Both Kind and Cause are
// reachable through errors.Is / errors.As.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// NewError returns an Error without a cause.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError returns an Error wrapping cause.
func WrapError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IOError wraps a filesystem failure with the operation being attempted.
func IOError(op string, cause error) *Error {
	return &Error{Kind: ErrIO, Message: op, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ClassifyIO returns err unchanged when it already carries a structured
// Error, maps fs.ErrExist to ErrOutputExists and wraps anything else as
// ErrIO with op as the message.
func ClassifyIO(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, fs.ErrExist) {
		return WrapError(ErrOutputExists, op, err)
	}
	return IOError(op, err)
}

// Summary returns the short message of the outermost structured error, or
// err.Error() for any other error.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Detail renders the cause chain one level per line, for debug output.
func Detail(err error) string {
	var lines []string
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			lines = append(lines, err.Error())
			break
		}
		line := e.Message
		if e.Kind != nil {
			line = fmt.Sprintf("%s (%v)", e.Message, e.Kind)
		}
		lines = append(lines, line)
		err = e.Cause
	}
	return strings.Join(lines, "\n  - ")
}
