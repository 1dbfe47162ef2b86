// Package common provides shared constants, types, and utilities
// used across mullvad-rotate.
package common

import "errors"

// Sentinel errors.
// These can be checked with errors.Is() for proper error handling.
var (
	// Configuration errors.
	ErrInvalidOption = errors.New("invalid option")
	ErrConfigLoad    = errors.New("failed to load configuration")
	ErrConfigSave    = errors.New("failed to save configuration")

	// Selection errors.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// Collaborator errors.
	ErrCatalogUnavailable = errors.New("relay catalog unavailable")
	ErrClientUnavailable  = errors.New("vpn client unavailable")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrTimeout            = errors.New("operation timed out")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
