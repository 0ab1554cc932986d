package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ObserverError struct {
	Message string
	Cause   error
}

func (e *ObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ObserverError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks at the binaries' boundaries.
type ConfigurationError struct{ ObserverError }
type NetworkError struct {
	ObserverError
	StatusCode int // HTTP status, 0 when no response came back
}
type DataSourceError struct{ ObserverError }
type StorageError struct{ ObserverError }
type ValidationError struct{ ObserverError }

// MissingPrerequisiteError means an upstream job has not produced its output yet.
type MissingPrerequisiteError struct {
	ObserverError
	Path     string
	Producer string
}

// -----------------------------------------------------------------------------
// Sentinels for empty-result runs. They are not failures.
// -----------------------------------------------------------------------------

var (
	ErrNoSnapshots = errors.New("no daily snapshots found")
	ErrNoChains    = errors.New("no option chains retrieved")
)

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{ObserverError: ObserverError{Message: msg, Cause: cause}}
}

// NewStatusError reports a response that came back with an unexpected status.
func NewStatusError(msg string, status int) error {
	return &NetworkError{ObserverError: ObserverError{Message: msg}, StatusCode: status}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}
	return 0
}

func NewDataSourceError(msg string, cause error) error {
	return &DataSourceError{ObserverError{Message: msg, Cause: cause}}
}

func NewStorageError(msg string, cause error) error {
	return &StorageError{ObserverError{Message: msg, Cause: cause}}
}

func NewConfigurationError(msg string, cause error) error {
	return &ConfigurationError{ObserverError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string) error {
	return &ValidationError{ObserverError{Message: msg}}
}

// NewMissingPrerequisiteError reports that path is absent and names the job that creates it.
func NewMissingPrerequisiteError(path, producer string, cause error) error {
	return &MissingPrerequisiteError{
		ObserverError: ObserverError{
			Message: fmt.Sprintf("%s does not exist; run %s first", path, producer),
			Cause:   cause,
		},
		Path:     path,
		Producer: producer,
	}
}

// IsEmptyResult reports whether err is one of the no-op sentinels.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrNoSnapshots) || errors.Is(err, ErrNoChains)
}
