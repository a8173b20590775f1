package run

import (
	stderrors "errors"

	"github.com/go-errors/errors"

	"smbak/internal/staging"
)

// FailureKind classifies a failed run for logging and notification.
type FailureKind int

const (
	// FailureConfiguration means invalid or missing configuration. Fatal,
	// never retried.
	FailureConfiguration FailureKind = iota
	// FailureStagingRecovery means the previous staging tree could not be
	// cleared by any strategy. Requires operator intervention.
	FailureStagingRecovery
	// FailureRemoteSync covers everything in the git pipeline: acquire,
	// staging, commit, push. The next scheduled run retries from scratch.
	FailureRemoteSync
)

func (k FailureKind) String() string {
	switch k {
	case FailureConfiguration:
		return "configuration"
	case FailureStagingRecovery:
		return "staging-recovery"
	case FailureRemoteSync:
		return "remote-sync"
	}
	return "unknown"
}

// RunError carries the failure kind along with a stack captured at wrap
// time.
type RunError struct {
	Kind FailureKind
	err  *errors.Error
}

func newError(kind FailureKind, cause error) *RunError {
	return &RunError{Kind: kind, err: errors.Wrap(cause, 2)}
}

func (e *RunError) Error() string {
	return e.Kind.String() + ": " + e.err.Error()
}

func (e *RunError) Unwrap() error { return e.err.Unwrap() }

// Stack returns the captured stack trace for the log file.
func (e *RunError) Stack() string { return e.err.ErrorStack() }

// classify wraps a pipeline error with its failure kind.
func classify(cause error) *RunError {
	if stderrors.Is(cause, staging.ErrUnclearable) {
		return newError(FailureStagingRecovery, cause)
	}
	return newError(FailureRemoteSync, cause)
}

// NewConfigurationError marks a configuration failure.
func NewConfigurationError(cause error) *RunError {
	return newError(FailureConfiguration, cause)
}
