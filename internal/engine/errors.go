package engine

import (
	"errors"
	"fmt"
)

// ErrSessionInvalid marks a collaborator whose session can no longer be used
// (expired login, revoked cookie). It is the only failure that aborts a run.
// Collaborators wrap it so errors.Is works across packages.
var ErrSessionInvalid = errors.New("collaborator session invalid")

// PipelineError describes why an entry could not proceed, or why a run stopped.
type PipelineError struct {
	// Code identifies the error category.
	Code PipelineErrorCode

	// Message is a human-readable description.
	Message string

	// BatchID identifies the affected entry, if any.
	BatchID string

	// Err is the underlying cause, if any.
	Err error
}

// PipelineErrorCode categorizes pipeline errors.
type PipelineErrorCode string

const (
	// ErrCodeRevealFailed indicates the issuer did not produce a code.
	ErrCodeRevealFailed PipelineErrorCode = "REVEAL_FAILED"

	// ErrCodeInvalidShape indicates a code that cannot be a store key.
	ErrCodeInvalidShape PipelineErrorCode = "INVALID_SHAPE"

	// ErrCodeSessionInvalid indicates a collaborator session failure.
	ErrCodeSessionInvalid PipelineErrorCode = "SESSION_INVALID"

	// ErrCodeRetryBudget indicates too many unclassifiable store responses.
	ErrCodeRetryBudget PipelineErrorCode = "RETRY_BUDGET_EXHAUSTED"

	// ErrCodeLedgerWrite indicates a ledger append failed.
	ErrCodeLedgerWrite PipelineErrorCode = "LEDGER_WRITE"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.BatchID != "" {
		msg = fmt.Sprintf("%s (batch=%s)", msg, e.BatchID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsSessionError reports whether err is or wraps a session failure.
func IsSessionError(err error) bool {
	if errors.Is(err, ErrSessionInvalid) {
		return true
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeSessionInvalid
	}
	return false
}

// IsRetryBudgetError reports whether err is a retry budget exhaustion.
func IsRetryBudgetError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeRetryBudget
	}
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// NewSessionError wraps a collaborator error that ends the run.
func NewSessionError(batchID string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeSessionInvalid,
		Message: "collaborator session is no longer valid",
		BatchID: batchID,
		Err:     err,
	}
}
