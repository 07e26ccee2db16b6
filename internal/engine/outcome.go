package engine

import "github.com/roach88/bundlekeys/internal/model"

// Cause records why an entry ended where it did.
type Cause string

const (
	// CauseStore means the store returned a terminal verdict.
	CauseStore Cause = "store"
	// CauseInvalidShape means the code failed the lexical check locally.
	CauseInvalidShape Cause = "invalid_shape"
	// CauseRevealFailed means the issuer produced no code.
	CauseRevealFailed Cause = "reveal_failed"
	// CauseDuplicate means another entry in this run claimed the same game.
	CauseDuplicate Cause = "duplicate"
	// CauseRetryBudget means the store kept answering without a verdict.
	CauseRetryBudget Cause = "retry_budget"
)

// Outcome is the terminal result for one entry.
type Outcome struct {
	Key   model.CandidateKey
	Class model.OutcomeClass
	Cause Cause
	// Classification is ClassNone when the store was never contacted.
	Classification model.Classification
	Detail         *int
	LineItems      []string
	// Attempts counts store calls made for this entry.
	Attempts int
	// DuplicateOf is the batch that first claimed the game.
	DuplicateOf string
}

// Record returns the ledger record for the outcome.
func (o Outcome) Record() model.LedgerRecord {
	return model.RecordFor(o.Key, o.Class)
}

// Message is the operator-facing explanation of the outcome.
func (o Outcome) Message() string {
	switch o.Cause {
	case CauseInvalidShape:
		return "Not a redeemable store code (most likely a gift link)."
	case CauseRevealFailed:
		return "The issuer did not reveal a code for this entry."
	case CauseDuplicate:
		return "Same game as an earlier entry in this run; not submitted."
	case CauseRetryBudget:
		return "The store kept answering without a result; giving up on this entry."
	default:
		return o.Classification.Message()
	}
}
