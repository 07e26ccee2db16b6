package harness

import (
	"fmt"
	"time"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/journal"
	"github.com/roach88/bundlekeys/internal/model"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause matches.
	Pass bool

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string

	// Summary is what engine.Run returned.
	Summary engine.Summary

	// RunErr is the error engine.Run returned, if any.
	RunErr error

	// StoreCalls lists every submitted code in call order.
	StoreCalls []string

	// Attempts is the journaled store-call trail, ordered by seq.
	Attempts []journal.AttemptRecord

	// Ledger holds every ledger record after the run, seeds included.
	Ledger []model.LedgerRecord

	// Waited is the total time the run asked to sleep, in Sleeps steps.
	Waited time.Duration
	Sleeps int
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
