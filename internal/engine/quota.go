package engine

import "fmt"

// DefaultUnknownLimit bounds consecutive unclassifiable store responses for
// one entry before it is recorded Errored.
const DefaultUnknownLimit = 10

// RetryBudget counts consecutive store responses that carried no result
// detail (or failed in transport) for a single entry.
//
// CRITICAL DISTINCTION from the rate limit:
//   - RateLimited (detail 53) is a known, temporary verdict and is retried
//     without a bound.
//   - A response with no verdict at all may be a permanent new failure mode;
//     the budget keeps it from looping forever.
//
// A limit of zero or less disables the bound.
type RetryBudget struct {
	limit   int
	current int
}

// NewRetryBudget creates a budget allowing limit consecutive unknowns.
func NewRetryBudget(limit int) *RetryBudget {
	return &RetryBudget{limit: limit}
}

// Check records one unknown response and fails once the limit is passed.
func (b *RetryBudget) Check(batchID string) error {
	b.current++
	if b.limit > 0 && b.current > b.limit {
		return &BudgetExceededError{
			BatchID: batchID,
			Count:   b.current,
			Limit:   b.limit,
		}
	}
	return nil
}

// Reset clears the counter after a classified response.
func (b *RetryBudget) Reset() {
	b.current = 0
}

// Current returns the consecutive unknown count.
func (b *RetryBudget) Current() int {
	return b.current
}

// Limit returns the configured limit.
func (b *RetryBudget) Limit() int {
	return b.limit
}

// BudgetExceededError is returned when an entry exceeds its retry budget.
type BudgetExceededError struct {
	BatchID string
	Count   int
	Limit   int
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("batch %s exceeded unknown-response budget: %d > %d",
		e.BatchID, e.Count, e.Limit)
}
