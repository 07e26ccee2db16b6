package engine

import (
	"context"

	"github.com/roach88/bundlekeys/internal/matcher"
	"github.com/roach88/bundlekeys/internal/model"
)

// RevealRequest addresses one latent entry at the issuer.
type RevealRequest struct {
	BatchID string
	TypeTag string
	Index   int
}

// RequestFor builds the reveal request for key.
func RequestFor(key model.CandidateKey) RevealRequest {
	return RevealRequest{BatchID: key.BatchID, TypeTag: key.TypeTag, Index: key.Index}
}

// Revealer is the issuer's reveal operation. A returned error means no code
// was produced; errors wrapping ErrSessionInvalid end the run.
type Revealer interface {
	Reveal(ctx context.Context, req RevealRequest) (string, error)
}

// RedeemResponse is the store's answer to one submission.
type RedeemResponse struct {
	Success bool
	// ResultDetail is nil when the store omitted it.
	ResultDetail *int
	// LineItems are receipt descriptions on success.
	LineItems []string
}

// StoreClient submits codes to the store. Errors wrapping ErrSessionInvalid
// end the run; any other error is treated as a response without a verdict.
type StoreClient interface {
	Redeem(ctx context.Context, code string) (RedeemResponse, error)
}

// Ledger is the subset of the outcome ledger the pipeline needs.
type Ledger interface {
	Filter(keys []model.CandidateKey) ([]model.CandidateKey, int)
	Append(rec model.LedgerRecord) error
}

// Reviewer adjudicates the skip set. It returns the entries the operator
// removed from the list, which are attempted despite the match.
type Reviewer interface {
	Review(ctx context.Context, skip []matcher.Matched) ([]model.CandidateKey, error)
}

// Journal receives an audit trail of every store call and every terminal
// outcome. Journal failures are logged and never stop a run.
type Journal interface {
	RecordAttempt(ctx context.Context, a Attempt) error
	RecordOutcome(ctx context.Context, runID string, seq int64, o Outcome) error
}

// Attempt is one store submission.
type Attempt struct {
	RunID          string
	Seq            int64
	BatchID        string
	DisplayName    string
	Code           string
	Number         int
	Classification model.Classification
	Detail         *int
	Err            string
}

// KeepAll is a Reviewer that leaves the skip set untouched.
type KeepAll struct{}

// Review returns no forced entries.
func (KeepAll) Review(context.Context, []matcher.Matched) ([]model.CandidateKey, error) {
	return nil, nil
}
