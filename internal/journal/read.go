package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one stored run.
type RunRecord struct {
	ID              string
	StartedAt       string
	FinishedAt      string
	Reveal          bool
	IncludeRevealed bool
	Total           int
	Submission      int
	Redeemed        int
	AlreadyOwned    int
	Errored         int
	StoreCalls      int
	Interrupted     bool
	Error           string
}

// Finished reports whether FinishRun was recorded for the run.
func (r RunRecord) Finished() bool {
	return r.FinishedAt != ""
}

// AttemptRecord is one stored store submission.
type AttemptRecord struct {
	RunID          string
	Seq            int64
	BatchID        string
	DisplayName    string
	Code           string
	Number         int
	Classification string
	Detail         *int
	Error          string
}

// OutcomeRecord is one stored terminal result.
type OutcomeRecord struct {
	RunID          string
	Seq            int64
	BatchID        string
	DisplayName    string
	Code           string
	Class          string
	Cause          string
	Classification string
	Detail         *int
	Attempts       int
	DuplicateOf    string
	LineItems      []string
}

const runColumns = `id, started_at, COALESCE(finished_at, ''), reveal, include_revealed,
	total, submission, redeemed, already_owned, errored, store_calls, interrupted, error`

// Runs returns up to limit runs, newest first. Run ids are UUIDv7, so byte
// order is start order. limit <= 0 returns every run.
func (j *Journal) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Run retrieves a single run by id.
// Returns ErrRunNotFound if it does not exist.
func (j *Journal) Run(ctx context.Context, id string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Attempts returns the submissions of a run ordered by seq.
func (j *Journal) Attempts(ctx context.Context, runID string) ([]AttemptRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, batch_id, display_name, code, number, classification, detail, error
		FROM attempts
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []AttemptRecord{}
	for rows.Next() {
		var a AttemptRecord
		var detail sql.NullInt64
		if err := rows.Scan(&a.RunID, &a.Seq, &a.BatchID, &a.DisplayName, &a.Code,
			&a.Number, &a.Classification, &detail, &a.Error); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Detail = detailPtr(detail)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// Outcomes returns the terminal results of a run ordered by seq.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	return j.queryOutcomes(ctx, "run_id = ?", runID)
}

// BatchOutcomes returns every recorded result for a batch across runs.
func (j *Journal) BatchOutcomes(ctx context.Context, batchID string) ([]OutcomeRecord, error) {
	return j.queryOutcomes(ctx, "batch_id = ?", batchID)
}

func (j *Journal) queryOutcomes(ctx context.Context, where string, arg any) ([]OutcomeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, batch_id, display_name, code, class, cause, classification,
			detail, attempts, duplicate_of, line_items
		FROM outcomes
		WHERE `+where+`
		ORDER BY seq ASC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []OutcomeRecord{}
	for rows.Next() {
		var o OutcomeRecord
		var detail sql.NullInt64
		var items string
		if err := rows.Scan(&o.RunID, &o.Seq, &o.BatchID, &o.DisplayName, &o.Code,
			&o.Class, &o.Cause, &o.Classification, &detail, &o.Attempts,
			&o.DuplicateOf, &items); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Detail = detailPtr(detail)
		if o.LineItems, err = unmarshalLineItems(items); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// LastSeq returns the highest seq across attempts and outcomes, or 0 for an
// empty journal. A new run's clock resumes from it.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM attempts
			UNION ALL
			SELECT seq FROM outcomes
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	var reveal, include, interrupted int
	if err := s.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &reveal, &include,
		&r.Total, &r.Submission, &r.Redeemed, &r.AlreadyOwned, &r.Errored,
		&r.StoreCalls, &interrupted, &r.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	r.Reveal = reveal != 0
	r.IncludeRevealed = include != 0
	r.Interrupted = interrupted != 0
	return r, nil
}

func detailPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
