package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/bundlekeys/internal/engine"
)

// BeginRun records the start of a run.
// Uses ON CONFLICT(id) DO UPDATE so a run row created implicitly by an early
// attempt still gets its selection flags.
func (j *Journal) BeginRun(ctx context.Context, runID string, sel engine.Selection) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, reveal, include_revealed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reveal = excluded.reveal,
			include_revealed = excluded.include_revealed
	`,
		runID,
		j.stamp(),
		boolInt(sel.Reveal),
		boolInt(sel.IncludeRevealed),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun closes a run with its summary. runErr is the error Run returned,
// if any.
func (j *Journal) FinishRun(ctx context.Context, s engine.Summary, runErr error) error {
	if err := j.ensureRun(ctx, s.RunID); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := j.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			total = ?,
			submission = ?,
			redeemed = ?,
			already_owned = ?,
			errored = ?,
			store_calls = ?,
			interrupted = ?,
			error = ?
		WHERE id = ?
	`,
		j.stamp(),
		s.Plan.Total,
		s.Plan.Submission,
		s.Redeemed,
		s.AlreadyOwned,
		s.Errored,
		s.StoreCalls,
		boolInt(s.Interrupted),
		msg,
		s.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordAttempt inserts one store submission.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency.
func (j *Journal) RecordAttempt(ctx context.Context, a engine.Attempt) error {
	if err := j.ensureRun(ctx, a.RunID); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO attempts
		(run_id, seq, batch_id, display_name, code, number, classification, detail, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		a.RunID,
		a.Seq,
		a.BatchID,
		a.DisplayName,
		a.Code,
		a.Number,
		a.Classification.String(),
		nullDetail(a.Detail),
		a.Err,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// RecordOutcome inserts the terminal result of one entry.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency.
func (j *Journal) RecordOutcome(ctx context.Context, runID string, seq int64, o engine.Outcome) error {
	if err := j.ensureRun(ctx, runID); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	items, err := marshalLineItems(o.LineItems)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, seq, batch_id, display_name, code, class, cause, classification, detail, attempts, duplicate_of, line_items)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		runID,
		seq,
		o.Key.BatchID,
		o.Key.DisplayName,
		o.Key.RevealedCode,
		o.Class.String(),
		string(o.Cause),
		o.Classification.String(),
		nullDetail(o.Detail),
		o.Attempts,
		o.DuplicateOf,
		items,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// ensureRun creates a placeholder run row so foreign keys hold when rows
// for a run arrive before BeginRun.
func (j *Journal) ensureRun(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("empty run id")
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, j.stamp())
	return err
}

func (j *Journal) stamp() string {
	return j.now().UTC().Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullDetail(d *int) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}
