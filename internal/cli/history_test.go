package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/journal"
	"github.com/roach88/bundlekeys/internal/model"
)

const historyRunID = "0190c4e2-7b1a-7c3e-9f00-1a2b3c4d5e6f"

// seedJournal writes one finished run with a rate-limited attempt, a
// successful retry and its outcome.
func seedJournal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bundlekeys.db")

	j, err := journal.Open(path, journal.WithNow(func() time.Time {
		return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	defer j.Close()

	key := model.CandidateKey{BatchID: "batch-1", DisplayName: "Fresh Title", RevealedCode: "AAAAA-BBBBB-CCCCC"}
	limited := model.DetailRateLimited

	require.NoError(t, j.BeginRun(ctx, historyRunID, engine.Selection{Reveal: true}))
	require.NoError(t, j.RecordAttempt(ctx, engine.Attempt{
		RunID: historyRunID, Seq: 1, BatchID: key.BatchID, DisplayName: key.DisplayName,
		Code: key.RevealedCode, Number: 1, Classification: model.ClassRateLimited, Detail: &limited,
	}))
	require.NoError(t, j.RecordAttempt(ctx, engine.Attempt{
		RunID: historyRunID, Seq: 2, BatchID: key.BatchID, DisplayName: key.DisplayName,
		Code: key.RevealedCode, Number: 2, Classification: model.ClassSuccess,
	}))
	outcome := engine.Outcome{
		Key:            key,
		Class:          model.OutcomeRedeemed,
		Cause:          engine.CauseStore,
		Classification: model.ClassSuccess,
		LineItems:      []string{"Fresh Title"},
		Attempts:       2,
	}
	require.NoError(t, j.RecordOutcome(ctx, historyRunID, 3, outcome))
	require.NoError(t, j.FinishRun(ctx, engine.Summary{
		RunID:      historyRunID,
		Plan:       engine.Plan{Total: 1, Submission: 1},
		Processed:  1,
		Redeemed:   1,
		StoreCalls: 2,
	}, nil))

	return path
}

func executeHistory(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryMissingJournal(t *testing.T) {
	_, err := executeHistory(t, "text", "--journal", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open journal")
}

func TestHistoryListRuns(t *testing.T) {
	path := seedJournal(t)

	out, err := executeHistory(t, "text", "--journal", path)
	require.NoError(t, err)
	assert.Contains(t, out, historyRunID+"  2024-03-01T12:00:00Z  Complete")
	assert.Contains(t, out, "attempted 1 of 1: redeemed=1 already_owned=0 errored=0 store_calls=2")
}

func TestHistoryListRunsJSON(t *testing.T) {
	path := seedJournal(t)

	out, err := executeHistory(t, "json", "--journal", path, "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   []RunView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, historyRunID, resp.Data[0].ID)
	assert.True(t, resp.Data[0].Reveal)
	assert.Equal(t, 2, resp.Data[0].StoreCalls)
}

func TestHistoryEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := executeHistory(t, "text", "--journal", path)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded\n", out)
}

func TestHistoryRunDetail(t *testing.T) {
	path := seedJournal(t)

	out, err := executeHistory(t, "text", "--journal", path, "--run", historyRunID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: "+historyRunID)
	assert.Contains(t, out, "Selection: reveal=true include_revealed=false")
	assert.Contains(t, out, "[1] Fresh Title #1 rate_limited (detail 53)")
	assert.Contains(t, out, "[2] Fresh Title #2 success\n")
	assert.Contains(t, out, "[3] Fresh Title: redeemed (store)")
	assert.Contains(t, out, "Redeemed Fresh Title")
}

func TestHistoryRunDetailJSON(t *testing.T) {
	path := seedJournal(t)

	out, err := executeHistory(t, "json", "--journal", path, "--run", historyRunID)
	require.NoError(t, err)

	var resp struct {
		Data RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Attempts, 2)
	require.NotNil(t, resp.Data.Attempts[0].Detail)
	assert.Equal(t, 53, *resp.Data.Attempts[0].Detail)
	assert.Nil(t, resp.Data.Attempts[1].Detail)
	require.Len(t, resp.Data.Outcomes, 1)
	assert.Equal(t, []string{"Fresh Title"}, resp.Data.Outcomes[0].LineItems)
	assert.Equal(t, 2, resp.Data.Outcomes[0].Attempts)
}

func TestHistoryUnknownRun(t *testing.T) {
	path := seedJournal(t)

	_, err := executeHistory(t, "text", "--journal", path, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, errors.Is(err, journal.ErrRunNotFound))
}

func TestHistoryBatch(t *testing.T) {
	path := seedJournal(t)

	out, err := executeHistory(t, "text", "--journal", path, "--batch", "batch-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Batch: batch-1")
	assert.Contains(t, out, "redeemed (store) run 0190c4e2...3c4d5e6f")

	out, err = executeHistory(t, "text", "--journal", path, "--batch", "other")
	require.NoError(t, err)
	assert.Equal(t, "No results recorded for batch: other\n", out)
}

func TestHistoryRunAndBatchExclusive(t *testing.T) {
	path := seedJournal(t)

	_, err := executeHistory(t, "text", "--journal", path, "--run", historyRunID, "--batch", "batch-1")
	require.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0190c4e2...3c4d5e6f", truncateID(historyRunID))
}
