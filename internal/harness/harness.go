package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/journal"
	"github.com/roach88/bundlekeys/internal/ledger"
	"github.com/roach88/bundlekeys/internal/matcher"
	"github.com/roach88/bundlekeys/internal/model"
	"github.com/roach88/bundlekeys/internal/testutil"
)

// JournalEpoch is the pinned wall time stamped on scenario journal rows.
var JournalEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	observer engine.Observer
}

// WithObserver forwards pipeline progress to o.
func WithObserver(o engine.Observer) RunOption {
	return func(c *runConfig) { c.observer = o }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory holding its ledger and
// journal, removed on return.
//
// Execution flow:
// 1. Seed the ledger from scenario.ledger
// 2. Build the catalog, candidates and scripted collaborators
// 3. Run the pipeline with a recording sleeper
// 4. Check the expect block
//
// The returned error covers harness failures only; a pipeline error is
// reported in Result.RunErr and checked against expect.error.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{observer: engine.NopObserver{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	dir, err := os.MkdirTemp("", "bundlekeys-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	led, err := ledger.Open(filepath.Join(dir, "ledger"))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer led.Close()

	for _, seed := range scenario.Ledger {
		class, _ := model.ParseOutcomeClass(seed.Class)
		rec := model.LedgerRecord{BatchID: seed.Batch, DisplayName: seed.Name, RevealedCode: seed.Code, Class: class}
		if err := led.Append(rec); err != nil {
			return nil, fmt.Errorf("failed to seed ledger: %w", err)
		}
	}

	jrnl, err := journal.Open(filepath.Join(dir, "journal.db"),
		journal.WithNow(func() time.Time { return JournalEpoch }))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer jrnl.Close()

	poll, progress, err := scenario.Retry.timing()
	if err != nil {
		return nil, err
	}

	store := buildStore(scenario.Store)
	revealer := buildRevealer(scenario.Reveal)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sleeper := testutil.NewFakeSleeper()
	if scenario.InterruptAfterSleeps > 0 {
		sleeper.CancelAfter = scenario.InterruptAfterSleeps
		sleeper.Cancel = cancel
	}
	runIDs := testutil.NewFixedRunID(scenario.RunID)
	selection := engine.Selection{
		Reveal:          scenario.Selection.Reveal,
		IncludeRevealed: scenario.Selection.IncludeRevealed,
	}

	engineOpts := []engine.Option{
		engine.WithRevealer(revealer),
		engine.WithReviewer(forceReviewer{names: scenario.Force}),
		engine.WithRunJournal(jrnl),
		engine.WithObserver(cfg.observer),
		engine.WithEngineSleeper(sleeper),
		engine.WithRunIDs(runIDs),
		engine.WithSelection(selection),
		engine.WithRetryTiming(poll, progress),
	}
	if t := scenario.Thresholds; t != nil {
		engineOpts = append(engineOpts, engine.WithThresholds(matcher.Thresholds{FirstPass: t.FirstPass, Accept: t.Accept}))
	}
	if scenario.Retry.UnknownLimit > 0 {
		engineOpts = append(engineOpts, engine.WithRetryBudget(scenario.Retry.UnknownLimit))
	}
	eng := engine.New(led, store, engineOpts...)

	runID := runIDs.Generate()
	if err := jrnl.BeginRun(ctx, runID, selection); err != nil {
		return nil, fmt.Errorf("failed to begin journal run: %w", err)
	}

	keys, catalog := buildInput(scenario)
	summary, runErr := eng.Run(runCtx, keys, catalog)

	if err := jrnl.FinishRun(ctx, summary, runErr); err != nil {
		return nil, fmt.Errorf("failed to finish journal run: %w", err)
	}
	attempts, err := jrnl.Attempts(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	result := NewResult()
	result.Summary = summary
	result.RunErr = runErr
	result.StoreCalls = store.Calls()
	result.Attempts = attempts
	result.Ledger = led.Records()
	result.Waited = sleeper.Total()
	result.Sleeps = sleeper.Count()

	check(scenario.Expect, result)
	return result, nil
}

func buildInput(s *Scenario) ([]model.CandidateKey, model.Catalog) {
	named := make([]model.CatalogEntry, 0, len(s.Catalog.Named))
	for _, e := range s.Catalog.Named {
		named = append(named, model.CatalogEntry{ID: e.ID, DisplayName: e.Name})
	}
	catalog := model.NewCatalog(s.Catalog.Owned, named)

	keys := make([]model.CandidateKey, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		kind, _ := parseKind(c.Kind)
		keys = append(keys, model.CandidateKey{
			BatchID:      c.Batch,
			DisplayName:  c.Name,
			StoreID:      c.StoreID,
			RevealedCode: c.Code,
			Kind:         kind,
			TypeTag:      c.TypeTag,
			Index:        c.Index,
		})
	}
	return keys, catalog
}

func buildStore(spec StoreSpec) *testutil.ScriptedStore {
	store := testutil.NewScriptedStore()
	for code, replies := range spec.Scripts {
		for _, r := range replies {
			if r.Error != "" {
				store.ScriptError(code, errors.New(r.Error))
				continue
			}
			store.Script(code, engine.RedeemResponse{
				Success:      r.Success,
				ResultDetail: r.Detail,
				LineItems:    r.Items,
			})
		}
	}
	return store
}

func buildRevealer(spec RevealSpec) *testutil.ScriptedRevealer {
	r := testutil.NewScriptedRevealer()
	for batch, code := range spec.Codes {
		r.Code(batch, code)
	}
	for _, batch := range spec.Failures {
		r.Fail(batch, fmt.Errorf("batch %s: %w", batch, testutil.ErrRevealRefused))
	}
	return r
}

// forceReviewer stands in for the operator editing the review list: every
// skip-set entry whose display name is listed is attempted anyway.
type forceReviewer struct {
	names []string
}

func (f forceReviewer) Review(_ context.Context, skip []matcher.Matched) ([]model.CandidateKey, error) {
	var forced []model.CandidateKey
	for _, m := range skip {
		for _, name := range f.names {
			if strings.TrimSpace(m.Key.DisplayName) == strings.TrimSpace(name) {
				forced = append(forced, m.Key)
				break
			}
		}
	}
	return forced, nil
}

func (r RetrySpec) timing() (poll, progress time.Duration, err error) {
	poll, progress = engine.DefaultPollInterval, engine.DefaultProgressInterval
	if r.PollInterval != "" {
		if poll, err = time.ParseDuration(r.PollInterval); err != nil || poll <= 0 {
			return 0, 0, fmt.Errorf("retry.poll_interval: invalid duration %q", r.PollInterval)
		}
	}
	if r.ProgressInterval != "" {
		if progress, err = time.ParseDuration(r.ProgressInterval); err != nil || progress < 0 {
			return 0, 0, fmt.Errorf("retry.progress_interval: invalid duration %q", r.ProgressInterval)
		}
	}
	return poll, progress, nil
}

// check compares the run against the expect block.
func check(want Expect, r *Result) {
	got := r.Summary.Outcomes
	if len(want.Outcomes) > 0 || len(got) > 0 {
		if len(got) != len(want.Outcomes) {
			r.AddError("outcomes: got %d, want %d", len(got), len(want.Outcomes))
		}
	}
	for i, w := range want.Outcomes {
		if i >= len(got) {
			break
		}
		checkOutcome(r, i, w, got[i])
	}

	if want.StoreCalls != nil && r.Summary.StoreCalls != *want.StoreCalls {
		r.AddError("store_calls: got %d, want %d", r.Summary.StoreCalls, *want.StoreCalls)
	}
	if want.RevealCalls != nil && r.Summary.RevealCalls != *want.RevealCalls {
		r.AddError("reveal_calls: got %d, want %d", r.Summary.RevealCalls, *want.RevealCalls)
	}
	if want.Plan != nil {
		checkPlan(r, *want.Plan, r.Summary.Plan)
	}
	if r.Summary.Interrupted != want.Interrupted {
		r.AddError("interrupted: got %t, want %t", r.Summary.Interrupted, want.Interrupted)
	}

	switch {
	case want.Error == "" && r.RunErr != nil:
		r.AddError("unexpected run error: %v", r.RunErr)
	case want.Error != "" && r.RunErr == nil:
		r.AddError("run error: got none, want %q", want.Error)
	case want.Error != "" && !strings.Contains(r.RunErr.Error(), want.Error):
		r.AddError("run error: got %q, want it to contain %q", r.RunErr.Error(), want.Error)
	}
}

func checkOutcome(r *Result, i int, w ExpectedOutcome, o engine.Outcome) {
	if o.Key.BatchID != w.Batch {
		r.AddError("outcomes[%d].batch: got %q, want %q", i, o.Key.BatchID, w.Batch)
	}
	if w.Name != "" && o.Key.DisplayName != w.Name {
		r.AddError("outcomes[%d].name: got %q, want %q", i, o.Key.DisplayName, w.Name)
	}
	if o.Class.String() != w.Class {
		r.AddError("outcomes[%d].class: got %s, want %s", i, o.Class, w.Class)
	}
	if w.Cause != "" && string(o.Cause) != w.Cause {
		r.AddError("outcomes[%d].cause: got %s, want %s", i, o.Cause, w.Cause)
	}
	if w.Classification != "" && o.Classification.String() != w.Classification {
		r.AddError("outcomes[%d].classification: got %s, want %s", i, o.Classification, w.Classification)
	}
	if w.DuplicateOf != "" && o.DuplicateOf != w.DuplicateOf {
		r.AddError("outcomes[%d].duplicate_of: got %q, want %q", i, o.DuplicateOf, w.DuplicateOf)
	}
	if w.Attempts != nil && o.Attempts != *w.Attempts {
		r.AddError("outcomes[%d].attempts: got %d, want %d", i, o.Attempts, *w.Attempts)
	}
}

func checkPlan(r *Result, w ExpectedPlan, p engine.Plan) {
	fields := []struct {
		name string
		want *int
		got  int
	}{
		{"ledger_excluded", w.LedgerExcluded, p.LedgerExcluded},
		{"not_store_keys", w.NotStoreKeys, p.NotStoreKeys},
		{"not_selected", w.NotSelected, p.NotSelected},
		{"skip_set", w.SkipSet, p.SkipSet},
		{"forced", w.Forced, p.Forced},
		{"submission", w.Submission, p.Submission},
	}
	for _, f := range fields {
		if f.want != nil && *f.want != f.got {
			r.AddError("plan.%s: got %d, want %d", f.name, f.got, *f.want)
		}
	}
}
