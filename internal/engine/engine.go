package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/bundlekeys/internal/matcher"
	"github.com/roach88/bundlekeys/internal/model"
)

// Plan describes how the input was narrowed down before processing.
type Plan struct {
	Total          int
	NotStoreKeys   int
	LedgerExcluded int
	Revealed       int
	Unrevealed     int
	NotSelected    int
	SkipSet        int
	Forced         int
	Submission     int
}

// Summary is the result of one run.
type Summary struct {
	RunID        string
	Plan         Plan
	Processed    int
	Redeemed     int
	AlreadyOwned int
	Errored      int
	Duplicates   int
	StoreCalls   int
	RevealCalls  int
	Interrupted  bool
	Outcomes     []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Processed++
	s.Outcomes = append(s.Outcomes, o)
	switch o.Class {
	case model.OutcomeRedeemed:
		s.Redeemed++
	case model.OutcomeAlreadyOwned:
		s.AlreadyOwned++
	default:
		s.Errored++
	}
	if o.Cause == CauseDuplicate {
		s.Duplicates++
	}
}

// Engine runs the redemption pipeline over one batch of candidates.
//
// Thread-safety model: Run must not be called concurrently; every mutation
// (ledger appends, duplicate claims, reveal memo) happens on the calling
// goroutine.
type Engine struct {
	ledger   Ledger
	store    StoreClient
	revealer Revealer
	reviewer Reviewer
	journal  Journal
	observer Observer
	sleeper  Sleeper
	runIDs   RunIDGenerator
	clock    *Clock

	thresholds       matcher.Thresholds
	selection        Selection
	pollInterval     time.Duration
	progressInterval time.Duration
	unknownLimit     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRevealer sets the issuer reveal collaborator.
func WithRevealer(r Revealer) Option {
	return func(e *Engine) { e.revealer = r }
}

// WithReviewer sets the skip-set adjudicator. Default keeps the skip set.
func WithReviewer(r Reviewer) Option {
	return func(e *Engine) { e.reviewer = r }
}

// WithRunJournal sets the audit journal.
func WithRunJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithEngineSleeper replaces the wall-clock sleeper used by the wait loop.
func WithEngineSleeper(s Sleeper) Option {
	return func(e *Engine) { e.sleeper = s }
}

// WithRunIDs sets the run id generator. Default is UUIDv7.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithClock resumes journal sequencing from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithThresholds sets the ownership matcher thresholds.
func WithThresholds(t matcher.Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithSelection sets which store keys are attempted.
func WithSelection(s Selection) Option {
	return func(e *Engine) { e.selection = s }
}

// WithRetryTiming sets the wait-loop poll and progress intervals.
func WithRetryTiming(poll, progress time.Duration) Option {
	return func(e *Engine) {
		e.pollInterval = poll
		e.progressInterval = progress
	}
}

// WithRetryBudget bounds consecutive verdict-less store responses.
func WithRetryBudget(limit int) Option {
	return func(e *Engine) { e.unknownLimit = limit }
}

// New creates an Engine writing to ledger and redeeming through store.
func New(ledger Ledger, store StoreClient, opts ...Option) *Engine {
	e := &Engine{
		ledger:           ledger,
		store:            store,
		reviewer:         KeepAll{},
		observer:         NopObserver{},
		sleeper:          WallSleeper{},
		runIDs:           UUIDv7Generator{},
		clock:            NewClock(),
		thresholds:       matcher.DefaultThresholds(),
		pollInterval:     DefaultPollInterval,
		progressInterval: DefaultProgressInterval,
		unknownLimit:     DefaultUnknownLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes keys against the catalog snapshot.
//
// The returned Summary is valid even when err is non-nil; it covers every
// entry recorded before the run stopped. Run stops early only on context
// cancellation, a collaborator session failure, or a ledger write failure.
func (e *Engine) Run(ctx context.Context, keys []model.CandidateKey, catalog model.Catalog) (summary Summary, err error) {
	summary.RunID = e.runIDs.Generate()
	slog.Info("run starting", "run", summary.RunID, "entries", len(keys), "catalog", catalog.Size())

	submission, plan, err := e.plan(ctx, keys, catalog)
	summary.Plan = plan
	if err != nil {
		return summary, err
	}

	e.observer.OnStart(summary.RunID, plan)
	defer func() {
		e.observer.OnDone(summary)
	}()

	dedup := NewDuplicateSuppressor()
	reveals := NewRevealCoordinator(e.revealer)
	exec := NewExecutor(e.store,
		WithSleeper(e.sleeper),
		WithExecutorObserver(e.observer),
		WithPollInterval(e.pollInterval),
		WithProgressInterval(e.progressInterval),
		WithUnknownLimit(e.unknownLimit),
		WithJournal(e.journal, summary.RunID, e.clock),
	)
	defer func() {
		summary.StoreCalls = exec.Calls()
		summary.RevealCalls = reveals.Calls()
	}()

	total := len(submission)
	for i, key := range submission {
		if ctxErr := ctx.Err(); ctxErr != nil {
			summary.Interrupted = true
			return summary, ctxErr
		}
		e.observer.OnEntry(i+1, total, CandidateView{BatchID: key.BatchID, DisplayName: key.DisplayName})

		o, procErr := e.process(ctx, key, dedup, reveals, exec)
		if procErr != nil {
			if errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded) {
				summary.Interrupted = true
			}
			return summary, procErr
		}

		if appendErr := e.ledger.Append(o.Record()); appendErr != nil {
			return summary, &PipelineError{
				Code:    ErrCodeLedgerWrite,
				Message: "could not record outcome",
				BatchID: key.BatchID,
				Err:     appendErr,
			}
		}
		e.journalOutcome(ctx, summary.RunID, o)
		summary.add(o)

		slog.Info("entry settled", "batch", key.BatchID, "name", key.DisplayName,
			"outcome", o.Class.String(), "cause", string(o.Cause), "class", o.Classification.String())
		e.observer.OnOutcome(i+1, total, o)
	}

	return summary, nil
}

// plan narrows keys to the ordered submission list.
func (e *Engine) plan(ctx context.Context, keys []model.CandidateKey, catalog model.Catalog) ([]model.CandidateKey, Plan, error) {
	plan := Plan{Total: len(keys)}

	storeKeys := make([]model.CandidateKey, 0, len(keys))
	for _, k := range keys {
		if !k.Redeemable() {
			plan.NotStoreKeys++
			continue
		}
		storeKeys = append(storeKeys, k)
	}

	fresh, excluded := e.ledger.Filter(storeKeys)
	plan.LedgerExcluded = excluded
	if excluded > 0 {
		slog.Info("filtered keys from previous runs", "count", excluded)
	}
	for _, k := range fresh {
		if k.Revealed() {
			plan.Revealed++
		} else {
			plan.Unrevealed++
		}
	}

	selected, _, notSelected := e.selection.Select(fresh)
	plan.NotSelected = notSelected

	m := matcher.New(catalog, matcher.WithThresholds(e.thresholds))
	skip, _ := m.Partition(selected)
	plan.SkipSet = len(skip)

	forced := map[string]bool{}
	if len(skip) > 0 {
		kept, err := e.reviewer.Review(ctx, skip)
		if err != nil {
			return nil, plan, fmt.Errorf("review skip set: %w", err)
		}
		for _, k := range kept {
			forced[identity(k)] = true
		}
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		id := identity(s.Key)
		if forced[id] {
			plan.Forced++
			continue
		}
		skipped[id] = true
	}

	submission := make([]model.CandidateKey, 0, len(selected))
	for _, k := range selected {
		if skipped[identity(k)] {
			continue
		}
		submission = append(submission, k)
	}
	plan.Submission = len(submission)
	return submission, plan, nil
}

// process takes one entry to a terminal outcome.
func (e *Engine) process(ctx context.Context, key model.CandidateKey, dedup *DuplicateSuppressor, reveals *RevealCoordinator, exec *Executor) (Outcome, error) {
	if dup, by := dedup.Claim(key); dup {
		return Outcome{Key: key, Class: model.OutcomeAlreadyOwned, Cause: CauseDuplicate, DuplicateOf: by}, nil
	}

	revealed, code, err := reveals.Reveal(ctx, key)
	if err != nil {
		return Outcome{}, err
	}
	if code == "" {
		return Outcome{Key: revealed, Class: model.OutcomeErrored, Cause: CauseRevealFailed}, nil
	}

	return exec.Execute(ctx, revealed)
}

func (e *Engine) journalOutcome(ctx context.Context, runID string, o Outcome) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordOutcome(ctx, runID, e.clock.Next(), o); err != nil {
		slog.Warn("journal outcome failed", "batch", o.Key.BatchID, "error", err)
	}
}

// identity distinguishes entries that share a batch.
func identity(k model.CandidateKey) string {
	return k.BatchID + "\x00" + k.TypeTag + "\x00" + strconv.Itoa(k.Index) + "\x00" + k.DisplayName
}
