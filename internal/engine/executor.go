package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/bundlekeys/internal/model"
)

// Rate-limit wait defaults. The store's limit window is roughly an hour per
// batch of submissions and cannot be observed in advance, so the loop polls
// on a fixed short interval rather than backing off.
const (
	DefaultPollInterval     = 60 * time.Second
	DefaultProgressInterval = time.Second
)

// Executor submits codes to the store and drives the per-entry state machine:
//
//	Pending -> Submitting -> {Success, PermanentError, RateLimited}
//	RateLimited -> Submitting
//
// The RateLimited loop is the only cycle. Each Submitting transition is
// exactly one store call.
type Executor struct {
	store    StoreClient
	sleeper  Sleeper
	observer Observer
	journal  Journal
	clock    *Clock
	runID    string

	pollInterval     time.Duration
	progressInterval time.Duration
	unknownLimit     int

	calls int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPollInterval sets the delay between rate-limited resubmissions.
func WithPollInterval(d time.Duration) ExecutorOption {
	return func(x *Executor) {
		x.pollInterval = d
	}
}

// WithProgressInterval sets how often OnWaiting fires inside the wait.
func WithProgressInterval(d time.Duration) ExecutorOption {
	return func(x *Executor) {
		x.progressInterval = d
	}
}

// WithUnknownLimit bounds consecutive responses without a verdict.
// Zero or less retries them indefinitely.
func WithUnknownLimit(n int) ExecutorOption {
	return func(x *Executor) {
		x.unknownLimit = n
	}
}

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s Sleeper) ExecutorOption {
	return func(x *Executor) {
		x.sleeper = s
	}
}

// WithExecutorObserver sets the observer for wait progress.
func WithExecutorObserver(o Observer) ExecutorOption {
	return func(x *Executor) {
		x.observer = o
	}
}

// WithJournal records every submission.
func WithJournal(j Journal, runID string, clock *Clock) ExecutorOption {
	return func(x *Executor) {
		x.journal = j
		x.runID = runID
		if clock != nil {
			x.clock = clock
		}
	}
}

// NewExecutor creates an executor for store.
func NewExecutor(store StoreClient, opts ...ExecutorOption) *Executor {
	x := &Executor{
		store:            store,
		sleeper:          WallSleeper{},
		observer:         NopObserver{},
		clock:            NewClock(),
		pollInterval:     DefaultPollInterval,
		progressInterval: DefaultProgressInterval,
		unknownLimit:     DefaultUnknownLimit,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.pollInterval <= 0 {
		x.pollInterval = DefaultPollInterval
	}
	return x
}

// Calls returns the number of store calls made so far.
func (x *Executor) Calls() int {
	return x.calls
}

// Execute redeems key's revealed code and returns its terminal outcome.
//
// Codes failing the shape check never reach the store. A returned error
// means the entry did not reach a terminal state (cancellation or session
// failure) and must not be recorded.
func (x *Executor) Execute(ctx context.Context, key model.CandidateKey) (Outcome, error) {
	if !model.ShapeValid(key.RevealedCode) {
		slog.Debug("code failed shape check", "batch", key.BatchID, "name", key.DisplayName)
		return Outcome{Key: key, Class: model.OutcomeErrored, Cause: CauseInvalidShape}, nil
	}

	view := CandidateView{BatchID: key.BatchID, DisplayName: key.DisplayName}
	budget := NewRetryBudget(x.unknownLimit)
	var waited time.Duration
	attempts := 0

	for {
		resp, verdict, err := x.submit(ctx, key, attempts+1)
		attempts++
		if err != nil {
			return Outcome{}, err
		}

		if verdict.terminal() {
			o := Outcome{
				Key:            key,
				Class:          verdict.class.Outcome(),
				Cause:          CauseStore,
				Classification: verdict.class,
				Detail:         resp.ResultDetail,
				Attempts:       attempts,
			}
			if verdict.class == model.ClassSuccess {
				o.LineItems = resp.LineItems
			}
			return o, nil
		}

		if verdict.class == model.ClassRateLimited {
			budget.Reset()
		} else if err := budget.Check(key.BatchID); err != nil {
			slog.Warn("giving up on entry", "batch", key.BatchID, "error", err)
			return Outcome{
				Key:            key,
				Class:          model.OutcomeErrored,
				Cause:          CauseRetryBudget,
				Classification: model.ClassUnknownTransientError,
				Attempts:       attempts,
			}, nil
		}

		if err := x.wait(ctx, view, &waited); err != nil {
			return Outcome{}, fmt.Errorf("rate-limit wait for %s: %w", key.BatchID, err)
		}
	}
}

type verdict struct {
	class model.Classification
	// retry marks a response without a verdict that is retried like a
	// rate limit, under the retry budget.
	retry bool
}

func (v verdict) terminal() bool {
	return !v.retry && v.class.Terminal()
}

// submit performs exactly one store call and classifies it.
func (x *Executor) submit(ctx context.Context, key model.CandidateKey, number int) (RedeemResponse, verdict, error) {
	x.calls++
	resp, err := x.store.Redeem(ctx, key.RevealedCode)

	var v verdict
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, v, fmt.Errorf("redeem %s: %w", key.BatchID, ctxErr)
		}
		if errors.Is(err, ErrSessionInvalid) {
			x.journalAttempt(ctx, key, number, model.ClassNone, nil, err)
			return resp, v, NewSessionError(key.BatchID, err)
		}
		slog.Warn("store call failed", "batch", key.BatchID, "error", err)
		v = verdict{class: model.ClassUnknownTransientError, retry: true}
	case resp.Success:
		v = verdict{class: model.ClassSuccess}
	case resp.ResultDetail == nil:
		v = verdict{class: model.ClassUnknownTransientError, retry: true}
	default:
		v = verdict{class: model.ClassifyDetail(resp.ResultDetail)}
	}

	slog.Debug("store responded", "batch", key.BatchID, "attempt", number, "class", v.class.String(), "retry", v.retry)
	x.journalAttempt(ctx, key, number, v.class, resp.ResultDetail, err)
	return resp, v, nil
}

// wait blocks for one poll interval, reporting progress each tick.
func (x *Executor) wait(ctx context.Context, view CandidateView, waited *time.Duration) error {
	step := x.progressInterval
	if step <= 0 || step > x.pollInterval {
		step = x.pollInterval
	}
	for elapsed := time.Duration(0); elapsed < x.pollInterval; elapsed += step {
		if err := x.sleeper.Sleep(ctx, step); err != nil {
			return err
		}
		*waited += step
		x.observer.OnWaiting(view, *waited)
	}
	return nil
}

func (x *Executor) journalAttempt(ctx context.Context, key model.CandidateKey, number int, class model.Classification, detail *int, callErr error) {
	if x.journal == nil {
		return
	}
	a := Attempt{
		RunID:          x.runID,
		Seq:            x.clock.Next(),
		BatchID:        key.BatchID,
		DisplayName:    key.DisplayName,
		Code:           key.RevealedCode,
		Number:         number,
		Classification: class,
		Detail:         detail,
	}
	if callErr != nil {
		a.Err = callErr.Error()
	}
	if err := x.journal.RecordAttempt(ctx, a); err != nil {
		slog.Warn("journal attempt failed", "batch", key.BatchID, "error", err)
	}
}
