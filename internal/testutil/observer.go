package testutil

import (
	"sync"
	"time"

	"github.com/roach88/bundlekeys/internal/engine"
)

// RecordingObserver keeps every event it receives.
type RecordingObserver struct {
	mu       sync.Mutex
	RunID    string
	Plan     engine.Plan
	Entries  []engine.CandidateView
	Waits    []time.Duration
	Outcomes []engine.Outcome
	Done     *engine.Summary
}

func (o *RecordingObserver) OnStart(runID string, plan engine.Plan) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.RunID = runID
	o.Plan = plan
}

func (o *RecordingObserver) OnEntry(_, _ int, key engine.CandidateView) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Entries = append(o.Entries, key)
}

func (o *RecordingObserver) OnWaiting(_ engine.CandidateView, waited time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Waits = append(o.Waits, waited)
}

func (o *RecordingObserver) OnOutcome(_, _ int, out engine.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Outcomes = append(o.Outcomes, out)
}

func (o *RecordingObserver) OnDone(s engine.Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Done = &s
}
