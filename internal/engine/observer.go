package engine

import "time"

// Observer decouples progress output from the pipeline. The engine only
// emits events; the CLI decides how to show them. Calls arrive on the
// pipeline goroutine and must not block for long.
type Observer interface {
	// OnStart fires once the submission list is final.
	OnStart(runID string, plan Plan)
	// OnEntry fires before an entry is processed.
	OnEntry(idx, total int, key CandidateView)
	// OnWaiting fires once per progress interval inside the rate-limit wait.
	OnWaiting(key CandidateView, waited time.Duration)
	// OnOutcome fires after an entry reached a terminal state.
	OnOutcome(idx, total int, o Outcome)
	// OnDone fires when the run ends, including on cancellation.
	OnDone(s Summary)
}

// CandidateView is the display slice of a key handed to observers.
type CandidateView struct {
	BatchID     string
	DisplayName string
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnStart(string, Plan)                   {}
func (NopObserver) OnEntry(int, int, CandidateView)        {}
func (NopObserver) OnWaiting(CandidateView, time.Duration) {}
func (NopObserver) OnOutcome(int, int, Outcome)            {}
func (NopObserver) OnDone(Summary)                         {}
