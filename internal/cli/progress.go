package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/roach88/bundlekeys/internal/engine"
)

const spinnerFrames = `|/-\`

// progressPrinter is the terminal engine.Observer for redeem runs.
//
// On a terminal the rate-limit spinner redraws one line in place; elsewhere
// a plain line is written once per minute of waiting.
type progressPrinter struct {
	w       io.Writer
	tty     bool
	frame   int
	waiting bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w)}
}

func (p *progressPrinter) OnStart(_ string, plan engine.Plan) {
	if plan.LedgerExcluded > 0 {
		fmt.Fprintf(p.w, "Filtered %d keys from previous runs\n", plan.LedgerExcluded)
	}
	if plan.SkipSet > 0 {
		fmt.Fprintf(p.w, "Filtered out %d keys you already own (%d kept after review)\n", plan.SkipSet-plan.Forced, plan.Forced)
	}
	fmt.Fprintf(p.w, "%d keys will be attempted.\n", plan.Submission)
}

func (p *progressPrinter) OnEntry(idx, total int, key engine.CandidateView) {
	fmt.Fprintf(p.w, "[%d/%d] %s\n", idx, total, key.DisplayName)
}

func (p *progressPrinter) OnWaiting(_ engine.CandidateView, waited time.Duration) {
	if p.tty {
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		p.frame++
		fmt.Fprintf(p.w, "\rWaiting for rate limit to go away (takes an hour after first key insert) %c", frame)
		p.waiting = true
		return
	}
	if waited%time.Minute == 0 {
		fmt.Fprintf(p.w, "Still rate limited after %s, retrying\n", waited)
	}
}

func (p *progressPrinter) OnOutcome(_, _ int, o engine.Outcome) {
	p.endWait()
	fmt.Fprintf(p.w, "  %s\n", o.Message())
	for _, item := range o.LineItems {
		fmt.Fprintf(p.w, "  Redeemed %s\n", item)
	}
}

func (p *progressPrinter) OnDone(engine.Summary) {
	p.endWait()
}

// endWait leaves the spinner line so the next write starts fresh.
func (p *progressPrinter) endWait() {
	if p.waiting {
		fmt.Fprint(p.w, "\n")
		p.waiting = false
	}
}

// isTerminal reports whether v is a character device such as a TTY.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
