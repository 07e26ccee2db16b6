package harness

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/bundlekeys/internal/model"
)

// RenderReport renders a run as plain text. The output depends only on the
// scenario and the result, so it is stable across machines and runs.
func RenderReport(s *Scenario, r *Result) []byte {
	var b bytes.Buffer
	sum := r.Summary
	p := sum.Plan

	fmt.Fprintf(&b, "scenario: %s\n", s.Name)
	fmt.Fprintf(&b, "run: %s\n", sum.RunID)
	fmt.Fprintf(&b, "plan: total=%d not_store=%d ledger_excluded=%d revealed=%d unrevealed=%d not_selected=%d skip_set=%d forced=%d submission=%d\n",
		p.Total, p.NotStoreKeys, p.LedgerExcluded, p.Revealed, p.Unrevealed, p.NotSelected, p.SkipSet, p.Forced, p.Submission)

	b.WriteString("outcomes:\n")
	for i, o := range sum.Outcomes {
		fmt.Fprintf(&b, "  %d. [%s] %s: %s cause=%s", i+1, o.Key.BatchID, o.Key.DisplayName, o.Class, o.Cause)
		if o.Classification != model.ClassNone {
			fmt.Fprintf(&b, " class=%s", o.Classification)
		}
		if o.Attempts > 0 {
			fmt.Fprintf(&b, " attempts=%d", o.Attempts)
		}
		if o.DuplicateOf != "" {
			fmt.Fprintf(&b, " duplicate_of=%s", o.DuplicateOf)
		}
		b.WriteString("\n")
		for _, item := range o.LineItems {
			fmt.Fprintf(&b, "     Redeemed %s\n", item)
		}
	}

	b.WriteString("attempts:\n")
	for _, a := range r.Attempts {
		fmt.Fprintf(&b, "  seq=%d [%s] #%d %s", a.Seq, a.BatchID, a.Number, a.Classification)
		if a.Detail != nil {
			fmt.Fprintf(&b, " detail=%s", strconv.Itoa(*a.Detail))
		}
		if a.Error != "" {
			fmt.Fprintf(&b, " error=%q", a.Error)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "summary: processed=%d redeemed=%d already_owned=%d errored=%d duplicates=%d store_calls=%d reveal_calls=%d\n",
		sum.Processed, sum.Redeemed, sum.AlreadyOwned, sum.Errored, sum.Duplicates, sum.StoreCalls, sum.RevealCalls)
	fmt.Fprintf(&b, "waited: %s in %d sleeps\n", r.Waited, r.Sleeps)
	fmt.Fprintf(&b, "interrupted: %t\n", sum.Interrupted)
	if r.RunErr != nil {
		fmt.Fprintf(&b, "error: %v\n", r.RunErr)
	}

	b.WriteString("ledger:\n")
	for _, class := range model.AllOutcomeClasses {
		for _, rec := range r.Ledger {
			if rec.Class != class {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s,%s,%s\n", class, rec.BatchID, model.LedgerName(rec.DisplayName), rec.RevealedCode)
		}
	}

	if r.Pass {
		b.WriteString("result: PASS\n")
	} else {
		b.WriteString("result: FAIL\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", strings.TrimSpace(e))
		}
	}
	return b.Bytes()
}
