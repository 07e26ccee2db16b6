package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bundlekeys/internal/config"
	"github.com/roach88/bundlekeys/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	RunID   string
	BatchID string
	Limit   int
}

// RunView is one run as shown by history.
type RunView struct {
	ID              string `json:"id"`
	StartedAt       string `json:"started_at"`
	FinishedAt      string `json:"finished_at,omitempty"`
	Reveal          bool   `json:"reveal"`
	IncludeRevealed bool   `json:"include_revealed"`
	Total           int    `json:"total"`
	Submission      int    `json:"submission"`
	Redeemed        int    `json:"redeemed"`
	AlreadyOwned    int    `json:"already_owned"`
	Errored         int    `json:"errored"`
	StoreCalls      int    `json:"store_calls"`
	Interrupted     bool   `json:"interrupted"`
	Error           string `json:"error,omitempty"`
}

// AttemptView is one store submission.
type AttemptView struct {
	Seq            int64  `json:"seq"`
	BatchID        string `json:"batch_id"`
	DisplayName    string `json:"display_name"`
	Number         int    `json:"number"`
	Classification string `json:"classification"`
	Detail         *int   `json:"detail,omitempty"`
	Error          string `json:"error,omitempty"`
}

// OutcomeView is one terminal result.
type OutcomeView struct {
	RunID          string   `json:"run_id"`
	Seq            int64    `json:"seq"`
	BatchID        string   `json:"batch_id"`
	DisplayName    string   `json:"display_name"`
	Class          string   `json:"class"`
	Cause          string   `json:"cause"`
	Classification string   `json:"classification,omitempty"`
	Attempts       int      `json:"attempts"`
	DuplicateOf    string   `json:"duplicate_of,omitempty"`
	LineItems      []string `json:"line_items,omitempty"`
}

// RunDetail is a run with its journal rows.
type RunDetail struct {
	Run      RunView       `json:"run"`
	Attempts []AttemptView `json:"attempts"`
	Outcomes []OutcomeView `json:"outcomes"`
}

// BatchHistory is every recorded result for one batch.
type BatchHistory struct {
	BatchID  string        `json:"batch_id"`
	Outcomes []OutcomeView `json:"outcomes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs from the attempt journal",
		Long: `Show past runs recorded in the attempt journal.

Without flags the most recent runs are listed, newest first. With --run the
store submissions and outcomes of that run are shown in order. With --batch
every result recorded for that purchase across runs is shown.

Examples:
  bundlekeys history
  bundlekeys history --limit 3
  bundlekeys history --run 0190c4e2-7b1a-7c3e-9f00-1a2b3c4d5e6f
  bundlekeys history --batch AbCdEf123 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run in detail")
	cmd.Flags().StringVar(&opts.BatchID, "batch", "", "show every result for one batch")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "number of runs to list (0 for all)")
	cmd.Flags().String("journal", "", "path to the SQLite attempt journal")
	cmd.MarkFlagsMutuallyExclusive("run", "batch")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)
	ctx := context.Background()

	cfg, err := opts.loadConfig(flagOverrides(cmd, map[string]string{
		"journal": config.KeyJournalPath,
	}))
	if err != nil {
		return err
	}

	// Opening would create an empty journal.
	if _, err := os.Stat(cfg.JournalPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	jrnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jrnl.Close()

	switch {
	case opts.RunID != "":
		return showRun(ctx, cmd, opts, jrnl)
	case opts.BatchID != "":
		return showBatch(ctx, cmd, opts, jrnl)
	default:
		return listRuns(ctx, cmd, opts, jrnl)
	}
}

func listRuns(ctx context.Context, cmd *cobra.Command, opts *HistoryOptions, jrnl *journal.Journal) error {
	runs, err := jrnl.Runs(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}
	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		views = append(views, runView(r))
	}

	if opts.Format == "json" {
		return newFormatter(cmd, opts.RootOptions).Respond(true, "", views)
	}

	w := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for _, r := range views {
		fmt.Fprintf(w, "%s  %s  %s\n", r.ID, r.StartedAt, runStatus(r))
		fmt.Fprintf(w, "  attempted %d of %d: redeemed=%d already_owned=%d errored=%d store_calls=%d\n",
			r.Redeemed+r.AlreadyOwned+r.Errored, r.Submission, r.Redeemed, r.AlreadyOwned, r.Errored, r.StoreCalls)
	}
	return nil
}

func showRun(ctx context.Context, cmd *cobra.Command, opts *HistoryOptions, jrnl *journal.Journal) error {
	run, err := jrnl.Run(ctx, opts.RunID)
	if errors.Is(err, journal.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	attempts, err := jrnl.Attempts(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read attempts", err)
	}
	outcomes, err := jrnl.Outcomes(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}

	detail := RunDetail{
		Run:      runView(run),
		Attempts: make([]AttemptView, 0, len(attempts)),
		Outcomes: outcomeViews(outcomes),
	}
	for _, a := range attempts {
		detail.Attempts = append(detail.Attempts, AttemptView{
			Seq:            a.Seq,
			BatchID:        a.BatchID,
			DisplayName:    a.DisplayName,
			Number:         a.Number,
			Classification: a.Classification,
			Detail:         a.Detail,
			Error:          a.Error,
		})
	}

	if opts.Format == "json" {
		return newFormatter(cmd, opts.RootOptions).Respond(true, "", detail)
	}

	w := cmd.OutOrStdout()
	r := detail.Run
	fmt.Fprintf(w, "Run: %s\n", r.ID)
	fmt.Fprintf(w, "Started: %s\n", r.StartedAt)
	fmt.Fprintf(w, "Status: %s\n", runStatus(r))
	fmt.Fprintf(w, "Selection: reveal=%t include_revealed=%t\n", r.Reveal, r.IncludeRevealed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Attempts ===")
	if len(detail.Attempts) == 0 {
		fmt.Fprintln(w, "  (no store submissions)")
	}
	for _, a := range detail.Attempts {
		fmt.Fprintf(w, "  [%d] %s #%d %s", a.Seq, a.DisplayName, a.Number, a.Classification)
		if a.Detail != nil {
			fmt.Fprintf(w, " (detail %d)", *a.Detail)
		}
		if a.Error != "" {
			fmt.Fprintf(w, " error: %s", a.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Outcomes ===")
	writeOutcomes(w, detail.Outcomes, opts.Verbose)
	return nil
}

func showBatch(ctx context.Context, cmd *cobra.Command, opts *HistoryOptions, jrnl *journal.Journal) error {
	outcomes, err := jrnl.BatchOutcomes(ctx, opts.BatchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}
	hist := BatchHistory{BatchID: opts.BatchID, Outcomes: outcomeViews(outcomes)}

	if opts.Format == "json" {
		return newFormatter(cmd, opts.RootOptions).Respond(true, "", hist)
	}

	w := cmd.OutOrStdout()
	if len(hist.Outcomes) == 0 {
		fmt.Fprintf(w, "No results recorded for batch: %s\n", opts.BatchID)
		return nil
	}
	fmt.Fprintf(w, "Batch: %s\n", hist.BatchID)
	writeOutcomes(w, hist.Outcomes, true)
	return nil
}

func writeOutcomes(w interface{ Write([]byte) (int, error) }, outcomes []OutcomeView, showRun bool) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "  (no outcomes)")
		return
	}
	for _, o := range outcomes {
		fmt.Fprintf(w, "  [%d] %s: %s (%s)", o.Seq, o.DisplayName, o.Class, o.Cause)
		if o.DuplicateOf != "" {
			fmt.Fprintf(w, " duplicate of %s", o.DuplicateOf)
		}
		if showRun {
			fmt.Fprintf(w, " run %s", truncateID(o.RunID))
		}
		fmt.Fprintln(w)
		for _, item := range o.LineItems {
			fmt.Fprintf(w, "       Redeemed %s\n", item)
		}
	}
}

func runView(r journal.RunRecord) RunView {
	return RunView{
		ID:              r.ID,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Reveal:          r.Reveal,
		IncludeRevealed: r.IncludeRevealed,
		Total:           r.Total,
		Submission:      r.Submission,
		Redeemed:        r.Redeemed,
		AlreadyOwned:    r.AlreadyOwned,
		Errored:         r.Errored,
		StoreCalls:      r.StoreCalls,
		Interrupted:     r.Interrupted,
		Error:           r.Error,
	}
}

func outcomeViews(outcomes []journal.OutcomeRecord) []OutcomeView {
	views := make([]OutcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, OutcomeView{
			RunID:          o.RunID,
			Seq:            o.Seq,
			BatchID:        o.BatchID,
			DisplayName:    o.DisplayName,
			Class:          o.Class,
			Cause:          o.Cause,
			Classification: o.Classification,
			Attempts:       o.Attempts,
			DuplicateOf:    o.DuplicateOf,
			LineItems:      o.LineItems,
		})
	}
	return views
}

// runStatus returns a human-readable run status.
func runStatus(r RunView) string {
	switch {
	case r.FinishedAt == "":
		return "Incomplete (no end recorded)"
	case r.Interrupted:
		return "Interrupted"
	case r.Error != "":
		return "Failed: " + r.Error
	default:
		return "Complete"
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
