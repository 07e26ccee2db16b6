package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/bundlekeys/internal/config"
	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/issuer"
	"github.com/roach88/bundlekeys/internal/journal"
	"github.com/roach88/bundlekeys/internal/ledger"
	"github.com/roach88/bundlekeys/internal/model"
	"github.com/roach88/bundlekeys/internal/review"
	"github.com/roach88/bundlekeys/internal/storefront"
)

// RedeemOptions holds flags for the redeem command.
type RedeemOptions struct {
	*RootOptions
	Reveal          bool
	IncludeRevealed bool
	Yes             bool
	NoReview        bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Sleeper allows replacing the rate-limit wait (for testing).
	Sleeper engine.Sleeper
}

// RunReport is the machine-readable summary of one run.
type RunReport struct {
	RunID          string `json:"run_id"`
	Total          int    `json:"total"`
	LedgerExcluded int    `json:"ledger_excluded"`
	SkippedOwned   int    `json:"skipped_owned"`
	Attempted      int    `json:"attempted"`
	Redeemed       int    `json:"redeemed"`
	AlreadyOwned   int    `json:"already_owned"`
	Errored        int    `json:"errored"`
	Duplicates     int    `json:"duplicates"`
	StoreCalls     int    `json:"store_calls"`
	RevealCalls    int    `json:"reveal_calls"`
	Interrupted    bool   `json:"interrupted"`
}

func reportFor(s engine.Summary) RunReport {
	return RunReport{
		RunID:          s.RunID,
		Total:          s.Plan.Total,
		LedgerExcluded: s.Plan.LedgerExcluded,
		SkippedOwned:   s.Plan.SkipSet - s.Plan.Forced,
		Attempted:      s.Processed,
		Redeemed:       s.Redeemed,
		AlreadyOwned:   s.AlreadyOwned,
		Errored:        s.Errored,
		Duplicates:     s.Duplicates,
		StoreCalls:     s.StoreCalls,
		RevealCalls:    s.RevealCalls,
		Interrupted:    s.Interrupted,
	}
}

// NewRedeemCommand creates the redeem command.
func NewRedeemCommand(rootOpts *RootOptions) *cobra.Command {
	return newRedeemCommand(&RedeemOptions{RootOptions: rootOpts})
}

func newRedeemCommand(opts *RedeemOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Redeem bundle keys on the store",
		Long: `Fetch every store key from the issuer, drop the ones this account
already owns, and redeem the rest.

Revealing a key on the issuer removes the option of sending it as a gift,
so unrevealed keys are only attempted with --reveal. Without flags the
command asks on a terminal.

Entries that look owned are written to the review file; delete a line to
attempt that entry anyway, then press Enter.

Exit codes:
  0   - Run completed
  1   - Run failed (rejected session, ledger write error)
  2   - Command error (bad config, missing credentials)
  130 - Interrupted; rerun to resume

Examples:
  bundlekeys redeem
  bundlekeys redeem --reveal --include-revealed --yes
  bundlekeys redeem --ledger-dir ~/keys --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedeem(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Reveal, "reveal", false, "reveal unrevealed keys on the issuer (forfeits gift links)")
	cmd.Flags().BoolVar(&opts.IncludeRevealed, "include-revealed", false, "with --reveal, also attempt already-revealed keys")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not prompt; use flag values")
	cmd.Flags().BoolVar(&opts.NoReview, "no-review", false, "skip every entry that looks owned without asking")
	cmd.Flags().String("ledger-dir", "", "directory holding the outcome ledger")
	cmd.Flags().String("journal", "", "path to the SQLite attempt journal")
	cmd.Flags().String("review-file", "", "path of the owned-entry review list")

	return cmd
}

func runRedeem(opts *RedeemOptions, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := opts.loadConfig(flagOverrides(cmd, map[string]string{
		"ledger-dir":  config.KeyLedgerDir,
		"journal":     config.KeyJournalPath,
		"review-file": config.KeyReviewPath,
	}))
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return WrapExitError(ExitCommandError, "missing credentials", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := cmd.InOrStdin()
	in := bufio.NewReader(stdin)
	interactive := !opts.Yes && isTerminal(stdin)
	errOut := cmd.ErrOrStderr()

	issuerClient, err := issuer.New(cfg.IssuerClient())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid issuer configuration", err)
	}
	storeClient, err := storefront.New(cfg.StoreClient())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid store configuration", err)
	}

	if err := issuerClient.VerifySession(ctx); err != nil {
		return sessionExitError("issuer", config.KeyIssuerSession, err)
	}
	fmt.Fprintln(errOut, "Signed in on the issuer.")
	if err := storeClient.VerifySession(ctx); err != nil {
		return sessionExitError("store", config.KeyStoreLogin, err)
	}
	fmt.Fprintln(errOut, "Signed in on the store.")

	led, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer func() {
		if closeErr := led.Close(); closeErr != nil {
			slog.Error("error closing ledger", "error", closeErr)
		}
	}()

	keys, err := issuerClient.FetchCandidates(ctx)
	if err != nil {
		return runExitError("failed to fetch keys from the issuer", err)
	}
	printInventory(errOut, led, keys)

	sel := engine.Selection{Reveal: opts.Reveal, IncludeRevealed: opts.IncludeRevealed}
	if interactive {
		prompt := selectionPrompt{
			in:                 in,
			out:                errOut,
			revealSet:          cmd.Flags().Changed("reveal"),
			includeRevealedSet: cmd.Flags().Changed("include-revealed"),
		}
		if sel, err = prompt.resolve(sel); err != nil {
			return WrapExitError(ExitCommandError, "failed to read answer", err)
		}
	}

	fmt.Fprintln(errOut, "Getting your owned content to avoid attempting to register keys already owned...")
	catalog, err := storeClient.Catalog(ctx)
	if err != nil {
		return runExitError("failed to read owned content from the store", err)
	}

	jrnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := jrnl.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()
	lastSeq, err := jrnl.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	var reviewer engine.Reviewer = review.AcceptAll{}
	if interactive && !opts.NoReview {
		reviewer = review.NewFileReviewer(cfg.ReviewPath, in, errOut)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runID := runIDs.Generate()
	if err := jrnl.BeginRun(ctx, runID, sel); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	engineOpts := []engine.Option{
		engine.WithRevealer(issuerClient),
		engine.WithReviewer(reviewer),
		engine.WithRunJournal(jrnl),
		engine.WithObserver(newProgressPrinter(errOut)),
		engine.WithRunIDs(engine.RunID(runID)),
		engine.WithClock(engine.NewClockAt(lastSeq)),
		engine.WithThresholds(cfg.Thresholds()),
		engine.WithSelection(sel),
		engine.WithRetryTiming(cfg.Retry.PollInterval, cfg.Retry.ProgressInterval),
		engine.WithRetryBudget(cfg.Retry.UnknownLimit),
	}
	if opts.Sleeper != nil {
		engineOpts = append(engineOpts, engine.WithEngineSleeper(opts.Sleeper))
	}
	eng := engine.New(led, storeClient, engineOpts...)

	summary, runErr := eng.Run(ctx, keys, catalog)

	// The run context is cancelled on interrupt; the closing row still
	// has to land.
	if err := jrnl.FinishRun(context.WithoutCancel(ctx), summary, runErr); err != nil {
		slog.Warn("failed to record run end", "run", runID, "error", err)
	}

	if err := outputRun(cmd, opts.RootOptions, summary); err != nil {
		return err
	}

	switch {
	case runErr == nil:
		return nil
	case summary.Interrupted:
		return WrapExitError(ExitInterrupted, "interrupted; rerun to resume", runErr)
	default:
		return runExitError("run stopped", runErr)
	}
}

// printInventory reports how many store keys the ledger has not settled
// and how many of them the issuer already revealed.
func printInventory(w interface{ Write([]byte) (int, error) }, led *ledger.Ledger, keys []model.CandidateKey) {
	storeKeys := make([]model.CandidateKey, 0, len(keys))
	for _, k := range keys {
		if k.Redeemable() {
			storeKeys = append(storeKeys, k)
		}
	}
	fresh, _ := led.Filter(storeKeys)
	revealed := 0
	for _, k := range fresh {
		if k.Revealed() {
			revealed++
		}
	}
	fmt.Fprintf(w, "%d store keys total -- %d revealed, %d unrevealed\n", len(fresh), revealed, len(fresh)-revealed)
}

func sessionExitError(side, key string, err error) error {
	if errors.Is(err, engine.ErrSessionInvalid) {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("%s session is not valid; refresh %s (%s)", side, key, config.EnvName(key)), err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("cannot reach the %s", side), err)
}

func runExitError(message string, err error) error {
	if errors.Is(err, context.Canceled) {
		return WrapExitError(ExitInterrupted, "interrupted; rerun to resume", err)
	}
	if engine.IsSessionError(err) || errors.Is(err, engine.ErrSessionInvalid) {
		return WrapExitError(ExitFailure, message+": session no longer valid", err)
	}
	return WrapExitError(ExitFailure, message, err)
}

func outputRun(cmd *cobra.Command, opts *RootOptions, s engine.Summary) error {
	report := reportFor(s)
	if out := newFormatter(cmd, opts); out.JSON() {
		return out.Respond(true, report.RunID, report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s\n", report.RunID)
	fmt.Fprintf(w, "  Attempted:     %d of %d\n", report.Attempted, s.Plan.Submission)
	fmt.Fprintf(w, "  Redeemed:      %d\n", report.Redeemed)
	fmt.Fprintf(w, "  Already owned: %d (%d duplicates in this run)\n", report.AlreadyOwned, report.Duplicates)
	fmt.Fprintf(w, "  Errored:       %d\n", report.Errored)
	fmt.Fprintf(w, "  Skipped owned: %d\n", report.SkippedOwned)
	fmt.Fprintf(w, "  Store calls:   %d\n", report.StoreCalls)
	if report.Interrupted {
		fmt.Fprintln(w, "  Interrupted:   rerun to resume")
	}
	return nil
}
