package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bundlekeys/internal/config"
	"github.com/roach88/bundlekeys/internal/ledger"
	"github.com/roach88/bundlekeys/internal/model"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Class string // optional - list records of one class
}

// LedgerClassView summarises one ledger file.
type LedgerClassView struct {
	Class   string         `json:"class"`
	Path    string         `json:"path"`
	Count   int            `json:"count"`
	Records []LedgerRecord `json:"records,omitempty"`
}

// LedgerRecord is one settled batch.
type LedgerRecord struct {
	BatchID      string `json:"batch_id"`
	DisplayName  string `json:"display_name"`
	RevealedCode string `json:"code,omitempty"`
}

// LedgerResult is the ledger command output.
type LedgerResult struct {
	Dir     string            `json:"dir"`
	Classes []LedgerClassView `json:"classes"`
	Total   int               `json:"total"`
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Summarise the outcome ledger",
		Long: `Summarise the outcome ledger: how many batches each run settled as
redeemed, already owned or errored. Batches in the ledger are never
attempted again; delete a line from errored.csv to retry that batch.

Examples:
  bundlekeys ledger
  bundlekeys ledger --class errored
  bundlekeys ledger --ledger-dir ~/keys --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Class, "class", "", "list records of one class (redeemed|already_owned|errored)")
	cmd.Flags().String("ledger-dir", "", "directory holding the outcome ledger")

	return cmd
}

func runLedger(opts *LedgerOptions, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)

	var only model.OutcomeClass
	if opts.Class != "" {
		c, err := model.ParseOutcomeClass(opts.Class)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --class", err)
		}
		only = c
	}

	cfg, err := opts.loadConfig(flagOverrides(cmd, map[string]string{
		"ledger-dir": config.KeyLedgerDir,
	}))
	if err != nil {
		return err
	}

	// Opening creates the directory.
	if _, err := os.Stat(cfg.LedgerDir); err != nil {
		return WrapExitError(ExitCommandError, "ledger directory not found", err)
	}
	led, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer led.Close()

	result := LedgerResult{Dir: led.Dir()}
	records := led.Records()
	for _, class := range model.AllOutcomeClasses {
		view := LedgerClassView{Class: class.String(), Path: led.Path(class)}
		for _, r := range records {
			if r.Class != class {
				continue
			}
			view.Count++
			if class == only {
				view.Records = append(view.Records, LedgerRecord{
					BatchID:      r.BatchID,
					DisplayName:  r.DisplayName,
					RevealedCode: r.RevealedCode,
				})
			}
		}
		result.Total += view.Count
		result.Classes = append(result.Classes, view)
	}

	out := newFormatter(cmd, opts.RootOptions)
	if out.JSON() {
		return out.Respond(true, "", result)
	}

	w := out.Writer
	fmt.Fprintf(w, "Ledger: %s\n", result.Dir)
	for _, v := range result.Classes {
		fmt.Fprintf(w, "  %-14s %d\n", v.Class+":", v.Count)
	}
	fmt.Fprintf(w, "  %-14s %d\n", "total:", result.Total)
	for _, v := range result.Classes {
		if len(v.Records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n=== %s ===\n", v.Class)
		for _, r := range v.Records {
			fmt.Fprintf(w, "  [%s] %s\n", r.BatchID, r.DisplayName)
		}
	}
	return nil
}
