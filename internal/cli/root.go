package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bundlekeys/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file, default ./bundlekeys.yaml when present
	EnvFile string // .env file, default ./.env when present
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bundlekeys CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bundlekeys",
		Short: "bundlekeys - redeem bundle store keys",
		Long: `Redeem game store keys bought through bundles.

Keys the account already owns are skipped, every settled key is written to
a ledger so reruns pick up where the last run stopped, and store rate limits
are waited out.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default ./.env if present)")

	// Add subcommands
	cmd.AddCommand(NewRedeemCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args, reports any error on stderr in the
// selected format, and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := GetExitCode(err)
	formatter := &OutputFormatter{Format: "text", Writer: cmd.ErrOrStderr()}
	flags := cmd.PersistentFlags()
	if f := flags.Lookup("format"); f != nil && isValidFormat(f.Value.String()) {
		formatter.Format = f.Value.String()
	}
	formatter.Verbose, _ = flags.GetBool("verbose")
	_ = formatter.Error(ErrorCode(code), err.Error(), map[string]int{"exit_code": code})
	return code
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging installs the process logger: text to w, debug when verbose.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves configuration with flag overrides applied last.
func (o *RootOptions) loadConfig(overrides map[string]any) (config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:      o.Config,
		EnvFile:   o.EnvFile,
		Overrides: overrides,
	})
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cfg.File != "" {
		slog.Debug("config loaded", "file", cfg.File)
	}
	return cfg, nil
}

// flagOverrides maps changed string flags onto config keys.
func flagOverrides(cmd *cobra.Command, flags map[string]string) map[string]any {
	out := make(map[string]any)
	for flag, key := range flags {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			out[key] = f.Value.String()
		}
	}
	return out
}
