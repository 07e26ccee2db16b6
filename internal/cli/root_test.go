package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bundlekeys", cmd.Use)
	assert.Contains(t, cmd.Long, "ledger")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"redeem", "history", "simulate", "ledger"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestRedeemCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	redeemCmd, _, err := cmd.Find([]string{"redeem"})
	require.NoError(t, err)

	for _, name := range []string{"reveal", "include-revealed", "no-review", "ledger-dir", "journal", "review-file"} {
		require.NotNil(t, redeemCmd.Flags().Lookup(name), "flag %s", name)
	}

	yesFlag := redeemCmd.Flags().Lookup("yes")
	require.NotNil(t, yesFlag)
	assert.Equal(t, "y", yesFlag.Shorthand)
	assert.Equal(t, "false", yesFlag.DefValue)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "10", limitFlag.DefValue)

	require.NotNil(t, historyCmd.Flags().Lookup("run"))
	require.NotNil(t, historyCmd.Flags().Lookup("batch"))
	require.NotNil(t, historyCmd.Flags().Lookup("journal"))
}

func TestSimulateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	simCmd, _, err := cmd.Find([]string{"simulate"})
	require.NoError(t, err)

	updateFlag := simCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := simCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "ledger"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFlagOverrides(t *testing.T) {
	cmd := NewRootCommand()
	redeemCmd, _, err := cmd.Find([]string{"redeem"})
	require.NoError(t, err)
	require.NoError(t, redeemCmd.Flags().Set("ledger-dir", "/tmp/keys"))

	got := flagOverrides(redeemCmd, map[string]string{
		"ledger-dir": "ledger_dir",
		"journal":    "journal_path",
	})
	assert.Equal(t, map[string]any{"ledger_dir": "/tmp/keys"}, got)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "E_RUN", ErrorCode(ExitFailure))
	assert.Equal(t, "E_COMMAND", ErrorCode(ExitCommandError))
	assert.Equal(t, "E_INTERRUPTED", ErrorCode(ExitInterrupted))
}
