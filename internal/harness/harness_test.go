package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bundlekeys/internal/model"
	"github.com/roach88/bundlekeys/internal/testutil"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)
		t.Run(scenario.Name, func(t *testing.T) {
			result := RunWithGolden(t, scenario)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_ReportsExpectationMismatches(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectations
description: expectations that do not hold
catalog: {}
candidates:
  - batch: "1"
    name: Only Game
    code: AAAAA-AAAAA-AAAAA
expect:
  store_calls: 2
  outcomes:
    - batch: "1"
      class: errored
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "outcomes[0].class: got redeemed, want errored")
	assert.Contains(t, result.Errors, "store_calls: got 1, want 2")

	report := string(RenderReport(scenario, result))
	assert.Contains(t, report, "result: FAIL\n")
	assert.Contains(t, report, "  - store_calls: got 1, want 2\n")
}

func TestRun_UnexpectedRunErrorFails(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: unexpected_interrupt
description: interruption that the expect block does not mention
interrupt_after_sleeps: 1
catalog: {}
candidates:
  - batch: "1"
    name: Only Game
    code: AAAAA-AAAAA-AAAAA
store:
  scripts:
    AAAAA-AAAAA-AAAAA:
      - detail: 53
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	require.Error(t, result.RunErr)
	assert.ErrorIs(t, result.RunErr, context.Canceled)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "interrupted: got true, want false")
	assert.Empty(t, result.Ledger)
}

func TestRun_ForwardsProgressToObserver(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mixed_run.yaml")
	require.NoError(t, err)

	obs := &testutil.RecordingObserver{}
	result, err := Run(context.Background(), scenario, WithObserver(obs))
	require.NoError(t, err)
	require.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	assert.Equal(t, "scenario-mixed", obs.RunID)
	assert.Len(t, obs.Entries, 6)
	assert.Len(t, obs.Outcomes, 6)
	assert.Len(t, obs.Waits, 18)
	require.NotNil(t, obs.Done)
	assert.Equal(t, 2, obs.Done.Redeemed)
}

func TestRun_LedgerSeedsAreKept(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/great_game_deluxe.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	require.Len(t, result.Ledger, 2)
	assert.Equal(t, model.LedgerRecord{
		BatchID:      "7",
		DisplayName:  "Old Game",
		RevealedCode: "OLDXX-OLDXX-OLDXX",
		Class:        model.OutcomeAlreadyOwned,
	}, result.Ledger[0])
	assert.NotContains(t, result.StoreCalls, "OLDXX-OLDXX-OLDXX")
}
