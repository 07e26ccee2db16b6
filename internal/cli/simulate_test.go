package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const singleKeyScenario = `name: single_key
description: One revealed key that the store accepts
run_id: single-key
catalog:
  owned: []
candidates:
  - batch: "1"
    name: Fresh Title
    code: AAAAA-BBBBB-CCCCC
expect:
  store_calls: %d
`

// writeScenario lays out <dir>/scenarios/single_key.yaml and returns dir.
func writeScenario(t *testing.T, storeCalls int) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenarios"), 0755))
	body := []byte(fmt.Sprintf(singleKeyScenario, storeCalls))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenarios", "single_key.yaml"), body, 0644))
	return dir
}

func executeSimulate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSimulateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSimulateRequiresPath(t *testing.T) {
	_, err := executeSimulate(t, "text")
	require.Error(t, err)
}

func TestSimulateMissingPath(t *testing.T) {
	_, err := executeSimulate(t, "text", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestSimulateHarnessScenarios(t *testing.T) {
	out, err := executeSimulate(t, "text", harnessScenarios)
	require.NoError(t, err, out)
	for _, name := range []string{"great_game_deluxe", "mixed_run", "interrupted", "forced_review"} {
		assert.Contains(t, out, "✓ "+name+"\n")
	}
	assert.Contains(t, out, "4 passed, 0 failed, 4 total")
}

func TestSimulateFilter(t *testing.T) {
	out, err := executeSimulate(t, "json", harnessScenarios, "--filter", "great*")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   SimulateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "great_game_deluxe", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestSimulateNoScenarios(t *testing.T) {
	out, err := executeSimulate(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestSimulateWithoutGolden(t *testing.T) {
	dir := writeScenario(t, 1)

	out, err := executeSimulate(t, "text", filepath.Join(dir, "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ single_key\n")
}

func TestSimulateFailingExpectation(t *testing.T) {
	dir := writeScenario(t, 2)

	out, err := executeSimulate(t, "text", filepath.Join(dir, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ single_key\n")
	assert.Contains(t, out, "store_calls: got 1, want 2")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestSimulateUpdateThenCompare(t *testing.T) {
	dir := writeScenario(t, 1)
	scenarios := filepath.Join(dir, "scenarios")

	out, err := executeSimulate(t, "text", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ single_key (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "single_key.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), "scenario: single_key\nrun: single-key\n")
	assert.Contains(t, string(golden), "result: PASS\n")

	_, err = executeSimulate(t, "text", scenarios)
	require.NoError(t, err)

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "single_key.golden"), []byte("stale\n"), 0644))
	out, err = executeSimulate(t, "text", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "report does not match golden file")
}

func TestSimulateLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\nbogus: 1\n"), 0644))

	out, err := executeSimulate(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestReportDiff(t *testing.T) {
	diff := reportDiff("want.golden", []byte("a\nb\n"), []byte("a\nc\n"))
	assert.Contains(t, diff, "--- want.golden")
	assert.Contains(t, diff, "+++ current")
	assert.Contains(t, diff, "-b\n")
	assert.Contains(t, diff, "+c\n")
}
