package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir holds one rendered report per scenario, named <scenario>.golden.
const GoldenDir = "testdata/golden"

// RunWithGolden runs scenario offline and reports every failed expectation
// as a test error before checking the rendered report against GoldenDir.
// Regenerate reports with: go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, e)
	}

	goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, scenario.Name, RenderReport(scenario, result))
	return result
}
