package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bundlekeys/internal/model"
)

// Scenario is one offline pipeline run with its expected result.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	Selection  SelectionSpec  `yaml:"selection,omitempty"`
	Thresholds *ThresholdSpec `yaml:"thresholds,omitempty"`
	Retry      RetrySpec      `yaml:"retry,omitempty"`

	Catalog    CatalogSpec     `yaml:"catalog"`
	Ledger     []LedgerEntry   `yaml:"ledger,omitempty"`
	Candidates []CandidateSpec `yaml:"candidates"`
	Store      StoreSpec       `yaml:"store,omitempty"`
	Reveal     RevealSpec      `yaml:"reveal,omitempty"`

	// Force lists skip-set display names the operator removes from the
	// review list, which makes them attempted anyway.
	Force []string `yaml:"force,omitempty"`

	// InterruptAfterSleeps cancels the run once the wait loop has slept
	// this many times, like an operator pressing Ctrl-C.
	InterruptAfterSleeps int `yaml:"interrupt_after_sleeps,omitempty"`

	Expect Expect `yaml:"expect"`
}

// SelectionSpec mirrors engine.Selection.
type SelectionSpec struct {
	Reveal          bool `yaml:"reveal"`
	IncludeRevealed bool `yaml:"include_revealed"`
}

// ThresholdSpec overrides the matcher thresholds.
type ThresholdSpec struct {
	FirstPass int `yaml:"first_pass"`
	Accept    int `yaml:"accept"`
}

// RetrySpec overrides wait-loop timing. Zero values keep engine defaults.
type RetrySpec struct {
	PollInterval     string `yaml:"poll_interval,omitempty"`
	ProgressInterval string `yaml:"progress_interval,omitempty"`
	UnknownLimit     int    `yaml:"unknown_limit,omitempty"`
}

// CatalogSpec is the ownership snapshot.
type CatalogSpec struct {
	Owned []string     `yaml:"owned,omitempty"`
	Named []NamedEntry `yaml:"named,omitempty"`
}

// NamedEntry is one owned item with a display name.
type NamedEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LedgerEntry seeds the ledger before the run.
type LedgerEntry struct {
	Batch string `yaml:"batch"`
	Name  string `yaml:"name,omitempty"`
	Code  string `yaml:"code,omitempty"`
	Class string `yaml:"class"`
}

// CandidateSpec is one issuer entry. Kind is "store" (default) or "other".
type CandidateSpec struct {
	Batch   string `yaml:"batch"`
	Name    string `yaml:"name"`
	StoreID string `yaml:"store_id,omitempty"`
	Code    string `yaml:"code,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	TypeTag string `yaml:"type_tag,omitempty"`
	Index   int    `yaml:"index,omitempty"`
}

// StoreSpec scripts the store. Codes without a script succeed.
type StoreSpec struct {
	Scripts map[string][]StoreReply `yaml:"scripts,omitempty"`
}

// StoreReply is one scripted store answer. Error makes it a transport
// failure; otherwise a reply with neither success nor detail carries no
// verdict.
type StoreReply struct {
	Success bool     `yaml:"success,omitempty"`
	Detail  *int     `yaml:"detail,omitempty"`
	Items   []string `yaml:"items,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// RevealSpec scripts the issuer. Batches in neither list are refused.
type RevealSpec struct {
	Codes    map[string]string `yaml:"codes,omitempty"`
	Failures []string          `yaml:"failures,omitempty"`
}

// Expect is checked after the run. Nil fields are not checked.
type Expect struct {
	Outcomes    []ExpectedOutcome `yaml:"outcomes,omitempty"`
	StoreCalls  *int              `yaml:"store_calls,omitempty"`
	RevealCalls *int              `yaml:"reveal_calls,omitempty"`
	Plan        *ExpectedPlan     `yaml:"plan,omitempty"`
	Interrupted bool              `yaml:"interrupted,omitempty"`
	Error       string            `yaml:"error,omitempty"`
}

// ExpectedOutcome is matched against the run's outcomes in order.
type ExpectedOutcome struct {
	Batch          string `yaml:"batch"`
	Name           string `yaml:"name,omitempty"`
	Class          string `yaml:"class"`
	Cause          string `yaml:"cause,omitempty"`
	Classification string `yaml:"classification,omitempty"`
	DuplicateOf    string `yaml:"duplicate_of,omitempty"`
	Attempts       *int   `yaml:"attempts,omitempty"`
}

// ExpectedPlan checks selected Plan counters.
type ExpectedPlan struct {
	LedgerExcluded *int `yaml:"ledger_excluded,omitempty"`
	NotStoreKeys   *int `yaml:"not_store_keys,omitempty"`
	NotSelected    *int `yaml:"not_selected,omitempty"`
	SkipSet        *int `yaml:"skip_set,omitempty"`
	Forced         *int `yaml:"forced,omitempty"`
	Submission     *int `yaml:"submission,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Candidates) == 0 {
		return fmt.Errorf("candidates list is required and must be non-empty")
	}

	for i, c := range s.Candidates {
		if c.Batch == "" {
			return fmt.Errorf("candidates[%d]: batch is required", i)
		}
		if c.Name == "" {
			return fmt.Errorf("candidates[%d]: name is required", i)
		}
		if _, err := parseKind(c.Kind); err != nil {
			return fmt.Errorf("candidates[%d]: %w", i, err)
		}
	}

	for i, e := range s.Ledger {
		if e.Batch == "" {
			return fmt.Errorf("ledger[%d]: batch is required", i)
		}
		if _, err := model.ParseOutcomeClass(e.Class); err != nil {
			return fmt.Errorf("ledger[%d]: %w", i, err)
		}
	}

	for i, e := range s.Catalog.Named {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("catalog.named[%d]: id and name are required", i)
		}
	}

	if s.Thresholds != nil {
		t := s.Thresholds
		if t.FirstPass < 0 || t.FirstPass > 100 || t.Accept < 0 || t.Accept > 100 {
			return fmt.Errorf("thresholds must be within 0..100")
		}
	}

	if _, _, err := s.Retry.timing(); err != nil {
		return err
	}
	if s.InterruptAfterSleeps < 0 {
		return fmt.Errorf("interrupt_after_sleeps must be non-negative")
	}
	if s.Retry.UnknownLimit < 0 {
		return fmt.Errorf("retry.unknown_limit must be non-negative")
	}

	for code, replies := range s.Store.Scripts {
		if len(replies) == 0 {
			return fmt.Errorf("store.scripts[%s]: at least one reply is required", code)
		}
		for i, r := range replies {
			if r.Error != "" && (r.Success || r.Detail != nil) {
				return fmt.Errorf("store.scripts[%s][%d]: error excludes success and detail", code, i)
			}
		}
	}

	for i, o := range s.Expect.Outcomes {
		if o.Batch == "" {
			return fmt.Errorf("expect.outcomes[%d]: batch is required", i)
		}
		if _, err := model.ParseOutcomeClass(o.Class); err != nil {
			return fmt.Errorf("expect.outcomes[%d]: %w", i, err)
		}
	}

	return nil
}

func parseKind(s string) (model.KeyKind, error) {
	switch s {
	case "", string(model.KindStoreKey):
		return model.KindStoreKey, nil
	case string(model.KindOther):
		return model.KindOther, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}
