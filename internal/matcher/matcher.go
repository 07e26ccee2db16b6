package matcher

import "github.com/roach88/bundlekeys/internal/model"

// Default thresholds. They are tuning values, not derived constants.
const (
	DefaultFirstPass = 70
	DefaultAccept    = 35
)

// ExactConfidence is reported for identifier matches.
const ExactConfidence = 100

// Thresholds configures the two scoring passes.
type Thresholds struct {
	// FirstPass is the exclusive lower bound on the token-set score.
	FirstPass int
	// Accept is the inclusive lower bound on the sorted-token score.
	Accept int
}

// DefaultThresholds returns the standard 70/35 pair.
func DefaultThresholds() Thresholds {
	return Thresholds{FirstPass: DefaultFirstPass, Accept: DefaultAccept}
}

// Result describes how a candidate matched the catalog.
type Result struct {
	// Confidence is 100 for an exact match, otherwise the second-pass score
	// of the accepted entry. Zero when unmatched.
	Confidence int
	// SetScore is the first-pass score of the accepted entry.
	SetScore    int
	MatchedID   string
	MatchedName string
	Exact       bool
}

// Matched reports whether the candidate is considered owned.
func (r Result) Matched() bool {
	return r.MatchedID != ""
}

type entry struct {
	model.CatalogEntry
	set    tokenSet
	sorted string
}

// Matcher scores candidates against one catalog snapshot. Catalog names are
// processed once at construction.
type Matcher struct {
	catalog    model.Catalog
	entries    []entry
	thresholds Thresholds
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThresholds overrides the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(m *Matcher) {
		m.thresholds = t
	}
}

// New creates a Matcher for catalog.
func New(catalog model.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog:    catalog,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(m)
	}

	named := catalog.Entries()
	m.entries = make([]entry, 0, len(named))
	for _, e := range named {
		p := Process(e.DisplayName)
		m.entries = append(m.entries, entry{
			CatalogEntry: e,
			set:          newTokenSet(p),
			sorted:       sortedTokens(p),
		})
	}
	return m
}

// Thresholds returns the active thresholds.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Match decides whether candidate is already owned. It has no side effects.
func (m *Matcher) Match(candidate model.CandidateKey) Result {
	if m.catalog.Owns(candidate.StoreID) {
		return Result{
			Confidence: ExactConfidence,
			SetScore:   ExactConfidence,
			MatchedID:  candidate.StoreID,
			Exact:      true,
		}
	}

	processed := Process(candidate.DisplayName)
	if processed == "" {
		return Result{}
	}
	set := newTokenSet(processed)
	sorted := sortedTokens(processed)

	var best Result
	found := false
	for _, e := range m.entries {
		setScore := tokenSetRatio(set, e.set)
		if setScore <= m.thresholds.FirstPass {
			continue
		}
		score := Ratio(sorted, e.sorted)
		if !found || score > best.Confidence {
			found = true
			best = Result{
				Confidence:  score,
				SetScore:    setScore,
				MatchedID:   e.ID,
				MatchedName: e.DisplayName,
			}
		}
	}

	if !found || best.Confidence < m.thresholds.Accept {
		return Result{}
	}
	return best
}

// Match is a one-shot convenience around New(catalog).Match(candidate).
func Match(catalog model.Catalog, candidate model.CandidateKey, t Thresholds) Result {
	return New(catalog, WithThresholds(t)).Match(candidate)
}

// Matched pairs a candidate with the catalog entry it matched.
type Matched struct {
	Key    model.CandidateKey
	Result Result
}

// Partition splits keys into the skip set (accepted matches) and the
// unmatched remainder. Input order is preserved on both sides.
func (m *Matcher) Partition(keys []model.CandidateKey) (skip []Matched, unmatched []model.CandidateKey) {
	for _, k := range keys {
		r := m.Match(k)
		if r.Matched() {
			skip = append(skip, Matched{Key: k, Result: r})
			continue
		}
		unmatched = append(unmatched, k)
	}
	return skip, unmatched
}
