package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bundlekeys/internal/model"
)

func greatGameCatalog() model.Catalog {
	return model.NewCatalog(nil, []model.CatalogEntry{{ID: "42", DisplayName: "Great Game"}})
}

func TestMatch_ExactIdentifier(t *testing.T) {
	m := New(greatGameCatalog())

	r := m.Match(model.CandidateKey{StoreID: "42", DisplayName: "Something Else Entirely"})

	assert.True(t, r.Matched())
	assert.True(t, r.Exact)
	assert.Equal(t, ExactConfidence, r.Confidence)
	assert.Equal(t, "42", r.MatchedID)
}

func TestMatch_OwnedPackageIdentifier(t *testing.T) {
	m := New(model.NewCatalog([]string{"pkg-7"}, nil))

	r := m.Match(model.CandidateKey{StoreID: "pkg-7", DisplayName: "Pack"})
	assert.True(t, r.Matched())
	assert.True(t, r.Exact)
}

func TestMatch_SubtitleVariantAccepted(t *testing.T) {
	m := New(greatGameCatalog())

	r := m.Match(model.CandidateKey{DisplayName: "Great Game: Deluxe Edition"})

	require.True(t, r.Matched())
	assert.False(t, r.Exact)
	assert.GreaterOrEqual(t, r.SetScore, 70)
	assert.Equal(t, 57, r.Confidence)
	assert.Equal(t, "42", r.MatchedID)
	assert.Equal(t, "Great Game", r.MatchedName)
}

func TestMatch_StoreIDAbsentFromCatalogFallsBackToName(t *testing.T) {
	m := New(greatGameCatalog())

	r := m.Match(model.CandidateKey{StoreID: "777", DisplayName: "Great Game"})
	require.True(t, r.Matched())
	assert.False(t, r.Exact)
	assert.Equal(t, 100, r.Confidence)
}

func TestMatch_NeverAcceptsBelowAcceptThreshold(t *testing.T) {
	m := New(model.NewCatalog(nil, []model.CatalogEntry{{ID: "1", DisplayName: "Game"}}))

	r := m.Match(model.CandidateKey{DisplayName: "Game of the Year Collection Ultimate Bundle Remastered"})

	assert.False(t, r.Matched(), "first-pass 100 must not bypass the second pass")
	assert.Zero(t, r.Confidence)
}

func TestMatch_CustomThresholds(t *testing.T) {
	m := New(greatGameCatalog(), WithThresholds(Thresholds{FirstPass: 70, Accept: 60}))

	r := m.Match(model.CandidateKey{DisplayName: "Great Game: Deluxe Edition"})
	assert.False(t, r.Matched())
	assert.Equal(t, 60, m.Thresholds().Accept)
}

func TestMatch_Unrelated(t *testing.T) {
	m := New(greatGameCatalog())

	assert.False(t, m.Match(model.CandidateKey{DisplayName: "Completely Different"}).Matched())
	assert.False(t, m.Match(model.CandidateKey{DisplayName: ""}).Matched())
}

func TestMatch_PicksHighestSecondPass(t *testing.T) {
	catalog := model.NewCatalog(nil, []model.CatalogEntry{
		{ID: "1", DisplayName: "Great Game"},
		{ID: "2", DisplayName: "Great Game Deluxe Edition"},
	})

	r := Match(catalog, model.CandidateKey{DisplayName: "Great Game: Deluxe Edition"}, DefaultThresholds())
	require.True(t, r.Matched())
	assert.Equal(t, "2", r.MatchedID)
	assert.Equal(t, 100, r.Confidence)
}

func TestPartition_PreservesOrder(t *testing.T) {
	m := New(greatGameCatalog())
	keys := []model.CandidateKey{
		{BatchID: "a", DisplayName: "Other Thing"},
		{BatchID: "b", DisplayName: "Great Game"},
		{BatchID: "c", DisplayName: "Third One"},
		{BatchID: "d", StoreID: "42", DisplayName: "Renamed"},
	}

	skip, unmatched := m.Partition(keys)

	require.Len(t, skip, 2)
	assert.Equal(t, "b", skip[0].Key.BatchID)
	assert.Equal(t, "d", skip[1].Key.BatchID)
	require.Len(t, unmatched, 2)
	assert.Equal(t, "a", unmatched[0].BatchID)
	assert.Equal(t, "c", unmatched[1].BatchID)
}
