package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bundlekeys/internal/model"
)

func TestDuplicateSuppressor_ClaimsByIDAndName(t *testing.T) {
	d := NewDuplicateSuppressor()

	dup, _ := d.Claim(model.CandidateKey{BatchID: "A", StoreID: "1", DisplayName: "Alpha"})
	assert.False(t, dup)

	dup, _ = d.Claim(model.CandidateKey{BatchID: "B", DisplayName: "X"})
	assert.False(t, dup)

	dup, by := d.Claim(model.CandidateKey{BatchID: "C", StoreID: "1", DisplayName: "Gamma"})
	assert.True(t, dup)
	assert.Equal(t, "A", by)

	dup, by = d.Claim(model.CandidateKey{BatchID: "D", DisplayName: "  x "})
	assert.True(t, dup)
	assert.Equal(t, "B", by)
}

func TestDuplicateSuppressor_DuplicateStillClaims(t *testing.T) {
	d := NewDuplicateSuppressor()

	d.Claim(model.CandidateKey{BatchID: "A", StoreID: "1", DisplayName: "Alpha"})
	// Matches A by id but brings a new name with it.
	dup, _ := d.Claim(model.CandidateKey{BatchID: "B", StoreID: "1", DisplayName: "Alpha Deluxe"})
	assert.True(t, dup)

	dup, by := d.Claim(model.CandidateKey{BatchID: "C", DisplayName: "alpha deluxe"})
	assert.True(t, dup)
	assert.Equal(t, "B", by)
	assert.Equal(t, 3, d.Size())
}

func TestDuplicateSuppressor_EmptyKeyNeverDuplicates(t *testing.T) {
	d := NewDuplicateSuppressor()

	dup, _ := d.Claim(model.CandidateKey{BatchID: "A"})
	assert.False(t, dup)
	dup, _ = d.Claim(model.CandidateKey{BatchID: "B"})
	assert.False(t, dup)
	assert.Zero(t, d.Size())
}
