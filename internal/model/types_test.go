package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Owns(t *testing.T) {
	c := NewCatalog([]string{"10", "20"}, []CatalogEntry{{ID: "42", DisplayName: "Great Game"}, {ID: "", DisplayName: "x"}})

	assert.True(t, c.Owns("10"))
	assert.True(t, c.Owns("42"), "named entries are owned")
	assert.False(t, c.Owns(""))
	assert.False(t, c.Owns("99"))
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, 3, c.Size())
}

func TestCandidateKey_WithCodeDoesNotAlias(t *testing.T) {
	k := CandidateKey{BatchID: "b1", DisplayName: "Game", Kind: KindStoreKey}
	revealed := k.WithCode("ABCDE-FGHIJ-KLMNO")

	assert.False(t, k.Revealed())
	assert.True(t, revealed.Revealed())
	assert.True(t, revealed.Redeemable())
	assert.False(t, CandidateKey{Kind: KindOther}.Redeemable())
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "great game", NormalizeName("  Great   GAME "))
	assert.Equal(t, NormalizeName("Straße"), NormalizeName("STRASSE"))
	assert.Equal(t, NormalizeName("ｆｕｌｌ width"), NormalizeName("Full Width"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestLedgerName(t *testing.T) {
	assert.Equal(t, "Game. The Sequel", LedgerName("Game, The Sequel"))
}
