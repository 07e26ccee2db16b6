package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess(t *testing.T) {
	assert.Equal(t, "great game  deluxe edition", Process("Great Game: Deluxe Edition!"))
	assert.Equal(t, "pokemon", Process("Pokémon"))
	assert.Equal(t, "half_life 2", Process("Half_Life 2"))
	assert.Equal(t, "", Process("© ®"))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("abcd", "abcd"))
	assert.Equal(t, 0, Ratio("", "abcd"))
	assert.Equal(t, 0, Ratio("abcd", ""))
	assert.Equal(t, 57, Ratio("game great", "deluxe edition game great"))
}

func TestTokenSetRatio_SubtitleTolerant(t *testing.T) {
	assert.Equal(t, 100, TokenSetRatio("Great Game", "Great Game: Deluxe Edition"))
	assert.Equal(t, 100, TokenSetRatio("Game Great", "great game"))
	assert.Equal(t, 0, TokenSetRatio("", "Great Game"))
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100, TokenSortRatio("Great Game", "game GREAT"))
	assert.Equal(t, 57, TokenSortRatio("Great Game", "Great Game: Deluxe Edition"))
}

func TestTokenRatios_Disagree(t *testing.T) {
	long := "Game of the Year Collection Ultimate Bundle Remastered"

	assert.Equal(t, 100, TokenSetRatio("Game", long), "set measure over-matches")
	assert.Less(t, TokenSortRatio("Game", long), DefaultAccept, "sorted measure rejects")
}
