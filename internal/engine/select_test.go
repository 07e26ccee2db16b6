package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bundlekeys/internal/model"
)

func selectionKeys() []model.CandidateKey {
	return []model.CandidateKey{
		{BatchID: "r", RevealedCode: "AAAAA-AAAAA-AAAAA", Kind: model.KindStoreKey},
		{BatchID: "u", Kind: model.KindStoreKey},
		{BatchID: "o", Kind: model.KindOther},
	}
}

func batches(keys []model.CandidateKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.BatchID)
	}
	return out
}

func TestSelection_Select(t *testing.T) {
	tests := []struct {
		name        string
		sel         Selection
		want        []string
		notSelected int
	}{
		{"revealed only by default", Selection{}, []string{"r"}, 1},
		{"reveal takes unrevealed", Selection{Reveal: true}, []string{"u"}, 1},
		{"reveal and include revealed", Selection{Reveal: true, IncludeRevealed: true}, []string{"r", "u"}, 0},
		{"include revealed alone is a no-op", Selection{IncludeRevealed: true}, []string{"r"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notStore, notSelected := tt.sel.Select(selectionKeys())
			assert.Equal(t, tt.want, batches(got))
			assert.Equal(t, 1, notStore)
			assert.Equal(t, tt.notSelected, notSelected)
		})
	}
}
