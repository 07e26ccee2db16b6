package engine

import "github.com/roach88/bundlekeys/internal/model"

// Selection chooses which store keys a run attempts.
//
// Revealing a latent entry removes the option of sending it as a gift, so it
// is opt-in:
//   - Reveal=false: only entries the issuer already revealed.
//   - Reveal=true: only unrevealed entries, plus revealed ones when
//     IncludeRevealed is set.
type Selection struct {
	Reveal          bool
	IncludeRevealed bool
}

// Select keeps store keys matching s. Order is preserved.
func (s Selection) Select(keys []model.CandidateKey) (selected []model.CandidateKey, notStore, notSelected int) {
	for _, k := range keys {
		if !k.Redeemable() {
			notStore++
			continue
		}
		if !s.wants(k) {
			notSelected++
			continue
		}
		selected = append(selected, k)
	}
	return selected, notStore, notSelected
}

func (s Selection) wants(k model.CandidateKey) bool {
	if !s.Reveal {
		return k.Revealed()
	}
	return !k.Revealed() || s.IncludeRevealed
}
