package engine

import "github.com/roach88/bundlekeys/internal/model"

// DuplicateSuppressor stops one run from submitting the same game twice.
//
// Bundle tiers often carry the same base game (standard and deluxe entries
// sharing one key). Every entry, in processing order, claims its store id and
// its normalized display name. An entry that finds either already claimed is
// a duplicate and is settled as AlreadyOwned locally; submitting it would only
// spend the store's failure budget.
//
// Claims are only meaningful within one ordered walk. The suppressor is not
// safe for concurrent use.
type DuplicateSuppressor struct {
	claimed map[string]string // claim key -> batch id of first claimant
}

// NewDuplicateSuppressor creates an empty suppressor.
func NewDuplicateSuppressor() *DuplicateSuppressor {
	return &DuplicateSuppressor{claimed: make(map[string]string)}
}

// Claim registers key and reports whether it duplicates an earlier entry.
// When it does, by is the batch id of the entry that first claimed it.
// Both claims are recorded either way.
func (d *DuplicateSuppressor) Claim(key model.CandidateKey) (duplicate bool, by string) {
	claims := claimKeys(key)
	for _, c := range claims {
		if first, ok := d.claimed[c]; ok && !duplicate {
			duplicate, by = true, first
		}
	}
	for _, c := range claims {
		if _, ok := d.claimed[c]; !ok {
			d.claimed[c] = key.BatchID
		}
	}
	return duplicate, by
}

// Size returns the number of distinct claims.
func (d *DuplicateSuppressor) Size() int {
	return len(d.claimed)
}

func claimKeys(key model.CandidateKey) []string {
	var out []string
	if key.StoreID != "" {
		out = append(out, "id:"+key.StoreID)
	}
	if name := model.NormalizeName(key.DisplayName); name != "" {
		out = append(out, "name:"+name)
	}
	return out
}
