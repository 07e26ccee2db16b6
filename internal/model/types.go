package model

// KeyKind identifies the platform a bundle entry is issued for.
// Only KindStoreKey entries are ever submitted to the store.
type KeyKind string

const (
	KindStoreKey KeyKind = "store"
	KindOther    KeyKind = "other"
)

// CatalogEntry is one owned store item with a display name.
type CatalogEntry struct {
	ID          string
	DisplayName string
}

// Catalog is the read-once ownership snapshot for a run.
//
// Owned holds every identifier the account owns (apps and packages). Named
// holds the subset that has a known display name, used for fuzzy matching.
type Catalog struct {
	owned map[string]struct{}
	named []CatalogEntry
}

// NewCatalog builds a snapshot. Named entries are implicitly owned.
func NewCatalog(ownedIDs []string, named []CatalogEntry) Catalog {
	owned := make(map[string]struct{}, len(ownedIDs)+len(named))
	for _, id := range ownedIDs {
		if id != "" {
			owned[id] = struct{}{}
		}
	}
	entries := make([]CatalogEntry, 0, len(named))
	for _, e := range named {
		if e.ID == "" {
			continue
		}
		owned[e.ID] = struct{}{}
		entries = append(entries, e)
	}
	return Catalog{owned: owned, named: entries}
}

// Owns reports whether id is in the snapshot.
func (c Catalog) Owns(id string) bool {
	if id == "" {
		return false
	}
	_, ok := c.owned[id]
	return ok
}

// Entries returns the named entries in snapshot order.
func (c Catalog) Entries() []CatalogEntry {
	return c.named
}

// Size returns the number of owned identifiers.
func (c Catalog) Size() int {
	return len(c.owned)
}

// CandidateKey is one bundle-issued entitlement.
//
// BatchID groups entries of one purchase and is stable across runs.
// StoreID and RevealedCode are empty when absent. TypeTag and Index address
// the entry in the issuer's reveal call.
type CandidateKey struct {
	BatchID      string
	DisplayName  string
	StoreID      string
	RevealedCode string
	Kind         KeyKind
	TypeTag      string
	Index        int
}

// Redeemable reports whether the entry may be submitted to the store.
func (k CandidateKey) Redeemable() bool {
	return k.Kind == KindStoreKey
}

// Revealed reports whether the issuer already exposed a code.
func (k CandidateKey) Revealed() bool {
	return k.RevealedCode != ""
}

// WithCode returns a copy of k annotated with a revealed code.
// The receiver is left untouched.
func (k CandidateKey) WithCode(code string) CandidateKey {
	k.RevealedCode = code
	return k
}

// LedgerRecord is the durable result for one candidate.
type LedgerRecord struct {
	BatchID      string
	DisplayName  string
	RevealedCode string
	Class        OutcomeClass
}

// RecordFor builds the ledger record for a key in a terminal class.
func RecordFor(k CandidateKey, class OutcomeClass) LedgerRecord {
	return LedgerRecord{
		BatchID:      k.BatchID,
		DisplayName:  k.DisplayName,
		RevealedCode: k.RevealedCode,
		Class:        class,
	}
}
