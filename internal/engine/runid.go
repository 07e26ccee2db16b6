package engine

import "github.com/google/uuid"

// RunIDGenerator mints the identifier stamped on every journal row of a run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator mints time-ordered UUIDv7 ids, so run ids sort by start
// time in the journal.
type UUIDv7Generator struct{}

// Generate panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RunID is a generator that always yields itself. Callers that record the
// run before building the engine pass the id they already minted.
type RunID string

func (id RunID) Generate() string { return string(id) }
