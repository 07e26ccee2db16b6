// Package ledger implements the outcome ledger: the durable, cross-run memory
// of which bundle entries have already reached a terminal result.
//
// The ledger is three flat files in one directory, one per outcome class
// (redeemed.csv, already_owned.csv, errored.csv). Each line is
//
//	batchId,displayName,revealedCode
//
// Files are only ever appended to. Every append is synced before Append
// returns, so a run killed at any point leaves a ledger that a rerun can
// trust. Missing or unreadable files load as empty.
//
// A batch id present in any file excludes every candidate of that batch from
// later runs. Re-attempting an entry means deleting its line by hand.
package ledger
