// Package engine implements the key redemption pipeline.
//
// A run takes the full list of bundle entries and walks it through:
//
//  1. Ledger filter: entries whose batch already has a terminal record are
//     dropped before anything else happens.
//  2. Selection: only store-platform keys, and only the revealed/unrevealed
//     subset the operator asked for.
//  3. Ownership match: entries that look owned go to a skip set the operator
//     reviews; whatever the operator removes from it is attempted anyway.
//  4. Duplicate suppression: a second entry for the same store id or
//     normalized name is recorded AlreadyOwned without touching the store.
//  5. Reveal: latent entries are turned into codes, at most once each.
//  6. Redemption: the code is shape-checked, submitted, classified, and
//     retried through the rate-limit wait loop until a terminal verdict.
//  7. Exactly one ledger record per entry that reached a terminal state.
//
// ARCHITECTURE:
//
// Processing is strictly sequential in the calling goroutine. The store's
// failure budget is per account, duplicate suppression depends on order, and
// the wait loop blocks. Nothing here needs a lock.
//
// Cancellation is via the context. An entry interrupted mid-wait is not
// recorded, so rerunning with the same ledger resumes it.
//
// CRITICAL PATTERNS:
//
// Idempotence: the ledger is consulted before selection and appended after
// every terminal outcome. A second run over the same batch makes no store
// calls.
//
// Never waste an attempt: malformed codes, failed reveals and duplicates are
// settled locally and never reach the store.
package engine
