// Package journal provides SQLite-backed audit storage for redemption runs.
//
// The ledger CSV files decide what is skipped on the next run; the journal
// only explains what happened. It is append-only with:
//   - Runs: one row per pipeline run, closed with the run summary
//   - Attempts: every store submission, including rate-limited ones
//   - Outcomes: the terminal result of every recorded entry
//
// # Critical Patterns
//
// Logical ordering:
//   - Attempts and outcomes carry seq from the engine clock, NEVER timestamps
//   - All reads use ORDER BY seq ASC
//   - A new run resumes the clock from LastSeq so seq stays unique across runs
//
// Idempotent writes:
//   - UNIQUE(seq) on attempts and outcomes with ON CONFLICT DO NOTHING
//   - Runs are upserted, so rows referencing a run can arrive first
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
