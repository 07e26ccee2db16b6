// Package matcher decides whether a candidate key is already owned.
//
// Matching runs in up to three steps:
//
//  1. Exact: the candidate's store identifier is in the catalog snapshot.
//  2. First pass: an order-insensitive token-set score against every named
//     catalog entry. Entries scoring above FirstPass survive.
//  3. Second pass: survivors are re-scored with the stricter sorted-token
//     measure and the best one is accepted if it reaches Accept.
//
// The set measure tolerates subtitles and reordering but over-matches; the
// sorted measure prunes that. Accept is deliberately lower than FirstPass:
// a false "owned" goes to operator review, a missed one burns a rate-limited
// redemption attempt.
//
// Scores follow the conventional 0..100 fuzzy-ratio scale built on
// SequenceMatcher, so results line up with the common token_set_ratio and
// token_sort_ratio definitions.
package matcher
