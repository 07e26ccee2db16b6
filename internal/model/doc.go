// Package model defines the values that flow through the redemption pipeline.
//
// A CatalogEntry is one item the store account already owns. A CandidateKey is
// one bundle-issued entitlement that may be redeemed into that account. A
// LedgerRecord is the durable, terminal result of trying to redeem one
// candidate, and OutcomeClass selects which ledger file it lands in.
//
// Store responses are classified into the closed Classification set. The
// integer result-detail table in classify.go is fixed by the store and must
// not drift.
package model
