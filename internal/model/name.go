package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a display name into the form used for identity
// comparisons: NFKC, case-folded, inner whitespace collapsed, trimmed.
func NormalizeName(name string) string {
	folded := cases.Fold().String(norm.NFKC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}

// LedgerName makes a display name safe for the comma-separated ledger.
func LedgerName(name string) string {
	return strings.ReplaceAll(name, ",", ".")
}
