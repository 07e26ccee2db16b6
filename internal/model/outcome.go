package model

import "fmt"

// OutcomeClass is the ledger bucket for a terminal result.
type OutcomeClass int

const (
	OutcomeRedeemed OutcomeClass = iota + 1
	OutcomeAlreadyOwned
	OutcomeErrored
)

// AllOutcomeClasses lists every class in ledger-file order.
var AllOutcomeClasses = []OutcomeClass{OutcomeErrored, OutcomeAlreadyOwned, OutcomeRedeemed}

func (c OutcomeClass) String() string {
	switch c {
	case OutcomeRedeemed:
		return "redeemed"
	case OutcomeAlreadyOwned:
		return "already_owned"
	case OutcomeErrored:
		return "errored"
	default:
		return fmt.Sprintf("outcome(%d)", int(c))
	}
}

// FileName is the ledger file that holds records of this class.
func (c OutcomeClass) FileName() string {
	return c.String() + ".csv"
}

// ParseOutcomeClass is the inverse of String.
func ParseOutcomeClass(s string) (OutcomeClass, error) {
	for _, c := range AllOutcomeClasses {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome class %q", s)
}
