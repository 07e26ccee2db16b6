package model

import "fmt"

// Classification is the store's verdict on one submission.
type Classification int

const (
	ClassNone Classification = iota
	ClassSuccess
	ClassAlreadyOwned
	ClassInvalid
	ClassRegionLocked
	ClassDuplicateActivation
	ClassRequiresBaseProduct
	ClassRequiresPriorPlatformActivation
	ClassWalletCodeNotRedeemable
	ClassRateLimited
	ClassUnknownTransientError
)

// Store result-detail codes.
const (
	DetailAlreadyOwned                    = 9
	DetailRegionLocked                    = 13
	DetailInvalid                         = 14
	DetailDuplicateActivation             = 15
	DetailRequiresBaseProduct             = 24
	DetailRequiresPriorPlatformActivation = 36
	DetailWalletCodeNotRedeemable         = 50
	DetailRateLimited                     = 53
)

var detailTable = map[int]Classification{
	DetailAlreadyOwned:                    ClassAlreadyOwned,
	DetailRegionLocked:                    ClassRegionLocked,
	DetailInvalid:                         ClassInvalid,
	DetailDuplicateActivation:             ClassDuplicateActivation,
	DetailRequiresBaseProduct:             ClassRequiresBaseProduct,
	DetailRequiresPriorPlatformActivation: ClassRequiresPriorPlatformActivation,
	DetailWalletCodeNotRedeemable:         ClassWalletCodeNotRedeemable,
	DetailRateLimited:                     ClassRateLimited,
}

// ClassifyDetail maps a non-success result detail to a Classification.
// A nil detail and any unlisted value are ClassUnknownTransientError.
func ClassifyDetail(detail *int) Classification {
	if detail == nil {
		return ClassUnknownTransientError
	}
	if c, ok := detailTable[*detail]; ok {
		return c
	}
	return ClassUnknownTransientError
}

// Terminal reports whether the verdict settles the entry. Only RateLimited
// asks for another submission; a response with no detail at all is handled
// by the caller.
func (c Classification) Terminal() bool {
	return c != ClassRateLimited && c != ClassNone
}

// Outcome maps a terminal classification to its ledger class.
func (c Classification) Outcome() OutcomeClass {
	switch c {
	case ClassSuccess:
		return OutcomeRedeemed
	case ClassAlreadyOwned, ClassDuplicateActivation:
		return OutcomeAlreadyOwned
	default:
		return OutcomeErrored
	}
}

func (c Classification) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassSuccess:
		return "success"
	case ClassAlreadyOwned:
		return "already_owned"
	case ClassInvalid:
		return "invalid"
	case ClassRegionLocked:
		return "region_locked"
	case ClassDuplicateActivation:
		return "duplicate_activation"
	case ClassRequiresBaseProduct:
		return "requires_base_product"
	case ClassRequiresPriorPlatformActivation:
		return "requires_prior_platform_activation"
	case ClassWalletCodeNotRedeemable:
		return "wallet_code"
	case ClassRateLimited:
		return "rate_limited"
	case ClassUnknownTransientError:
		return "unknown"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Message is the operator-facing explanation for a classification.
func (c Classification) Message() string {
	switch c {
	case ClassSuccess:
		return "Product code activated."
	case ClassAlreadyOwned:
		return "This account already owns the product(s) in this code."
	case ClassInvalid:
		return "The product code is not valid. Check for look-alike characters (I/L/1, V/Y, 0/O)."
	case ClassRegionLocked:
		return "The product is not available in this account's country. The code was not redeemed."
	case ClassDuplicateActivation:
		return "The code has already been activated by a different account and cannot be used again."
	case ClassRequiresBaseProduct:
		return "The code requires ownership of another product first. Activate the base game, then this content."
	case ClassRequiresPriorPlatformActivation:
		return "The code requires the game to be played and linked on its original console platform first."
	case ClassWalletCodeNotRedeemable:
		return "The code is a gift card or wallet code and must be redeemed on the wallet page."
	case ClassRateLimited:
		return "Too many recent activation attempts from this account or address. Waiting before retrying."
	case ClassUnknownTransientError:
		return "An unexpected error occurred and the code was not redeemed."
	default:
		return ""
	}
}
