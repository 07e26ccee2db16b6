package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestClassifyDetail_Table(t *testing.T) {
	tests := []struct {
		detail *int
		want   Classification
	}{
		{intPtr(9), ClassAlreadyOwned},
		{intPtr(13), ClassRegionLocked},
		{intPtr(14), ClassInvalid},
		{intPtr(15), ClassDuplicateActivation},
		{intPtr(24), ClassRequiresBaseProduct},
		{intPtr(36), ClassRequiresPriorPlatformActivation},
		{intPtr(50), ClassWalletCodeNotRedeemable},
		{intPtr(53), ClassRateLimited},
		{intPtr(2), ClassUnknownTransientError},
		{intPtr(0), ClassUnknownTransientError},
		{nil, ClassUnknownTransientError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyDetail(tt.detail), "detail %v", tt.detail)
	}
}

func TestClassification_Outcome(t *testing.T) {
	assert.Equal(t, OutcomeRedeemed, ClassSuccess.Outcome())
	assert.Equal(t, OutcomeAlreadyOwned, ClassAlreadyOwned.Outcome())
	assert.Equal(t, OutcomeAlreadyOwned, ClassDuplicateActivation.Outcome())

	for _, c := range []Classification{
		ClassInvalid, ClassRegionLocked, ClassRequiresBaseProduct,
		ClassRequiresPriorPlatformActivation, ClassWalletCodeNotRedeemable,
		ClassUnknownTransientError,
	} {
		assert.Equal(t, OutcomeErrored, c.Outcome(), c.String())
	}
}

func TestClassification_Terminal(t *testing.T) {
	assert.False(t, ClassRateLimited.Terminal())
	assert.False(t, ClassNone.Terminal())
	assert.True(t, ClassUnknownTransientError.Terminal())
	assert.True(t, ClassSuccess.Terminal())
	assert.True(t, ClassInvalid.Terminal())
	assert.True(t, ClassAlreadyOwned.Terminal())
}

func TestOutcomeClass_FileNames(t *testing.T) {
	assert.Equal(t, "redeemed.csv", OutcomeRedeemed.FileName())
	assert.Equal(t, "already_owned.csv", OutcomeAlreadyOwned.FileName())
	assert.Equal(t, "errored.csv", OutcomeErrored.FileName())

	c, err := ParseOutcomeClass("already_owned")
	assert.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyOwned, c)

	_, err = ParseOutcomeClass("lost")
	assert.Error(t, err)
}
