package model

import (
	"strings"
	"unicode/utf8"
)

const (
	codeLength   = 17
	codeGroups   = 3
	codeGroupLen = 5
)

// ShapeValid reports whether code looks like a redeemable store code:
// three hyphen-separated five-character groups, 17 characters in all.
// Gift links and other issuer artifacts fail this check.
func ShapeValid(code string) bool {
	if utf8.RuneCountInString(code) != codeLength {
		return false
	}
	parts := strings.Split(code, "-")
	if len(parts) != codeGroups {
		return false
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) != codeGroupLen {
			return false
		}
	}
	return true
}

// ShapeValidValue is ShapeValid for loosely typed issuer payloads.
// Anything that is not a string is not a code.
func ShapeValidValue(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return ShapeValid(s)
}
