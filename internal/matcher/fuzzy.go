package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// Process prepares a string for scoring: accents are decomposed and
// non-ASCII dropped, every non-word rune becomes a space, the result is
// lower-cased and trimmed.
func Process(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Ratio is the SequenceMatcher similarity of two strings on a 0..100 scale.
// Either side empty scores 0.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return scale(m.Ratio())
}

// TokenSortRatio compares the processed strings after sorting their tokens.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(Process(a)), sortedTokens(Process(b)))
}

// TokenSetRatio compares the shared token set against each side's
// remainder and keeps the best of the three pairings.
func TokenSetRatio(a, b string) int {
	return tokenSetRatio(newTokenSet(Process(a)), newTokenSet(Process(b)))
}

type tokenSet struct {
	processed string
	tokens    map[string]struct{}
}

func newTokenSet(processed string) tokenSet {
	fields := strings.Fields(processed)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokenSet{processed: processed, tokens: tokens}
}

func tokenSetRatio(a, b tokenSet) int {
	if a.processed == "" || b.processed == "" {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range a.tokens {
		if _, ok := b.tokens[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range b.tokens {
		if _, ok := a.tokens[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(sect, combinedA)
	if r := Ratio(sect, combinedB); r > best {
		best = r
	}
	if r := Ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

func sortedTokens(processed string) string {
	fields := strings.Fields(processed)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// scale rounds half to even, matching the reference implementation.
func scale(ratio float64) int {
	return int(math.RoundToEven(100 * ratio))
}
