// Package similarity scores string closeness in [0, 1].
package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// levenshtein uses unit costs and compares case-sensitively; callers
// normalize case before scoring. The metric is read-only after construction.
var levenshtein = metrics.NewLevenshtein()

// EditDistance returns the Levenshtein distance between a and b.
func EditDistance(a, b string) int {
	return levenshtein.Distance(a, b)
}

// EditRatio converts the edit distance to 1 - distance/max(len(a), len(b)).
// Two empty strings score 1.0; one empty string scores 0.0.
func EditRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return strutil.Similarity(a, b, levenshtein)
}

// Digits returns the decimal digits of s in order.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// DigitRatio counts the positions at which the digit sequences of a and b
// agree, up to the shorter sequence, divided by the longer length.
// It is 0 when neither side has digits.
func DigitRatio(a, b string) float64 {
	da, db := Digits(a), Digits(b)
	longest := max(len(da), len(db))
	if longest == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < min(len(da), len(db)); i++ {
		if da[i] == db[i] {
			matches++
		}
	}
	return float64(matches) / float64(longest)
}

// Overlaps reports whether either string contains the other.
func Overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Round rounds v to two decimal places for reporting.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// StripSeparators removes whitespace and dashes.
func StripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
