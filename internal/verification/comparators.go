package verification

import (
	"strings"

	"idverify/internal/identity/models"
	pstrings "idverify/pkg/platform/strings"
	"idverify/pkg/similarity"
)

// comparator scores two present values of one field and decides the match
// on the unrounded similarity.
type comparator func(extracted, claimed string) (score float64, matched bool)

const (
	nameThreshold        = 0.6
	idDigitThreshold     = 0.8
	nationalityThreshold = 0.6
	sexThreshold         = 0.5
)

func comparatorFor(f models.Field) comparator {
	switch f {
	case models.FieldFirstName, models.FieldLastName:
		return compareNames
	case models.FieldIDNumber:
		return compareIDNumbers
	case models.FieldNationality:
		return compareNationalities
	case models.FieldSex:
		return compareSex
	default:
		return compareNames
	}
}

// compareNames matches on containment or edit similarity; the reported
// score is always the edit similarity.
func compareNames(extracted, claimed string) (float64, bool) {
	a, b := pstrings.NormalizeLower(extracted), pstrings.NormalizeLower(claimed)
	score := similarity.EditRatio(a, b)
	return score, similarity.Overlaps(a, b) || score > nameThreshold
}

// compareIDNumbers tolerates one or two misread digits.
func compareIDNumbers(extracted, claimed string) (float64, bool) {
	a, b := normalizeIDNumber(extracted), normalizeIDNumber(claimed)
	a, b = reconcileCountryPrefix(a, b)
	if a == b {
		return 1.0, true
	}
	score := similarity.DigitRatio(a, b)
	return score, score > idDigitThreshold
}

func normalizeIDNumber(s string) string {
	return strings.ToUpper(similarity.StripSeparators(s))
}

// reconcileCountryPrefix rewrites a bare GH prefix to GHA when the other side
// uses GHA.
func reconcileCountryPrefix(a, b string) (string, string) {
	bareGH := func(s string) bool {
		return strings.HasPrefix(s, "GH") && !strings.HasPrefix(s, "GHA")
	}
	switch {
	case strings.HasPrefix(a, "GHA") && bareGH(b):
		b = "GHA" + b[2:]
	case strings.HasPrefix(b, "GHA") && bareGH(a):
		a = "GHA" + a[2:]
	}
	return a, b
}

func compareNationalities(extracted, claimed string) (float64, bool) {
	score := nationalityScore(pstrings.NormalizeLower(extracted), pstrings.NormalizeLower(claimed))
	return score, score > nationalityThreshold
}

func nationalityScore(a, b string) float64 {
	if similarity.Overlaps(a, b) {
		return 1.0
	}
	a, b = demonym(a), demonym(b)
	if a == b {
		return 1.0
	}
	return similarity.EditRatio(a, b)
}

func demonym(s string) string {
	if d, ok := countryNationality[s]; ok {
		return d
	}
	return s
}

// compareSex is exact-match only: there is no partial credit.
func compareSex(extracted, claimed string) (float64, bool) {
	e, eok := models.ParseSex(extracted)
	c, cok := models.ParseSex(claimed)
	score := 0.0
	if eok && cok && e == c {
		score = 1.0
	}
	return score, score > sexThreshold
}
