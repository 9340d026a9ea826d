// Package verification compares an identity record claimed by a user with
// the record extracted from their ID card and produces a confidence-scored
// accept/reject decision.
package verification

import (
	"idverify/internal/identity/models"
	"idverify/pkg/similarity"
)

// DefaultAcceptThreshold is the minimum share of matching fields for an
// overall match.
const DefaultAcceptThreshold = 0.6

// Verifier is stateless and safe for concurrent use.
type Verifier struct {
	acceptThreshold float64
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithAcceptThreshold overrides DefaultAcceptThreshold. Values outside (0, 1]
// are ignored.
func WithAcceptThreshold(threshold float64) Option {
	return func(v *Verifier) {
		if threshold > 0 && threshold <= 1 {
			v.acceptThreshold = threshold
		}
	}
}

// New builds a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{acceptThreshold: DefaultAcceptThreshold}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify compares every field in order. Fields absent on both sides are left
// out of the result and of the confidence denominator; a field present on
// one side only is a mismatch with similarity 0.
func (v *Verifier) Verify(claimed, extracted models.Record) models.Result {
	res := models.Result{
		Matches:    []models.FieldComparison{},
		Mismatches: []models.FieldComparison{},
	}

	for _, f := range models.OrderedFields() {
		e, c := extracted.Get(f), claimed.Get(f)
		if e == "" && c == "" {
			continue
		}

		cmp := models.FieldComparison{Field: f, ExtractedValue: e, ClaimedValue: c}
		switch {
		case e == "":
			cmp.ExtractedValue = models.NotFoundInDocument
		case c == "":
			cmp.ClaimedValue = models.NotProvidedInClaim
		default:
			score, matched := comparatorFor(f)(e, c)
			cmp.Similarity = similarity.Round(score)
			cmp.Matched = matched
		}

		if cmp.Matched {
			res.Matches = append(res.Matches, cmp)
		} else {
			res.Mismatches = append(res.Mismatches, cmp)
		}
	}

	if compared := res.ComparedFields(); compared > 0 {
		res.Confidence = float64(len(res.Matches)) / float64(compared)
	}
	res.OverallMatch = res.Confidence >= v.acceptThreshold
	return res
}
