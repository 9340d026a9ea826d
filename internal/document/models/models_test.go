package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	idmodels "idverify/internal/identity/models"
)

func TestNewSummary(t *testing.T) {
	res := idmodels.Result{
		Matches: []idmodels.FieldComparison{
			{Field: idmodels.FieldFirstName, ExtractedValue: "DARRYL", ClaimedValue: "Darryl", Matched: true},
		},
		Mismatches: []idmodels.FieldComparison{
			{Field: idmodels.FieldSex, ExtractedValue: "Male", ClaimedValue: idmodels.NotProvidedInClaim},
		},
		Confidence:   0.5,
		OverallMatch: false,
	}

	s := NewSummary(res)

	assert.Equal(t, []string{"firstName"}, s.MatchedFields)
	assert.Equal(t, []string{"sex"}, s.MismatchedFields)
	assert.Equal(t, 0.5, s.Confidence)
	assert.Equal(t, "no_match", s.Decision())
}

func TestNewSummary_EmptyResult(t *testing.T) {
	s := NewSummary(idmodels.Result{})

	assert.NotNil(t, s.MatchedFields)
	assert.NotNil(t, s.MismatchedFields)
}

func TestVerificationRecord_IsExpired(t *testing.T) {
	now := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
	r := &VerificationRecord{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, r.IsExpired(now))
	assert.True(t, r.IsExpired(now.Add(time.Minute)))
	assert.True(t, r.IsExpired(now.Add(time.Hour)))
}
