// Package models holds the document verification records and the result
// types returned by the document service.
package models

import (
	"time"

	idmodels "idverify/internal/identity/models"
)

// ResultSummary is the persisted outcome of a verification. It names fields
// but never carries their values.
type ResultSummary struct {
	Confidence       float64  `json:"confidence"`
	OverallMatch     bool     `json:"overall_match"`
	MatchedFields    []string `json:"matched_fields"`
	MismatchedFields []string `json:"mismatched_fields"`
}

// NewSummary reduces a verification result to its persisted form.
func NewSummary(res idmodels.Result) ResultSummary {
	return ResultSummary{
		Confidence:       res.Confidence,
		OverallMatch:     res.OverallMatch,
		MatchedFields:    fieldStrings(res.MatchedFields()),
		MismatchedFields: fieldStrings(res.MismatchedFields()),
	}
}

func fieldStrings(fields []idmodels.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.String())
	}
	return out
}

// Decision is the audit label for an outcome.
func (s ResultSummary) Decision() string {
	if s.OverallMatch {
		return "match"
	}
	return "no_match"
}

// VerificationRecord is one stored document verification. Identity fields
// hold the claimed values in plaintext here; stores seal them at rest.
type VerificationRecord struct {
	RequestID   string
	Subject     string
	FirstName   string
	LastName    string
	IDNumber    string
	Nationality string
	SelfieHash  string
	IDCardHash  string
	Result      ResultSummary
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsExpired reports whether the record is past its retention window at now.
func (r *VerificationRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Claim returns the claimed identity kept in the record.
func (r *VerificationRecord) Claim() idmodels.Record {
	return idmodels.Record{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		IDNumber:    r.IDNumber,
		Nationality: r.Nationality,
	}
}

// ProcessResult is the output of running OCR and extraction on one image.
type ProcessResult struct {
	Text         string
	FilteredText string
	Extracted    idmodels.Record
	Confidence   []float64
	Engine       string
}

// VerifyDocumentRequest carries the uploaded images and the claimed identity.
type VerifyDocumentRequest struct {
	IDCard []byte
	Selfie []byte
	Claim  idmodels.Record
}

// VerifyDocumentResult is returned to the caller of a document verification.
type VerifyDocumentResult struct {
	RequestID    string
	Extracted    idmodels.Record
	Verification idmodels.Result
	ExpiresAt    time.Time
}
