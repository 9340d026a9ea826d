package handler

import (
	"time"

	"idverify/internal/document/models"
	idmodels "idverify/internal/identity/models"
	"idverify/internal/verification"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func ok(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// ProcessImageResponse is the data of POST /process-image.
type ProcessImageResponse struct {
	Text         string             `json:"text"`
	FilteredText string             `json:"filtered_text"`
	Extracted    map[string]*string `json:"extracted"`
	Confidence   []float64          `json:"confidence"`
}

func FromProcessResult(res *models.ProcessResult) *ProcessImageResponse {
	confidence := res.Confidence
	if confidence == nil {
		confidence = []float64{}
	}
	return &ProcessImageResponse{
		Text:         res.Text,
		FilteredText: res.FilteredText,
		Extracted:    verification.ExtractionValues(res.Extracted),
		Confidence:   confidence,
	}
}

// FieldComparisonResponse reports one compared field.
type FieldComparisonResponse struct {
	Field      string  `json:"field"`
	OCRValue   string  `json:"ocr_value"`
	FormValue  string  `json:"form_value"`
	Similarity float64 `json:"similarity"`
}

// VerificationResponse is the data of POST /verify-id-data.
type VerificationResponse struct {
	Matches      []FieldComparisonResponse `json:"matches"`
	Mismatches   []FieldComparisonResponse `json:"mismatches"`
	Confidence   float64                   `json:"confidence"`
	OverallMatch bool                      `json:"overall_match"`
}

func FromVerification(res idmodels.Result) *VerificationResponse {
	return &VerificationResponse{
		Matches:      fromComparisons(res.Matches),
		Mismatches:   fromComparisons(res.Mismatches),
		Confidence:   res.Confidence,
		OverallMatch: res.OverallMatch,
	}
}

func fromComparisons(cs []idmodels.FieldComparison) []FieldComparisonResponse {
	out := make([]FieldComparisonResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, FieldComparisonResponse{
			Field:      c.Field.String(),
			OCRValue:   c.ExtractedValue,
			FormValue:  c.ClaimedValue,
			Similarity: c.Similarity,
		})
	}
	return out
}

// VerifyDocumentResponse is the data of POST /verify-document.
type VerifyDocumentResponse struct {
	RequestID    string                `json:"request_id"`
	Extracted    map[string]*string    `json:"extracted"`
	Verification *VerificationResponse `json:"verification"`
	ExpiresAt    time.Time             `json:"expires_at"`
}

func FromVerifyDocumentResult(res *models.VerifyDocumentResult) *VerifyDocumentResponse {
	return &VerifyDocumentResponse{
		RequestID:    res.RequestID,
		Extracted:    verification.ExtractionValues(res.Extracted),
		Verification: FromVerification(res.Verification),
		ExpiresAt:    res.ExpiresAt,
	}
}

// VerificationRecordResponse is the data of GET /verifications/{requestID}.
// It exposes the outcome and image hashes only, never the claimed values.
type VerificationRecordResponse struct {
	RequestID        string    `json:"request_id"`
	Confidence       float64   `json:"confidence"`
	OverallMatch     bool      `json:"overall_match"`
	MatchedFields    []string  `json:"matched_fields"`
	MismatchedFields []string  `json:"mismatched_fields"`
	IDCardHash       string    `json:"id_card_hash"`
	SelfieHash       string    `json:"selfie_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func FromRecord(r *models.VerificationRecord) *VerificationRecordResponse {
	matched, mismatched := r.Result.MatchedFields, r.Result.MismatchedFields
	if matched == nil {
		matched = []string{}
	}
	if mismatched == nil {
		mismatched = []string{}
	}
	return &VerificationRecordResponse{
		RequestID:        r.RequestID,
		Confidence:       r.Result.Confidence,
		OverallMatch:     r.Result.OverallMatch,
		MatchedFields:    matched,
		MismatchedFields: mismatched,
		IDCardHash:       r.IDCardHash,
		SelfieHash:       r.SelfieHash,
		CreatedAt:        r.CreatedAt,
		ExpiresAt:        r.ExpiresAt,
	}
}
