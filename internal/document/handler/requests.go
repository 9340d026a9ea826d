package handler

import (
	"fmt"
	"unicode/utf8"

	idmodels "idverify/internal/identity/models"
	"idverify/internal/verification"
	dErrors "idverify/pkg/domain-errors"
)

// VerifyDataRequest is the body of POST /verify-id-data. Values must be
// strings or null; any other JSON type is rejected while decoding.
type VerifyDataRequest struct {
	FormData map[string]*string `json:"formData"`
	OCRData  map[string]*string `json:"ocrData"`

	claimed   idmodels.Record
	extracted idmodels.Record
}

// Validate implements the httputil.DecodeAndPrepare contract.
func (r *VerifyDataRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.FormData) == 0 || len(r.OCRData) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "missing form data or OCR data")
	}
	if err := checkFieldLengths(r.FormData); err != nil {
		return err
	}
	if err := checkFieldLengths(r.OCRData); err != nil {
		return err
	}
	r.claimed = verification.RecordFromClaim(r.FormData)
	r.extracted = verification.RecordFromExtraction(r.OCRData)
	return nil
}

func (r *VerifyDataRequest) Claimed() idmodels.Record {
	return r.claimed
}

func (r *VerifyDataRequest) Extracted() idmodels.Record {
	return r.extracted
}

// Multipart fields of POST /verify-document.
const (
	fieldIDCard = "id_card"
	fieldSelfie = "selfie"
	fieldImage  = "image"
	fieldType   = "type"
)

// maxFieldRunes bounds each compared value. Similarity scoring is quadratic
// in value length.
const maxFieldRunes = 256

func checkFieldLengths(values map[string]*string) error {
	for key, v := range values {
		if v != nil && utf8.RuneCountInString(*v) > maxFieldRunes {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds %d characters", key, maxFieldRunes))
		}
	}
	return nil
}

// claimFromForm reads the claimed identity from multipart form values using
// the same keys as the JSON form data.
func claimFromForm(get func(key string) string) (idmodels.Record, error) {
	values := make(map[string]*string)
	for _, f := range idmodels.OrderedFields() {
		key := verification.ClaimKey(f)
		if v := get(key); v != "" {
			values[key] = &v
		}
	}
	if err := checkFieldLengths(values); err != nil {
		return idmodels.Record{}, err
	}
	return verification.RecordFromClaim(values), nil
}
