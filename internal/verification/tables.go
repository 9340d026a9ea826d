package verification

import "idverify/internal/identity/models"

// countryNationality maps a country name to its demonym so that "Ghana" on
// one side matches "Ghanaian" on the other.
var countryNationality = map[string]string{
	"ghana":   "ghanaian",
	"nigeria": "nigerian",
	"kenya":   "kenyan",
	"america": "american",
	"usa":     "american",
	"uk":      "british",
	"britain": "british",
	"canada":  "canadian",
}

// Form data and OCR output use different keys for the same field.
var (
	claimKeys = map[models.Field]string{
		models.FieldFirstName:   "firstName",
		models.FieldLastName:    "lastName",
		models.FieldIDNumber:    "idNumber",
		models.FieldNationality: "nationality",
		models.FieldSex:         "sex",
	}
	extractionKeys = map[models.Field]string{
		models.FieldFirstName:   "firstName",
		models.FieldLastName:    "lastName",
		models.FieldIDNumber:    "id_number",
		models.FieldNationality: "nationality",
		models.FieldSex:         "sex",
	}
)

// ClaimKey returns the form-data key for f.
func ClaimKey(f models.Field) string {
	return claimKeys[f]
}

// ExtractionKey returns the OCR-output key for f.
func ExtractionKey(f models.Field) string {
	return extractionKeys[f]
}

// RecordFromClaim reads user-submitted form values. Missing keys, nil and
// blank values are absent, as is a sex value that is not male or female.
func RecordFromClaim(values map[string]*string) models.Record {
	return recordFrom(values, claimKeys)
}

// RecordFromExtraction reads OCR output keyed the way ProcessImage reports it.
func RecordFromExtraction(values map[string]*string) models.Record {
	return recordFrom(values, extractionKeys)
}

// ExtractionValues renders r with OCR-output keys; absent fields are nil.
func ExtractionValues(r models.Record) map[string]*string {
	out := make(map[string]*string, len(extractionKeys))
	for _, f := range models.OrderedFields() {
		if v := r.Get(f); v != "" {
			out[extractionKeys[f]] = &v
		} else {
			out[extractionKeys[f]] = nil
		}
	}
	return out
}

func recordFrom(values map[string]*string, keys map[models.Field]string) models.Record {
	var r models.Record
	for _, f := range models.OrderedFields() {
		v, ok := values[keys[f]]
		if !ok || v == nil {
			continue
		}
		if f == models.FieldSex {
			sex, known := models.ParseSex(*v)
			if !known {
				continue
			}
			r = r.With(f, string(sex))
			continue
		}
		r = r.With(f, *v)
	}
	return r
}
