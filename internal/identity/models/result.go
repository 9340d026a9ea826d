package models

// Placeholders reported for the absent side of a one-sided comparison.
const (
	NotFoundInDocument = "Not found in ID"
	NotProvidedInClaim = "Not provided in form"
)

// FieldComparison is the verdict for one field. Similarity is rounded to two
// decimals; Matched was decided on the unrounded score.
type FieldComparison struct {
	Field          Field
	ExtractedValue string
	ClaimedValue   string
	Similarity     float64
	Matched        bool
}

// Result aggregates the per-field verdicts of one verification.
type Result struct {
	Matches      []FieldComparison
	Mismatches   []FieldComparison
	Confidence   float64
	OverallMatch bool
}

// ComparedFields is the number of fields where at least one side had a value.
func (r Result) ComparedFields() int {
	return len(r.Matches) + len(r.Mismatches)
}

// MatchedFields returns the names of the matching fields in order.
func (r Result) MatchedFields() []Field {
	return fieldNames(r.Matches)
}

// MismatchedFields returns the names of the mismatching fields in order.
func (r Result) MismatchedFields() []Field {
	return fieldNames(r.Mismatches)
}

func fieldNames(comparisons []FieldComparison) []Field {
	names := make([]Field, 0, len(comparisons))
	for _, c := range comparisons {
		names = append(names, c.Field)
	}
	return names
}
