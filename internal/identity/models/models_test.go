package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSex(t *testing.T) {
	tests := []struct {
		input    string
		expected Sex
		ok       bool
	}{
		{"M", SexMale, true},
		{" male ", SexMale, true},
		{"Man", SexMale, true},
		{"f", SexFemale, true},
		{"FEMALE", SexFemale, true},
		{"woman", SexFemale, true},
		{"x", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sex, ok := ParseSex(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, sex)
		})
	}
}

func TestRecordWith(t *testing.T) {
	var r Record
	assert.True(t, r.IsEmpty())

	r = r.With(FieldIDNumber, "  GHA-719819958-0 ")
	assert.Equal(t, "GHA-719819958-0", r.IDNumber)
	assert.True(t, r.Has(FieldIDNumber))
	assert.False(t, r.IsEmpty())

	r = r.With(FieldSex, "   ")
	assert.False(t, r.Has(FieldSex), "whitespace-only values stay absent")
}

func TestRecordGetCoversEveryField(t *testing.T) {
	r := Record{FirstName: "a", LastName: "b", IDNumber: "c", Nationality: "d", Sex: "e"}
	got := make([]string, 0, 5)
	for _, f := range OrderedFields() {
		got = append(got, r.Get(f))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Equal(t, "", r.Get(Field("dateOfBirth")))
}

func TestResultFieldNames(t *testing.T) {
	res := Result{
		Matches:    []FieldComparison{{Field: FieldFirstName}, {Field: FieldIDNumber}},
		Mismatches: []FieldComparison{{Field: FieldSex}},
	}
	assert.Equal(t, 3, res.ComparedFields())
	assert.Equal(t, []Field{FieldFirstName, FieldIDNumber}, res.MatchedFields())
	assert.Equal(t, []Field{FieldSex}, res.MismatchedFields())
}
