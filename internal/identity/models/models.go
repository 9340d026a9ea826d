// Package models holds the identity record shared by extraction and
// verification. Records are transient: built per request and never mutated
// after they are returned.
package models

import "strings"

// Field names one compared identity attribute.
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldIDNumber    Field = "idNumber"
	FieldNationality Field = "nationality"
	FieldSex         Field = "sex"
)

// OrderedFields returns every field in comparison and reporting order.
func OrderedFields() []Field {
	return []Field{FieldFirstName, FieldLastName, FieldIDNumber, FieldNationality, FieldSex}
}

func (f Field) String() string {
	return string(f)
}

// Sex is the two-valued sex marker printed on ID cards.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// ParseSex maps the common spellings to a Sex. Anything else is absent.
func ParseSex(value string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "male", "man":
		return SexMale, true
	case "f", "female", "woman":
		return SexFemale, true
	default:
		return "", false
	}
}

// Record is the set of identity fields read from a document or claimed by a
// user. An empty string means the field is absent; present values are
// trimmed and non-empty.
type Record struct {
	FirstName   string
	LastName    string
	IDNumber    string
	Nationality string
	Sex         string
}

// Get returns the value of f, or "" when absent.
func (r Record) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldIDNumber:
		return r.IDNumber
	case FieldNationality:
		return r.Nationality
	case FieldSex:
		return r.Sex
	default:
		return ""
	}
}

// With returns a copy of r with f set to the trimmed value.
func (r Record) With(f Field, value string) Record {
	value = strings.TrimSpace(value)
	switch f {
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	case FieldIDNumber:
		r.IDNumber = value
	case FieldNationality:
		r.Nationality = value
	case FieldSex:
		r.Sex = value
	}
	return r
}

// Has reports whether f holds a value.
func (r Record) Has(f Field) bool {
	return r.Get(f) != ""
}

// IsEmpty reports whether every field is absent.
func (r Record) IsEmpty() bool {
	for _, f := range OrderedFields() {
		if r.Has(f) {
			return false
		}
	}
	return true
}
