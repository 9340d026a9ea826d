package extraction

import (
	"regexp"
	"slices"
	"strings"

	"idverify/internal/identity/models"
)

// Label ties a label variant printed on a card to the field whose value it
// introduces. FoldCase labels match regardless of case.
type Label struct {
	Text     string
	Field    models.Field
	FoldCase bool
}

// Alias maps a lowercase fragment found in a value line to its canonical value.
type Alias struct {
	Fragment string
	Value    string
}

// Profile is the label vocabulary and value tables for one card layout. New
// layouts extend these tables rather than the extraction passes.
type Profile struct {
	Name          string
	Labels        []Label
	IDPatterns    []*regexp.Regexp
	Nationalities []Alias
	Stopwords     []string
}

var (
	ghanaIDPattern   = regexp.MustCompile(`GHA[-\s]?\d+[-\s]?\d*`)
	labelledIDNumber = regexp.MustCompile(`ID[-\s:]?\d+[-\s]?\d*`)
	longDigitRun     = regexp.MustCompile(`\d{9,}`)
)

// GhanaCard returns the profile for the Ghana Card (ECOWAS identity card).
func GhanaCard() Profile {
	return Profile{
		Name: "ghana_card",
		Labels: []Label{
			{Text: "Firstname", Field: models.FieldFirstName},
			{Text: "Prénoms", Field: models.FieldFirstName},
			{Text: "First name", Field: models.FieldFirstName},
			{Text: "Given name", Field: models.FieldFirstName},
			{Text: "Name", Field: models.FieldFirstName},

			{Text: "Nationality", Field: models.FieldNationality, FoldCase: true},
			{Text: "Nation", Field: models.FieldNationality, FoldCase: true},
			{Text: "Citizen", Field: models.FieldNationality, FoldCase: true},
			{Text: "Citizenship", Field: models.FieldNationality, FoldCase: true},

			{Text: "Sex", Field: models.FieldSex, FoldCase: true},
			{Text: "Gender", Field: models.FieldSex, FoldCase: true},
		},
		// Tried in priority order against each line before moving to the next line.
		IDPatterns: []*regexp.Regexp{ghanaIDPattern, labelledIDNumber, longDigitRun},
		Nationalities: []Alias{
			{Fragment: "ghanaian", Value: "Ghanaian"},
			{Fragment: "ghana", Value: "Ghanaian"},
		},
		Stopwords: []string{"the", "and", "for", "with"},
	}
}

func (p Profile) hasLabel(field models.Field, line string) bool {
	lower := strings.ToLower(line)
	for _, l := range p.Labels {
		if l.Field != field {
			continue
		}
		if l.FoldCase && strings.Contains(lower, strings.ToLower(l.Text)) {
			return true
		}
		if !l.FoldCase && strings.Contains(line, l.Text) {
			return true
		}
	}
	return false
}

func (p Profile) nationalityIn(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, a := range p.Nationalities {
		if strings.Contains(lower, a.Fragment) {
			return a.Value, true
		}
	}
	return "", false
}

func (p Profile) isStopword(word string) bool {
	return slices.Contains(p.Stopwords, strings.ToLower(word))
}
