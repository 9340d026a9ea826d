package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idverify/internal/identity/models"
	dErrors "idverify/pkg/domain-errors"
)

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

func TestExtract_GhanaCardScenario(t *testing.T) {
	raw := lines("KING", "DARRYL LAUD ABOAGYE", "GHA-719819958-0", "Nationality", "Ghanaian", "Sex", "M")

	rec := New().Extract(raw)

	assert.Equal(t, models.Record{
		FirstName:   "DARRYL",
		LastName:    "KING",
		IDNumber:    "GHA7198199580",
		Nationality: "Ghanaian",
		Sex:         "Male",
	}, rec)
}

func TestExtract_FullCardLayout(t *testing.T) {
	raw := `Republic of Ghana
ECOWAS Identity Card
Surname/Nom

KING
Firstnames/Prénoms
DARRYL LAUD ABOAGYE
Nationality/Nationalité
GHANAIAN
Sex/Sexe
M
Date of Birth/Date de Naissance
09/07/2003
Personal Id Number
GHA-719819958-0
`
	rec := New().Extract(raw)

	assert.Equal(t, "KING", rec.LastName)
	assert.Equal(t, "DARRYL", rec.FirstName)
	assert.Equal(t, "GHA7198199580", rec.IDNumber)
	assert.Equal(t, "Ghanaian", rec.Nationality)
	assert.Equal(t, "Male", rec.Sex)
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n\t\n"} {
		rec := New().Extract(raw)
		assert.True(t, rec.IsEmpty(), "input %q", raw)
	}
}

func TestExtract_Names(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		firstName string
		lastName  string
	}{
		{
			name:      "single letter lines are ignored",
			raw:       lines("M", "KING"),
			firstName: "",
			lastName:  "KING",
		},
		{
			name:      "first name without surname line",
			raw:       lines("Name of holder", "DARRYL LAUD"),
			firstName: "DARRYL",
			lastName:  "",
		},
		{
			name:      "mixed case lines are not names",
			raw:       lines("King", "Darryl Laud"),
			firstName: "",
			lastName:  "",
		},
		{
			name:      "label fallback when every caps line is the surname",
			raw:       lines("KING", "Given names", "lower", "KING"),
			firstName: "KING",
			lastName:  "KING",
		},
		{
			name:      "label fallback looks at most two lines ahead",
			raw:       lines("KING", "First name", "one", "two", "KING"),
			firstName: "",
			lastName:  "KING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := New().Extract(tt.raw)
			assert.Equal(t, tt.firstName, rec.FirstName)
			assert.Equal(t, tt.lastName, rec.LastName)
		})
	}
}

func TestExtract_IDNumber(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "ghana card number", raw: "GHA-719819958-0", expected: "GHA7198199580"},
		{name: "ghana card with spaces", raw: "No. GHA 719819958 0", expected: "GHA7198199580"},
		{name: "generic id label", raw: "ID-12345 678", expected: "ID12345678"},
		{name: "long digit run", raw: "Card 0123456789 issued", expected: "0123456789"},
		{name: "short digit run ignored", raw: "09/07/2003", expected: ""},
		{
			// The first line with any match wins, even when a later line
			// carries the higher-priority GHA pattern.
			name:     "first line wins over pattern priority",
			raw:      lines("123456789012", "GHA-719819958-0"),
			expected: "123456789012",
		},
		{
			name:     "pattern priority within a line",
			raw:      "123456789012 GHA-719819958-0",
			expected: "GHA7198199580",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New().Extract(tt.raw).IDNumber)
		})
	}
}

func TestExtract_Nationality(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "value on label line", raw: "Nationality: GHANA", expected: "Ghanaian"},
		{name: "value on next line", raw: lines("NATIONALITY", "ghanaian"), expected: "Ghanaian"},
		{name: "citizenship label", raw: lines("Citizenship", "Ghana"), expected: "Ghanaian"},
		{name: "capitalized word on next line", raw: lines("Nationality", "The Nigerian"), expected: "Nigerian"},
		{name: "stopwords and short words skipped", raw: lines("Nation", "For UK With Kenyan"), expected: "Kenyan"},
		{name: "blind scan without label", raw: lines("Republic of Ghana", "KING"), expected: "Ghanaian"},
		{
			name:     "blind scan after an unproductive label",
			raw:      lines("Nationality", "123", "GHANA"),
			expected: "Ghanaian",
		},
		{name: "nothing found", raw: lines("Nationality"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New().Extract(tt.raw).Nationality)
		})
	}
}

func TestExtract_Sex(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "letter on label line", raw: "Sex: F", expected: "Female"},
		{name: "bilingual label", raw: "Sex/Sexe M", expected: "Male"},
		{name: "word on label line", raw: "Gender Female", expected: "Female"},
		{name: "female is not read as male", raw: "GENDER: FEMALE", expected: "Female"},
		{name: "value on next line", raw: lines("Sex", "M"), expected: "Male"},
		{name: "word on next line", raw: lines("Gender", "male"), expected: "Male"},
		{name: "blind scan for word", raw: lines("KING", "female"), expected: "Female"},
		{name: "blind scan for letter", raw: lines("KING", "F"), expected: "Female"},
		{name: "blind scan prefers m without f", raw: "M 1990", expected: "Male"},
		{name: "blind scan f when both letters", raw: "M F", expected: "Female"},
		{name: "no marker", raw: lines("KING", "DARRYL"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New().Extract(tt.raw).Sex)
		})
	}
}

func TestExtract_CustomProfile(t *testing.T) {
	profile := GhanaCard()
	profile.Name = "nigeria_nin"
	profile.Nationalities = []Alias{
		{Fragment: "nigerian", Value: "Nigerian"},
		{Fragment: "nigeria", Value: "Nigerian"},
	}

	e := New(WithProfile(profile))
	assert.Equal(t, "nigeria_nin", e.Profile())
	assert.Equal(t, "Nigerian", e.Extract(lines("Nationality", "NIGERIA")).Nationality)
	assert.Equal(t, "", e.Extract("Republic of Ghana").Nationality)
}

func TestParse(t *testing.T) {
	t.Run("valid text", func(t *testing.T) {
		rec, err := New().Parse(lines("KING", "Sex", "M"))
		require.NoError(t, err)
		assert.Equal(t, "KING", rec.LastName)
		assert.Equal(t, "Male", rec.Sex)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := New().Parse("KING\xff\xfe")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("oversized input", func(t *testing.T) {
		_, err := New().Parse(strings.Repeat("A", MaxInputBytes+1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
