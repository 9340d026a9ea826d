// Package extraction turns noisy OCR text from an ID card into an identity
// record. Each field is resolved by an ordered list of strategies; the first
// strategy that yields a value wins and later ones are not consulted.
package extraction

import (
	"fmt"
	"unicode/utf8"

	"idverify/internal/identity/models"
	dErrors "idverify/pkg/domain-errors"
	pstrings "idverify/pkg/platform/strings"
)

// MaxInputBytes bounds the recognized text accepted by Parse.
const MaxInputBytes = 64 << 10

type fieldPass struct {
	field      models.Field
	strategies []strategy
}

// Extractor is safe for concurrent use; it holds no per-call state.
type Extractor struct {
	profile Profile
	passes  []fieldPass
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProfile replaces the default Ghana Card profile.
func WithProfile(p Profile) Option {
	return func(e *Extractor) {
		e.profile = p
	}
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{profile: GhanaCard()}
	for _, opt := range opts {
		opt(e)
	}
	p := e.profile
	// Surname runs first: the first-name pass skips the surname line.
	e.passes = []fieldPass{
		{field: models.FieldLastName, strategies: []strategy{surnameLine}},
		{field: models.FieldFirstName, strategies: []strategy{uppercaseNameLine, p.labelledName}},
		{field: models.FieldIDNumber, strategies: []strategy{p.idNumber}},
		{field: models.FieldNationality, strategies: []strategy{p.labelledNationality, p.anyNationality}},
		{field: models.FieldSex, strategies: []strategy{p.labelledSex, anySexWord}},
	}
	return e
}

// Profile returns the name of the active card profile.
func (e *Extractor) Profile() string {
	return e.profile.Name
}

// Extract never fails: fields without a confident candidate stay absent.
func (e *Extractor) Extract(raw string) models.Record {
	lines := pstrings.NonBlankLines(raw)
	var rec models.Record
	for _, pass := range e.passes {
		for _, propose := range pass.strategies {
			if v := propose(lines, rec); v != "" {
				rec = rec.With(pass.field, v)
				break
			}
		}
	}
	return rec
}

// Parse validates raw and then extracts from it.
func (e *Extractor) Parse(raw string) (models.Record, error) {
	if err := ValidateInput(raw); err != nil {
		return models.Record{}, err
	}
	return e.Extract(raw), nil
}

// ValidateInput rejects text that no OCR engine would produce.
func ValidateInput(raw string) error {
	if len(raw) > MaxInputBytes {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("recognized text exceeds %d bytes", MaxInputBytes))
	}
	if !utf8.ValidString(raw) {
		return dErrors.New(dErrors.CodeValidation, "recognized text is not valid UTF-8")
	}
	return nil
}
