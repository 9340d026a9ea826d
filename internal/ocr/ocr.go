// Package ocr defines the text-recognition boundary. Engines turn image bytes
// into raw text plus word tokens with confidences in [0, 100].
package ocr

import (
	"context"
	"strings"

	pstrings "idverify/pkg/platform/strings"
)

// DefaultMinTokenConfidence is the confidence a token must exceed to appear in
// FilteredText.
const DefaultMinTokenConfidence = 60

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (*Result, error)
	Name() string
}

// Token is one recognized word.
type Token struct {
	Text       string
	Confidence float64
}

// Result is the output of one recognition call.
type Result struct {
	Text   string
	Tokens []Token
	Engine string
}

// FilteredText joins, with single spaces, the tokens whose confidence is
// strictly above minConfidence.
func (r *Result) FilteredText(minConfidence float64) string {
	if r == nil {
		return ""
	}
	words := make([]string, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		if t.Confidence > minConfidence && strings.TrimSpace(t.Text) != "" {
			words = append(words, strings.TrimSpace(t.Text))
		}
	}
	return strings.Join(words, " ")
}

// Confidences returns the token confidences in recognition order.
func (r *Result) Confidences() []float64 {
	if r == nil {
		return []float64{}
	}
	out := make([]float64, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		out = append(out, t.Confidence)
	}
	return out
}

// Lines returns the non-blank lines of the raw text.
func (r *Result) Lines() []string {
	if r == nil {
		return []string{}
	}
	return pstrings.NonBlankLines(r.Text)
}
