// Package tesseract runs recognition locally through libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"idverify/internal/ocr"
)

const engineName = "tesseract"

// Engine creates one tesseract client per call; clients are not safe for
// concurrent use.
type Engine struct {
	languages []string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages sets the tesseract language packs, e.g. "eng", "fra".
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		if len(languages) > 0 {
			e.languages = languages
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine reading English by default.
func New(opts ...Option) *Engine {
	e := &Engine{
		languages: []string{"eng"},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string {
	return engineName
}

// Recognize reads the full page text and the word-level boxes.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Token confidences only feed filtered_text; keep the raw text.
		e.logger.WarnContext(ctx, "tesseract word boxes unavailable", "error", err)
		boxes = nil
	}

	tokens := make([]ocr.Token, 0, len(boxes))
	for _, b := range boxes {
		tokens = append(tokens, ocr.Token{Text: b.Word, Confidence: b.Confidence})
	}

	return &ocr.Result{Text: text, Tokens: tokens, Engine: engineName}, nil
}
