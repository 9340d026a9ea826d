// Package vision runs recognition through the Google Cloud Vision
// document-text API.
package vision

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"idverify/internal/ocr"
)

const engineName = "vision"

// Engine wraps a shared annotator client. Close it on shutdown.
type Engine struct {
	client *vision.ImageAnnotatorClient
}

// New dials the Vision API. An empty credentialsFile falls back to
// application default credentials.
func New(ctx context.Context, credentialsFile string) (*Engine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Name() string {
	return engineName
}

func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	resp, err := e.client.BatchAnnotateImages(ctx, documentTextRequest(image))
	if err != nil {
		return nil, fmt.Errorf("annotate image: %w", err)
	}
	annotation, err := documentText(resp)
	if err != nil {
		return nil, err
	}
	if annotation == nil {
		return &ocr.Result{Tokens: []ocr.Token{}, Engine: engineName}, nil
	}
	return &ocr.Result{
		Text:   annotation.GetText(),
		Tokens: tokensFrom(annotation),
		Engine: engineName,
	}, nil
}

func documentTextRequest(image []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
}

// documentText returns the full-text annotation of the single image in
// resp. Per-image failures arrive in the response body, not as an RPC error.
func documentText(resp *visionpb.BatchAnnotateImagesResponse) (*visionpb.TextAnnotation, error) {
	responses := resp.GetResponses()
	if len(responses) == 0 {
		return nil, nil
	}
	first := responses[0]
	if st := first.GetError(); st != nil && st.GetCode() != 0 {
		return nil, fmt.Errorf("detect document text: %s (code %d)", st.GetMessage(), st.GetCode())
	}
	return first.GetFullTextAnnotation(), nil
}

// tokensFrom flattens the page hierarchy into words. Vision reports
// confidence in [0, 1].
func tokensFrom(annotation *visionpb.TextAnnotation) []ocr.Token {
	tokens := []ocr.Token{}
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					var sb strings.Builder
					for _, symbol := range word.GetSymbols() {
						sb.WriteString(symbol.GetText())
					}
					tokens = append(tokens, ocr.Token{
						Text:       sb.String(),
						Confidence: float64(word.GetConfidence()) * 100,
					})
				}
			}
		}
	}
	return tokens
}
