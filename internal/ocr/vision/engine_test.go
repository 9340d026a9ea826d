package vision

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"

	"idverify/internal/ocr"
)

func word(confidence float32, symbols ...string) *visionpb.Word {
	w := &visionpb.Word{Confidence: confidence}
	for _, s := range symbols {
		w.Symbols = append(w.Symbols, &visionpb.Symbol{Text: s})
	}
	return w
}

func TestTokensFrom(t *testing.T) {
	annotation := &visionpb.TextAnnotation{
		Text: "KING\nDARRYL\n",
		Pages: []*visionpb.Page{{
			Blocks: []*visionpb.Block{{
				Paragraphs: []*visionpb.Paragraph{
					{Words: []*visionpb.Word{word(0.5, "K", "I", "N", "G")}},
					{Words: []*visionpb.Word{word(0.25, "D", "A", "R", "R", "Y", "L")}},
				},
			}},
		}},
	}

	tokens := tokensFrom(annotation)

	assert.Equal(t, []ocr.Token{
		{Text: "KING", Confidence: 50},
		{Text: "DARRYL", Confidence: 25},
	}, tokens)
}

func TestTokensFrom_Empty(t *testing.T) {
	assert.Empty(t, tokensFrom(&visionpb.TextAnnotation{}))
}

func TestDocumentTextRequest(t *testing.T) {
	req := documentTextRequest([]byte("png"))

	require.Len(t, req.GetRequests(), 1)
	r := req.GetRequests()[0]
	assert.Equal(t, []byte("png"), r.GetImage().GetContent())
	require.Len(t, r.GetFeatures(), 1)
	assert.Equal(t, visionpb.Feature_DOCUMENT_TEXT_DETECTION, r.GetFeatures()[0].GetType())
}

func TestDocumentText(t *testing.T) {
	t.Run("returns the first annotation", func(t *testing.T) {
		want := &visionpb.TextAnnotation{Text: "KING"}
		got, err := documentText(&visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{FullTextAnnotation: want}},
		})
		require.NoError(t, err)
		assert.Equal(t, "KING", got.GetText())
	})

	t.Run("no responses", func(t *testing.T) {
		got, err := documentText(&visionpb.BatchAnnotateImagesResponse{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("per-image error", func(t *testing.T) {
		_, err := documentText(&visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{
				Error: &status.Status{Code: 3, Message: "bad image data"},
			}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad image data")
	})
}
