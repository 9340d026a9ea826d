package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"idverify/internal/document/models"
	idmodels "idverify/internal/identity/models"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/httputil"
	"idverify/pkg/requestcontext"
)

// DefaultMaxUploadBytes bounds request bodies.
const DefaultMaxUploadBytes int64 = 10 << 20

// Service defines the document operations exposed over HTTP.
type Service interface {
	ProcessImage(ctx context.Context, image []byte) (*models.ProcessResult, error)
	VerifyData(ctx context.Context, claimed, extracted idmodels.Record) idmodels.Result
	VerifyDocument(ctx context.Context, req models.VerifyDocumentRequest) (*models.VerifyDocumentResult, error)
	GetVerification(ctx context.Context, requestID string) (*models.VerificationRecord, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// New constructs a document handler. A non-positive maxUploadBytes selects
// DefaultMaxUploadBytes.
func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/process-image", h.HandleProcessImage)
	r.Post("/verify-id-data", h.HandleVerifyData)
	r.Post("/verify-document", h.HandleVerifyDocument)
	r.Get("/verifications/{requestID}", h.HandleGetVerification)
}

// HandleProcessImage handles POST /process-image.
func (h *Handler) HandleProcessImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	switch kind := strings.ToLower(strings.TrimSpace(r.FormValue(fieldType))); kind {
	case "", "ocr":
	case "facial":
		h.writeError(ctx, w, requestID, dErrors.New(dErrors.CodeUnsupported, "facial processing is not supported"))
		return
	default:
		h.writeError(ctx, w, requestID, dErrors.New(dErrors.CodeBadRequest, "type must be ocr"))
		return
	}

	image, err := formFile(r, fieldImage, true)
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	result, err := h.service.ProcessImage(ctx, image)
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ok(FromProcessResult(result)))
}

// HandleVerifyData handles POST /verify-id-data.
func (h *Handler) HandleVerifyData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	req, valid := httputil.DecodeAndPrepare[VerifyDataRequest](w, r, h.logger, ctx, requestID)
	if !valid {
		return
	}

	result := h.service.VerifyData(ctx, req.Claimed(), req.Extracted())
	httputil.WriteJSON(w, http.StatusOK, ok(FromVerification(result)))
}

// HandleVerifyDocument handles POST /verify-document.
func (h *Handler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	idCard, err := formFile(r, fieldIDCard, true)
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}
	selfie, err := formFile(r, fieldSelfie, false)
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	claim, err := claimFromForm(r.FormValue)
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	result, err := h.service.VerifyDocument(ctx, models.VerifyDocumentRequest{
		IDCard: idCard,
		Selfie: selfie,
		Claim:  claim,
	})
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	h.logger.InfoContext(ctx, "document verification completed",
		"request_id", requestID,
		"verification_id", result.RequestID,
		"overall_match", result.Verification.OverallMatch,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, ok(FromVerifyDocumentResult(result)))
}

// HandleGetVerification handles GET /verifications/{requestID}.
func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	record, err := h.service.GetVerification(ctx, chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeError(ctx, w, requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ok(FromRecord(record)))
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "upload too large")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "expected multipart/form-data")
	}
	return nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal && de.Code != dErrors.CodeUnavailable {
		h.logger.WarnContext(ctx, "request rejected",
			"request_id", requestID,
			"code", de.Code,
			"error", err,
		)
	} else {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

// formFile reads one uploaded file. A missing optional file returns nil.
func formFile(r *http.Request, field string, required bool) ([]byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, dErrors.New(dErrors.CodeBadRequest, "no "+field+" file provided")
		}
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+field+" upload")
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no selected file")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+field)
	}
	if len(data) == 0 && required {
		return nil, dErrors.New(dErrors.CodeBadRequest, field+" file is empty")
	}
	return data, nil
}
