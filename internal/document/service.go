// Package document runs OCR on uploaded ID cards, extracts identity fields,
// verifies them against claimed data and keeps a short-lived record of each
// document verification.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"idverify/internal/document/metrics"
	"idverify/internal/document/models"
	"idverify/internal/extraction"
	idmodels "idverify/internal/identity/models"
	"idverify/internal/ocr"
	"idverify/internal/verification"
	dErrors "idverify/pkg/domain-errors"
	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/sentinel"
	"idverify/pkg/requestcontext"
	"idverify/pkg/similarity"
)

const (
	// DefaultRecordTTL bounds how long a verification record is kept.
	DefaultRecordTTL = 5 * time.Minute

	tracerName = "idverify/internal/document"
)

// Service coordinates OCR, extraction, verification, persistence and audit.
type Service struct {
	engine             ocr.Engine
	extractor          *extraction.Extractor
	verifier           *verification.Verifier
	store              RecordStore
	auditor            AuditPublisher
	transactor         Transactor
	metrics            *metrics.Metrics
	logger             *slog.Logger
	tracer             trace.Tracer
	recordTTL          time.Duration
	minTokenConfidence float64
	newID              func() string
}

// Option configures the Service.
type Option func(*Service)

func WithExtractor(e *extraction.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

func WithVerifier(v *verification.Verifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifier = v
		}
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithTransactor makes record persistence and its audit event atomic.
func WithTransactor(t Transactor) Option {
	return func(s *Service) {
		if t != nil {
			s.transactor = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRecordTTL sets the retention of verification records.
func WithRecordTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.recordTTL = ttl
		}
	}
}

// WithMinTokenConfidence sets the OCR token confidence required for
// filtered text.
func WithMinTokenConfidence(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 100 {
			s.minTokenConfidence = threshold
		}
	}
}

// New builds a Service. The engine and store are required.
func New(engine ocr.Engine, store RecordStore, opts ...Option) *Service {
	s := &Service{
		engine:             engine,
		extractor:          extraction.New(),
		verifier:           verification.New(),
		store:              store,
		transactor:         noopTransactor{},
		logger:             slog.Default(),
		tracer:             otel.Tracer(tracerName),
		recordTTL:          DefaultRecordTTL,
		minTokenConfidence: ocr.DefaultMinTokenConfidence,
		newID:              uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessImage runs OCR on an ID card image and extracts identity fields.
func (s *Service) ProcessImage(ctx context.Context, image []byte) (*models.ProcessResult, error) {
	ctx, span := s.tracer.Start(ctx, "document.ProcessImage")
	defer span.End()

	result, err := s.process(ctx, image)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("document.fields_extracted", countFields(result.Extracted)))
	return result, nil
}

func (s *Service) process(ctx context.Context, image []byte) (*models.ProcessResult, error) {
	if len(image) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "image is required")
	}

	start := time.Now()
	recognized, err := s.engine.Recognize(ctx, image)
	s.metrics.ObserveOCRLatency(s.engine.Name(), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "ocr failed",
			"engine", s.engine.Name(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "text recognition failed")
	}
	if recognized == nil {
		recognized = &ocr.Result{Engine: s.engine.Name()}
	}

	extracted, err := s.extractor.Parse(recognized.Text)
	if err != nil {
		return nil, err
	}
	for _, f := range idmodels.OrderedFields() {
		if extracted.Has(f) {
			s.metrics.IncrementFieldExtracted(f.String())
		}
	}

	s.logger.InfoContext(ctx, "document image processed",
		"engine", recognized.Engine,
		"tokens", len(recognized.Tokens),
		"fields_extracted", countFields(extracted),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.ProcessResult{
		Text:         recognized.Text,
		FilteredText: recognized.FilteredText(s.minTokenConfidence),
		Extracted:    extracted,
		Confidence:   recognized.Confidences(),
		Engine:       recognized.Engine,
	}, nil
}

// VerifyData compares already-extracted OCR data against claimed data.
func (s *Service) VerifyData(ctx context.Context, claimed, extracted idmodels.Record) idmodels.Result {
	_, span := s.tracer.Start(ctx, "document.VerifyData")
	defer span.End()

	res := s.verifier.Verify(claimed, extracted)
	s.observeVerification("data", res)
	span.SetAttributes(
		attribute.Float64("verification.confidence", res.Confidence),
		attribute.Bool("verification.overall_match", res.OverallMatch),
	)

	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = s.newID()
	}
	summary := models.NewSummary(res)
	s.logger.InfoContext(ctx, "identity data verified",
		"request_id", requestID,
		"confidence", res.Confidence,
		"overall_match", res.OverallMatch,
	)
	// Data verification stores nothing, so a lost audit event is logged only.
	if err := s.emit(ctx, audit.EventDataVerified, requestID, summary, claimed.IDNumber); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"error", err,
		)
	}
	return res
}

// VerifyDocument runs OCR on the ID card, hashes the uploaded images,
// verifies the extracted fields against the claim and stores a record.
func (s *Service) VerifyDocument(ctx context.Context, req models.VerifyDocumentRequest) (*models.VerifyDocumentResult, error) {
	ctx, span := s.tracer.Start(ctx, "document.VerifyDocument")
	defer span.End()

	result, err := s.verifyDocument(ctx, req)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("verification.request_id", result.RequestID),
		attribute.Float64("verification.confidence", result.Verification.Confidence),
		attribute.Bool("verification.overall_match", result.Verification.OverallMatch),
	)
	return result, nil
}

func (s *Service) verifyDocument(ctx context.Context, req models.VerifyDocumentRequest) (*models.VerifyDocumentResult, error) {
	if len(req.IDCard) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "id_card image is required")
	}
	if req.Claim.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one claimed field is required")
	}

	var (
		processed              *models.ProcessResult
		idCardHash, selfieHash string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		processed, err = s.process(gctx, req.IDCard)
		return err
	})
	g.Go(func() error {
		idCardHash = hashBytes(req.IDCard)
		if len(req.Selfie) > 0 {
			selfieHash = hashBytes(req.Selfie)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := s.verifier.Verify(req.Claim, processed.Extracted)
	s.observeVerification("document", res)

	now := requestcontext.Now(ctx)
	record := &models.VerificationRecord{
		RequestID:   s.newID(),
		Subject:     requestcontext.Subject(ctx),
		FirstName:   req.Claim.FirstName,
		LastName:    req.Claim.LastName,
		IDNumber:    req.Claim.IDNumber,
		Nationality: req.Claim.Nationality,
		SelfieHash:  selfieHash,
		IDCardHash:  idCardHash,
		Result:      models.NewSummary(res),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.recordTTL),
	}

	err := s.transactor.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "failed to save verification record",
				"request_id", record.RequestID,
				"error", err,
			)
			return storeError(err, "failed to save verification record")
		}

		if err := s.emit(ctx, audit.EventDocumentVerified, record.RequestID, record.Result, req.Claim.IDNumber); err != nil {
			// A decision without an audit trail must not survive.
			if _, delErr := s.store.Delete(ctx, []string{record.RequestID}); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back unaudited verification record",
					"request_id", record.RequestID,
					"error", delErr,
				)
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
		}
		return nil
	})
	if err != nil {
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to commit verification record")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "document verified",
		"request_id", record.RequestID,
		"http_request_id", requestcontext.RequestID(ctx),
		"engine", processed.Engine,
		"confidence", res.Confidence,
		"overall_match", res.OverallMatch,
	)

	return &models.VerifyDocumentResult{
		RequestID:    record.RequestID,
		Extracted:    processed.Extracted,
		Verification: res,
		ExpiresAt:    record.ExpiresAt,
	}, nil
}

// GetVerification returns a stored record while it is within its retention.
func (s *Service) GetVerification(ctx context.Context, requestID string) (*models.VerificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "document.GetVerification")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request_id is required")
	}

	record, err := s.store.FindByRequestID(ctx, requestID, requestcontext.Now(ctx))
	if err != nil {
		recordSpanError(span, err)
		return nil, storeError(err, "failed to load verification record")
	}
	// Records are visible only to the caller that created them. A foreign
	// record reads as missing.
	if record.Subject != requestcontext.Subject(ctx) {
		s.logger.WarnContext(ctx, "verification record requested by another subject",
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeNotFound, "verification record not found")
	}

	if err := s.emit(ctx, audit.EventVerificationViewed, requestID, record.Result, record.IDNumber); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"error", err,
		)
	}
	return record, nil
}

// RecordsPurged reports a purge pass. Wire it to the store purger.
func (s *Service) RecordsPurged(ctx context.Context, n int) {
	s.metrics.AddRecordsPurged(n)
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Category:  audit.EventRecordsPurged.Category(),
		Timestamp: time.Now(),
		Action:    audit.EventRecordsPurged.String(),
		RequestID: s.newID(),
		Reason:    "retention_expired",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", audit.EventRecordsPurged, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, requestID string, summary models.ResultSummary, idNumber string) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, audit.Event{
		Category:      action.Category(),
		Timestamp:     requestcontext.Now(ctx),
		Subject:       requestcontext.Subject(ctx),
		Action:        action.String(),
		RequestID:     requestID,
		Decision:      summary.Decision(),
		Reason:        reason(summary),
		SubjectIDHash: HashSubjectID(idNumber),
	})
}

func (s *Service) observeVerification(operation string, res idmodels.Result) {
	s.metrics.ObserveConfidence(res.Confidence)
	s.metrics.IncrementOutcome(operation, models.NewSummary(res).Decision())
	for _, c := range res.Matches {
		s.metrics.IncrementFieldResult(c.Field.String(), true)
	}
	for _, c := range res.Mismatches {
		s.metrics.IncrementFieldResult(c.Field.String(), false)
	}
}

// HashSubjectID returns the SHA-256 hex of the normalized ID number, or ""
// when there is none.
func HashSubjectID(idNumber string) string {
	normalized := strings.ToUpper(similarity.StripSeparators(idNumber))
	if normalized == "" {
		return ""
	}
	return hashBytes([]byte(normalized))
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func reason(summary models.ResultSummary) string {
	if len(summary.MismatchedFields) == 0 {
		return ""
	}
	return "mismatched:" + strings.Join(summary.MismatchedFields, ",")
}

func countFields(r idmodels.Record) int {
	n := 0
	for _, f := range idmodels.OrderedFields() {
		if r.Has(f) {
			n++
		}
	}
	return n
}

func storeError(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "verification not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
