package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document processing and verification.
type Metrics struct {
	// Verification outcomes by operation and decision
	Outcomes *prometheus.CounterVec

	// Per-field comparison verdicts
	FieldResults *prometheus.CounterVec

	// Fields the extractor produced from OCR text
	FieldsExtracted *prometheus.CounterVec

	// OCR latency by engine
	OCRLatency *prometheus.HistogramVec

	// Distribution of verification confidence
	Confidence prometheus.Histogram

	// Records removed by the purger
	RecordsPurged prometheus.Counter
}

// New registers the document metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_verification_outcomes_total",
			Help: "Verification outcomes by operation and decision",
		}, []string{"operation", "decision"}), // operation: "data", "document"

		FieldResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_field_comparisons_total",
			Help: "Per-field comparison results",
		}, []string{"field", "result"}), // result: "match", "mismatch"

		FieldsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idverify_fields_extracted_total",
			Help: "Identity fields found in OCR text",
		}, []string{"field"}),

		OCRLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idverify_ocr_duration_seconds",
			Help:    "Duration of OCR recognition by engine",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"engine"}),

		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idverify_verification_confidence",
			Help:    "Share of compared fields that matched",
			Buckets: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
		}),

		RecordsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "idverify_records_purged_total",
			Help: "Expired verification records deleted",
		}),
	}
}

func (m *Metrics) IncrementOutcome(operation, decision string) {
	if m != nil {
		m.Outcomes.WithLabelValues(operation, decision).Inc()
	}
}

func (m *Metrics) IncrementFieldResult(field string, matched bool) {
	if m != nil {
		result := "mismatch"
		if matched {
			result = "match"
		}
		m.FieldResults.WithLabelValues(field, result).Inc()
	}
}

func (m *Metrics) IncrementFieldExtracted(field string) {
	if m != nil {
		m.FieldsExtracted.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) ObserveOCRLatency(engine string, d time.Duration) {
	if m != nil {
		m.OCRLatency.WithLabelValues(engine).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveConfidence(confidence float64) {
	if m != nil {
		m.Confidence.Observe(confidence)
	}
}

func (m *Metrics) AddRecordsPurged(n int) {
	if m != nil && n > 0 {
		m.RecordsPurged.Add(float64(n))
	}
}
