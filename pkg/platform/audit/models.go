package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance, such as
	// a recorded identity verification decision.
	CategoryCompliance EventCategory = "compliance"
	CategorySecurity   EventCategory = "security"
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It never
// carries raw identity values.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// Subject is the authenticated API client, when known.
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	// SubjectIDHash is a SHA-256 hash of the normalized ID number being
	// verified, for traceability without storing PII.
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
}

type AuditEvent string

const (
	EventDocumentVerified   AuditEvent = "document_verified"
	EventDataVerified       AuditEvent = "data_verified"
	EventVerificationViewed AuditEvent = "verification_viewed"
	EventRecordsPurged      AuditEvent = "records_purged"
	EventAuthFailed         AuditEvent = "auth_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDocumentVerified:   CategoryCompliance,
	EventRecordsPurged:      CategoryCompliance,
	EventAuthFailed:         CategorySecurity,
	EventDataVerified:       CategoryOperations,
	EventVerificationViewed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

func (e AuditEvent) String() string {
	return string(e)
}

// Publisher emits audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
