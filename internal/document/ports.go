package document

import (
	"context"
	"time"

	"idverify/internal/document/models"
	audit "idverify/pkg/platform/audit"
)

// RecordStore persists verification records. Stores return
// sentinel.ErrNotFound and sentinel.ErrExpired from FindByRequestID.
type RecordStore interface {
	Save(ctx context.Context, record *models.VerificationRecord) error
	FindByRequestID(ctx context.Context, requestID string, now time.Time) (*models.VerificationRecord, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Delete(ctx context.Context, requestIDs []string) (int, error)
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Transactor runs fn so that the record write and its audit event commit or
// roll back together when the backends share a database.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noopTransactor struct{}

func (noopTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
