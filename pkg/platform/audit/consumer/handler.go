// Package consumer materializes audit events from Kafka into a durable store.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "idverify/pkg/platform/audit"
)

// Store persists an event under a caller-chosen ID. Writing the same ID
// twice must be a no-op.
type Store interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler decodes one Kafka record and writes it to the store.
type Handler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

// EventID derives a stable ID from the record position so redelivered
// records collapse onto the row written the first time.
func EventID(r *kgo.Record) uuid.UUID {
	name := fmt.Sprintf("%s/%d/%d", r.Topic, r.Partition, r.Offset)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// Handle returns an error only when the store fails. Malformed records are
// logged and skipped so they cannot block the partition.
func (h *Handler) Handle(ctx context.Context, r *kgo.Record) error {
	var event audit.Event
	if err := json.Unmarshal(r.Value, &event); err != nil {
		h.logger.WarnContext(ctx, "skipping undecodable audit record",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
			"error", err,
		)
		return nil
	}
	if event.Action == "" {
		h.logger.WarnContext(ctx, "skipping audit record without action",
			"partition", r.Partition,
			"offset", r.Offset,
		)
		return nil
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now()
	}

	eventID := EventID(r)
	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		return fmt.Errorf("store audit event %s: %w", eventID, err)
	}
	h.logger.DebugContext(ctx, "materialized audit event",
		"event_id", eventID,
		"action", event.Action,
		"category", event.Category,
	)
	return nil
}
