package compliance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("broker down")
}

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	fixed := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
	p := New(store, WithMetrics(metrics))
	p.now = func() time.Time { return fixed }

	err := p.Emit(ctx, audit.Event{Action: audit.EventDocumentVerified.String(), RequestID: "req-1", Decision: "match"})
	require.NoError(t, err)

	events, err := store.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsEmitted.WithLabelValues("compliance")))
}

func TestPublisher_EmitRejectsIncompleteEvents(t *testing.T) {
	p := New(memory.NewInMemoryStore())

	assert.Error(t, p.Emit(context.Background(), audit.Event{RequestID: "req-1"}))
	assert.Error(t, p.Emit(context.Background(), audit.Event{Action: "document_verified"}))
}

func TestPublisher_EmitStoreFailure(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	p := New(failingStore{},
		WithMetrics(metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	err := p.Emit(context.Background(), audit.Event{Action: "data_verified", RequestID: "req-2"})

	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistFailures))
}
