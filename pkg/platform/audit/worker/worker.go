package worker

import (
	"context"
	"log/slog"
	"time"

	audit "idverify/pkg/platform/audit"
)

// Source yields queued events in batches.
type Source interface {
	DequeueBatch(n int) []audit.Event
}

const (
	DefaultInterval  = time.Second
	DefaultBatchSize = 100
)

// Worker drains a Source into an audit store on an interval. It keeps
// background persistence out of the request path.
type Worker struct {
	store     audit.Store
	source    Source
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(store audit.Store, source Source, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		source:    source,
		logger:    slog.Default(),
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains on every tick until ctx is done, then flushes what is left
// with a short grace period.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			w.Drain(flushCtx)
			cancel()
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain writes queued events until the source is empty. Events the store
// rejects are logged and dropped. It returns the number written.
func (w *Worker) Drain(ctx context.Context) int {
	written := 0
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return written
		}
		for _, event := range batch {
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist queued audit event",
					"action", event.Action,
					"request_id", event.RequestID,
					"error", err,
				)
				continue
			}
			written++
		}
	}
}
