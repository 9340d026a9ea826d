package store

import (
	"context"
	"log/slog"
	"time"
)

// PurgeExpirer deletes records whose expiry is at or before now.
type PurgeExpirer interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// DefaultPurgeInterval matches the shortest sensible record TTL.
const DefaultPurgeInterval = time.Minute

// Purger periodically removes expired records.
type Purger struct {
	store    PurgeExpirer
	interval time.Duration
	logger   *slog.Logger
	onPurge  func(ctx context.Context, n int)
	now      func() time.Time
}

// PurgerOption configures a Purger.
type PurgerOption func(*Purger)

func WithPurgeInterval(d time.Duration) PurgerOption {
	return func(p *Purger) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithOnPurge registers a callback invoked after each pass that deleted
// at least one record.
func WithOnPurge(fn func(ctx context.Context, n int)) PurgerOption {
	return func(p *Purger) {
		p.onPurge = fn
	}
}

func NewPurger(store PurgeExpirer, logger *slog.Logger, opts ...PurgerOption) *Purger {
	p := &Purger{
		store:    store,
		interval: DefaultPurgeInterval,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run purges on every tick until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce runs one pass and returns the number of records removed.
func (p *Purger) PurgeOnce(ctx context.Context) int {
	n, err := p.store.PurgeExpired(ctx, p.now())
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to purge expired verification records", "error", err)
		return 0
	}
	if n > 0 {
		p.logger.InfoContext(ctx, "purged expired verification records", "count", n)
		if p.onPurge != nil {
			p.onPurge(ctx, n)
		}
	}
	return n
}
