// Package ops publishes operational audit events on a best-effort basis.
//
// Emit never fails the caller. Events may be sampled, and while the sink is
// failing they are dropped without a write attempt until a probe succeeds.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/circuit"
)

type Publisher struct {
	store   audit.Store
	sampler *Sampler
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Publisher)

func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		if s != nil {
			p.sampler = s
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New keeps every event by default and opens its circuit after five
// consecutive sink failures.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		sampler: NewSampler(1),
		breaker: circuit.New("audit-ops", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit always returns nil.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return nil
	}
	if !p.sampler.ShouldSample(event.Action) {
		p.metrics.IncSampled()
		return nil
	}
	if !p.breaker.AllowPrimary() {
		p.metrics.IncCircuitBreakerDropped()
		return nil
	}

	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.SetCircuitBreakerState(true)
			p.logger.WarnContext(ctx, "ops audit circuit opened", "error", err)
		}
		return nil
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.SetCircuitBreakerState(false)
		p.logger.InfoContext(ctx, "ops audit circuit closed")
	}
	p.metrics.IncTracked()
	return nil
}
