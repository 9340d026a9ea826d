// Package publisher routes audit events to a per-category publisher.
//
// Compliance events go to a synchronous publisher whose errors reach the
// caller. Operations and security events go to their own publishers when
// configured and fall back to the compliance publisher otherwise.
package publisher

import (
	"context"

	audit "idverify/pkg/platform/audit"
)

type Publisher struct {
	compliance audit.Publisher
	ops        audit.Publisher
	security   audit.Publisher
}

type Option func(*Publisher)

func WithOps(p audit.Publisher) Option {
	return func(r *Publisher) {
		r.ops = p
	}
}

func WithSecurity(p audit.Publisher) Option {
	return func(r *Publisher) {
		r.security = p
	}
}

func NewPublisher(compliance audit.Publisher, opts ...Option) *Publisher {
	p := &Publisher{compliance: compliance}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit derives the category from the action and hands the event to the
// matching publisher.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()
	event.Category = category
	return p.route(category).Emit(ctx, event)
}

func (p *Publisher) route(category audit.EventCategory) audit.Publisher {
	switch category {
	case audit.CategoryOperations:
		if p.ops != nil {
			return p.ops
		}
	case audit.CategorySecurity:
		if p.security != nil {
			return p.security
		}
	}
	return p.compliance
}
