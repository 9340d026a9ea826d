// Package security buffers security audit events, such as rejected
// credentials, so that a burst of failures never blocks request handling.
// A worker drains the buffer into the audit store.
package security

import (
	"context"
	"time"

	audit "idverify/pkg/platform/audit"
)

type Publisher struct {
	buffer *RingBuffer
	now    func() time.Time
}

func New(buffer *RingBuffer) *Publisher {
	if buffer == nil {
		buffer = NewRingBuffer(DefaultCapacity)
	}
	return &Publisher{buffer: buffer, now: time.Now}
}

// Emit queues event and returns immediately. It never fails.
func (p *Publisher) Emit(_ context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.CategorySecurity
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	p.buffer.Enqueue(event)
	return nil
}

// Buffer exposes the queue for the draining worker.
func (p *Publisher) Buffer() *RingBuffer {
	return p.buffer
}
