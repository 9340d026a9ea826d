package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "idverify/pkg/platform/audit"
)

func TestRingBufferDropsOldest(t *testing.T) {
	b := NewRingBuffer(2)
	b.Enqueue(audit.Event{RequestID: "1"})
	b.Enqueue(audit.Event{RequestID: "2"})
	b.Enqueue(audit.Event{RequestID: "3"})

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, int64(1), b.Dropped())

	batch := b.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "2", batch[0].RequestID)
	assert.Equal(t, "3", batch[1].RequestID)
	assert.Nil(t, b.DequeueBatch(1))
}

func TestRingBufferWrapsAround(t *testing.T) {
	b := NewRingBuffer(3)
	for _, id := range []string{"a", "b", "c"} {
		b.Enqueue(audit.Event{RequestID: id})
	}
	require.Len(t, b.DequeueBatch(2), 2)
	b.Enqueue(audit.Event{RequestID: "d"})
	b.Enqueue(audit.Event{RequestID: "e"})

	batch := b.DequeueBatch(3)
	require.Len(t, batch, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{batch[0].RequestID, batch[1].RequestID, batch[2].RequestID})
	assert.Equal(t, int64(0), b.Dropped())
}

func TestPublisherQueuesWithDefaults(t *testing.T) {
	pub := New(NewRingBuffer(4))

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action:    string(audit.EventAuthFailed),
		RequestID: "r1",
		Reason:    "invalid_token",
	}))

	batch := pub.Buffer().DequeueBatch(1)
	require.Len(t, batch, 1)
	assert.Equal(t, audit.CategorySecurity, batch[0].Category)
	assert.False(t, batch[0].Timestamp.IsZero())
}
