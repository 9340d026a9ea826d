package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "idverify/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, audit.Event{Action: "a", RequestID: "r1"}))
	require.NoError(t, s.Emit(ctx, audit.Event{Action: "b", RequestID: "r2"}))
	require.NoError(t, s.Emit(ctx, audit.Event{Action: "c", RequestID: "r1"}))

	byRequest, err := s.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, byRequest, 2)
	assert.Equal(t, "a", byRequest[0].Action)
	assert.Equal(t, "c", byRequest[1].Action)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Action)

	all, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s.Clear()
	none, err := s.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, none)
}
