package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxAndFrom(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, WithTx(ctx, nil))

	tx := &sql.Tx{}
	got, ok := From(WithTx(ctx, tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}

func TestRunInTxReusesAmbientTransaction(t *testing.T) {
	tx := &sql.Tx{}
	ctx := WithTx(context.Background(), tx)
	r := NewRunner(nil, 0)

	var seen *sql.Tx
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		seen, _ = From(ctx)
		return nil
	})

	assert.NoError(t, err)
	assert.Same(t, tx, seen)
}

func TestRunInTxRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(nil, 0).RunInTx(ctx, func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
