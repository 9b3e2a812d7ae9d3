package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/middleware"
)

func TestIdempotencyStoreReturnsLiveRecord(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{
		Key:        "payment-event:ref-1:succeeded",
		Payload:    []byte(`{"applied":true}`),
		OccurredAt: time.Now().UTC(),
	}))

	rec, found, err := store.Get(ctx, "payment-event:ref-1:succeeded")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"applied":true}`, string(rec.Payload))
}

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Minute)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`)}))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	store.now = func() time.Time { return base.Add(time.Minute) }
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "a record past its TTL reads as absent")

	// Once expired the key is gone for good, even if the clock moves back.
	store.now = func() time.Time { return base }
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdempotencyStoreDefaultTTL(t *testing.T) {
	store := NewIdempotencyStore(0)
	assert.Equal(t, defaultIdempotencyTTL, store.ttl)
}
