package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	code, err := GenerateVerificationCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestMemoryCodeStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryCodeStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "email:a@example.com", "123456", 5*time.Minute))

	value, err := store.Get(ctx, "email:a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", value)

	now = now.Add(6 * time.Minute)
	_, err = store.Get(ctx, "email:a@example.com")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestMemoryCodeStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryCodeStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", "1", time.Minute))
	require.NoError(t, store.Set(ctx, "long", "2", time.Hour))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.PurgeExpired())

	value, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}
