package kv

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", got)

	require.NoError(t, s.Set(ctx, "k", "v2"))
	got, _, _ = s.Get(ctx, "k")
	assert.Equal(t, "v2", got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadJSONFallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := zap.NewNop()

	type payload struct {
		N int `json:"n"`
	}
	fallback := payload{N: 7}

	// Nil store hands back the fallback.
	assert.Equal(t, fallback, ReadJSON[payload](ctx, nil, log, "k", fallback))

	// Absent key hands back the fallback.
	s := NewMemory()
	assert.Equal(t, fallback, ReadJSON(ctx, s, log, "k", fallback))

	// Corrupt payload heals to the fallback instead of erroring.
	require.NoError(t, s.Set(ctx, "k", "{not json"))
	assert.Equal(t, fallback, ReadJSON(ctx, s, log, "k", fallback))

	// Valid payload wins over the fallback.
	require.NoError(t, WriteJSON(ctx, s, log, "k", payload{N: 42}))
	assert.Equal(t, payload{N: 42}, ReadJSON(ctx, s, log, "k", fallback))
}

func TestWriteJSONNilStore(t *testing.T) {
	t.Parallel()
	assert.NoError(t, WriteJSON(context.Background(), nil, zap.NewNop(), "k", map[string]int{"a": 1}))
}

func TestSQLiteCreatesParentDir(t *testing.T) {
	t.Parallel()
	path := t.TempDir() + "/data/nested/kv.db"

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewSQLite(t.TempDir() + "/kv.db")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2")) // upsert

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}
