package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackendWriteReadRoundtrip(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()

	key, err := b.Write(ctx, []byte("%PDF content"), "rates.pdf", "rates")
	require.NoError(t, err)
	assert.Equal(t, "rates/rates.pdf", key)

	data, err := b.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF content"), data)
}

func TestLocalBackendWriteOverwrites(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()

	_, err := b.Write(ctx, []byte("v1"), "index.json", "rate-cache")
	require.NoError(t, err)
	key, err := b.Write(ctx, []byte("v2"), "index.json", "rate-cache")
	require.NoError(t, err)

	data, err := b.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestLocalBackendListMissingFolder(t *testing.T) {
	b := NewLocalBackend(t.TempDir())

	objects, err := b.List(context.Background(), "rates")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalBackendListSkipsSubdirectories(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()

	_, err := b.Write(ctx, []byte("a"), "a.pdf", "rates")
	require.NoError(t, err)
	_, err = b.Write(ctx, []byte("b"), "b.pdf", "rates/nested")
	require.NoError(t, err)

	objects, err := b.List(ctx, "rates")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "a.pdf", objects[0].Name)
	assert.Equal(t, "rates/a.pdf", objects[0].Key)
}

func TestLocalBackendReadMissingKey(t *testing.T) {
	b := NewLocalBackend(t.TempDir())

	_, err := b.Read(context.Background(), "rates/missing.pdf")
	assert.Error(t, err)
}

func TestLocalBackendDelete(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()

	key, err := b.Write(ctx, []byte("x"), "a.pdf", "rates")
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, key))
	_, err = b.Read(ctx, key)
	assert.Error(t, err)

	// Deleting again is not an error.
	assert.NoError(t, b.Delete(ctx, key))
}
