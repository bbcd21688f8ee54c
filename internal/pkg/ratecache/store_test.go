package ratecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotefox/quotefox/internal/pkg/storage"
)

func newTestStore(t *testing.T) (*Store, storage.Backend) {
	t.Helper()
	backend := storage.NewLocalBackend(t.TempDir())
	return NewStore(backend), backend
}

func mapping(key, fileID, name string) RateMapping {
	return RateMapping{
		StorageKey:      key,
		InferenceFileID: fileID,
		OriginalName:    name,
		CreatedAt:       time.Now(),
	}
}

func TestStoreLoadAbsentIndex(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Empty(t, store.Load(context.Background()))
}

func TestStoreLoadMalformedIndex(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	_, err := backend.Write(ctx, []byte("{not json"), "index.json", "rate-cache")
	require.NoError(t, err)

	assert.Empty(t, store.Load(ctx))
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	mappings := []RateMapping{
		mapping("rates/a.pdf", "files/aaa", "a.pdf"),
		mapping("rates/b.pdf", "files/bbb", "b.pdf"),
	}
	require.NoError(t, store.Save(ctx, mappings))

	loaded := store.Load(ctx)
	require.Len(t, loaded, 2)
	assert.Equal(t, "rates/a.pdf", loaded[0].StorageKey)
	assert.Equal(t, "files/bbb", loaded[1].InferenceFileID)
}

func TestStoreUpsertReplacesExistingKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, mapping("rates/a.pdf", "files/old", "a.pdf")))
	require.NoError(t, store.Upsert(ctx, mapping("rates/b.pdf", "files/bbb", "b.pdf")))
	require.NoError(t, store.Upsert(ctx, mapping("rates/a.pdf", "files/new", "a.pdf")))

	loaded := store.Load(ctx)
	require.Len(t, loaded, 2)

	byKey := map[string]string{}
	for _, m := range loaded {
		_, seen := byKey[m.StorageKey]
		assert.False(t, seen, "duplicate mapping for %s", m.StorageKey)
		byKey[m.StorageKey] = m.InferenceFileID
	}
	assert.Equal(t, "files/new", byKey["rates/a.pdf"])
	assert.Equal(t, "files/bbb", byKey["rates/b.pdf"])
}

func TestStoreUpsertSequencesKeepOneMappingPerKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	keys := []string{"rates/a.pdf", "rates/b.pdf", "rates/a.pdf", "rates/c.pdf", "rates/b.pdf", "rates/a.pdf"}
	for i, key := range keys {
		require.NoError(t, store.Upsert(ctx, mapping(key, "files/"+string(rune('0'+i)), key)))
	}

	loaded := store.Load(ctx)
	assert.Len(t, loaded, 3)
	// The survivor is the most recently upserted one per key.
	for _, m := range loaded {
		if m.StorageKey == "rates/a.pdf" {
			assert.Equal(t, "files/5", m.InferenceFileID)
		}
	}
}

func TestStoreRemoveByKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, mapping("rates/a.pdf", "files/aaa", "a.pdf")))
	require.NoError(t, store.RemoveByKey(ctx, "rates/a.pdf"))
	assert.Empty(t, store.Load(ctx))

	// Removing an absent key is a no-op.
	require.NoError(t, store.RemoveByKey(ctx, "rates/missing.pdf"))
}
