package ratecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/internal/pkg/storage"
)

const (
	indexFolder = "rate-cache"
	indexName   = "index.json"
)

// RateMapping links a stored rate document to the handle the inference
// service issued for it. At most one live mapping exists per StorageKey.
type RateMapping struct {
	StorageKey      string    `json:"storageKey"`
	InferenceFileID string    `json:"inferenceFileId"`
	OriginalName    string    `json:"originalName"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Store persists the mapping index as one JSON document in the storage
// backend. Every mutation is a full read-modify-write; the index stays small
// (tens to low hundreds of entries) so that is fine.
type Store struct {
	backend storage.Backend
}

// NewStore creates a mapping store on top of the given backend.
func NewStore(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// Load returns all current mappings. An absent, unreadable or malformed
// index is a recoverable condition and yields an empty slice, never an
// error: the sync engine rebuilds from storage in that case.
func (s *Store) Load(ctx context.Context) []RateMapping {
	data, err := s.backend.Read(ctx, indexFolder+"/"+indexName)
	if err != nil {
		return nil
	}
	var mappings []RateMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		log.Warnf("[RateCache] discarding malformed mapping index: %v", err)
		return nil
	}
	return mappings
}

// Save atomically overwrites the index with the given collection.
func (s *Store) Save(ctx context.Context, mappings []RateMapping) error {
	if mappings == nil {
		mappings = []RateMapping{}
	}
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mapping index: %w", err)
	}
	if _, err := s.backend.Write(ctx, data, indexName, indexFolder); err != nil {
		return fmt.Errorf("failed to persist mapping index: %w", err)
	}
	return nil
}

// Upsert replaces any existing mapping for the same storage key and
// persists the index.
func (s *Store) Upsert(ctx context.Context, mapping RateMapping) error {
	mappings := s.Load(ctx)
	kept := make([]RateMapping, 0, len(mappings)+1)
	for _, m := range mappings {
		if m.StorageKey != mapping.StorageKey {
			kept = append(kept, m)
		}
	}
	kept = append(kept, mapping)
	return s.Save(ctx, kept)
}

// RemoveByKey drops the mapping for the given storage key, if present.
func (s *Store) RemoveByKey(ctx context.Context, storageKey string) error {
	mappings := s.Load(ctx)
	kept := make([]RateMapping, 0, len(mappings))
	removed := false
	for _, m := range mappings {
		if m.StorageKey == storageKey {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return nil
	}
	return s.Save(ctx, kept)
}
