package storage

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/internal/pkg/env"
)

// ObjectInfo describes one stored object inside a folder listing.
type ObjectInfo struct {
	Name string `json:"name"` // original file name (last path segment)
	Key  string `json:"key"`  // full backend key, usable with Read/Delete
}

// Backend is the single capability interface for document storage. Exactly
// one implementation is selected at composition time; no core component ever
// branches on which backend is active.
type Backend interface {
	List(ctx context.Context, folder string) ([]ObjectInfo, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, data []byte, name, folder string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Select builds the backend configured via STORAGE_BACKEND (s3|local).
func Select() (Backend, error) {
	switch env.GetEnv("STORAGE_BACKEND", "local") {
	case "s3":
		cfg, err := LoadS3Config()
		if err != nil {
			return nil, err
		}
		return NewS3Backend(cfg)
	default:
		root := env.GetEnv("STORAGE_LOCAL_ROOT", "./data")
		log.Infof("[Storage] using local backend at %s", root)
		return NewLocalBackend(root), nil
	}
}
