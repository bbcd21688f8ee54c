package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores documents under a root directory on local disk.
// Writes go through a temp file plus rename so a concurrent reader never
// observes a half-written object.
type LocalBackend struct {
	root string
}

// NewLocalBackend creates a disk-backed document store rooted at root.
func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

func (b *LocalBackend) abs(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// List returns the files directly inside folder.
func (b *LocalBackend) List(_ context.Context, folder string) ([]ObjectInfo, error) {
	dir := b.abs(folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var objects []ObjectInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		objects = append(objects, ObjectInfo{
			Name: entry.Name(),
			Key:  strings.TrimSuffix(folder, "/") + "/" + entry.Name(),
		})
	}
	return objects, nil
}

// Read returns the full file contents for key.
func (b *LocalBackend) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.abs(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Write stores data under folder/name atomically and returns the key.
func (b *LocalBackend) Write(_ context.Context, data []byte, name, folder string) (string, error) {
	key := strings.TrimSuffix(folder, "/") + "/" + name
	target := b.abs(key)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", key, err)
	}
	return key, nil
}

// Delete removes the file; a missing file is not an error.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.abs(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
