package ratecache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/internal/pkg/inference"
	"github.com/quotefox/quotefox/internal/pkg/storage"
)

// RateFolder is the storage folder holding rate documents.
const RateFolder = "rates"

// ErrNoRateDocuments signals that no rate documents exist in storage, so no
// quotation can be generated until one is uploaded.
var ErrNoRateDocuments = errors.New("no rate documents in storage")

// AllUploadsFailedError reports a rebuild in which every single upload
// attempt failed, carrying the per-file messages for operator diagnosis.
type AllUploadsFailedError struct {
	Errors []string
}

func (e *AllUploadsFailedError) Error() string {
	return fmt.Sprintf("all %d rate document uploads failed: %s",
		len(e.Errors), strings.Join(e.Errors, "; "))
}

// Engine keeps the mapping index consistent with the rate documents in
// storage and exposes the current handle set for generation.
type Engine struct {
	store   *Store
	backend storage.Backend
	svc     inference.Service
}

// NewEngine creates a sync engine over the given collaborators.
func NewEngine(store *Store, backend storage.Backend, svc inference.Service) *Engine {
	return &Engine{store: store, backend: backend, svc: svc}
}

// HandleSet returns the full set of rate-file handles. A non-empty index is
// trusted as-is with no network calls; an empty one triggers a full rebuild.
func (e *Engine) HandleSet(ctx context.Context) ([]inference.FileHandle, error) {
	if mappings := e.store.Load(ctx); len(mappings) > 0 {
		return toHandles(mappings), nil
	}

	mappings, err := e.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return toHandles(mappings), nil
}

// Rebuild re-registers every stored PDF rate document with the inference
// service and overwrites the index with the fresh mappings. Uploads are
// attempted independently; one failure does not abort the rest. Stale
// mappings do not survive a rebuild.
func (e *Engine) Rebuild(ctx context.Context) ([]RateMapping, error) {
	objects, err := e.backend.List(ctx, RateFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate documents: %w", err)
	}
	if len(objects) == 0 {
		return nil, ErrNoRateDocuments
	}

	var mappings []RateMapping
	var uploadErrs []string
	attempts := 0
	for _, obj := range objects {
		if !IsPDF(obj.Name, "") {
			// Only PDFs go to the extraction call; other types are skipped.
			log.Debugf("[RateSync] skipping non-pdf rate document %s", obj.Key)
			continue
		}
		attempts++

		data, err := e.backend.Read(ctx, obj.Key)
		if err != nil {
			uploadErrs = append(uploadErrs, fmt.Sprintf("%s: %v", obj.Name, err))
			continue
		}
		handle, err := e.svc.UploadFile(ctx, data, obj.Name)
		if err != nil {
			uploadErrs = append(uploadErrs, fmt.Sprintf("%s: %v", obj.Name, err))
			continue
		}
		mappings = append(mappings, RateMapping{
			StorageKey:      obj.Key,
			InferenceFileID: handle.ID,
			OriginalName:    obj.Name,
			CreatedAt:       time.Now(),
		})
	}

	if attempts > 0 && len(mappings) == 0 {
		return nil, &AllUploadsFailedError{Errors: uploadErrs}
	}
	if len(uploadErrs) > 0 {
		log.Warnf("[RateSync] rebuild completed with %d failed uploads: %s",
			len(uploadErrs), strings.Join(uploadErrs, "; "))
	}

	if err := e.store.Save(ctx, mappings); err != nil {
		return nil, err
	}
	log.Infof("[RateSync] rebuilt mapping index with %d entries", len(mappings))
	return mappings, nil
}

// RebuildHandles is Rebuild with the result converted to file handles, for
// callers that only care about the usable handle set.
func (e *Engine) RebuildHandles(ctx context.Context) ([]inference.FileHandle, error) {
	mappings, err := e.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return toHandles(mappings), nil
}

// OnUpload eagerly registers a freshly stored rate document and records its
// mapping so the next generation needs no rebuild.
func (e *Engine) OnUpload(ctx context.Context, storageKey, name string, data []byte) error {
	handle, err := e.svc.UploadFile(ctx, data, name)
	if err != nil {
		return fmt.Errorf("failed to register rate document with inference service: %w", err)
	}
	return e.store.Upsert(ctx, RateMapping{
		StorageKey:      storageKey,
		InferenceFileID: handle.ID,
		OriginalName:    name,
		CreatedAt:       time.Now(),
	})
}

// OnDelete drops the mapping for a deleted rate document. The remote handle
// is deleted best-effort; the service expires orphaned files on its own.
func (e *Engine) OnDelete(ctx context.Context, storageKey string) error {
	for _, m := range e.store.Load(ctx) {
		if m.StorageKey == storageKey {
			if err := e.svc.DeleteFile(ctx, m.InferenceFileID); err != nil {
				log.Warnf("[RateSync] could not delete remote handle for %s: %v", storageKey, err)
			}
			break
		}
	}
	return e.store.RemoveByKey(ctx, storageKey)
}

// Reconcile rebuilds the index when it is empty while storage is not. Run
// periodically, it heals an index lost to corruption without waiting for the
// next generation request to pay the rebuild cost.
func (e *Engine) Reconcile(ctx context.Context) {
	if len(e.store.Load(ctx)) > 0 {
		return
	}
	if _, err := e.Rebuild(ctx); err != nil && !errors.Is(err, ErrNoRateDocuments) {
		log.Errorf("[RateSync] periodic reconcile failed: %v", err)
	}
}

// IsPDF reports whether a file name or MIME type identifies a PDF.
func IsPDF(name, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func toHandles(mappings []RateMapping) []inference.FileHandle {
	handles := make([]inference.FileHandle, 0, len(mappings))
	for _, m := range mappings {
		handles = append(handles, inference.FileHandle{ID: m.InferenceFileID, Name: m.OriginalName})
	}
	return handles
}
