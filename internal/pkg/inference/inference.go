package inference

import (
	"context"
	"errors"
)

// FileHandle references a file previously uploaded to the inference service.
// ID is the opaque remote identifier; Name is the original display name.
type FileHandle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrFileNotFound marks extraction failures caused by one or more referenced
// file handles no longer being known to the inference service (expired or
// deleted upstream). Callers check it with errors.Is to trigger a rebuild.
var ErrFileNotFound = errors.New("inference: referenced file not found")

// Service is the boundary to the model-inference provider. Extract returns
// the raw model text; parsing and normalization are the caller's concern.
type Service interface {
	UploadFile(ctx context.Context, data []byte, name string) (FileHandle, error)
	DeleteFile(ctx context.Context, id string) error
	Extract(ctx context.Context, prompt, instructions string, handles []FileHandle) (string, error)
}
