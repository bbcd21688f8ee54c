package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(&Config{APIKey: "test-key", BaseURL: baseURL, Model: "test-model"})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantStale  bool
	}{
		{
			name:       "404 is stale",
			statusCode: 404,
			body:       `{"error": {"code": 404, "status": "NOT_FOUND", "message": "File abc123 not found"}}`,
			wantStale:  true,
		},
		{
			name:       "403 mentioning file is stale",
			statusCode: 403,
			body:       `{"error": {"code": 403, "status": "PERMISSION_DENIED", "message": "You do not have permission to access the File abc123"}}`,
			wantStale:  true,
		},
		{
			name:       "403 without file mention is not stale",
			statusCode: 403,
			body:       `{"error": {"code": 403, "status": "PERMISSION_DENIED", "message": "API key invalid"}}`,
			wantStale:  false,
		},
		{
			name:       "not exist phrasing is stale",
			statusCode: 400,
			body:       `{"error": {"code": 400, "status": "INVALID_ARGUMENT", "message": "File abc123 does not exist in the File service"}}`,
			wantStale:  true,
		},
		{
			name:       "429 is not stale",
			statusCode: 429,
			body:       `{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "Quota exceeded"}}`,
			wantStale:  false,
		},
		{
			name:       "non-json body",
			statusCode: 500,
			body:       "internal error",
			wantStale:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.statusCode, []byte(tt.body))
			require.Error(t, err)
			if tt.wantStale {
				assert.ErrorIs(t, err, ErrFileNotFound)
			} else {
				assert.NotErrorIs(t, err, ErrFileNotFound)
			}
		})
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/v1beta/files", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/related")

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "rates.pdf")

		json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]any{
				"name":        "files/abc123",
				"uri":         srvFileURI,
				"displayName": "rates.pdf",
			},
		})
	}))
	defer srv.Close()

	handle, err := testClient(srv.URL).UploadFile(context.Background(), []byte("%PDF"), "rates.pdf")
	require.NoError(t, err)
	assert.Equal(t, srvFileURI, handle.ID)
	assert.Equal(t, "rates.pdf", handle.Name)
}

const srvFileURI = "https://generativelanguage.googleapis.com/v1beta/files/abc123"

func TestUploadFileErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "unsupported mime type"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).UploadFile(context.Background(), []byte("x"), "rates.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mime type")
}

func TestExtract(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{
					map[string]any{"text": `{"customer`},
					map[string]any{"text": `Name": "Ravi"}`},
				}}},
			},
		})
	}))
	defer srv.Close()

	raw, err := testClient(srv.URL).Extract(context.Background(), "need pipes", "extract items", []FileHandle{
		{ID: "files/rates", Name: "rates.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"customerName": "Ravi"}`, raw, "candidate parts are concatenated")

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "extract items", parts[0].Text)
	assert.Equal(t, "need pipes", parts[1].Text)
	require.NotNil(t, parts[2].FileData)
	assert.Equal(t, "files/rates", parts[2].FileData.FileURI)
}

func TestExtractStaleHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "You do not have permission to access the File xyz"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Extract(context.Background(), "p", "i", nil)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestExtractNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Extract(context.Background(), "p", "i", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestExtractOmitsBlankPrompt(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{
					map[string]any{"text": "{}"},
				}}},
			},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Extract(context.Background(), "   ", "instructions", nil)
	require.NoError(t, err)
	require.Len(t, captured.Contents, 1)
	assert.Len(t, captured.Contents[0].Parts, 1)
}

func TestDeleteFileTolerates404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient(srv.URL).DeleteFile(context.Background(), srv.URL+"/v1beta/files/abc123")
	assert.NoError(t, err)
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("INFERENCE_API_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("INFERENCE_API_KEY", "secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
}
