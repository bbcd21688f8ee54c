package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/internal/pkg/env"
)

// Config holds inference-service connection settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LoadConfig loads inference configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:  env.GetEnv("INFERENCE_API_KEY", ""),
		BaseURL: env.GetEnv("INFERENCE_BASE_URL", "https://generativelanguage.googleapis.com"),
		Model:   env.GetEnv("INFERENCE_MODEL", "gemini-2.0-flash"),
	}
	if cfg.APIKey == "" {
		return nil, errors.New("INFERENCE_API_KEY is required")
	}
	return cfg, nil
}

// Client talks to a Gemini-style files + generateContent HTTP API.
type Client struct {
	httpClient *http.Client
	config     *Config
}

// NewClient creates a new inference-service client
func NewClient(cfg *Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		config:     cfg,
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// classify maps provider failures onto our error taxonomy. Expired or
// deleted remote files surface as 403 PERMISSION_DENIED or 404 with the file
// name in the message.
func classify(statusCode int, body []byte) error {
	var ae apiError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}

	lower := strings.ToLower(msg)
	if statusCode == http.StatusNotFound ||
		(statusCode == http.StatusForbidden && strings.Contains(lower, "file")) ||
		strings.Contains(lower, "not exist") {
		return fmt.Errorf("%w: %s", ErrFileNotFound, msg)
	}
	return fmt.Errorf("inference service returned %d: %s", statusCode, msg)
}

type uploadResponse struct {
	File struct {
		Name        string `json:"name"`
		URI         string `json:"uri"`
		DisplayName string `json:"displayName"`
	} `json:"file"`
}

// UploadFile registers a document with the inference service and returns its
// opaque handle.
func (c *Client) UploadFile(ctx context.Context, data []byte, name string) (FileHandle, error) {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	meta := map[string]any{"file": map[string]any{"display_name": name}}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return FileHandle{}, fmt.Errorf("failed to encode upload metadata: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", contentType)
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := filePart.Write(data); err != nil {
		return FileHandle{}, fmt.Errorf("failed to write upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return FileHandle{}, fmt.Errorf("failed to finish upload body: %w", err)
	}

	url := fmt.Sprintf("%s/upload/v1beta/files?uploadType=multipart&key=%s", c.config.BaseURL, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FileHandle{}, fmt.Errorf("file upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FileHandle{}, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return FileHandle{}, classify(resp.StatusCode, body)
	}

	var ur uploadResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return FileHandle{}, fmt.Errorf("unexpected upload response: %w", err)
	}
	if ur.File.URI == "" {
		return FileHandle{}, errors.New("upload response carried no file uri")
	}

	log.Infof("[Inference] uploaded %s as %s", name, ur.File.Name)
	return FileHandle{ID: ur.File.URI, Name: name}, nil
}

// DeleteFile removes a previously uploaded file from the inference service.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	// The handle we store is the full file URI; deletion goes to that path.
	url := fmt.Sprintf("%s?key=%s", id, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("file delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return classify(resp.StatusCode, body)
	}
	return nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI string `json:"file_uri"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract runs the extraction call over the enquiry content plus the given
// file handles and returns the raw model text.
func (c *Client) Extract(ctx context.Context, prompt, instructions string, handles []FileHandle) (string, error) {
	parts := []part{{Text: instructions}}
	if strings.TrimSpace(prompt) != "" {
		parts = append(parts, part{Text: prompt})
	}
	for _, h := range handles {
		parts = append(parts, part{FileData: &fileData{FileURI: h.ID}})
	}

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode extraction request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classify(resp.StatusCode, body)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("unexpected extraction response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", errors.New("extraction response carried no candidates")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
