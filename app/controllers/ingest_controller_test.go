package controllers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotefox/quotefox/internal/pkg/middleware"
)

func newIngestApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/ingest", middleware.IngestSecretMiddleware(), HandleIngest)
	return app
}

func postIngest(t *testing.T, app *fiber.App, body, secret string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Ingest-Secret", secret)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

// The test process has no database connection, so a well-formed request
// that clears the secret gate lands on the persistence-unavailable branch.
func TestHandleIngestWithoutDatabase(t *testing.T) {
	app := newIngestApp()

	status, body := postIngest(t, app, `{"emails": []}`, "")
	assert.Equal(t, fiber.StatusNotImplemented, status)
	assert.Contains(t, body, "persistence unavailable")
}

func TestIngestSecretGate(t *testing.T) {
	t.Setenv("INGEST_SHARED_SECRET", "topsecret")
	app := newIngestApp()

	status, body := postIngest(t, app, `{"emails": []}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid ingest secret")

	status, _ = postIngest(t, app, `{"emails": []}`, "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// The right secret clears the gate and reaches the handler.
	status, _ = postIngest(t, app, `{"emails": []}`, "topsecret")
	assert.Equal(t, fiber.StatusNotImplemented, status)
}

func TestIngestSecretGateOpenWhenUnset(t *testing.T) {
	t.Setenv("INGEST_SHARED_SECRET", "")
	app := newIngestApp()

	status, _ := postIngest(t, app, `{"emails": []}`, "")
	assert.Equal(t, fiber.StatusNotImplemented, status)
}
