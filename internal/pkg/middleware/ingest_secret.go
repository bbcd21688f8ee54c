package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quotefox/quotefox/internal/pkg/env"
)

// IngestSecretMiddleware gates the ingestion endpoint behind a shared
// secret. When INGEST_SHARED_SECRET is unset the gate is open; when set,
// requests must carry it in X-Ingest-Secret.
func IngestSecretMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("INGEST_SHARED_SECRET", "")
		if secret == "" {
			return c.Next()
		}

		provided := strings.TrimSpace(c.Get("X-Ingest-Secret"))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid ingest secret",
			})
		}
		return c.Next()
	}
}
