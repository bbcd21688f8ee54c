package controllers

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/quotefox/quotefox/internal/pkg/ratecache"
	"github.com/quotefox/quotefox/internal/pkg/storage"
)

// HandleUploadRate stores a new rate document and eagerly registers it with
// the inference service so the next generation needs no rebuild.
func HandleUploadRate(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file field is required"})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !ratecache.IsPDF(fileHeader.Filename, contentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only PDF rate documents are accepted"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open upload"})
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read upload"})
	}

	// Prefix with a uuid so two uploads of "rates.pdf" never collide.
	originalName := filepath.Base(fileHeader.Filename)
	storedName := fmt.Sprintf("%s_%s", uuid.New().String(), originalName)

	key, err := storageBackend.Write(c.Context(), data, storedName, ratecache.RateFolder)
	if err != nil {
		fiberlog.Errorf("[Rates] failed to store %s: %v", originalName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store rate document"})
	}

	if err := rateEngine.OnUpload(c.Context(), key, originalName, data); err != nil {
		// The document is stored; a later rebuild picks it up lazily.
		fiberlog.Warnf("[Rates] eager registration of %s failed: %v", key, err)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"key":     key,
			"name":    originalName,
			"warning": "stored, but registration with the inference service failed; it will be retried on next sync",
		})
	}

	return c.JSON(fiber.Map{"key": key, "name": originalName})
}

// HandleListRates lists the stored rate documents.
func HandleListRates(c *fiber.Ctx) error {
	objects, err := storageBackend.List(c.Context(), ratecache.RateFolder)
	if err != nil {
		fiberlog.Errorf("[Rates] listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list rate documents"})
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return c.JSON(fiber.Map{"documents": objects})
}

// HandleDeleteRate removes a rate document plus its cached handle mapping.
func HandleDeleteRate(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "document key is required"})
	}

	if err := storageBackend.Delete(c.Context(), key); err != nil {
		fiberlog.Errorf("[Rates] failed to delete %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete rate document"})
	}
	if err := rateEngine.OnDelete(c.Context(), key); err != nil {
		fiberlog.Warnf("[Rates] failed to drop mapping for %s: %v", key, err)
	}
	return c.JSON(fiber.Map{"deleted": key})
}
