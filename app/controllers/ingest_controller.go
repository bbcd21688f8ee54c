package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quotefox/quotefox/app/repository"
	"github.com/quotefox/quotefox/internal/pkg/cache"
	"github.com/quotefox/quotefox/internal/pkg/database"
	"github.com/quotefox/quotefox/internal/pkg/ingest"
)

type ingestRequest struct {
	Emails []ingest.EmailRecord `json:"emails"`
}

type ingestResponse struct {
	Success bool               `json:"success"`
	Created int                `json:"created"`
	IDs     []string           `json:"ids"`
	Errors  []ingest.ItemError `json:"errors,omitempty"`
}

// HandleIngest accepts a batch of inbound emails from the mailbox connector
// and turns each into a quotation. Partial failures are reported in-band;
// the HTTP status stays 200 for any batch that was actually processed.
func HandleIngest(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"success": false,
			"error":   "persistence unavailable",
		})
	}

	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "malformed request body",
		})
	}
	if req.Emails == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "emails field is required",
		})
	}

	repos := repository.GetGlobalRepositories()
	pipeline := ingest.NewPipeline(
		repos.Quotation,
		repos.Setting,
		quoteNumbers,
		generator,
		inferenceSvc,
		cache.GetClient(),
	)
	summary := pipeline.ProcessAll(c.Context(), req.Emails)

	return c.JSON(ingestResponse{
		Success: true,
		Created: summary.Created,
		IDs:     summary.IDs,
		Errors:  summary.Errors,
	})
}
