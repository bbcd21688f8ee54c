package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the controllers to keep behavior consistent
	"github.com/quotefox/quotefox/app/controllers"
	"github.com/quotefox/quotefox/internal/pkg/middleware"
)

// APIServer implements the versioned API surface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	router.Post("/ingest", middleware.IngestSecretMiddleware(), controllers.HandleIngest)

	router.Post("/quotations/generate", controllers.HandleGenerateQuotation)
	router.Get("/quotations", controllers.HandleListQuotations)
	router.Get("/quotations/:id", controllers.HandleGetQuotation)
	router.Put("/quotations/:id", controllers.HandleUpdateQuotation)

	router.Post("/rates", controllers.HandleUploadRate)
	router.Get("/rates", controllers.HandleListRates)
	router.Delete("/rates/*", controllers.HandleDeleteRate)

	router.Get("/settings", controllers.HandleGetSettings)
	router.Put("/settings", controllers.HandleUpdateSettings)
}
