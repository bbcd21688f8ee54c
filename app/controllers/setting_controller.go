package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/app/repository"
	"github.com/quotefox/quotefox/internal/pkg/database"
)

// HandleGetSettings returns the current application settings.
func HandleGetSettings(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}
	settings, err := repository.GetGlobalRepositories().Setting.Get()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(settings)
}

// HandleUpdateSettings replaces the application settings.
func HandleUpdateSettings(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}

	var settings models.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	if err := repository.GetGlobalRepositories().Setting.Save(&settings); err != nil {
		fiberlog.Warnf("[Settings] save rejected: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(settings)
}
