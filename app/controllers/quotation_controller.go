package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/app/repository"
	"github.com/quotefox/quotefox/internal/pkg/database"
	"github.com/quotefox/quotefox/internal/pkg/quotegen"
	"github.com/quotefox/quotefox/internal/pkg/quotenumber"
	"github.com/quotefox/quotefox/internal/pkg/ratecache"
	"github.com/quotefox/quotefox/internal/pkg/render"
)

type generateRequest struct {
	EnquiryText  string `json:"enquiryText"`
	Instructions string `json:"instructions"`
}

// HandleGenerateQuotation is the manual flow: paste enquiry text, get a
// persisted draft quotation back.
func HandleGenerateQuotation(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	repos := repository.GetGlobalRepositories()
	settings, err := repos.Setting.Get()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load settings"})
	}

	instructions := req.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = settings.ExtractionInstructions
	}

	result, err := generator.Generate(c.Context(), quotegen.Input{
		EnquiryText:  req.EnquiryText,
		Instructions: instructions,
	})
	if err != nil {
		return generationError(c, err)
	}

	quoteNumber := ""
	if n, err := quoteNumbers.Next(); err != nil {
		fiberlog.Warnf("[Quotation] quote number allocation failed: %v", err)
	} else {
		quoteNumber = quotenumber.Format(settings.QuoteNumberPrefix, n)
	}

	quotation := &models.Quotation{
		ExternalID:    models.NewQuotationExternalID(),
		CustomerName:  result.CustomerName,
		CompanyName:   result.CompanyName,
		ProjectName:   result.ProjectName,
		QuotationDate: result.QuotationDate,
		QuoteNumber:   quoteNumber,
		GrandTotal:    render.GrandTotal(result.LineItems),
		TableHTML:     render.QuoteTableHTML(result.LineItems),
		HeaderHTML: render.QuoteHeaderHTML(render.Header{
			QuoteNumber:   quoteNumber,
			QuotationDate: result.QuotationDate,
			CustomerName:  result.CustomerName,
			CompanyName:   result.CompanyName,
			ProjectName:   result.ProjectName,
		}),
		EmailContent: req.EnquiryText,
		Saved:        false,
	}
	if err := quotation.SetLineItems(result.LineItems); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode line items"})
	}

	if err := repos.Quotation.Create(quotation); err != nil {
		fiberlog.Errorf("[Quotation] failed to persist generated quotation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to persist quotation"})
	}

	return c.JSON(quotation)
}

// HandleListQuotations returns quotations, newest first.
func HandleListQuotations(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repos := repository.GetGlobalRepositories()
	quotations, err := repos.Quotation.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list quotations"})
	}
	total, err := repos.Quotation.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count quotations"})
	}

	return c.JSON(fiber.Map{"quotations": quotations, "total": total})
}

// HandleGetQuotation returns one quotation by external id.
func HandleGetQuotation(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}

	repos := repository.GetGlobalRepositories()
	quotation, err := repos.Quotation.GetByExternalID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	if quotation == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "quotation not found"})
	}
	return c.JSON(quotation)
}

type updateQuotationRequest struct {
	CustomerName  *string           `json:"customerName"`
	CompanyName   *string           `json:"companyName"`
	ProjectName   *string           `json:"projectName"`
	QuotationDate *string           `json:"quotationDate"`
	LineItems     []models.LineItem `json:"lineItems"`
	Saved         *bool             `json:"saved"`
}

// HandleUpdateQuotation applies an edit or approval. Line-item arithmetic is
// recomputed server-side; client-sent totals are never trusted.
func HandleUpdateQuotation(c *fiber.Ctx) error {
	if database.GetDB() == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "persistence unavailable"})
	}

	var req updateQuotationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	repos := repository.GetGlobalRepositories()
	quotation, err := repos.Quotation.GetByExternalID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	if quotation == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "quotation not found"})
	}

	if req.CustomerName != nil {
		quotation.CustomerName = *req.CustomerName
	}
	if req.CompanyName != nil {
		quotation.CompanyName = *req.CompanyName
	}
	if req.ProjectName != nil {
		quotation.ProjectName = *req.ProjectName
	}
	if req.QuotationDate != nil {
		quotation.QuotationDate = *req.QuotationDate
	}
	if req.Saved != nil {
		quotation.Saved = *req.Saved
	}

	items := quotation.ParsedLineItems()
	if req.LineItems != nil {
		items = req.LineItems
	}
	items = quotegen.NormalizeItems(items)
	if err := quotation.SetLineItems(items); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode line items"})
	}
	quotation.GrandTotal = render.GrandTotal(items)
	quotation.TableHTML = render.QuoteTableHTML(items)
	quotation.HeaderHTML = render.QuoteHeaderHTML(render.Header{
		QuoteNumber:   quotation.QuoteNumber,
		QuotationDate: quotation.QuotationDate,
		CustomerName:  quotation.CustomerName,
		CompanyName:   quotation.CompanyName,
		ProjectName:   quotation.ProjectName,
	})

	if err := repos.Quotation.Update(quotation); err != nil {
		fiberlog.Errorf("[Quotation] failed to update %s: %v", quotation.ExternalID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update quotation"})
	}
	return c.JSON(quotation)
}

// generationError maps generator failures onto HTTP statuses: caller
// configuration problems are 400s, everything else is a 502 from the
// inference boundary or a 500.
func generationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, quotegen.ErrMissingContent),
		errors.Is(err, quotegen.ErrMissingInstructions),
		errors.Is(err, ratecache.ErrNoRateDocuments):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		fiberlog.Errorf("[Quotation] generation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}
