package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/app/repository"
	"github.com/quotefox/quotefox/internal/pkg/inference"
	"github.com/quotefox/quotefox/internal/pkg/quotegen"
	"github.com/quotefox/quotefox/internal/pkg/quotenumber"
	"github.com/quotefox/quotefox/internal/pkg/ratecache"
	"github.com/quotefox/quotefox/internal/pkg/render"
)

// Per-email failure classes. ErrDuplicate keeps the exact marker message the
// mailbox connector looks for to stop resubmitting a message.
var (
	ErrMissingEmailID = errors.New("email record has no id")
	ErrDuplicate      = errors.New("Already imported (duplicate)")
	ErrEmptyEmail     = errors.New("email has neither text content nor a PDF attachment")
)

const statsKey = "ingest:stats"

// EmailAttachment is one attachment of an inbound email.
type EmailAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Base64      string `json:"base64"`
}

// EmailRecord is one inbound email as delivered by the mailbox connector.
type EmailRecord struct {
	ID          string            `json:"id"`
	Subject     string            `json:"subject"`
	From        string            `json:"from"`
	Date        string            `json:"date"`
	Body        string            `json:"body"`
	Attachments []EmailAttachment `json:"attachments"`
}

// ItemError records one email's failure inside a batch.
type ItemError struct {
	EmailID string `json:"emailId"`
	Error   string `json:"error"`
}

// Summary is the outcome of one batch run.
type Summary struct {
	Created int         `json:"created"`
	IDs     []string    `json:"ids"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// QuoteGenerator is the generation collaborator; satisfied by
// quotegen.Generator, faked in tests.
type QuoteGenerator interface {
	Generate(ctx context.Context, in quotegen.Input) (*quotegen.Result, error)
}

// Pipeline turns a batch of inbound emails into persisted quotations,
// exactly once per email. Emails are processed sequentially and
// independently; one failure never touches its siblings.
type Pipeline struct {
	quotations repository.QuotationRepository
	settings   repository.SettingRepository
	numbers    *quotenumber.Allocator
	generator  QuoteGenerator
	svc        inference.Service
	stats      *redis.Client // optional run counters, may be nil
}

// NewPipeline creates an ingestion pipeline over the given collaborators.
func NewPipeline(
	quotations repository.QuotationRepository,
	settings repository.SettingRepository,
	numbers *quotenumber.Allocator,
	generator QuoteGenerator,
	svc inference.Service,
	stats *redis.Client,
) *Pipeline {
	return &Pipeline{
		quotations: quotations,
		settings:   settings,
		numbers:    numbers,
		generator:  generator,
		svc:        svc,
		stats:      stats,
	}
}

// ProcessAll runs the batch. Partial failures land in Summary.Errors; the
// HTTP status of the caller stays 200 regardless.
func (p *Pipeline) ProcessAll(ctx context.Context, emails []EmailRecord) Summary {
	summary := Summary{IDs: []string{}}
	for _, email := range emails {
		p.bumpStat(ctx, "processed")
		externalID, err := p.processOne(ctx, email)
		if err != nil {
			p.bumpStat(ctx, "failed")
			log.Warnf("[Ingest] email %q failed: %v", email.ID, err)
			summary.Errors = append(summary.Errors, ItemError{EmailID: email.ID, Error: err.Error()})
			continue
		}
		p.bumpStat(ctx, "created")
		summary.Created++
		summary.IDs = append(summary.IDs, externalID)
	}
	log.Infof("[Ingest] batch done: %d created, %d failed of %d",
		summary.Created, len(summary.Errors), len(emails))
	return summary
}

// processOne handles a single email end to end and returns the new
// quotation's external id.
func (p *Pipeline) processOne(ctx context.Context, email EmailRecord) (string, error) {
	if strings.TrimSpace(email.ID) == "" {
		return "", ErrMissingEmailID
	}

	// Dedup comes before any expensive work. The persisted unique index on
	// gmail_message_id is the authority; this lookup is the cheap first line.
	existing, err := p.quotations.GetByGmailMessageID(email.ID)
	if err != nil {
		return "", fmt.Errorf("duplicate lookup failed: %w", err)
	}
	if existing != nil {
		return "", ErrDuplicate
	}

	settings, err := p.settings.Get()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	if strings.TrimSpace(settings.ExtractionInstructions) == "" {
		return "", quotegen.ErrMissingInstructions
	}

	enquiryFileID := p.uploadFirstPDF(ctx, email)

	if strings.TrimSpace(email.Body) == "" && enquiryFileID == "" {
		return "", ErrEmptyEmail
	}

	result, err := p.generator.Generate(ctx, quotegen.Input{
		EnquiryText:   enquiryText(email),
		EnquiryFileID: enquiryFileID,
		Instructions:  settings.ExtractionInstructions,
	})
	if err != nil {
		return "", err
	}

	// Quote-number allocation is best-effort; a blank number is fixable by a
	// human later, a dropped email is not.
	quoteNumber := ""
	if n, err := p.numbers.Next(); err != nil {
		log.Warnf("[Ingest] quote number allocation failed for email %q: %v", email.ID, err)
	} else {
		quoteNumber = quotenumber.Format(settings.QuoteNumberPrefix, n)
	}

	messageID := email.ID
	header := render.Header{
		QuoteNumber:   quoteNumber,
		QuotationDate: result.QuotationDate,
		CustomerName:  result.CustomerName,
		CompanyName:   result.CompanyName,
		ProjectName:   result.ProjectName,
	}
	quotation := &models.Quotation{
		ExternalID:     models.NewQuotationExternalID(),
		CustomerName:   result.CustomerName,
		CompanyName:    result.CompanyName,
		ProjectName:    result.ProjectName,
		QuotationDate:  result.QuotationDate,
		QuoteNumber:    quoteNumber,
		GrandTotal:     render.GrandTotal(result.LineItems),
		TableHTML:      render.QuoteTableHTML(result.LineItems),
		HeaderHTML:     render.QuoteHeaderHTML(header),
		EmailContent:   email.Body,
		GmailMessageID: &messageID,
		EmailLink:      "https://mail.google.com/mail/u/0/#inbox/" + email.ID,
		Saved:          false,
	}
	if err := quotation.SetLineItems(result.LineItems); err != nil {
		return "", fmt.Errorf("failed to encode line items: %w", err)
	}

	if err := p.quotations.Create(quotation); err != nil {
		if isDuplicateKey(err) {
			// A racing batch won the unique index; same outcome as dedup.
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to persist quotation: %w", err)
	}

	return quotation.ExternalID, nil
}

// uploadFirstPDF registers the first PDF attachment with the inference
// service. Any failure here degrades to "no attachment": a body-only
// extraction attempt beats dropping the email.
func (p *Pipeline) uploadFirstPDF(ctx context.Context, email EmailRecord) string {
	for _, att := range email.Attachments {
		if !ratecache.IsPDF(att.Name, att.ContentType) {
			continue
		}
		data, err := decodeBase64(att.Base64)
		if err != nil {
			log.Warnf("[Ingest] could not decode attachment %q of email %q: %v", att.Name, email.ID, err)
			return ""
		}
		handle, err := p.svc.UploadFile(ctx, data, att.Name)
		if err != nil {
			log.Warnf("[Ingest] could not upload attachment %q of email %q: %v", att.Name, email.ID, err)
			return ""
		}
		return handle.ID
	}
	return ""
}

func (p *Pipeline) bumpStat(ctx context.Context, field string) {
	if p.stats == nil {
		return
	}
	if err := p.stats.HIncrBy(ctx, statsKey, field, 1).Err(); err != nil {
		log.Debugf("[Ingest] could not update run stats: %v", err)
	}
}

func enquiryText(email EmailRecord) string {
	if strings.TrimSpace(email.Subject) == "" {
		return email.Body
	}
	return "Subject: " + email.Subject + "\n\n" + email.Body
}

func decodeBase64(s string) ([]byte, error) {
	cleaned := strings.TrimSpace(s)
	if idx := strings.Index(cleaned, ";base64,"); idx >= 0 {
		cleaned = cleaned[idx+len(";base64,"):]
	}
	if data, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(cleaned)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry")
}
