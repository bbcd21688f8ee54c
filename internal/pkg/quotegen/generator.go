package quotegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/internal/pkg/inference"
	"github.com/quotefox/quotefox/internal/pkg/ratecache"
)

// Caller configuration errors; never retried.
var (
	ErrMissingContent      = errors.New("enquiry text or enquiry file is required")
	ErrMissingInstructions = errors.New("extraction instructions are not configured")
)

// MalformedResponseError reports model output that could not be parsed as a
// quotation JSON document even after salvage.
type MalformedResponseError struct {
	Snippet string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model output is not valid quotation JSON: %q", e.Snippet)
}

// RateSource supplies the current rate-file handle set and a full rebuild.
// Satisfied by ratecache.Engine; tests substitute fakes.
type RateSource interface {
	HandleSet(ctx context.Context) ([]inference.FileHandle, error)
	RebuildHandles(ctx context.Context) ([]inference.FileHandle, error)
}

// Input is one generation request.
type Input struct {
	EnquiryText   string
	EnquiryFileID string // optional handle of an already-uploaded enquiry file
	Instructions  string
}

// Result carries the normalized extraction output. It is never persisted
// here; persistence is the caller's responsibility.
type Result struct {
	CustomerName  string            `json:"customerName"`
	CompanyName   string            `json:"companyName"`
	ProjectName   string            `json:"projectName"`
	QuotationDate string            `json:"quotationDate"`
	LineItems     []models.LineItem `json:"lineItems"`
}

// Generator turns enquiry content into a normalized quotation via the
// inference service, retrying exactly once through a rate-cache rebuild when
// the service reports stale file handles.
type Generator struct {
	svc   inference.Service
	rates RateSource
	now   func() time.Time
}

// NewGenerator creates a generator over the given collaborators.
func NewGenerator(svc inference.Service, rates RateSource) *Generator {
	return &Generator{svc: svc, rates: rates, now: time.Now}
}

// Generate runs one extraction. At most two extraction attempts happen: the
// initial call, and one retry after a rebuild when the first failed with a
// stale-handle error. A second stale-handle failure is surfaced as-is.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.EnquiryText) == "" && strings.TrimSpace(in.EnquiryFileID) == "" {
		return nil, ErrMissingContent
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, ErrMissingInstructions
	}

	handles, err := g.rates.HandleSet(ctx)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, ratecache.ErrNoRateDocuments
	}

	raw, err := g.svc.Extract(ctx, in.EnquiryText, in.Instructions, g.callHandles(handles, in))
	if errors.Is(err, inference.ErrFileNotFound) {
		log.Warnf("[QuoteGen] stale file handles reported, rebuilding rate cache: %v", err)
		handles, err = g.rates.RebuildHandles(ctx)
		if err != nil {
			return nil, err
		}
		// The rebuild can come back empty (rate folder holding only
		// non-PDF documents); retrying with zero handles is pointless.
		if len(handles) == 0 {
			return nil, ratecache.ErrNoRateDocuments
		}
		raw, err = g.svc.Extract(ctx, in.EnquiryText, in.Instructions, g.callHandles(handles, in))
	}
	if err != nil {
		return nil, err
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, err
	}

	result.LineItems = NormalizeItems(result.LineItems)
	if strings.TrimSpace(result.QuotationDate) == "" {
		result.QuotationDate = g.now().Format("2 January 2006")
	}
	return result, nil
}

// callHandles appends the optional enquiry-file handle to the rate handles.
func (g *Generator) callHandles(rateHandles []inference.FileHandle, in Input) []inference.FileHandle {
	if strings.TrimSpace(in.EnquiryFileID) == "" {
		return rateHandles
	}
	all := make([]inference.FileHandle, 0, len(rateHandles)+1)
	all = append(all, rateHandles...)
	all = append(all, inference.FileHandle{ID: in.EnquiryFileID, Name: "enquiry"})
	return all
}
