package quotegen

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quotefox/quotefox/app/models"
)

// parseResult decodes the raw model text into a Result. If the whole text is
// not valid JSON (models like to wrap output in prose or code fences), the
// first {...} span is tried before giving up.
func parseResult(raw string) (*Result, error) {
	candidates := []string{strings.TrimSpace(raw)}

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var doc struct {
			CustomerName  any `json:"customerName"`
			CompanyName   any `json:"companyName"`
			ProjectName   any `json:"projectName"`
			QuotationDate any `json:"quotationDate"`
			LineItems     any `json:"lineItems"`
		}
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			continue
		}
		return &Result{
			CustomerName:  coerceString(doc.CustomerName),
			CompanyName:   coerceString(doc.CompanyName),
			ProjectName:   coerceString(doc.ProjectName),
			QuotationDate: coerceString(doc.QuotationDate),
			LineItems:     coerceItems(doc.LineItems),
		}, nil
	}

	snippet := strings.TrimSpace(raw)
	if len(snippet) > 120 {
		snippet = snippet[:120] + "..."
	}
	return nil, &MalformedResponseError{Snippet: snippet}
}

// coerceItems accepts whatever the model put under lineItems and returns a
// list, empty when the value is absent or not a list.
func coerceItems(v any) []models.LineItem {
	list, ok := v.([]any)
	if !ok {
		return []models.LineItem{}
	}
	items := make([]models.LineItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, models.LineItem{
			OriginalDescription: coerceString(obj["originalDescription"]),
			IdentifiedPipeType:  coerceString(obj["identifiedPipeType"]),
			Quantity:            coerceString(obj["quantity"]),
			UnitRate:            coerceString(obj["unitRate"]),
			MarginPercent:       coerceString(obj["marginPercent"]),
			FinalRate:           coerceString(obj["finalRate"]),
			LineTotal:           coerceString(obj["lineTotal"]),
		})
	}
	return items
}

// NormalizeItems recomputes the derived money fields of every line item.
// Extraction output is never trusted for finalRate or lineTotal:
// finalRate = unitRate * (1 + marginPercent/100), lineTotal = quantity *
// finalRate. Missing or unparseable inputs count as zero.
func NormalizeItems(items []models.LineItem) []models.LineItem {
	if items == nil {
		return []models.LineItem{}
	}
	hundred := decimal.NewFromInt(100)
	out := make([]models.LineItem, len(items))
	for i, item := range items {
		qty := coerceDecimal(item.Quantity)
		rate := coerceDecimal(item.UnitRate)
		margin := coerceDecimal(item.MarginPercent)

		finalRate := rate.Mul(decimal.NewFromInt(1).Add(margin.Div(hundred)))
		lineTotal := qty.Mul(finalRate)

		item.Quantity = qty.String()
		item.UnitRate = rate.StringFixed(2)
		item.MarginPercent = margin.String()
		item.FinalRate = finalRate.StringFixed(2)
		item.LineTotal = lineTotal.StringFixed(2)
		out[i] = item
	}
	return out
}

// coerceString renders a JSON scalar as its natural string form.
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// coerceDecimal parses a decimal-formatted string, tolerating currency
// prefixes and thousands separators; anything unparseable is zero.
func coerceDecimal(s string) decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimLeft(cleaned, "$€£₹ ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
