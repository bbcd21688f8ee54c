package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quotefox/quotefox/app/models"
)

func TestGrandTotal(t *testing.T) {
	items := []models.LineItem{
		{LineTotal: "3000.00"},
		{LineTotal: "299.97"},
		{LineTotal: "not a number"},
	}
	assert.Equal(t, "3299.97", GrandTotal(items))
}

func TestGrandTotalEmpty(t *testing.T) {
	assert.Equal(t, "0.00", GrandTotal(nil))
}

func TestQuoteTableHTML(t *testing.T) {
	html := QuoteTableHTML([]models.LineItem{
		{
			OriginalDescription: "100mm MS pipe",
			IdentifiedPipeType:  "MS",
			Quantity:            "10",
			FinalRate:           "300.00",
			LineTotal:           "3000.00",
		},
		{
			OriginalDescription: "50mm GI pipe",
			IdentifiedPipeType:  "GI",
			Quantity:            "5",
			FinalRate:           "110.00",
			LineTotal:           "550.00",
		},
	})

	assert.Contains(t, html, "<td>1</td><td>100mm MS pipe</td>")
	assert.Contains(t, html, "<td>2</td><td>50mm GI pipe</td>")
	assert.Contains(t, html, "Grand Total")
	assert.Contains(t, html, "<td>3550.00</td>")
}

func TestQuoteTableHTMLEscapesContent(t *testing.T) {
	html := QuoteTableHTML([]models.LineItem{
		{OriginalDescription: `<script>alert("x")</script>`, Quantity: "1"},
	})
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestQuoteHeaderHTML(t *testing.T) {
	html := QuoteHeaderHTML(Header{
		QuoteNumber:   "QF-1042",
		QuotationDate: "12 March 2026",
		CustomerName:  "Ravi",
		CompanyName:   "Apex Projects",
		ProjectName:   "Warehouse",
	})

	assert.Contains(t, html, "Quotation QF-1042")
	assert.Contains(t, html, "Date: 12 March 2026")
	assert.Contains(t, html, "Customer: Ravi")
	assert.Contains(t, html, "Project: Warehouse")
}

func TestQuoteHeaderHTMLOmitsEmptyFields(t *testing.T) {
	html := QuoteHeaderHTML(Header{QuotationDate: "12 March 2026"})

	assert.Contains(t, html, "<h2>Quotation</h2>")
	assert.NotContains(t, html, "Customer:")
	assert.NotContains(t, html, "Company:")
	assert.NotContains(t, html, "Project:")
}
