// Package render produces the HTML fragments stored on a quotation. The
// fragments are data handed to downstream document tooling, not server-side
// views, so everything here is a pure function over normalized fields.
package render

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quotefox/quotefox/app/models"
)

var tableTmpl = template.Must(template.New("table").Parse(`<table class="quote-table">
<thead>
<tr><th>#</th><th>Description</th><th>Pipe Type</th><th>Qty</th><th>Rate</th><th>Amount</th></tr>
</thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.No}}</td><td>{{.OriginalDescription}}</td><td>{{.IdentifiedPipeType}}</td><td>{{.Quantity}}</td><td>{{.FinalRate}}</td><td>{{.LineTotal}}</td></tr>
{{- end}}
</tbody>
<tfoot>
<tr><td colspan="5">Grand Total</td><td>{{.GrandTotal}}</td></tr>
</tfoot>
</table>`))

var headerTmpl = template.Must(template.New("header").Parse(`<div class="quote-header">
<h2>Quotation{{if .QuoteNumber}} {{.QuoteNumber}}{{end}}</h2>
<p>Date: {{.QuotationDate}}</p>
{{- if .CustomerName}}
<p>Customer: {{.CustomerName}}</p>
{{- end}}
{{- if .CompanyName}}
<p>Company: {{.CompanyName}}</p>
{{- end}}
{{- if .ProjectName}}
<p>Project: {{.ProjectName}}</p>
{{- end}}
</div>`))

// Header holds the fields rendered into the header fragment.
type Header struct {
	QuoteNumber   string
	QuotationDate string
	CustomerName  string
	CompanyName   string
	ProjectName   string
}

type tableRow struct {
	No int
	models.LineItem
}

// GrandTotal sums the line totals of normalized items.
func GrandTotal(items []models.LineItem) string {
	total := decimal.Zero
	for _, item := range items {
		if d, err := decimal.NewFromString(item.LineTotal); err == nil {
			total = total.Add(d)
		}
	}
	return total.StringFixed(2)
}

// QuoteTableHTML renders the line-item table fragment.
func QuoteTableHTML(items []models.LineItem) string {
	rows := make([]tableRow, len(items))
	for i, item := range items {
		rows[i] = tableRow{No: i + 1, LineItem: item}
	}

	var sb strings.Builder
	data := struct {
		Rows       []tableRow
		GrandTotal string
	}{Rows: rows, GrandTotal: GrandTotal(items)}

	if err := tableTmpl.Execute(&sb, data); err != nil {
		return ""
	}
	return sb.String()
}

// QuoteHeaderHTML renders the header fragment.
func QuoteHeaderHTML(h Header) string {
	var sb strings.Builder
	if err := headerTmpl.Execute(&sb, h); err != nil {
		return ""
	}
	return sb.String()
}
