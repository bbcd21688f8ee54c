package models

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// LineItem is a single priced position inside a quotation. All numeric
// fields are decimal-formatted strings; FinalRate and LineTotal are always
// recomputed server-side from Quantity, UnitRate and MarginPercent.
type LineItem struct {
	OriginalDescription string `json:"originalDescription"`
	IdentifiedPipeType  string `json:"identifiedPipeType"`
	Quantity            string `json:"quantity"`
	UnitRate            string `json:"unitRate"`
	MarginPercent       string `json:"marginPercent"`
	FinalRate           string `json:"finalRate"`
	LineTotal           string `json:"lineTotal"`
}

// Quotation is a generated price quotation awaiting human approval.
// GmailMessageID carries a unique index so the same inbound email can never
// produce two persisted quotations, even across racing ingestion batches.
type Quotation struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ExternalID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"id"`
	CustomerName   string    `gorm:"type:varchar(255)" json:"customerName"`
	CompanyName    string    `gorm:"type:varchar(255)" json:"companyName"`
	ProjectName    string    `gorm:"type:varchar(255)" json:"projectName"`
	QuotationDate  string    `gorm:"type:varchar(64)" json:"quotationDate"`
	QuoteNumber    string    `gorm:"type:varchar(64)" json:"quoteNumber"`
	GrandTotal     string    `gorm:"type:varchar(64)" json:"grandTotal"`
	LineItems      JSON      `gorm:"type:json" json:"lineItems"`
	TableHTML      string    `gorm:"type:mediumtext" json:"tableHTML"`
	HeaderHTML     string    `gorm:"type:mediumtext" json:"headerHTML"`
	EmailContent   string    `gorm:"type:mediumtext" json:"emailContent"`
	GmailMessageID *string   `gorm:"type:varchar(255);uniqueIndex" json:"gmailMessageId,omitempty"`
	EmailLink      string    `gorm:"type:varchar(512)" json:"emailLink"`
	Saved          bool      `gorm:"default:false" json:"saved"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// lastExternalID keeps external ids strictly monotonic even when two
// quotations are created in the same microsecond.
var lastExternalID int64

// NewQuotationExternalID returns a fresh timestamp-derived external id,
// distinct from every id handed out before it in this process.
func NewQuotationExternalID() string {
	us := time.Now().UnixMicro()
	for {
		prev := atomic.LoadInt64(&lastExternalID)
		if us <= prev {
			us = prev + 1
		}
		if atomic.CompareAndSwapInt64(&lastExternalID, prev, us) {
			return fmt.Sprintf("q_%d", us)
		}
	}
}

// ParsedLineItems decodes the stored line-item document. A missing or
// malformed document yields an empty slice; items are never a hard error at
// read time.
func (q *Quotation) ParsedLineItems() []LineItem {
	if len(q.LineItems) == 0 {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal(q.LineItems, &items); err != nil {
		return nil
	}
	return items
}

// SetLineItems encodes items into the JSON column.
func (q *Quotation) SetLineItems(items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	q.LineItems = JSON(data)
	return nil
}
