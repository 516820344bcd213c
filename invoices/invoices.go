package invoices

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusUnpaid  Status = "unpaid"
	StatusPending Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusUnpaid, StatusPending:
		return true
	}
	return false
}

// Invoice is a single invoice record as exchanged with the API.
type Invoice struct {
	ID            string  `json:"_id,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber"`
	ClientName    string  `json:"clientName"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Status        Status  `json:"status"`
}

// dateLayouts covers the formats the API emits: bare dates from the create
// form and full timestamps from the server.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParsedDate parses the invoice date.
func (i Invoice) ParsedDate() (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, i.Date); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable invoice date %q", i.Date)
}

// Summary aggregates a set of invoices for dashboard display.
type Summary struct {
	TotalInvoices int
	PaidInvoices  int

	// PendingAmount is the summed amount of every invoice that is not paid.
	PendingAmount float64
}

// Summarize computes dashboard numbers over a set of invoices.
func Summarize(invoices []Invoice) Summary {
	var summary Summary
	summary.TotalInvoices = len(invoices)
	for _, invoice := range invoices {
		if invoice.Status == StatusPaid {
			summary.PaidInvoices++
			continue
		}
		summary.PendingAmount += invoice.Amount
	}
	return summary
}
