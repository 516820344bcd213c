package invoices

import (
	"sort"
	"strings"
	"time"
)

// SortField selects the invoice attribute to order by.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Query filters and sorts an invoice collection client-side, mirroring the
// controls of the invoice list view. Zero fields are inactive: an empty
// Status matches every status, an empty Search matches everything, zero
// dates leave the range unbounded.
type Query struct {
	Status    Status
	Search    string
	SortBy    SortField
	Order     SortOrder
	StartDate time.Time
	EndDate   time.Time
}

// Apply returns the invoices matching the query, sorted. The input slice is
// not modified.
func (q Query) Apply(invoices []Invoice) []Invoice {
	matched := make([]Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if q.matches(invoice) {
			matched = append(matched, invoice)
		}
	}
	q.sortInvoices(matched)
	return matched
}

func (q Query) matches(invoice Invoice) bool {
	if q.Status != "" && invoice.Status != q.Status {
		return false
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(invoice.ClientName), needle) &&
			!strings.Contains(strings.ToLower(invoice.InvoiceNumber), needle) {
			return false
		}
	}

	if !q.StartDate.IsZero() || !q.EndDate.IsZero() {
		date, err := invoice.ParsedDate()
		if err != nil {
			return false
		}
		if !q.StartDate.IsZero() && date.Before(q.StartDate) {
			return false
		}
		if !q.EndDate.IsZero() && date.After(q.EndDate) {
			return false
		}
	}

	return true
}

func (q Query) sortInvoices(invoices []Invoice) {
	descending := q.Order != Ascending

	switch q.SortBy {
	case SortByAmount:
		sort.SliceStable(invoices, func(a, b int) bool {
			if descending {
				return invoices[a].Amount > invoices[b].Amount
			}
			return invoices[a].Amount < invoices[b].Amount
		})
	case SortByDate, "":
		sort.SliceStable(invoices, func(a, b int) bool {
			dateA, errA := invoices[a].ParsedDate()
			dateB, errB := invoices[b].ParsedDate()
			if errA != nil || errB != nil {
				return false
			}
			if descending {
				return dateA.After(dateB)
			}
			return dateA.Before(dateB)
		})
	}
}
