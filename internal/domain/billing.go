package domain

import (
	"fmt"
	"time"
)

// Invoice statuses as stored by the billing backend.
const (
	InvoiceDraft = "draft"
	InvoiceOpen  = "open"
	InvoicePaid  = "paid"
	InvoiceVoid  = "void"
)

// Invoice is a row of the invoices collection shown on the billing page.
type Invoice struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	CustomerEmail *string    `json:"customer_email"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	IssuedAt      *time.Time `json:"issued_at"`
}

// InvoiceFields is the projection loaded for invoices.
var InvoiceFields = []string{"id", "number", "customer_email", "amount_cents", "currency", "status", "issued_at"}

// FormatAmount renders the amount in major units with its currency code.
func (i Invoice) FormatAmount() string {
	sign := ""
	cents := i.AmountCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, i.Currency)
}
