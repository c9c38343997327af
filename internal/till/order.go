package till

import (
	"fmt"
	"time"

	"github.com/zombor/pos-terminal/internal/barcode"
)

// Line is one scanned item on an order
type Line struct {
	PLU           int            `json:"plu"`
	Name          string         `json:"name"`
	Unit          string         `json:"unit"`
	UnitPrice     float64        `json:"unit_price"`
	Quantity      float64        `json:"quantity"` // kilograms for weight codes, otherwise pieces
	SubtotalCents int64          `json:"subtotal_cents"`
	Layout        barcode.Layout `json:"layout"`
	ScannedAt     time.Time      `json:"scanned_at"`
}

// Order is the running order on the till
type Order struct {
	ID         string    `json:"id"`
	Lines      []Line    `json:"lines"` // newest first
	TotalCents int64     `json:"total_cents"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Sale is the result of a confirmed payment. It is handed back to the
// caller and not stored.
type Sale struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Lines      []Line    `json:"lines"`
	TotalCents int64     `json:"total_cents"`
	PaidAt     time.Time `json:"paid_at"`
}

// FormatCents renders an amount in cents as a decimal string, e.g. 1234 -> "12.34"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
