package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptItem is a frozen line of a completed sale. Name and UnitPrice are
// snapshots taken at sale time; later catalog changes never alter them.
type ReceiptItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt is the immutable record of a completed sale. The number is
// allocated exactly once by the receipt store and never reused.
type Receipt struct {
	Number         int64           `json:"number"`
	IssuedAt       time.Time       `json:"issued_at"`
	Cashier        Cashier         `json:"cashier"`
	RegisterNumber int             `json:"register_number"`
	Items          []ReceiptItem   `json:"items"`
	Total          decimal.Decimal `json:"total"`
}
