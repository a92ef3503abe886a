package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a product for markup selection
type Category string

const (
	CategoryFood    Category = "FOOD"
	CategoryNonFood Category = "NON_FOOD"
)

// Product represents a delivered good on the sales floor. DeliveryPrice,
// Category and ExpirationDate are fixed at delivery time; Quantity is
// mutated only through the catalog.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	DeliveryPrice  decimal.Decimal `json:"delivery_price"`
	Category       Category        `json:"category"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Quantity       int             `json:"quantity"`
}
