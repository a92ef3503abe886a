package pricing

import (
	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Engine computes selling prices from delivery prices. It is
// category-agnostic: the caller supplies whichever markup applies. The
// near-expiration discount is applied when the product expires strictly
// within the configured threshold.
type Engine struct {
	catalog       *catalog.Catalog
	thresholdDays int
	discount      decimal.Decimal
}

// NewEngine creates a pricing engine. A negative discount rate is a
// configuration error and fails construction.
func NewEngine(cat *catalog.Catalog, thresholdDays int, expirationDiscount float64) (*Engine, error) {
	if expirationDiscount < 0 {
		return nil, &domain.NegativePercentageError{Value: expirationDiscount}
	}
	return &Engine{
		catalog:       cat,
		thresholdDays: thresholdDays,
		discount:      decimal.NewFromFloat(expirationDiscount),
	}, nil
}

// SellingPrice computes deliveryPrice x (1 + markup), discounted by the
// expiration discount when the product is near expiration, rounded
// half-up to two decimal places.
func (e *Engine) SellingPrice(productID int64, markup decimal.Decimal) (decimal.Decimal, error) {
	if markup.IsNegative() {
		value, _ := markup.Float64()
		return decimal.Zero, &domain.NegativePercentageError{Value: value}
	}

	p, err := e.catalog.Product(productID)
	if err != nil {
		return decimal.Zero, err
	}

	price := p.DeliveryPrice.Mul(one.Add(markup))
	if e.catalog.IsNearExpiration(productID, e.thresholdDays) {
		price = price.Mul(one.Sub(e.discount))
	}

	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative prices this engine produces.
	return price.Round(2), nil
}
