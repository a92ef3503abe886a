package catalog

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog owns the product set of a single store. It is the only component
// allowed to mutate product quantities; every accessor returns value
// copies so callers never share mutable product state.
type Catalog struct {
	mu               sync.RWMutex
	products         map[int64]*domain.Product
	deliveryExpenses decimal.Decimal
	nextID           atomic.Int64
	logger           *zap.Logger
}

// New creates an empty catalog.
func New(logger *zap.Logger) *Catalog {
	return &Catalog{
		products:         make(map[int64]*domain.Product),
		deliveryExpenses: decimal.Zero,
		logger:           logger,
	}
}

// AddProduct records a delivered product. A zero ID is replaced with the
// next value of the catalog's counter. Inserting an existing ID silently
// replaces the earlier product. Every delivery adds
// deliveryPrice x quantity to the accumulated delivery expenses.
func (c *Catalog) AddProduct(p domain.Product) domain.Product {
	if p.ID == 0 {
		p.ID = c.nextID.Add(1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := p
	c.products[p.ID] = &stored
	c.deliveryExpenses = c.deliveryExpenses.Add(
		p.DeliveryPrice.Mul(decimal.NewFromInt(int64(p.Quantity))))

	c.logger.Info("Product delivered",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("quantity", p.Quantity),
	)
	return p
}

// Product returns a value copy of the product with the given id.
func (c *Catalog) Product(id int64) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ID: id}
	}
	return *p, nil
}

// Products returns value copies of all products, ordered by id.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetQuantity replaces the stock level of a product. Negative quantities
// are rejected before any state changes.
func (c *Catalog) SetQuantity(id int64, quantity int) error {
	if quantity < 0 {
		return &domain.NegativeQuantityError{ProductID: id, Quantity: quantity}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return &domain.ProductNotFoundError{ID: id}
	}
	p.Quantity = quantity
	return nil
}

// IsExpired reports whether the current date is strictly after the
// product's expiration date. Unknown ids are never expired.
func (c *Catalog) IsExpired(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return false
	}
	return dateOnly(time.Now()).After(dateOnly(p.ExpirationDate))
}

// IsNearExpiration reports whether the product expires strictly within
// thresholdDays. A product expiring in exactly thresholdDays is not near
// expiration.
func (c *Catalog) IsNearExpiration(id int64, thresholdDays int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return false
	}
	return dateOnly(p.ExpirationDate).AddDate(0, 0, -thresholdDays).Before(dateOnly(time.Now()))
}

// DeliveryExpenses returns the accumulated wholesale cost of every
// delivery recorded so far.
func (c *Catalog) DeliveryExpenses() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deliveryExpenses
}

// dateOnly truncates a timestamp to its calendar date. Expiration rules
// operate on whole days, not clock times.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
