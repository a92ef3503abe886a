package service

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/receipt"
	"storefront/internal/registers"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Basket maps product ids to requested quantities.
type Basket map[int64]int

// Summary is the financial snapshot of the store. Income is revenue minus
// delivery expenses; profit is income minus salary expenses.
type Summary struct {
	Revenue          decimal.Decimal
	SalaryExpenses   decimal.Decimal
	DeliveryExpenses decimal.Decimal
	Income           decimal.Decimal
	Profit           decimal.Decimal
	ReceiptCount     int
}

// StoreService defines the business operations of the store.
type StoreService interface {
	AddProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	Products(ctx context.Context) []domain.Product
	AddCashier(ctx context.Context, c domain.Cashier) (domain.Cashier, error)
	Cashiers(ctx context.Context) []domain.Cashier
	AssignCashierToRegister(ctx context.Context, cashierID int64, register int) error
	CreateSale(ctx context.Context, register int, basket Basket) (*domain.Receipt, error)
	Receipt(ctx context.Context, number int64) (domain.Receipt, error)
	ReloadReceipt(ctx context.Context, number int64) (*domain.Receipt, error)
	Summary(ctx context.Context) Summary
}

type storeService struct {
	catalog   *catalog.Catalog
	registers *registers.Directory
	pricing   *pricing.Engine
	receipts  *receipt.Store

	foodMarkup    decimal.Decimal
	nonFoodMarkup decimal.Decimal

	// saleMu closes the window between basket validation and inventory
	// commit: two concurrent sales of the same scarce product must not
	// both pass validation. It is never held across persistence I/O.
	saleMu sync.Mutex

	logger *zap.Logger
}

// NewStoreService creates the sale transaction engine. Negative markup
// rates are configuration errors and fail construction.
func NewStoreService(
	cat *catalog.Catalog,
	dir *registers.Directory,
	eng *pricing.Engine,
	receipts *receipt.Store,
	foodMarkup, nonFoodMarkup float64,
	logger *zap.Logger,
) (StoreService, error) {
	for _, rate := range []float64{foodMarkup, nonFoodMarkup} {
		if rate < 0 {
			return nil, &domain.NegativePercentageError{Value: rate}
		}
	}
	return &storeService{
		catalog:       cat,
		registers:     dir,
		pricing:       eng,
		receipts:      receipts,
		foodMarkup:    decimal.NewFromFloat(foodMarkup),
		nonFoodMarkup: decimal.NewFromFloat(nonFoodMarkup),
		logger:        logger,
	}, nil
}

// AddProduct records a delivery. The quantity invariant is checked before
// the catalog is touched.
func (s *storeService) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Quantity < 0 {
		return domain.Product{}, &domain.NegativeQuantityError{ProductID: p.ID, Quantity: p.Quantity}
	}
	if p.DeliveryPrice.IsNegative() {
		value, _ := p.DeliveryPrice.Float64()
		return domain.Product{}, &domain.NegativePercentageError{Value: value}
	}
	return s.catalog.AddProduct(p), nil
}

func (s *storeService) Products(ctx context.Context) []domain.Product {
	return s.catalog.Products()
}

func (s *storeService) AddCashier(ctx context.Context, c domain.Cashier) (domain.Cashier, error) {
	if c.MonthlySalary.IsNegative() {
		value, _ := c.MonthlySalary.Float64()
		return domain.Cashier{}, &domain.NegativePercentageError{Value: value}
	}
	return s.registers.AddCashier(c), nil
}

func (s *storeService) Cashiers(ctx context.Context) []domain.Cashier {
	return s.registers.Cashiers()
}

func (s *storeService) AssignCashierToRegister(ctx context.Context, cashierID int64, register int) error {
	if err := s.registers.Assign(cashierID, register); err != nil {
		return err
	}
	s.logger.Info("Cashier assigned to register",
		zap.Int64("cashier_id", cashierID),
		zap.Int("register", register),
	)
	return nil
}

// CreateSale rings up a basket at a register. The basket is all-or-nothing:
// every line is validated before any quantity changes, so the first
// violation aborts the sale with zero side effects. Pricing and inventory
// decrement run under the sale lock; receipt issuance and persistence run
// after it is released.
func (s *storeService) CreateSale(ctx context.Context, register int, basket Basket) (*domain.Receipt, error) {
	cashier, ok := s.registers.CashierAt(register)
	if !ok {
		return nil, &domain.NoAssignedCashierError{Register: register}
	}

	s.saleMu.Lock()
	items, total, err := s.priceAndCommit(basket)
	s.saleMu.Unlock()
	if err != nil {
		return nil, err
	}

	r := s.receipts.Issue(ctx, cashier, register, items, total)
	s.logger.Info("Sale completed",
		zap.Int64("receipt_number", r.Number),
		zap.Int("register", register),
		zap.Int("line_items", len(items)),
		zap.String("total", total.StringFixed(2)),
	)
	return r, nil
}

// priceAndCommit validates every basket line, then prices and decrements.
// Caller must hold saleMu.
func (s *storeService) priceAndCommit(basket Basket) ([]domain.ReceiptItem, decimal.Decimal, error) {
	// Validate all before mutating anything.
	for id, qty := range basket {
		p, err := s.catalog.Product(id)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if s.catalog.IsExpired(id) {
			return nil, decimal.Zero, &domain.ExpiredProductError{Product: p}
		}
		if qty > p.Quantity {
			return nil, decimal.Zero, &domain.InsufficientQuantityError{Product: p, Requested: qty}
		}
	}

	// Every line passed; business-rule failures are no longer possible.
	items := make([]domain.ReceiptItem, 0, len(basket))
	total := decimal.Zero
	for id, qty := range basket {
		p, err := s.catalog.Product(id)
		if err != nil {
			return nil, decimal.Zero, err
		}

		markup := s.foodMarkup
		if p.Category == domain.CategoryNonFood {
			markup = s.nonFoodMarkup
		}
		unit, err := s.pricing.SellingPrice(id, markup)
		if err != nil {
			return nil, decimal.Zero, err
		}

		line := unit.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(line)
		items = append(items, domain.ReceiptItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  qty,
			UnitPrice: unit,
			LineTotal: line,
		})

		if err := s.catalog.SetQuantity(id, p.Quantity-qty); err != nil {
			return nil, decimal.Zero, err
		}
	}

	// Basket iteration order is random; fix the receipt layout.
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, total, nil
}

func (s *storeService) Receipt(ctx context.Context, number int64) (domain.Receipt, error) {
	return s.receipts.Receipt(number)
}

func (s *storeService) ReloadReceipt(ctx context.Context, number int64) (*domain.Receipt, error) {
	return s.receipts.Load(ctx, number)
}

func (s *storeService) Summary(ctx context.Context) Summary {
	revenue := s.receipts.TotalRevenue()
	salaries := s.registers.SalaryExpenses()
	deliveries := s.catalog.DeliveryExpenses()
	income := revenue.Sub(deliveries)

	return Summary{
		Revenue:          revenue,
		SalaryExpenses:   salaries,
		DeliveryExpenses: deliveries,
		Income:           income,
		Profit:           income.Sub(salaries),
		ReceiptCount:     s.receipts.Count(),
	}
}
