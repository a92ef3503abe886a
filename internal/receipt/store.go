package receipt

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store owns receipt-number allocation and the in-memory ledger of issued
// receipts. Persistence is a best-effort durability side channel: a save
// failure is logged, the receipt stays in the ledger, and the sale is not
// rolled back.
type Store struct {
	mu          sync.RWMutex
	ledger      map[int64]*domain.Receipt
	next        atomic.Int64
	persistence Persistence
	logger      *zap.Logger
}

// NewStore creates an empty receipt store. Numbering starts at 1.
func NewStore(persistence Persistence, logger *zap.Logger) *Store {
	return &Store{
		ledger:      make(map[int64]*domain.Receipt),
		persistence: persistence,
		logger:      logger,
	}
}

// Issue allocates the next receipt number, freezes the receipt value,
// appends it to the ledger and hands it to persistence. The persistence
// call happens outside the ledger lock.
func (s *Store) Issue(ctx context.Context, cashier domain.Cashier, register int, items []domain.ReceiptItem, total decimal.Decimal) *domain.Receipt {
	r := &domain.Receipt{
		Number:         s.next.Add(1),
		IssuedAt:       time.Now(),
		Cashier:        cashier,
		RegisterNumber: register,
		Items:          items,
		Total:          total,
	}

	s.mu.Lock()
	s.ledger[r.Number] = r
	s.mu.Unlock()

	if err := s.persistence.Save(ctx, r); err != nil {
		s.logger.Error("Receipt persistence failed, receipt retained in ledger",
			zap.Int64("receipt_number", r.Number),
			zap.Error(err),
		)
	}
	return r
}

// Receipt returns a value copy of a ledger entry.
func (s *Store) Receipt(number int64) (domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ledger[number]
	if !ok {
		return domain.Receipt{}, &domain.ReceiptNotFoundError{Number: number}
	}
	return *r, nil
}

// Load reads a receipt back from durable storage.
func (s *Store) Load(ctx context.Context, number int64) (*domain.Receipt, error) {
	return s.persistence.Load(ctx, number)
}

// TotalRevenue sums the frozen totals of every recorded receipt.
func (s *Store) TotalRevenue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, r := range s.ledger {
		total = total.Add(r.Total)
	}
	return total
}

// Count returns the number of recorded receipts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledger)
}

// ResetCounter restarts numbering at 1 for the receipts issued from now
// on. Already-issued numbers are unaffected. Test isolation only; must
// never run concurrently with active sales.
func (s *Store) ResetCounter() {
	s.next.Store(0)
}
