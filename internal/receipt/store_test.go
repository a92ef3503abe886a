package receipt

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePersistence records saved receipts in memory and can be told to
// fail, mirroring a broken disk.
type fakePersistence struct {
	mu       sync.Mutex
	saved    map[int64]*domain.Receipt
	failSave bool
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{saved: make(map[int64]*domain.Receipt)}
}

func (f *fakePersistence) Save(ctx context.Context, r *domain.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return &domain.PersistenceError{Op: "write", Path: "fake", Err: errors.New("disk unavailable")}
	}
	f.saved[r.Number] = r
	return nil
}

func (f *fakePersistence) Load(ctx context.Context, number int64) (*domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[number]
	if !ok {
		return nil, &domain.PersistenceError{Op: "read", Path: "fake", Err: errors.New("no such receipt")}
	}
	return r, nil
}

func testCashier() domain.Cashier {
	return domain.Cashier{ID: 1, Name: "John", MonthlySalary: decimal.RequireFromString("1000.00"), RegisterNumber: 1}
}

func testItems(total string) ([]domain.ReceiptItem, decimal.Decimal) {
	amount := decimal.RequireFromString(total)
	return []domain.ReceiptItem{{
		ProductID: 1,
		Name:      "Milk",
		Quantity:  1,
		UnitPrice: amount,
		LineTotal: amount,
	}}, amount
}

func TestIssueNumbersAreSequential(t *testing.T) {
	store := NewStore(newFakePersistence(), zap.NewNop())
	ctx := context.Background()

	items, total := testItems("2.04")
	for want := int64(1); want <= 5; want++ {
		r := store.Issue(ctx, testCashier(), 1, items, total)
		assert.Equal(t, want, r.Number)
	}
	assert.Equal(t, 5, store.Count())
}

func TestIssueConcurrentNumbersAreDistinct(t *testing.T) {
	store := NewStore(newFakePersistence(), zap.NewNop())
	ctx := context.Background()
	items, total := testItems("2.04")

	const sales = 50
	numbers := make(chan int64, sales)
	var wg sync.WaitGroup
	for i := 0; i < sales; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			numbers <- store.Issue(ctx, testCashier(), 1, items, total).Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate receipt number %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, sales)
}

func TestIssueKeepsReceiptWhenPersistenceFails(t *testing.T) {
	persistence := newFakePersistence()
	persistence.failSave = true
	store := NewStore(persistence, zap.NewNop())

	items, total := testItems("2.04")
	r := store.Issue(context.Background(), testCashier(), 1, items, total)

	// The sale is business-complete: the receipt stays in the ledger.
	require.NotNil(t, r)
	got, err := store.Receipt(r.Number)
	require.NoError(t, err)
	assert.Equal(t, r.Number, got.Number)
	assert.Equal(t, 1, store.Count())
}

func TestReceiptNotFound(t *testing.T) {
	store := NewStore(newFakePersistence(), zap.NewNop())

	_, err := store.Receipt(42)

	var notFound *domain.ReceiptNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int64(42), notFound.Number)
}

func TestTotalRevenue(t *testing.T) {
	store := NewStore(newFakePersistence(), zap.NewNop())
	ctx := context.Background()

	items, total := testItems("2.04")
	store.Issue(ctx, testCashier(), 1, items, total)
	store.Issue(ctx, testCashier(), 1, items, total)

	assert.Equal(t, "4.08", store.TotalRevenue().StringFixed(2))
}

func TestResetCounterRestartsSequence(t *testing.T) {
	store := NewStore(newFakePersistence(), zap.NewNop())
	ctx := context.Background()
	items, total := testItems("2.04")

	first := store.Issue(ctx, testCashier(), 1, items, total)
	assert.Equal(t, int64(1), first.Number)

	store.ResetCounter()

	again := store.Issue(ctx, testCashier(), 1, items, total)
	assert.Equal(t, int64(1), again.Number)
}
