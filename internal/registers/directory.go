package registers

import (
	"sort"
	"sync"
	"sync/atomic"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Directory owns the cashier records and the register-to-cashier
// assignment map. A register holds at most one cashier; the check and the
// assignment happen under a single lock so two concurrent attempts on the
// same register cannot both succeed.
type Directory struct {
	mu          sync.RWMutex
	cashiers    map[int64]*domain.Cashier
	assignments map[int]int64
	nextID      atomic.Int64
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{
		cashiers:    make(map[int64]*domain.Cashier),
		assignments: make(map[int]int64),
	}
}

// AddCashier records a hired cashier. A zero ID is replaced with the next
// value of the directory's counter; the register number starts unassigned.
func (d *Directory) AddCashier(c domain.Cashier) domain.Cashier {
	if c.ID == 0 {
		c.ID = d.nextID.Add(1)
	}
	c.RegisterNumber = domain.UnassignedRegister

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := c
	d.cashiers[c.ID] = &stored
	return c
}

// Cashier returns a value copy of the cashier with the given id.
func (d *Directory) Cashier(id int64) (domain.Cashier, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.cashiers[id]
	if !ok {
		return domain.Cashier{}, &domain.CashierNotFoundError{ID: id}
	}
	return *c, nil
}

// Cashiers returns value copies of all cashiers, ordered by id.
func (d *Directory) Cashiers() []domain.Cashier {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Cashier, 0, len(d.cashiers))
	for _, c := range d.cashiers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Assign binds a cashier to a register. It fails when the cashier is
// unknown or the register already has an occupant; a failed assignment
// changes nothing.
func (d *Directory) Assign(cashierID int64, register int) error {
	if register < 0 {
		return domain.ErrNegativeRegister
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.cashiers[cashierID]
	if !ok {
		return &domain.CashierNotFoundError{ID: cashierID}
	}
	if _, occupied := d.assignments[register]; occupied {
		return &domain.RegisterAlreadyAssignedError{Register: register}
	}

	d.assignments[register] = cashierID
	c.RegisterNumber = register
	return nil
}

// CashierAt returns the cashier bound to a register, if any.
func (d *Directory) CashierAt(register int) (domain.Cashier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.assignments[register]
	if !ok {
		return domain.Cashier{}, false
	}
	c, ok := d.cashiers[id]
	if !ok {
		return domain.Cashier{}, false
	}
	return *c, true
}

// SalaryExpenses sums the monthly salary of every cashier, whether or not
// a register is assigned.
func (d *Directory) SalaryExpenses() decimal.Decimal {
	d.mu.RLock()
	defer d.mu.RUnlock()

	total := decimal.Zero
	for _, c := range d.cashiers {
		total = total.Add(c.MonthlySalary)
	}
	return total
}
