package domain

import "github.com/shopspring/decimal"

// UnassignedRegister marks a cashier not yet bound to a register.
const UnassignedRegister = -1

// Cashier represents an employee who can be bound to a single register.
type Cashier struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	MonthlySalary  decimal.Decimal `json:"monthly_salary"`
	RegisterNumber int             `json:"register_number"`
}
