package domain

import (
	"errors"
	"fmt"
)

// ErrNegativeRegister rejects register numbers below zero.
var ErrNegativeRegister = errors.New("register number cannot be negative")

// ProductNotFoundError reports a lookup for an unknown product id.
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

// ExpiredProductError rejects a sale line whose product is past its
// expiration date. The product is a snapshot taken at validation time.
type ExpiredProductError struct {
	Product Product
}

func (e *ExpiredProductError) Error() string {
	return fmt.Sprintf("product %q (id %d) expired on %s",
		e.Product.Name, e.Product.ID, e.Product.ExpirationDate.Format("2006-01-02"))
}

// InsufficientQuantityError rejects a sale line requesting more units than
// are in stock. It carries the product snapshot and the requested quantity
// so callers can produce a precise message.
type InsufficientQuantityError struct {
	Product   Product
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for %q: requested %d, available %d",
		e.Product.Name, e.Requested, e.Product.Quantity)
}

// NegativeQuantityError rejects an attempt to set a product quantity below
// zero.
type NegativeQuantityError struct {
	ProductID int64
	Quantity  int
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("quantity %d for product %d is negative", e.Quantity, e.ProductID)
}

// NegativePercentageError rejects a negative markup or discount rate.
type NegativePercentageError struct {
	Value float64
}

func (e *NegativePercentageError) Error() string {
	return fmt.Sprintf("percentage %.4f cannot be negative", e.Value)
}

// CashierNotFoundError reports a lookup for an unknown cashier id.
type CashierNotFoundError struct {
	ID int64
}

func (e *CashierNotFoundError) Error() string {
	return fmt.Sprintf("cashier %d not found", e.ID)
}

// RegisterAlreadyAssignedError rejects an assignment to an occupied
// register.
type RegisterAlreadyAssignedError struct {
	Register int
}

func (e *RegisterAlreadyAssignedError) Error() string {
	return fmt.Sprintf("register %d already has a cashier assigned", e.Register)
}

// NoAssignedCashierError rejects a sale at a register without a cashier.
type NoAssignedCashierError struct {
	Register int
}

func (e *NoAssignedCashierError) Error() string {
	return fmt.Sprintf("no cashier assigned to register %d", e.Register)
}

// ReceiptNotFoundError reports a ledger lookup for an unknown receipt
// number.
type ReceiptNotFoundError struct {
	Number int64
}

func (e *ReceiptNotFoundError) Error() string {
	return fmt.Sprintf("receipt %d not found", e.Number)
}

// PersistenceError reports a durable-storage failure after the retry
// budget is exhausted. Err holds the last underlying cause.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("receipt persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
