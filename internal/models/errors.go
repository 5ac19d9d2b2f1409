package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	ErrForbidden = errors.New("you do not have the permissions required for this operation")

	// Allocation engine errors. All of them leave the database untouched.
	ErrDeltaZero                 = errors.New("the delta cannot be zero")
	ErrNegativeInitialAllocation = errors.New("an allocation cannot be created with a negative delta")
	ErrAllocationExists          = errors.New("an allocation for this manager on this project already exists")

	ErrAuditEntryImmutable = errors.New("audit entries cannot be changed")

	ErrUsernameNotUnique        = errors.New("the username is already in use")
	ErrInvalidResourceReference = errors.New("a resource ID you specified did not identify an existing resource")
	ErrExpenseAmountNotPositive = errors.New("the expense amount must be positive")
)

// NegativeBalanceError is returned when applying a delta would push an
// allocation below zero. The adjustment is rejected in full.
type NegativeBalanceError struct {
	Current decimal.Decimal
	Delta   decimal.Decimal
}

func (e NegativeBalanceError) Error() string {
	return fmt.Sprintf("the resulting allocation would be negative: current allocation is %s, requested delta is %s", e.Current, e.Delta)
}

// AllocationExceededError is returned when an attempted expense does not fit
// into the remaining allocation. It always carries the concrete numbers so
// that the rejection can be explained to the end user.
type AllocationExceededError struct {
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Attempted decimal.Decimal `json:"attempted"`
}

func (e AllocationExceededError) Error() string {
	return fmt.Sprintf("the expense exceeds the remaining allocation: allocated %s, spent %s, remaining %s, attempted %s", e.Allocated, e.Spent, e.Remaining, e.Attempted)
}
