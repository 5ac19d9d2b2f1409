package models

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitedesk/backend/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Allocation is the current budget ceiling for one manager on one project.
//
// The amount is never negative. An existing row with amount zero is a
// deliberate "no spending allowed" state; a manager without a row is
// unconstrained.
type Allocation struct {
	DefaultModel
	ProjectID uuid.UUID       `json:"projectId" gorm:"uniqueIndex:allocation_project_user"`
	Project   Project         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID    uuid.UUID       `json:"userId" gorm:"uniqueIndex:allocation_project_user"`
	User      User            `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
}

// GetAllocation returns the allocation for a (project, manager) pair.
func GetAllocation(db *gorm.DB, projectID, userID uuid.UUID) (Allocation, error) {
	var allocation Allocation

	err := db.
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&allocation).Error
	if err != nil {
		return Allocation{}, err
	}

	return allocation, nil
}

// ListAllocations returns all allocations for a project, oldest first.
func ListAllocations(db *gorm.DB, projectID uuid.UUID) ([]Allocation, error) {
	var allocations []Allocation

	err := db.
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}

	return allocations, nil
}

// AdjustAllocation applies a signed delta to the allocation of a
// (project, manager) pair and records the change in the audit ledger.
//
// The first positive delta for a pair creates its allocation. The whole
// read-check-write-audit sequence runs in one transaction with the
// allocation row locked, so the row update and its audit entry become
// visible together or not at all, and concurrent adjustments for the same
// pair serialize instead of losing deltas.
//
// Returns the allocation after the adjustment and whether it was created.
func AdjustAllocation(db *gorm.DB, caller permissions.Set, rule permissions.Rule, projectID, userID uuid.UUID, delta decimal.Decimal) (Allocation, bool, error) {
	if !caller.Allow(rule) {
		return Allocation{}, false, ErrForbidden
	}

	// A zero delta would record a no-op audit entry
	if delta.IsZero() {
		return Allocation{}, false, ErrDeltaZero
	}

	var allocation Allocation
	var created bool

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&allocation).Error

		if errors.Is(err, ErrResourceNotFound) {
			if delta.IsNegative() {
				return ErrNegativeInitialAllocation
			}

			allocation = Allocation{ProjectID: projectID, UserID: userID, Amount: delta}
			if err := tx.Create(&allocation).Error; err != nil {
				return err
			}
			created = true

			// A null old amount marks the creation
			return tx.Create(&AllocationAudit{
				AllocationID: allocation.ID,
				ProjectID:    projectID,
				UserID:       userID,
				NewAmount:    delta,
			}).Error
		}

		if err != nil {
			return err
		}

		newAmount := allocation.Amount.Add(delta)
		if newAmount.IsNegative() {
			return NegativeBalanceError{Current: allocation.Amount, Delta: delta}
		}

		oldAmount := allocation.Amount
		if err := tx.Model(&allocation).Update("amount", newAmount).Error; err != nil {
			return err
		}
		allocation.Amount = newAmount

		return tx.Create(&AllocationAudit{
			AllocationID: allocation.ID,
			ProjectID:    projectID,
			UserID:       userID,
			OldAmount:    decimal.NewNullDecimal(oldAmount),
			NewAmount:    newAmount,
		}).Error
	})
	if err != nil {
		return Allocation{}, false, err
	}

	return allocation, created, nil
}

// CheckAndReserve verifies that an attempted expense fits into the remaining
// allocation of a (project, manager) pair.
//
// A manager without an allocation row is unconstrained. When a row exists,
// the check also applies at amount zero, which blocks all spending.
//
// The matching expense insert happens outside this check, so two concurrent
// submissions can both pass before either commits. That window exists in
// the source system as well and is accepted, see the boundary test.
func CheckAndReserve(db *gorm.DB, projectID, userID uuid.UUID, attempted decimal.Decimal) error {
	allocation, err := GetAllocation(db, projectID, userID)
	if errors.Is(err, ErrResourceNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	spent, err := ExpensesSum(db, projectID, userID)
	if err != nil {
		return err
	}

	remaining := allocation.Amount.Sub(spent)
	if attempted.GreaterThan(remaining) {
		return AllocationExceededError{
			Allocated: allocation.Amount,
			Spent:     spent,
			Remaining: remaining,
			Attempted: attempted,
		}
	}

	return nil
}

// ProjectSummary aggregates a project's allocations against its spend.
type ProjectSummary struct {
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Summarize computes the allocation summary for a project.
func Summarize(db *gorm.DB, projectID uuid.UUID) (ProjectSummary, error) {
	var allocated decimal.NullDecimal

	err := db.
		Model(&Allocation{}).
		Where("project_id = ?", projectID).
		Select("SUM(amount)").
		Row().
		Scan(&allocated)
	if err != nil {
		return ProjectSummary{}, err
	}

	if !allocated.Valid {
		allocated.Decimal = decimal.Zero
	}

	spent, err := ProjectExpensesSum(db, projectID)
	if err != nil {
		return ProjectSummary{}, err
	}

	return ProjectSummary{
		Allocated: allocated.Decimal,
		Spent:     spent,
		Remaining: allocated.Decimal.Sub(spent),
	}, nil
}
