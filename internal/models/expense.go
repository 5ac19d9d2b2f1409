package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is one spend record against a (project, manager) pair.
//
// Expenses are written by the expense flow and are read-only for the
// allocation engine, which only ever sums them.
type Expense struct {
	DefaultModel
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Description string          `json:"description"`
	ProjectID   uuid.UUID       `json:"projectId"`
	Project     Project         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID      uuid.UUID       `json:"userId"`
	User        User            `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (e *Expense) BeforeSave(_ *gorm.DB) error {
	e.Description = strings.TrimSpace(e.Description)

	if !e.Amount.IsPositive() {
		return ErrExpenseAmountNotPositive
	}

	return nil
}

// ExpensesSum returns the amount spent by a manager on a project.
//
// A pair without expenses sums to zero, never to an error.
func ExpensesSum(db *gorm.DB, projectID, userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.
		Model(&Expense{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Select("SUM(amount)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses for project %s and user %s failed: %w", projectID, userID, err)
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return sum.Decimal, nil
}

// ProjectExpensesSum returns the amount spent on a project across all managers.
func ProjectExpensesSum(db *gorm.DB, projectID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.
		Model(&Expense{}).
		Where("project_id = ?", projectID).
		Select("SUM(amount)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses for project %s failed: %w", projectID, err)
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return sum.Decimal, nil
}

// ListExpenses returns the expenses for a project, oldest first. A zero
// from or to leaves that end of the range open.
func ListExpenses(db *gorm.DB, projectID uuid.UUID, from, to time.Time) ([]Expense, error) {
	q := db.Where("project_id = ?", projectID)

	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}

	var expenses []Expense

	err := q.Order("created_at ASC").Find(&expenses).Error
	if err != nil {
		return nil, err
	}

	return expenses, nil
}
