package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project is the resource budget allocations are scoped to.
type Project struct {
	DefaultModel
	Name        string          `json:"name"`
	TotalBudget decimal.Decimal `json:"totalBudget" gorm:"type:DECIMAL(20,8)"`
}

func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	return nil
}
