package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Audit list pagination. The per-manager page defaults to DefaultAuditLimit
// entries and never returns more than MaxAuditLimit.
const (
	DefaultAuditLimit = 20
	MaxAuditLimit     = 100
	MaxAuditOffset    = 10_000
)

// AllocationAudit is one immutable record of an allocation change.
//
// ProjectID and UserID duplicate the allocation's foreign keys so that
// histories can be queried without joining. They are written in the same
// transaction as the allocation change and must never drift from it.
type AllocationAudit struct {
	DefaultModel
	AllocationID uuid.UUID  `json:"allocationId"`
	Allocation   Allocation `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ProjectID    uuid.UUID  `json:"projectId" gorm:"index"`
	Project      Project    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID       uuid.UUID  `json:"userId" gorm:"index"`
	User         User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	// OldAmount is null for the entry that records the allocation's creation
	OldAmount decimal.NullDecimal `json:"oldAmount" gorm:"type:DECIMAL(20,8)"`
	NewAmount decimal.Decimal     `json:"newAmount" gorm:"type:DECIMAL(20,8)"`
}

// BeforeUpdate rejects every update. Entries are only ever inserted; they
// disappear solely through the cascade when their project is deleted.
func (AllocationAudit) BeforeUpdate(_ *gorm.DB) error {
	return ErrAuditEntryImmutable
}

// Delta returns the signed change this entry records. For a creation entry
// the new amount is the delta.
func (a AllocationAudit) Delta() decimal.Decimal {
	if !a.OldAmount.Valid {
		return a.NewAmount
	}

	return a.NewAmount.Sub(a.OldAmount.Decimal)
}

// AuditEntriesForProject returns a project's full allocation history in
// chronological order.
func AuditEntriesForProject(db *gorm.DB, projectID uuid.UUID) ([]AllocationAudit, error) {
	var entries []AllocationAudit

	err := db.
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ClampAuditPage normalizes a requested page to the limits above so that
// callers can report the values that were actually applied.
func ClampAuditPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > MaxAuditOffset {
		offset = MaxAuditOffset
	}

	return limit, offset
}

// AuditEntriesForUser returns a page of a manager's allocation history
// across all projects, newest first.
func AuditEntriesForUser(db *gorm.DB, userID uuid.UUID, limit, offset int) ([]AllocationAudit, error) {
	limit, offset = ClampAuditPage(limit, offset)

	var entries []AllocationAudit

	err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
