package v1

import (
	"github.com/shopspring/decimal"
	sd_uuid "github.com/sitedesk/backend/internal/uuid"

	"github.com/sitedesk/backend/internal/models"
)

type URIProject struct {
	ProjectID sd_uuid.UUID `uri:"projectId" binding:"required" format:"UUID"` // ID of the project
}

type URIUser struct {
	UserID sd_uuid.UUID `uri:"userId" binding:"required" format:"UUID"` // ID of the user
}

// Pagination only appears on paged list responses.
type Pagination struct {
	Count  int `json:"count"`  // The number of entries in this response
	Limit  int `json:"limit"`  // The applied maximum number of entries
	Offset int `json:"offset"` // The applied offset
}

// AuditEntry is an audit ledger entry with its delta computed for display.
type AuditEntry struct {
	models.AllocationAudit
	Delta decimal.Decimal `json:"delta"`
}

func newAuditEntry(entry models.AllocationAudit) AuditEntry {
	return AuditEntry{
		AllocationAudit: entry,
		Delta:           entry.Delta(),
	}
}
