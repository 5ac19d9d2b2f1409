package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/httputil"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

// budgetAdjustRule guards the allocation surface, both reads and writes.
var budgetAdjustRule = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.BudgetAdjust}}

// RegisterAllocationRoutes registers the routes for allocations with
// the RouterGroup that is passed.
func RegisterAllocationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsAllocations)
	r.GET("", GetAllocations)
	r.POST("", AdjustAllocation)
}

type AllocationListResponse struct {
	Allocations []models.Allocation   `json:"allocations"` // Current allocations of the project
	Summary     models.ProjectSummary `json:"summary"`     // Allocated, spent and remaining for the whole project
	History     []AuditEntry          `json:"history"`     // Full allocation history of the project
}

type AllocationEditable struct {
	UserID uuid.UUID       `json:"userId" binding:"required" example:"a0909e84-e8f9-4cb6-82a5-025dff105ff2"` // The manager the delta applies to
	Amount decimal.Decimal `json:"amount" example:"500"`                                                     // The signed delta to apply to the allocation
}

type AllocationResponse struct {
	Data    models.Allocation `json:"data"`    // The allocation after the adjustment
	Delta   decimal.Decimal   `json:"delta"`   // The delta that was applied
	Created bool              `json:"created"` // Whether the adjustment created the allocation
}

// AllocationAdjustmentError is returned when a delta would make the
// allocation negative. It carries the concrete numbers for the rejection.
type AllocationAdjustmentError struct {
	Error   string          `json:"error"`
	Current decimal.Decimal `json:"current"`
	Delta   decimal.Decimal `json:"delta"`
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Router			/v1/projects/{projectId}/allocations [options]
func OptionsAllocations(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		List allocations
// @Description	Returns a project's allocations with its spend summary and audit history
// @Tags			Allocations
// @Produce		json
// @Success		200			{object}	AllocationListResponse
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string	true	"ID of the project"
// @Router			/v1/projects/{projectId}/allocations [get]
func GetAllocations(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, budgetAdjustRule) {
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	allocations, err := models.ListAllocations(models.DB, project.ID)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	summary, err := models.Summarize(models.DB, project.ID)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	entries, err := models.AuditEntriesForProject(models.DB, project.ID)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	history := make([]AuditEntry, 0, len(entries))
	for _, entry := range entries {
		history = append(history, newAuditEntry(entry))
	}

	c.JSON(http.StatusOK, AllocationListResponse{
		Allocations: allocations,
		Summary:     summary,
		History:     history,
	})
}

// @Summary		Adjust allocation
// @Description	Applies a signed delta to a manager's allocation on the project, creating it on the first positive delta
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200			{object}	AllocationResponse
// @Success		201			{object}	AllocationResponse
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string				true	"ID of the project"
// @Param			allocation	body		AllocationEditable	true	"Adjustment"
// @Router			/v1/projects/{projectId}/allocations [post]
func AdjustAllocation(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	caller, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httperror.New(errMissingAuthHeader))
		return
	}

	var editable AllocationEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	var manager models.User
	if err := models.DB.First(&manager, "id = ?", editable.UserID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	allocation, created, err := models.AdjustAllocation(models.DB, caller.PermissionSet(), budgetAdjustRule, project.ID, manager.ID, editable.Amount)
	if err != nil {
		var negative models.NegativeBalanceError
		if errors.As(err, &negative) {
			c.JSON(http.StatusBadRequest, AllocationAdjustmentError{
				Error:   negative.Error(),
				Current: negative.Current,
				Delta:   negative.Delta,
			})
			return
		}

		c.JSON(status(err), httperror.New(err))
		return
	}

	responseStatus := http.StatusOK
	if created {
		responseStatus = http.StatusCreated
	}

	c.JSON(responseStatus, AllocationResponse{
		Data:    allocation,
		Delta:   editable.Amount,
		Created: created,
	})
}
