package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/httputil"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

var (
	expenseReadRule   = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.ExpenseCreate, permissions.ProjectsRead}}
	expenseCreateRule = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.ExpenseCreate}}
)

// RegisterExpenseRoutes registers the routes for expenses with
// the RouterGroup that is passed.
func RegisterExpenseRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsExpenses)
	r.GET("", GetExpenses)
	r.POST("", CreateExpense)
}

type ExpenseQueryFilter struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1" example:"2024-01-01"` // Only expenses created on or after this day
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1" example:"2024-02-01"`   // Only expenses created before this day
}

type ExpenseEditable struct {
	Amount      decimal.Decimal `json:"amount" example:"125.50"`                                                  // The amount spent, must be positive
	Description string          `json:"description" binding:"required" example:"Rebar for the foundation"`        // What the money was spent on
	UserID      uuid.UUID       `json:"userId" binding:"required" example:"a0909e84-e8f9-4cb6-82a5-025dff105ff2"` // The manager whose allocation is used
}

type ExpenseResponse struct {
	Data models.Expense `json:"data"`
}

type ExpenseListResponse struct {
	Data []models.Expense `json:"data"`
}

// ExpenseRejectedResponse is returned when an expense does not fit into the
// remaining allocation. Details always carries the concrete numbers.
type ExpenseRejectedResponse struct {
	Error   string                         `json:"error" example:"allocation_exceeded"`
	Details models.AllocationExceededError `json:"details"`
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Expenses
// @Success		204
// @Router			/v1/projects/{projectId}/expenses [options]
func OptionsExpenses(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		List expenses
// @Description	Returns the expenses recorded for a project
// @Tags			Expenses
// @Produce		json
// @Success		200			{object}	ExpenseListResponse
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string	true	"ID of the project"
// @Param			from		query		string	false	"Only expenses created on or after this day (YYYY-MM-DD)"
// @Param			to			query		string	false	"Only expenses created before this day (YYYY-MM-DD)"
// @Router			/v1/projects/{projectId}/expenses [get]
func GetExpenses(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, expenseReadRule) {
		return
	}

	var filter ExpenseQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	expenses, err := models.ListExpenses(models.DB, project.ID, filter.From, filter.To)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, ExpenseListResponse{Data: expenses})
}

// @Summary		Create expense
// @Description	Records an expense after checking it against the manager's remaining allocation
// @Tags			Expenses
// @Accept			json
// @Produce		json
// @Success		201			{object}	ExpenseResponse
// @Failure		400			{object}	ExpenseRejectedResponse
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string			true	"ID of the project"
// @Param			expense		body		ExpenseEditable	true	"Expense"
// @Router			/v1/projects/{projectId}/expenses [post]
func CreateExpense(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, expenseCreateRule) {
		return
	}

	caller, _ := currentUser(c)

	var editable ExpenseEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	if !editable.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, httperror.New(models.ErrExpenseAmountNotPositive))
		return
	}

	// Without the wildcard, callers may only spend against their own allocation
	if !caller.PermissionSet().Contains(permissions.Wildcard) && caller.ID != editable.UserID {
		c.JSON(http.StatusForbidden, httperror.New(errExpenseForOtherUser))
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

	err := models.CheckAndReserve(models.DB, project.ID, manager.ID, editable.Amount)
	if err != nil {
		var exceeded models.AllocationExceededError
		if errors.As(err, &exceeded) {
			c.JSON(http.StatusBadRequest, ExpenseRejectedResponse{
				Error:   "allocation_exceeded",
				Details: exceeded,
			})
			return
		}

		c.JSON(status(err), httperror.New(err))
		return
	}

	expense := models.Expense{
		Amount:      editable.Amount,
		Description: editable.Description,
		ProjectID:   project.ID,
		UserID:      manager.ID,
	}

	if err := models.DB.Create(&expense).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusCreated, ExpenseResponse{Data: expense})
}
