package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/httputil"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

var auditReadRule = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.UsersRead, permissions.BudgetAdjust}}

// RegisterAuditRoutes registers the routes for the allocation audit trail
// with the RouterGroup that is passed.
func RegisterAuditRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsAudit)
	r.GET("", GetUserAudit)
}

type AuditQuery struct {
	Limit  int `form:"limit" example:"20"` // Number of entries to return, defaults to 20, capped at 100
	Offset int `form:"offset" example:"0"` // Number of entries to skip
}

type AuditListResponse struct {
	Data       []AuditEntry `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Audit
// @Success		204
// @Router			/v1/users/{userId}/audit [options]
func OptionsAudit(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allocation history for a user
// @Description	Returns the allocation adjustments affecting a user, newest first
// @Tags			Audit
// @Produce		json
// @Success		200		{object}	AuditListResponse
// @Failure		400		{object}	httperror.Error
// @Failure		403		{object}	httperror.Error
// @Failure		404		{object}	httperror.Error
// @Failure		500		{object}	httperror.Error
// @Param			userId	path		string	true	"ID of the user"
// @Param			limit	query		int		false	"Number of entries to return, defaults to 20, capped at 100"
// @Param			offset	query		int		false	"Number of entries to skip"
// @Router			/v1/users/{userId}/audit [get]
func GetUserAudit(c *gin.Context) {
	var uri URIUser
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	caller, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httperror.New(errMissingAuthHeader))
		return
	}

	// Users may always read their own history
	if caller.ID != uri.UserID.UUID && !requirePermission(c, auditReadRule) {
		return
	}

	var user models.User
	if err := models.DB.First(&user, "id = ?", uri.UserID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	var query AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	limit, offset := models.ClampAuditPage(query.Limit, query.Offset)

	entries, err := models.AuditEntriesForUser(models.DB, user.ID, limit, offset)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	data := make([]AuditEntry, 0, len(entries))
	for _, entry := range entries {
		data = append(data, newAuditEntry(entry))
	}

	c.JSON(http.StatusOK, AuditListResponse{
		Data: data,
		Pagination: Pagination{
			Count:  len(data),
			Limit:  limit,
			Offset: offset,
		},
	})
}
