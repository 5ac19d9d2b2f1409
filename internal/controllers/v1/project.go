package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/httputil"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

var (
	projectReadRule   = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.ProjectsRead, permissions.ProjectsManage}}
	projectManageRule = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.ProjectsManage}}
	projectDeleteRule = permissions.Rule{AnyOf: []string{permissions.Wildcard}}
)

// RegisterProjectRoutes registers the routes for projects with
// the RouterGroup that is passed.
func RegisterProjectRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsProjectList)
		r.GET("", GetProjects)
		r.POST("", CreateProject)
	}

	// Project with ID
	{
		r.OPTIONS("/:projectId", OptionsProjectDetail)
		r.GET("/:projectId", GetProject)
		r.PATCH("/:projectId", UpdateProject)
		r.DELETE("/:projectId", DeleteProject)
	}
}

type ProjectEditable struct {
	Name        string          `json:"name" binding:"required" example:"Riverside office block"` // Name of the project
	TotalBudget decimal.Decimal `json:"totalBudget" example:"1500000"`                            // The overall budget the project may spend
}

type ProjectResponse struct {
	Data models.Project `json:"data"`
}

type ProjectDetailResponse struct {
	Data    models.Project        `json:"data"`
	Summary models.ProjectSummary `json:"summary"`
}

type ProjectListResponse struct {
	Data []models.Project `json:"data"`
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Projects
// @Success		204
// @Router			/v1/projects [options]
func OptionsProjectList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Projects
// @Success		204
// @Failure		400			{object}	httperror.Error
// @Param			projectId	path		string	true	"ID of the project"
// @Router			/v1/projects/{projectId} [options]
func OptionsProjectDetail(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		List projects
// @Tags			Projects
// @Produce		json
// @Success		200	{object}	ProjectListResponse
// @Failure		403	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Router			/v1/projects [get]
func GetProjects(c *gin.Context) {
	if !requirePermission(c, projectReadRule) {
		return
	}

	var projects []models.Project
	if err := models.DB.Order("created_at ASC").Find(&projects).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, ProjectListResponse{Data: projects})
}

// @Summary		Get project
// @Description	Returns a project together with its budget summary
// @Tags			Projects
// @Produce		json
// @Success		200			{object}	ProjectDetailResponse
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string	true	"ID of the project"
// @Router			/v1/projects/{projectId} [get]
func GetProject(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, projectReadRule) {
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	summary, err := models.Summarize(models.DB, project.ID)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, ProjectDetailResponse{Data: project, Summary: summary})
}

// @Summary		Create project
// @Tags			Projects
// @Accept			json
// @Produce		json
// @Success		201		{object}	ProjectResponse
// @Failure		400		{object}	httperror.Error
// @Failure		403		{object}	httperror.Error
// @Failure		500		{object}	httperror.Error
// @Param			project	body		ProjectEditable	true	"Project"
// @Router			/v1/projects [post]
func CreateProject(c *gin.Context) {
	if !requirePermission(c, projectManageRule) {
		return
	}

	var editable ProjectEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	project := models.Project{
		Name:        editable.Name,
		TotalBudget: editable.TotalBudget,
	}

	if err := models.DB.Create(&project).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusCreated, ProjectResponse{Data: project})
}

// @Summary		Update project
// @Tags			Projects
// @Accept			json
// @Produce		json
// @Success		200			{object}	ProjectResponse
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string			true	"ID of the project"
// @Param			project		body		ProjectEditable	true	"Project"
// @Router			/v1/projects/{projectId} [patch]
func UpdateProject(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, projectManageRule) {
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	var editable ProjectEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	updates := models.Project{
		Name:        editable.Name,
		TotalBudget: editable.TotalBudget,
	}

	if err := models.DB.Model(&project).Select("Name", "TotalBudget").Updates(updates).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, ProjectResponse{Data: project})
}

// @Summary		Delete project
// @Description	Deletes a project with all of its allocations, audit entries and expenses
// @Tags			Projects
// @Success		204
// @Failure		400			{object}	httperror.Error
// @Failure		403			{object}	httperror.Error
// @Failure		404			{object}	httperror.Error
// @Failure		500			{object}	httperror.Error
// @Param			projectId	path		string	true	"ID of the project"
// @Router			/v1/projects/{projectId} [delete]
func DeleteProject(c *gin.Context) {
	var uri URIProject
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	if !requirePermission(c, projectDeleteRule) {
		return
	}

	var project models.Project
	if err := models.DB.First(&project, "id = ?", uri.ProjectID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	// Hard delete so the foreign key cascades remove the project's
	// allocations, audit entries and expenses with it.
	if err := models.DB.Unscoped().Delete(&project).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.Status(http.StatusNoContent)
}
