package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/httputil"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

var (
	userReadRule   = permissions.Rule{AnyOf: []string{permissions.Wildcard, permissions.UsersRead}}
	userManageRule = permissions.Rule{AnyOf: []string{permissions.Wildcard}}
)

// RegisterUserRoutes registers the routes for users with
// the RouterGroup that is passed.
func RegisterUserRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsUserList)
		r.GET("", GetUsers)
		r.POST("", CreateUser)
	}

	// User with ID
	{
		r.OPTIONS("/:userId", OptionsUserDetail)
		r.GET("/:userId", GetUser)
	}
}

type UserEditable struct {
	Username    string           `json:"username" binding:"required" example:"m.oduya"` // Unique login name
	Password    string           `json:"password" binding:"required" example:"correct horse battery staple"`
	Role        permissions.Role `json:"role" example:"PM"`                   // ADMIN, MOD or PM, defaults to PM
	Permissions []string         `json:"permissions" example:"BUDGET_ADJUST"` // Explicit permission keys, overrides the role defaults
}

type UserResponse struct {
	Data models.User `json:"data"`
}

type UserListResponse struct {
	Data []models.User `json:"data"`
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Users
// @Success		204
// @Router			/v1/users [options]
func OptionsUserList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Users
// @Success		204
// @Failure		400		{object}	httperror.Error
// @Param			userId	path		string	true	"ID of the user"
// @Router			/v1/users/{userId} [options]
func OptionsUserDetail(c *gin.Context) {
	var uri URIUser
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(httputil.ErrInvalidUUID))
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		List users
// @Tags			Users
// @Produce		json
// @Success		200	{object}	UserListResponse
// @Failure		403	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Router			/v1/users [get]
func GetUsers(c *gin.Context) {
	if !requirePermission(c, userReadRule) {
		return
	}

	var users []models.User
	if err := models.DB.Order("username ASC").Find(&users).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, UserListResponse{Data: users})
}

// @Summary		Get user
// @Tags			Users
// @Produce		json
// @Success		200		{object}	UserResponse
// @Failure		400		{object}	httperror.Error
// @Failure		403		{object}	httperror.Error
// @Failure		404		{object}	httperror.Error
// @Failure		500		{object}	httperror.Error
// @Param			userId	path		string	true	"ID of the user"
// @Router			/v1/users/{userId} [get]
func GetUser(c *gin.Context) {
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

	// Users may always read their own account
	if caller.ID != uri.UserID.UUID && !requirePermission(c, userReadRule) {
		return
	}

	var user models.User
	if err := models.DB.First(&user, "id = ?", uri.UserID.UUID).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusOK, UserResponse{Data: user})
}

// @Summary		Create user
// @Tags			Users
// @Accept			json
// @Produce		json
// @Success		201		{object}	UserResponse
// @Failure		400		{object}	httperror.Error
// @Failure		403		{object}	httperror.Error
// @Failure		500		{object}	httperror.Error
// @Param			user	body		UserEditable	true	"User"
// @Router			/v1/users [post]
func CreateUser(c *gin.Context) {
	if !requirePermission(c, userManageRule) {
		return
	}

	var editable UserEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(http.StatusBadRequest, httperror.New(err))
		return
	}

	user := models.User{
		Username:    editable.Username,
		Role:        editable.Role,
		Permissions: editable.Permissions,
	}

	if user.Role == "" {
		user.Role = permissions.RolePM
	}

	if err := user.SetPassword(editable.Password); err != nil {
		c.JSON(http.StatusInternalServerError, httperror.New(err))
		return
	}

	if err := models.DB.Create(&user).Error; err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.JSON(http.StatusCreated, UserResponse{Data: user})
}
