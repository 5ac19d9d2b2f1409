package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sitedesk/backend/internal/auth"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
)

const contextUser = "sitedesk:user"

// Authenticate resolves the caller from the bearer token and stores the
// user in the request context. Requests without a valid token for an
// existing user are rejected with 401.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperror.New(errMissingAuthHeader))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperror.New(errMalformedAuthHeader))
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperror.New(err))
			return
		}

		var user models.User
		if err := models.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httperror.New(auth.ErrInvalidToken))
			return
		}

		c.Set(contextUser, user)
		c.Next()
	}
}

// currentUser returns the authenticated caller.
func currentUser(c *gin.Context) (models.User, bool) {
	value, ok := c.Get(contextUser)
	if !ok {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}

// requirePermission verifies that the caller's permission set satisfies the
// rule. On denial it writes the error response and returns false.
func requirePermission(c *gin.Context, rule permissions.Rule) bool {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httperror.New(errMissingAuthHeader))
		return false
	}

	if !user.PermissionSet().Allow(rule) {
		c.JSON(http.StatusForbidden, httperror.New(models.ErrForbidden))
		return false
	}

	return true
}
