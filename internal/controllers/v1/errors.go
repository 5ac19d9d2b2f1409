package v1

import (
	"errors"
	"net/http"

	"github.com/sitedesk/backend/internal/models"
)

// status returns the appropriate HTTP status for an error.
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, models.ErrForbidden) {
		return http.StatusForbidden
	}

	return http.StatusBadRequest
}

var (
	errMissingAuthHeader   = errors.New("the Authorization header must be set to a bearer token")
	errMalformedAuthHeader = errors.New("the Authorization header format must be \"Bearer {token}\"")
	errExpenseForOtherUser = errors.New("you cannot create an expense for another user")
)
