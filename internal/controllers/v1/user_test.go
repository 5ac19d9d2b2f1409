package v1_test

import (
	"fmt"
	"net/http"

	v1 "github.com/sitedesk/backend/internal/controllers/v1"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
	"github.com/sitedesk/backend/test"
	"github.com/stretchr/testify/assert"
)

const usersPath = "http://example.com/v1/users"

func (suite *TestSuiteStandard) TestCreateUser() {
	admin := suite.createTestAdmin()

	recorder := test.Request(suite.T(), http.MethodPost, usersPath, v1.UserEditable{
		Username: "m.oduya",
		Password: "correct horse battery staple",
		Role:     permissions.RoleMod,
	}, test.BearerHeader(suite.T(), admin.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var response v1.UserResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	assert.Equal(suite.T(), "m.oduya", response.Data.Username)
	assert.Equal(suite.T(), permissions.RoleMod, response.Data.Role)

	// The password hash never leaves the backend
	assert.NotContains(suite.T(), recorder.Body.String(), "correct horse battery staple")
	assert.NotContains(suite.T(), recorder.Body.String(), "password")
}

func (suite *TestSuiteStandard) TestCreateUserDefaultsToPM() {
	admin := suite.createTestAdmin()

	recorder := test.Request(suite.T(), http.MethodPost, usersPath, v1.UserEditable{
		Username: "newbie",
		Password: "test password",
	}, test.BearerHeader(suite.T(), admin.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var response v1.UserResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), permissions.RolePM, response.Data.Role)
}

func (suite *TestSuiteStandard) TestCreateUserDuplicateUsername() {
	admin := suite.createTestAdmin()
	suite.createTestUser("taken", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodPost, usersPath, v1.UserEditable{
		Username: "taken",
		Password: "test password",
	}, test.BearerHeader(suite.T(), admin.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
	assert.Equal(suite.T(), models.ErrUsernameNotUnique.Error(), test.DecodeError(suite.T(), recorder.Body.Bytes()))
}

func (suite *TestSuiteStandard) TestCreateUserForbidden() {
	mod := suite.createTestUser("mod", permissions.RoleMod)

	recorder := test.Request(suite.T(), http.MethodPost, usersPath, v1.UserEditable{
		Username: "side-door",
		Password: "test password",
	}, test.BearerHeader(suite.T(), mod.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestGetUsers() {
	mod := suite.createTestUser("mod", permissions.RoleMod)
	suite.createTestUser("alice", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, usersPath, "", test.BearerHeader(suite.T(), mod.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.UserListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 2)
}

func (suite *TestSuiteStandard) TestGetUsersForbidden() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, usersPath, "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestGetUserSelf() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("%s/%s", usersPath, pm.ID), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.UserResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), "pm", response.Data.Username)
}

func (suite *TestSuiteStandard) TestGetUserForbidden() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	other := suite.createTestUser("other", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("%s/%s", usersPath, other.ID), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestUserUnauthorizedWithoutToken() {
	recorder := test.Request(suite.T(), http.MethodGet, usersPath, "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}

func (suite *TestSuiteStandard) TestUserUnauthorizedMalformedHeader() {
	recorder := test.Request(suite.T(), http.MethodGet, usersPath, "", map[string]string{"Authorization": "NotBearer xyz"})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}

func (suite *TestSuiteStandard) TestUserUnauthorizedInvalidToken() {
	recorder := test.Request(suite.T(), http.MethodGet, usersPath, "", map[string]string{"Authorization": "Bearer not.a.token"})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}
