package v1_test

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	v1 "github.com/sitedesk/backend/internal/controllers/v1"
	"github.com/sitedesk/backend/internal/models"
	"github.com/sitedesk/backend/internal/permissions"
	"github.com/sitedesk/backend/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectsPath = "http://example.com/v1/projects"

func projectPath(projectID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", projectsPath, projectID)
}

func (suite *TestSuiteStandard) TestCreateProject() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodPost, projectsPath, v1.ProjectEditable{
		Name:        "Riverside office block",
		TotalBudget: decimal.NewFromInt(1_500_000),
	}, test.BearerHeader(suite.T(), pm.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var response v1.ProjectResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), "Riverside office block", response.Data.Name)
}

func (suite *TestSuiteStandard) TestCreateProjectMissingName() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodPost, projectsPath, v1.ProjectEditable{
		TotalBudget: decimal.NewFromInt(1_500_000),
	}, test.BearerHeader(suite.T(), pm.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestGetProjects() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	suite.createTestProject("Alpha", 100_000)
	suite.createTestProject("Beta", 200_000)

	recorder := test.Request(suite.T(), http.MethodGet, projectsPath, "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.ProjectListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 2)
}

func (suite *TestSuiteStandard) TestGetProjectWithSummary() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	project := suite.createTestProject("Alpha", 100_000)
	suite.createTestAllocation(project.ID, pm.ID, 500)
	suite.createTestExpense(project.ID, pm.ID, 100, "Rebar")

	recorder := test.Request(suite.T(), http.MethodGet, projectPath(project.ID), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.ProjectDetailResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	assert.Equal(suite.T(), "Alpha", response.Data.Name)
	assert.True(suite.T(), response.Summary.Allocated.Equal(decimal.NewFromInt(500)))
	assert.True(suite.T(), response.Summary.Spent.Equal(decimal.NewFromInt(100)))
	assert.True(suite.T(), response.Summary.Remaining.Equal(decimal.NewFromInt(400)))
}

func (suite *TestSuiteStandard) TestUpdateProject() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	project := suite.createTestProject("Alpha", 100_000)

	recorder := test.Request(suite.T(), http.MethodPatch, projectPath(project.ID), v1.ProjectEditable{
		Name:        "Alpha phase 2",
		TotalBudget: decimal.NewFromInt(250_000),
	}, test.BearerHeader(suite.T(), pm.ID))

	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.ProjectResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), "Alpha phase 2", response.Data.Name)
	assert.True(suite.T(), response.Data.TotalBudget.Equal(decimal.NewFromInt(250_000)))
}

func (suite *TestSuiteStandard) TestDeleteProjectCascades() {
	admin := suite.createTestAdmin()
	pm := suite.createTestUser("pm", permissions.RolePM)
	project := suite.createTestProject("Alpha", 100_000)
	suite.createTestAllocation(project.ID, pm.ID, 500)
	suite.createTestExpense(project.ID, pm.ID, 100, "Rebar")

	recorder := test.Request(suite.T(), http.MethodDelete, projectPath(project.ID), "", test.BearerHeader(suite.T(), admin.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)

	var allocations, audits, expenses int64
	models.DB.Model(&models.Allocation{}).Where("project_id = ?", project.ID).Count(&allocations)
	models.DB.Model(&models.AllocationAudit{}).Where("project_id = ?", project.ID).Count(&audits)
	models.DB.Model(&models.Expense{}).Where("project_id = ?", project.ID).Count(&expenses)

	assert.Zero(suite.T(), allocations)
	assert.Zero(suite.T(), audits)
	assert.Zero(suite.T(), expenses)
}

func (suite *TestSuiteStandard) TestDeleteProjectForbidden() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	project := suite.createTestProject("Alpha", 100_000)

	recorder := test.Request(suite.T(), http.MethodDelete, projectPath(project.ID), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusForbidden)

	var count int64
	err := models.DB.Model(&models.Project{}).Where("id = ?", project.ID).Count(&count).Error
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *TestSuiteStandard) TestProjectNotFound() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, projectPath(uuid.New()), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestProjectInvalidID() {
	pm := suite.createTestUser("pm", permissions.RolePM)

	recorder := test.Request(suite.T(), http.MethodGet, projectsPath+"/NotAUUID", "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestOptionsProjects() {
	pm := suite.createTestUser("pm", permissions.RolePM)
	project := suite.createTestProject("Alpha", 100_000)

	recorder := test.Request(suite.T(), http.MethodOptions, projectsPath, "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, GET, POST", recorder.Header().Get("allow"))

	recorder = test.Request(suite.T(), http.MethodOptions, projectPath(project.ID), "", test.BearerHeader(suite.T(), pm.ID))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, GET, PATCH, DELETE", recorder.Header().Get("allow"))
}
