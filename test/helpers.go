package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitedesk/backend/internal/auth"
	"github.com/sitedesk/backend/internal/httperror"
	"github.com/sitedesk/backend/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request performs a request against a freshly configured router and
// returns the recorded response. Strings are sent as-is, structs, maps and
// slices are marshalled to JSON, anything else must be a *bytes.Buffer.
func Request(t *testing.T, method, url string, body any, headers ...map[string]string) httptest.ResponseRecorder {
	var buf *bytes.Buffer

	switch reflect.TypeOf(body).Kind() {
	case reflect.String:
		buf = bytes.NewBufferString(body.(string))
	case reflect.Struct, reflect.Map, reflect.Slice:
		marshalled, err := json.Marshal(body)
		if err != nil {
			assert.Fail(t, "request body could not be marshalled", err)
		}
		buf = bytes.NewBuffer(marshalled)
	default:
		buf = body.(*bytes.Buffer)
	}

	r, teardown, err := router.Config()
	if err != nil {
		assert.FailNow(t, "router could not be initialized")
	}
	defer teardown()
	router.AttachRoutes(r.Group("/"))

	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest(method, url, buf)

	for _, headerMap := range headers {
		for header, value := range headerMap {
			req.Header.Set(header, value)
		}
	}

	r.ServeHTTP(recorder, req)

	return *recorder
}

// BearerHeader returns the Authorization header for a user, using a token
// that is valid for the duration of the test.
func BearerHeader(t *testing.T, userID uuid.UUID) map[string]string {
	token, err := auth.GenerateToken(userID, time.Hour)
	require.NoError(t, err, "token could not be generated")

	return map[string]string{"Authorization": "Bearer " + token}
}

// DecodeResponse unmarshals the recorded response body into target.
func DecodeResponse(t *testing.T, r *httptest.ResponseRecorder, target any) {
	if err := json.Unmarshal(r.Body.Bytes(), &target); err != nil {
		assert.FailNow(t, "parsing error", "could not parse %q into %v: %v, request ID %s", r.Body, reflect.TypeOf(target), err, r.Result().Header.Get("x-request-id"))
	}
}

// DecodeError returns the error message of an error response body.
func DecodeError(t *testing.T, s []byte) string {
	var r httperror.Error
	if err := json.Unmarshal(s, &r); err != nil {
		assert.Fail(t, "response is not valid JSON", "%s", s)
	}

	return r.Message
}

// AssertHTTPStatus fails the test when the response status is not one of
// expectedStatus, printing the response body for the diagnosis.
func AssertHTTPStatus(t *testing.T, r *httptest.ResponseRecorder, expectedStatus ...int) {
	require.Contains(t, expectedStatus, r.Code, "wrong HTTP status, request ID %q, response body: %s", r.Result().Header.Get("x-request-id"), r.Body.String())
}

// TmpFile returns a unique database file path below a per-test directory.
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), uuid.New().String())
}
