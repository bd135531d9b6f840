package httputil_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/httputil"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorCodedError(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteError(rec, dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON"))

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeError(t, rec)
	assert.Equal(t, "bad_request", body["error"])
	assert.Equal(t, "request body is not valid JSON", body["error_description"])
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeInvalidInput, 400},
		{dErrors.CodeConflict, 409},
		{dErrors.CodeInvariantViolation, 409},
		{dErrors.CodeNotFound, 404},
		{dErrors.CodeUnauthorized, 401},
		{dErrors.CodeForbidden, 403},
		{dErrors.CodeTimeout, 504},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		httputil.WriteError(rec, dErrors.New(tc.code, "detail"))
		assert.Equal(t, tc.status, rec.Code, "code %s", tc.code)
		assert.Equal(t, string(tc.code), decodeError(t, rec)["error"])
	}
}

func TestWriteErrorInternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteError(rec, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to read chain head"))

	assert.Equal(t, 500, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_error", body["error"])
	assert.Empty(t, body["error_description"], "internal detail must not leak")
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestWriteErrorUncodedError(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteError(rec, errors.New("something broke"))

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "something broke")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteJSON(rec, 201, map[string]int{"sequence": 7})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sequence":7}`, rec.Body.String())
}

func TestWriteJSONNilPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteJSON(rec, 204, nil)

	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}
