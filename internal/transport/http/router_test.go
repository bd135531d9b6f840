package httptransport_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northstar/internal/audit"
	auditmemory "northstar/internal/audit/store/memory"
	"northstar/internal/jwtauth"
	"northstar/internal/legalhold"
	legalholdmemory "northstar/internal/legalhold/store/memory"
	"northstar/internal/purge"
	"northstar/internal/retention"
	retentionmemory "northstar/internal/retention/store/memory"
	"northstar/internal/roster"
	rostermemory "northstar/internal/roster/store/memory"
	"northstar/internal/tenant"
	tenantmemory "northstar/internal/tenant/store/memory"
	httptransport "northstar/internal/transport/http"
	id "northstar/pkg/domain"
	txcontext "northstar/pkg/platform/tx"
)

type apiFixture struct {
	router   http.Handler
	tokens   *jwtauth.Service
	tenantID id.TenantID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	auditStore := auditmemory.NewInMemoryStore()
	retentionStore := retentionmemory.NewInMemoryStore()
	holdStore := legalholdmemory.NewInMemoryStore()
	rosterStore := rostermemory.NewInMemoryStore()
	tenantStore := tenantmemory.NewInMemoryStore()
	runner := txcontext.NewMemoryRunner(auditStore, retentionStore, holdStore, rosterStore, tenantStore)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditSvc := audit.NewService(auditStore, audit.WithLogger(logger))
	retentionEngine := retention.NewEngine(retentionStore, auditSvc, runner, logger)
	holdRegistry := legalhold.NewRegistry(holdStore, auditSvc, runner, logger)
	rosterSvc := roster.NewService(rosterStore, auditSvc, runner, logger)
	coordinator := purge.NewCoordinator(rosterSvc, retentionEngine, holdRegistry, auditSvc, runner, purge.WithLogger(logger))
	tenantSvc := tenant.NewService(tenantStore, auditSvc, retentionEngine, runner, tenant.WithLogger(logger))

	tokens := jwtauth.NewService("router-test-key", "northstar", "northstar-api")
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    logger,
		Validator: jwtauth.NewMiddlewareAdapter(tokens),
		Audit:     auditSvc,
		Retention: retentionEngine,
		Holds:     holdRegistry,
		Purge:     coordinator,
		Roster:    rosterSvc,
		Tenants:   tenantSvc,
	})

	return &apiFixture{router: router, tokens: tokens, tenantID: id.NewTenantID()}
}

func (f *apiFixture) districtToken(t *testing.T) string {
	t.Helper()
	token, err := f.tokens.GenerateToken("admin@district.example", jwtauth.RoleDistrictAdmin, f.tenantID.String(), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) platformToken(t *testing.T) string {
	t.Helper()
	token, err := f.tokens.GenerateToken("ops@northstar.example", jwtauth.RolePlatformAdmin, "", time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/audit/head", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGarbageTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/audit/head", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlatformTokenRejectedOnTenantRoutes(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/audit/head", f.platformToken(t), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDistrictTokenRejectedOnPlatformRoutes(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/platform/tenants/", f.districtToken(t), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuditEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.districtToken(t)

	rec := f.do(t, http.MethodPost, "/v1/audit/records", token, map[string]any{
		"event_type":  "student_created",
		"entity_type": "student",
		"entity_id":   "student-1",
		"details":     map[string]any{"grade": "7"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeJSON(t, rec)
	assert.Equal(t, float64(1), first["sequence"])
	assert.Equal(t, "admin@district.example", first["actor_id"], "actor comes from the token")
	assert.NotEmpty(t, first["hash"])
	assert.Nil(t, first["prev_hash"])

	rec = f.do(t, http.MethodPost, "/v1/audit/records", token, map[string]any{
		"event_type":  "student_updated",
		"entity_type": "student",
		"entity_id":   "student-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decodeJSON(t, rec)
	assert.Equal(t, float64(2), second["sequence"])
	assert.Equal(t, first["hash"], second["prev_hash"])

	rec = f.do(t, http.MethodGet, "/v1/audit/head", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	head := decodeJSON(t, rec)
	assert.Equal(t, float64(2), head["sequence"])
	assert.Equal(t, second["hash"], head["hash"])

	rec = f.do(t, http.MethodGet, "/v1/audit/records?entity_id=student-1&limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeJSON(t, rec)
	assert.Equal(t, float64(2), page["total"])
	assert.Len(t, page["records"], 1)

	rec = f.do(t, http.MethodPost, "/v1/audit/verify", token, map[string]any{"from_seq": 1, "to_seq": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeJSON(t, rec)
	assert.Equal(t, true, report["valid"])
	assert.Equal(t, float64(2), report["checked"])
}

func TestAuditHeadEmptyChain(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/audit/head", f.districtToken(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditAppendRejectsUnknownEntityType(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/audit/records", f.districtToken(t), map[string]any{
		"event_type":  "student_created",
		"entity_type": "widget",
		"entity_id":   "w-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetentionEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.districtToken(t)

	rec := f.do(t, http.MethodPut, "/v1/retention/policies/student", token, map[string]any{
		"retention_days": 365,
		"grace_days":     30,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	policy := decodeJSON(t, rec)
	assert.Equal(t, "student", policy["entity_type"])
	assert.Equal(t, float64(365), policy["retention_days"])

	rec = f.do(t, http.MethodPut, "/v1/retention/policies/student", token, map[string]any{
		"retention_days": 0,
		"grace_days":     30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/retention/policies/student", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(365), decodeJSON(t, rec)["retention_days"])

	rec = f.do(t, http.MethodGet, "/v1/retention/policies/staff", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/retention/policies/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["policies"], 1)
}

func TestLegalHoldEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.districtToken(t)

	applyBody := map[string]any{
		"entity_type": "student",
		"entity_id":   "student-7",
		"case_number": "CASE-2026-014",
		"reason":      "records subpoena",
	}
	rec := f.do(t, http.MethodPost, "/v1/legal-holds/", token, applyBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hold := decodeJSON(t, rec)
	holdID, _ := hold["id"].(string)
	require.NotEmpty(t, holdID)
	assert.Equal(t, true, hold["active"])

	rec = f.do(t, http.MethodPost, "/v1/legal-holds/", token, applyBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/legal-holds/check?entity_type=student&entity_id=student-7", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["active"])

	rec = f.do(t, http.MethodGet, "/v1/legal-holds/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["holds"], 1)

	rec = f.do(t, http.MethodPost, "/v1/legal-holds/"+holdID+"/release", token, map[string]any{"reason": "matter closed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decodeJSON(t, rec)["active"])

	rec = f.do(t, http.MethodPost, "/v1/legal-holds/"+holdID+"/release", token, map[string]any{"reason": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRosterAndPurgeEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.districtToken(t)

	rec := f.do(t, http.MethodPost, "/v1/roster/student/", token, map[string]any{
		"id":           "student-1",
		"display_name": "Jordan Reyes",
		"attributes":   map[string]any{"grade": "7"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/v1/roster/student/student-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jordan Reyes", decodeJSON(t, rec)["display_name"])

	rec = f.do(t, http.MethodPost, "/v1/roster/student/student-1/exit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeJSON(t, rec)["exited_at"])

	// No retention policy yet, so nothing is eligible.
	rec = f.do(t, http.MethodPost, "/v1/purge/preview", token, map[string]any{"entity_type": "student"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeJSON(t, rec)["eligible"])

	rec = f.do(t, http.MethodPost, "/v1/purge/execute", token, map[string]any{
		"entity_type": "student",
		"entity_ids":  []string{"student-1", "student-gone"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeJSON(t, rec)
	assert.Equal(t, float64(1), summary["purged_count"])
	assert.Equal(t, float64(1), summary["already_purged_count"])
	assert.NotEmpty(t, summary["correlation_id"])

	rec = f.do(t, http.MethodGet, "/v1/roster/student/student-1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantPlatformEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token := f.platformToken(t)

	rec := f.do(t, http.MethodPost, "/v1/platform/tenants/", token, map[string]any{"name": "Evergreen Unified"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJSON(t, rec)
	tenantID, _ := created["id"].(string)
	require.NotEmpty(t, tenantID)
	assert.Equal(t, "active", created["status"])

	rec = f.do(t, http.MethodPost, "/v1/platform/tenants/", token, map[string]any{"name": "Evergreen Unified"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/platform/tenants/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["tenants"], 1)

	rec = f.do(t, http.MethodPost, "/v1/platform/tenants/"+tenantID+"/suspend", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "suspended", decodeJSON(t, rec)["status"])

	rec = f.do(t, http.MethodPost, "/v1/platform/tenants/"+tenantID+"/suspend", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/platform/tenants/"+tenantID+"/reactivate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", decodeJSON(t, rec)["status"])

	// Lifecycle events land on the platform chain.
	rec = f.do(t, http.MethodGet, "/v1/platform/audit/head", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeJSON(t, rec)["sequence"])

	rec = f.do(t, http.MethodPost, "/v1/platform/audit/verify", token, map[string]any{"from_seq": 1, "to_seq": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["valid"])
}
