package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "northstar/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("unit-test-signing-key", "northstar", "northstar-api")
}

func TestTokenRoundtrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("admin@district.example", RoleDistrictAdmin, "2f9d8c1e-7b3a-4a5e-9c0d-1e2f3a4b5c6d", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@district.example", claims.ActorID)
	assert.Equal(t, RoleDistrictAdmin, claims.Role)
	assert.Equal(t, "2f9d8c1e-7b3a-4a5e-9c0d-1e2f3a4b5c6d", claims.TenantID)
	assert.Equal(t, "northstar", claims.Issuer)
	assert.False(t, claims.IsPlatformAdmin())
}

func TestPlatformTokenCarriesNoTenant(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("ops@northstar.example", RolePlatformAdmin, "", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Empty(t, claims.TenantID)
	assert.True(t, claims.IsPlatformAdmin())
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("admin@district.example", RoleDistrictAdmin, "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenSignedWithWrongKeyRejected(t *testing.T) {
	other := NewService("a-different-key", "northstar", "northstar-api")
	token, err := other.GenerateToken("admin@district.example", RoleDistrictAdmin, "", time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := newTestService().ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMiddlewareAdapterMapsClaims(t *testing.T) {
	svc := newTestService()
	adapter := NewMiddlewareAdapter(svc)

	token, err := svc.GenerateToken("officer@district.example", RoleComplianceUser, "2f9d8c1e-7b3a-4a5e-9c0d-1e2f3a4b5c6d", time.Hour)
	require.NoError(t, err)

	claims, err := adapter.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "officer@district.example", claims.ActorID)
	assert.Equal(t, RoleComplianceUser, claims.Role)
	assert.Equal(t, "2f9d8c1e-7b3a-4a5e-9c0d-1e2f3a4b5c6d", claims.TenantID)
}
