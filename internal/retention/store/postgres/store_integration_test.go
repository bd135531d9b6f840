//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"northstar/internal/retention"
	"northstar/internal/retention/store/postgres"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	"northstar/pkg/testutil/containers"
)

type RetentionStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestRetentionStoreSuite(t *testing.T) {
	suite.Run(t, new(RetentionStoreSuite))
}

func (s *RetentionStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
}

func (s *RetentionStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "retention_policies"))
}

func (s *RetentionStoreSuite) policy(tenantID id.TenantID, entityType id.EntityType, retentionDays int) *retention.Policy {
	now := time.Now().Truncate(time.Microsecond).UTC()
	return &retention.Policy{
		TenantID:      tenantID,
		EntityType:    entityType,
		RetentionDays: retentionDays,
		GraceDays:     30,
		EffectiveAt:   now,
		UpdatedAt:     now,
		UpdatedBy:     "records-admin@district.example",
	}
}

func (s *RetentionStoreSuite) TestUpsertAndFind() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	s.Require().NoError(s.store.Upsert(ctx, s.policy(tenantID, id.EntityStudent, 2555)))

	found, err := s.store.Find(ctx, tenantID, id.EntityStudent)
	s.Require().NoError(err)
	s.Equal(2555, found.RetentionDays)
	s.Equal(30, found.GraceDays)
	s.Equal("records-admin@district.example", found.UpdatedBy)
}

func (s *RetentionStoreSuite) TestUpsertReplacesExistingPolicy() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	s.Require().NoError(s.store.Upsert(ctx, s.policy(tenantID, id.EntityStudent, 2555)))

	revised := s.policy(tenantID, id.EntityStudent, 1825)
	revised.UpdatedBy = "counsel@district.example"
	s.Require().NoError(s.store.Upsert(ctx, revised))

	policies, err := s.store.ListByTenant(ctx, tenantID)
	s.Require().NoError(err)
	s.Require().Len(policies, 1, "one active policy per (tenant, entity type)")
	s.Equal(1825, policies[0].RetentionDays)
	s.Equal("counsel@district.example", policies[0].UpdatedBy)
}

func (s *RetentionStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), id.NewTenantID(), id.EntityStudent)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RetentionStoreSuite) TestListByTenantIsScopedAndOrdered() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	s.Require().NoError(s.store.Upsert(ctx, s.policy(tenantID, id.EntityStudent, 2555)))
	s.Require().NoError(s.store.Upsert(ctx, s.policy(tenantID, id.EntityEnrollment, 1825)))
	s.Require().NoError(s.store.Upsert(ctx, s.policy(id.NewTenantID(), id.EntityStudent, 365)))

	policies, err := s.store.ListByTenant(ctx, tenantID)
	s.Require().NoError(err)
	s.Require().Len(policies, 2)
	s.Equal(id.EntityEnrollment, policies[0].EntityType)
	s.Equal(id.EntityStudent, policies[1].EntityType)
}
