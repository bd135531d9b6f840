//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"northstar/internal/legalhold"
	"northstar/internal/legalhold/store/postgres"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	"northstar/pkg/testutil/containers"
)

type LegalHoldStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestLegalHoldStoreSuite(t *testing.T) {
	suite.Run(t, new(LegalHoldStoreSuite))
}

func (s *LegalHoldStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
}

func (s *LegalHoldStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "legal_holds"))
}

func (s *LegalHoldStoreSuite) hold(tenantID id.TenantID, caseNumber string) *legalhold.Hold {
	return &legalhold.Hold{
		ID:         id.NewHoldID(),
		TenantID:   tenantID,
		EntityType: id.EntityStudent,
		EntityID:   "student-1",
		CaseNumber: caseNumber,
		Reason:     "records request",
		AppliedBy:  "counsel@district.example",
		AppliedAt:  time.Now().Truncate(time.Microsecond).UTC(),
	}
}

func (s *LegalHoldStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	hold := s.hold(id.NewTenantID(), "CASE-2026-001")
	s.Require().NoError(s.store.Create(ctx, hold))

	found, err := s.store.Find(ctx, hold.ID)
	s.Require().NoError(err)
	s.Equal(hold.CaseNumber, found.CaseNumber)
	s.Equal(hold.EntityID, found.EntityID)
	s.Equal(hold.AppliedBy, found.AppliedBy)
	s.WithinDuration(hold.AppliedAt, found.AppliedAt, time.Millisecond)
	s.Nil(found.ReleasedAt)
}

func (s *LegalHoldStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), id.NewHoldID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LegalHoldStoreSuite) TestDuplicateActiveCaseConflicts() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	s.Require().NoError(s.store.Create(ctx, s.hold(tenantID, "CASE-2026-001")))

	err := s.store.Create(ctx, s.hold(tenantID, "CASE-2026-001"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	// A different case on the same entity is fine.
	s.Require().NoError(s.store.Create(ctx, s.hold(tenantID, "CASE-2026-002")))
}

func (s *LegalHoldStoreSuite) TestReleaseLifecycle() {
	ctx := context.Background()
	hold := s.hold(id.NewTenantID(), "CASE-2026-001")
	s.Require().NoError(s.store.Create(ctx, hold))

	releasedAt := time.Now().Truncate(time.Microsecond).UTC()
	hold.ReleasedBy = "counsel@district.example"
	hold.ReleasedAt = &releasedAt
	hold.ReleaseNote = "matter closed"
	s.Require().NoError(s.store.Release(ctx, hold))

	found, err := s.store.Find(ctx, hold.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.ReleasedAt)
	s.Equal("matter closed", found.ReleaseNote)

	// Releasing the released hold hits the WHERE released_at IS NULL guard.
	err = s.store.Release(ctx, hold)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *LegalHoldStoreSuite) TestReleaseUnknown() {
	hold := s.hold(id.NewTenantID(), "CASE-2026-001")
	releasedAt := time.Now().UTC()
	hold.ReleasedBy = "counsel@district.example"
	hold.ReleasedAt = &releasedAt

	err := s.store.Release(context.Background(), hold)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LegalHoldStoreSuite) TestSameCaseCanReopenAfterRelease() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	first := s.hold(tenantID, "CASE-2026-001")
	s.Require().NoError(s.store.Create(ctx, first))

	releasedAt := time.Now().Truncate(time.Microsecond).UTC()
	first.ReleasedBy = "counsel@district.example"
	first.ReleasedAt = &releasedAt
	s.Require().NoError(s.store.Release(ctx, first))

	// The partial unique index only covers active holds.
	s.Require().NoError(s.store.Create(ctx, s.hold(tenantID, "CASE-2026-001")))
}

func (s *LegalHoldStoreSuite) TestHasActiveScoping() {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	hold := s.hold(tenantID, "CASE-2026-001")
	s.Require().NoError(s.store.Create(ctx, hold))

	active, err := s.store.HasActive(ctx, tenantID, id.EntityStudent, "student-1")
	s.Require().NoError(err)
	s.True(active)

	active, err = s.store.HasActive(ctx, tenantID, id.EntityStudent, "student-2")
	s.Require().NoError(err)
	s.False(active)

	active, err = s.store.HasActive(ctx, id.NewTenantID(), id.EntityStudent, "student-1")
	s.Require().NoError(err)
	s.False(active)

	releasedAt := time.Now().Truncate(time.Microsecond).UTC()
	hold.ReleasedBy = "counsel@district.example"
	hold.ReleasedAt = &releasedAt
	s.Require().NoError(s.store.Release(ctx, hold))

	active, err = s.store.HasActive(ctx, tenantID, id.EntityStudent, "student-1")
	s.Require().NoError(err)
	s.False(active)
}

func (s *LegalHoldStoreSuite) TestListActiveExcludesReleased() {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	kept := s.hold(tenantID, "CASE-2026-001")
	s.Require().NoError(s.store.Create(ctx, kept))

	released := s.hold(tenantID, "CASE-2026-002")
	released.AppliedAt = kept.AppliedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, released))
	releasedAt := time.Now().Truncate(time.Microsecond).UTC()
	released.ReleasedBy = "counsel@district.example"
	released.ReleasedAt = &releasedAt
	s.Require().NoError(s.store.Release(ctx, released))

	holds, err := s.store.ListActive(ctx, tenantID)
	s.Require().NoError(err)
	s.Require().Len(holds, 1)
	s.Equal(kept.ID, holds[0].ID)
}
