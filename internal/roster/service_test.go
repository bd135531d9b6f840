package roster_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northstar/internal/audit"
	auditmemory "northstar/internal/audit/store/memory"
	"northstar/internal/roster"
	"northstar/internal/roster/store/memory"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

type serviceFixture struct {
	service *roster.Service
	store   *memory.InMemoryStore
	audit   *audit.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := memory.NewInMemoryStore()
	auditStore := auditmemory.NewInMemoryStore()
	auditSvc := audit.NewService(auditStore)
	runner := txcontext.NewMemoryRunner(store, auditStore)
	return &serviceFixture{
		service: roster.NewService(store, auditSvc, runner, nil),
		store:   store,
		audit:   auditSvc,
	}
}

func student(tenantID id.TenantID, entityID string) *roster.Entity {
	return &roster.Entity{
		ID:          entityID,
		TenantID:    tenantID,
		Type:        id.EntityStudent,
		DisplayName: "Jordan Reyes",
		Attributes:  []byte(`{"grade":"7"}`),
	}
}

func TestCreateStampsTimestampsAndAudits(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()
	at := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithActorID(ctx, "registrar@district.example")

	created, err := f.service.Create(ctx, student(tenantID, "student-1"))
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(at))
	assert.True(t, created.UpdatedAt.Equal(at))
	assert.True(t, created.Active())

	res, err := f.audit.Query(ctx, audit.TenantChain(tenantID), audit.Filter{}, audit.Page{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, audit.EventStudentCreated, res.Records[0].EventType)
	assert.Equal(t, "student-1", res.Records[0].EntityID)
	assert.Equal(t, "registrar@district.example", res.Records[0].ActorID)
}

func TestCreateValidatesEntity(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()

	cases := map[string]*roster.Entity{
		"missing id":          {TenantID: tenantID, Type: id.EntityStudent, DisplayName: "x"},
		"missing tenant":      {ID: "s-1", Type: id.EntityStudent, DisplayName: "x"},
		"non-roster type":     {ID: "s-1", TenantID: tenantID, Type: id.EntityTenant, DisplayName: "x"},
		"missing displayname": {ID: "s-1", TenantID: tenantID, Type: id.EntityStudent},
	}
	for name, entity := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), entity)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestCreateDuplicateConflicts(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()

	_, err := f.service.Create(context.Background(), student(tenantID, "student-1"))
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), student(tenantID, "student-1"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// The same id under another tenant is a different entity.
	_, err = f.service.Create(context.Background(), student(id.NewTenantID(), "student-1"))
	require.NoError(t, err)
}

func TestGetUnknownEntity(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Get(context.Background(), id.NewTenantID(), id.EntityStudent, "student-404")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMarkExitedStartsRetentionClock(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()
	exitAt := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := f.service.Create(context.Background(), student(tenantID, "student-1"))
	require.NoError(t, err)

	ctx := requestcontext.WithTime(context.Background(), exitAt)
	exited, err := f.service.MarkExited(ctx, tenantID, id.EntityStudent, "student-1")
	require.NoError(t, err)
	assert.False(t, exited.Active())
	assert.True(t, exited.RetentionStart().Equal(exitAt))

	head, err := f.audit.Head(ctx, audit.TenantChain(tenantID))
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, uint64(2), head.Sequence, "create and exit each append one record")
}

func TestMarkExitedTwiceFails(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()

	_, err := f.service.Create(context.Background(), student(tenantID, "student-1"))
	require.NoError(t, err)
	_, err = f.service.MarkExited(context.Background(), tenantID, id.EntityStudent, "student-1")
	require.NoError(t, err)

	_, err = f.service.MarkExited(context.Background(), tenantID, id.EntityStudent, "student-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestListCandidatesReturnsOnlyExited(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()
	exitAt := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), exitAt)

	for i := 1; i <= 4; i++ {
		_, err := f.service.Create(ctx, student(tenantID, fmt.Sprintf("student-%d", i)))
		require.NoError(t, err)
	}
	for _, entityID := range []string{"student-2", "student-4"} {
		_, err := f.service.MarkExited(ctx, tenantID, id.EntityStudent, entityID)
		require.NoError(t, err)
	}

	candidates, err := f.service.ListCandidates(ctx, tenantID, id.EntityStudent, "", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "student-2", candidates[0].EntityID)
	assert.Equal(t, "student-4", candidates[1].EntityID)
	assert.True(t, candidates[0].RetentionStart.Equal(exitAt))

	// Paging resumes after the cursor.
	candidates, err = f.service.ListCandidates(ctx, tenantID, id.EntityStudent, "student-2", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "student-4", candidates[0].EntityID)
}

func TestDeleteWritesNoAuditRecord(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := id.NewTenantID()

	_, err := f.service.Create(context.Background(), student(tenantID, "student-1"))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), tenantID, id.EntityStudent, "student-1"))

	_, err = f.service.Get(context.Background(), tenantID, id.EntityStudent, "student-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	head, err := f.audit.Head(context.Background(), audit.TenantChain(tenantID))
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, uint64(1), head.Sequence, "deletion audit is owned by the purge coordinator")
}
