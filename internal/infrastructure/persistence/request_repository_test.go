package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fx = testutil.NewFixtures(42)

func TestPaymentRequestRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormPaymentRequestRepository(db)
	ctx := context.Background()

	submitter := fx.Actor(reimbursement.RoleUser)
	projectID := uuid.New()
	req, err := reimbursement.NewPaymentRequest(submitter, fx.Draft("Kim", &projectID))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, reimbursement.StatusPending, got.Status)
	assert.Equal(t, req.Items, got.Items)
	assert.Equal(t, req.Receipts, got.Receipts)
	assert.Equal(t, submitter.Snapshot(), got.RequestedBy)
	assert.Nil(t, got.ApprovedBy)
	require.NotNil(t, got.ProjectID)
	assert.Equal(t, projectID, *got.ProjectID)
	assert.Equal(t, shared.CurrentSchemaVersion, got.SchemaVersion)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentRequestRepository_FindByIDs(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormPaymentRequestRepository(db)
	ctx := context.Background()

	submitter := fx.Actor(reimbursement.RoleUser)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		req, err := reimbursement.NewPaymentRequest(submitter, fx.Draft("Kim", nil))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, req))
		ids = append(ids, req.ID)
	}

	ordered := []uuid.UUID{ids[2], ids[0], ids[1]}
	got, err := repo.FindByIDs(ctx, ordered)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, ordered[i], r.ID)
	}

	_, err = repo.FindByIDs(ctx, []uuid.UUID{ids[0], uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentRequestRepository_SaveWithStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormPaymentRequestRepository(db)
	ctx := context.Background()

	submitter := fx.Actor(reimbursement.RoleUser)
	approver := fx.Actor(reimbursement.RoleApprover)
	req, err := reimbursement.NewPaymentRequest(submitter, fx.Draft("Kim", nil))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	t.Run("applies transition", func(t *testing.T) {
		require.NoError(t, req.Approve(approver, "sig"))
		require.NoError(t, repo.SaveWithStatus(ctx, req, reimbursement.StatusPending))

		got, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, reimbursement.StatusApproved, got.Status)
		assert.Equal(t, 2, got.Version)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, approver.UID, got.ApprovedBy.UID)
		assert.Equal(t, "sig", got.ApprovalSignature)
	})

	t.Run("stale copy conflicts", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		fresh, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)

		require.NoError(t, fresh.Cancel(approver))
		require.NoError(t, repo.SaveWithStatus(ctx, fresh, reimbursement.StatusApproved))

		require.NoError(t, stale.Cancel(approver))
		err = repo.SaveWithStatus(ctx, stale, reimbursement.StatusApproved)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		ghost, err := reimbursement.NewPaymentRequest(submitter, fx.Draft("Kim", nil))
		require.NoError(t, err)
		require.NoError(t, ghost.Cancel(submitter))
		err = repo.SaveWithStatus(ctx, ghost, reimbursement.StatusPending)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentRequestRepository_FindAllAndCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormPaymentRequestRepository(db)
	ctx := context.Background()

	alice := fx.Actor(reimbursement.RoleUser)
	bob := fx.Actor(reimbursement.RoleUser)
	approver := fx.Actor(reimbursement.RoleApprover)
	projectID := uuid.New()

	for i := 0; i < 3; i++ {
		req, err := reimbursement.NewPaymentRequest(alice, fx.Draft("Alice", &projectID))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, req))
	}
	approved := fx.ApprovedRequest(bob, approver, &projectID)
	require.NoError(t, repo.Create(ctx, approved))

	pending := reimbursement.StatusPending
	tests := []struct {
		name   string
		filter reimbursement.RequestFilter
		want   int
	}{
		{"all", reimbursement.RequestFilter{}, 4},
		{"by requester", reimbursement.RequestFilter{RequestedBy: alice.UID}, 3},
		{"by status", reimbursement.RequestFilter{Status: &pending}, 3},
		{"by project", reimbursement.RequestFilter{ProjectID: &projectID}, 4},
		{"paged", reimbursement.RequestFilter{Filter: shared.Filter{Page: 2, PageSize: 3}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	count, err := repo.Count(ctx, reimbursement.RequestFilter{RequestedBy: bob.UID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPaymentRequestRepository_SumCommitted(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormPaymentRequestRepository(db)
	ctx := context.Background()

	submitter := fx.Actor(reimbursement.RoleUser)
	approver := fx.Actor(reimbursement.RoleApprover)
	projectID := uuid.New()

	approved := fx.ApprovedRequest(submitter, approver, &projectID)
	require.NoError(t, repo.Create(ctx, approved))

	pending, err := reimbursement.NewPaymentRequest(submitter, fx.Draft("Kim", &projectID))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pending))

	other := fx.ApprovedRequest(submitter, approver, nil)
	require.NoError(t, repo.Create(ctx, other))

	spent, err := repo.SumCommitted(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, approved.TotalAmount, spent.Total)
	assert.Equal(t, approved.Items.SumByCode(), spent.ByCode)
}

func TestPaymentRequestRepository_SaveWithStatus_SQL(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := NewGormPaymentRequestRepository(mockDB.DB)

	req := fx.ApprovedRequest(fx.Actor(reimbursement.RoleUser), fx.Actor(reimbursement.RoleApprover), nil)

	mockDB.Mock.ExpectExec(`UPDATE "requests" SET .*WHERE .*id = .*status = .*version = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.Mock.ExpectQuery(`SELECT count\(\*\) FROM "requests" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.SaveWithStatus(context.Background(), req, reimbursement.StatusPending)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	mockDB.ExpectationsWereMet(t)
}
