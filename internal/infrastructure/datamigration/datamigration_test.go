package datamigration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/persistence"
	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"github.com/reimburse/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedLegacy(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()
	for _, uid := range []string{"u-1", "u-2"} {
		require.NoError(t, db.Exec(
			`INSERT INTO users (uid, name, role, project_ids, created_at, updated_at) VALUES (?, ?, 'user', '[]', ?, ?)`,
			uid, uid, now, now).Error)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Exec(
			`INSERT INTO requests (id, created_at, updated_at, status, payee, phone, bank_name, bank_account, date,
				committee, items, total_amount, receipts, requested_by_uid, requested_by)
			VALUES (?, ?, ?, 'approved', 'Kim', '010', 'KB', '1', '2024-01-01', 'operations', '[]', 1000, '[]', 'u-1', '{}')`,
			uuid.New(), now, now).Error)
	}
	require.NoError(t, db.Exec(
		`INSERT INTO settlements (id, created_at, updated_at, committee, payee, items, total_amount, request_ids, receipts, created_by)
		VALUES (?, ?, ?, 'operations', 'Kim', '[]', 1000, '[]', '[]', '{}')`,
		uuid.New(), now, now).Error)
	require.NoError(t, persistence.UpsertSetting(db, reimbursement.SettingsKeyBudgetConfig,
		reimbursement.BudgetConfig{TotalBudget: 3_000_000, ByCode: map[int]int64{101: 1_000_000}}))
	require.NoError(t, persistence.UpsertSetting(db, reimbursement.SettingsKeyDocumentNo,
		reimbursement.DocumentNoSetting{Value: "DOC-7"}))
}

func TestAddProjectLayer(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	seedLegacy(t, db)
	runner := NewRunner(db, zap.NewNop())
	ctx := context.Background()

	t.Run("dry run reports without writing", func(t *testing.T) {
		report, err := runner.AddProjectLayer(ctx, true)
		require.NoError(t, err)
		assert.True(t, report.ProjectCreated)
		assert.Equal(t, int64(3), report.RequestsUpdated)

		var count int64
		require.NoError(t, db.Model(&models.ProjectModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("first run migrates everything", func(t *testing.T) {
		report, err := runner.AddProjectLayer(ctx, false)
		require.NoError(t, err)
		assert.True(t, report.ProjectCreated)
		assert.Equal(t, int64(3), report.RequestsUpdated)
		assert.Equal(t, int64(1), report.SettlementsUpdated)
		assert.Equal(t, int64(2), report.UsersUpdated)
		assert.Equal(t, 2, report.MembersAdded)
		assert.True(t, report.GlobalSettingsUpdated)
		assert.Positive(t, report.SchemaVersionBumped)

		project, err := persistence.NewGormProjectRepository(db).FindByID(ctx, reimbursement.DefaultProjectID)
		require.NoError(t, err)
		assert.Equal(t, reimbursement.DefaultProjectName, project.Name)
		assert.Equal(t, "DOC-7", project.DocumentNo)
		assert.Equal(t, int64(3_000_000), project.BudgetConfig.TotalBudget)
		assert.ElementsMatch(t, []string{"u-1", "u-2"}, []string(project.MemberUIDs))

		user, err := persistence.NewGormUserRepository(db).FindByUID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, reimbursement.UUIDList{reimbursement.DefaultProjectID}, user.ProjectIDs)
		assert.Equal(t, CurrentSchemaVersion, user.SchemaVersion)

		var unassigned int64
		require.NoError(t, db.Model(&models.PaymentRequestModel{}).Where("project_id IS NULL").Count(&unassigned).Error)
		assert.Zero(t, unassigned)

		global, err := persistence.NewGormSettingsRepository(db).GetGlobal(ctx)
		require.NoError(t, err)
		require.NotNil(t, global.DefaultProjectID)
		assert.Equal(t, reimbursement.DefaultProjectID, *global.DefaultProjectID)
	})

	t.Run("second run changes nothing", func(t *testing.T) {
		report, err := runner.AddProjectLayer(ctx, false)
		require.NoError(t, err)
		assert.False(t, report.Changed(), "%+v", report)
	})

	t.Run("new users join on the next run", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, db.Exec(
			`INSERT INTO users (uid, role, project_ids, schema_version, created_at, updated_at) VALUES ('u-3', 'user', '[]', 2, ?, ?)`,
			now, now).Error)

		report, err := runner.AddProjectLayer(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.UsersUpdated)
		assert.Equal(t, 1, report.MembersAdded)
		assert.False(t, report.ProjectCreated)
	})
}

func TestClearBankBookImage(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	runner := NewRunner(db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []struct{ uid, url, image string }{
		{"with-url", "https://storage.googleapis.com/b/bankbook/with-url/1_a.jpg", "data:image/jpeg;base64,AAAA"},
		{"no-url", "", "data:image/png;base64,BBBB"},
		{"empty", "https://x/y.jpg", ""},
	}
	for _, r := range rows {
		require.NoError(t, db.Exec(
			`INSERT INTO users (uid, role, project_ids, bank_book_url, bank_book_image, created_at, updated_at)
			VALUES (?, 'user', '[]', ?, ?, ?, ?)`, r.uid, r.url, r.image, now, now).Error)
	}

	dry, err := runner.ClearBankBookImage(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, &BankBookReport{DryRun: true, Cleared: 1, SkippedEmpty: 1, SkippedNoURL: 1}, dry)

	report, err := runner.ClearBankBookImage(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Cleared)

	users := persistence.NewGormUserRepository(db)
	cleared, err := users.FindByUID(ctx, "with-url")
	require.NoError(t, err)
	assert.Empty(t, cleared.BankBookImage)
	kept, err := users.FindByUID(ctx, "no-url")
	require.NoError(t, err)
	assert.NotEmpty(t, kept.BankBookImage)

	again, err := runner.ClearBankBookImage(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, again.Cleared)
	assert.Equal(t, int64(1), again.SkippedNoURL)
	assert.Equal(t, int64(2), again.SkippedEmpty)
}
