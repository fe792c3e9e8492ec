package persistence

import (
	"context"
	"testing"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredProject(t *testing.T, repo *GormProjectRepository, admin reimbursement.Actor, name string) *reimbursement.Project {
	t.Helper()
	p, err := reimbursement.NewProject(admin, reimbursement.ProjectDraft{
		Name:         name,
		BudgetConfig: reimbursement.BudgetConfig{TotalBudget: 1_000_000, ByCode: map[int]int64{110: 400_000}},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProjectRepository_SaveMembership(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	userRepo := NewGormUserRepository(db)
	ctx := context.Background()

	admin := fx.Actor(reimbursement.RoleAdmin)
	project := newStoredProject(t, repo, admin, "Spring Festival")

	member := fx.User(fx.Actor(reimbursement.RoleUser))
	require.NoError(t, userRepo.Create(ctx, member))

	added, _, err := project.SetMembers(admin, []string{member.UID})
	require.NoError(t, err)
	assert.Equal(t, []string{member.UID}, added)
	member.JoinProject(project.ID)
	require.NoError(t, repo.SaveMembership(ctx, project, []*reimbursement.AppUser{member}))

	got, err := repo.FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMember(member.UID))
	assert.Equal(t, int64(400_000), got.BudgetConfig.ByCode[110])

	storedUser, err := userRepo.FindByUID(ctx, member.UID)
	require.NoError(t, err)
	assert.True(t, storedUser.ProjectIDs.Contains(project.ID))

	mine, err := repo.FindAll(ctx, reimbursement.ProjectFilter{MemberUID: member.UID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, project.ID, mine[0].ID)
}

func TestProjectRepository_SaveMembership_RollsBackOnUserConflict(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	userRepo := NewGormUserRepository(db)
	ctx := context.Background()

	admin := fx.Actor(reimbursement.RoleAdmin)
	project := newStoredProject(t, repo, admin, "Winter Camp")

	member := fx.User(fx.Actor(reimbursement.RoleUser))
	require.NoError(t, userRepo.Create(ctx, member))
	stale, err := userRepo.FindByUID(ctx, member.UID)
	require.NoError(t, err)

	member.Phone = "010-1111-2222"
	require.NoError(t, userRepo.SaveWithLock(ctx, member))

	_, _, err = project.SetMembers(admin, []string{stale.UID})
	require.NoError(t, err)
	stale.JoinProject(project.ID)
	err = repo.SaveMembership(ctx, project, []*reimbursement.AppUser{stale})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, got.HasMember(member.UID))
	assert.Equal(t, 1, got.Version)
}

func TestProjectRepository_FindAll_ActiveOnly(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	admin := fx.Actor(reimbursement.RoleAdmin)
	newStoredProject(t, repo, admin, "Active")
	archived := newStoredProject(t, repo, admin, "Archived")
	require.NoError(t, archived.SetActive(admin, false))
	require.NoError(t, repo.SaveWithLock(ctx, archived))

	active, err := repo.FindAll(ctx, reimbursement.ProjectFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Active", active[0].Name)

	count, err := repo.Count(ctx, reimbursement.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
