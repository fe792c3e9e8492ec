package reimbursement

import (
	"context"
	"testing"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedProject(t *testing.T, admin reimbursement.Actor) *reimbursement.Project {
	t.Helper()
	p, err := reimbursement.NewProject(admin, reimbursement.ProjectDraft{Name: "Spring retreat"})
	require.NoError(t, err)
	return p
}

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)

	t.Run("applies default thresholds", func(t *testing.T) {
		projects := new(MockProjectRepository)
		svc := NewProjectService(projects, new(MockUserRepository), nil)
		projects.On("Create", ctx, mock.AnythingOfType("*reimbursement.Project")).Return(nil)

		resp, err := svc.Create(ctx, admin, ProjectInput{Name: " Spring retreat ", TotalBudget: 1000000})
		require.NoError(t, err)
		assert.Equal(t, "Spring retreat", resp.Name)
		assert.Equal(t, reimbursement.DefaultDirectorApprovalThreshold, resp.DirectorApprovalThreshold)
		assert.Equal(t, reimbursement.DefaultBudgetWarningThreshold, resp.BudgetWarningThreshold)
		assert.True(t, resp.IsActive)
		assert.Empty(t, resp.MemberUIDs)
	})

	t.Run("approvers cannot create", func(t *testing.T) {
		projects := new(MockProjectRepository)
		svc := NewProjectService(projects, new(MockUserRepository), nil)

		_, err := svc.Create(ctx, fx.Actor(reimbursement.RoleApprover), ProjectInput{Name: "x"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestProjectService_UpdateArchives(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository), nil)
	project := storedProject(t, admin)
	inactive := false

	projects.On("FindByID", ctx, project.ID).Return(project, nil)
	projects.On("SaveWithLock", ctx, project).Return(nil)

	resp, err := svc.Update(ctx, admin, project.ID, ProjectInput{Name: "Spring retreat", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, 2, resp.Version)
}

func TestProjectService_Get(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)
	member := fx.Actor(reimbursement.RoleUser)
	outsider := fx.Actor(reimbursement.RoleUser)
	project := storedProject(t, admin)
	_, _, err := project.SetMembers(admin, []string{member.UID})
	require.NoError(t, err)

	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository), nil)
	projects.On("FindByID", ctx, project.ID).Return(project, nil)

	_, err = svc.Get(ctx, member, project.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, outsider, project.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Get(ctx, fx.Actor(reimbursement.RoleApprover), project.ID)
	assert.NoError(t, err)
}

func TestProjectService_ListScopesPlainUsers(t *testing.T) {
	ctx := context.Background()
	user := fx.Actor(reimbursement.RoleUser)
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository), nil)

	projects.On("FindAll", ctx, mock.MatchedBy(func(f reimbursement.ProjectFilter) bool {
		return f.MemberUID == user.UID && f.ActiveOnly && f.OrderBy == "name"
	})).Return([]reimbursement.Project{}, nil)

	out, err := svc.List(ctx, user, true)
	require.NoError(t, err)
	assert.Empty(t, out)
	projects.AssertExpectations(t)
}

func TestProjectService_SetMembers(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)
	alice := fx.User(fx.Actor(reimbursement.RoleUser))
	bob := fx.User(fx.Actor(reimbursement.RoleUser))

	t.Run("updates both sides", func(t *testing.T) {
		projects := new(MockProjectRepository)
		users := new(MockUserRepository)
		svc := NewProjectService(projects, users, nil)
		project := storedProject(t, admin)

		projects.On("FindByID", ctx, project.ID).Return(project, nil)
		users.On("FindByUIDs", ctx, mock.Anything).Return([]*reimbursement.AppUser{alice, bob}, nil)
		projects.On("SaveMembership", ctx, project, []*reimbursement.AppUser{alice, bob}).Return(nil)

		resp, err := svc.SetMembers(ctx, admin, project.ID, []string{alice.UID, bob.UID})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{alice.UID, bob.UID}, resp.Added)
		assert.Empty(t, resp.Removed)
		assert.NotNil(t, resp.Removed)
		assert.Contains(t, alice.ProjectIDs, project.ID)
		assert.Contains(t, bob.ProjectIDs, project.ID)
	})

	t.Run("unknown uid is refused before saving", func(t *testing.T) {
		projects := new(MockProjectRepository)
		users := new(MockUserRepository)
		svc := NewProjectService(projects, users, nil)
		project := storedProject(t, admin)

		projects.On("FindByID", ctx, project.ID).Return(project, nil)
		users.On("FindByUIDs", ctx, mock.Anything).Return([]*reimbursement.AppUser{alice}, nil)

		_, err := svc.SetMembers(ctx, admin, project.ID, []string{alice.UID, "ghost"})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		projects.AssertNotCalled(t, "SaveMembership", mock.Anything, mock.Anything, mock.Anything)
	})
}
