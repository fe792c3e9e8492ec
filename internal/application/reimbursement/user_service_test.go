package reimbursement

import (
	"context"
	"errors"
	"testing"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("returns existing profile", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		existing := fx.User(fx.Actor(reimbursement.RoleApprover))
		users.On("FindByUID", ctx, existing.UID).Return(existing, nil)

		got, err := svc.EnsureProfile(ctx, existing.UID, existing.Email, existing.Name)
		require.NoError(t, err)
		assert.Same(t, existing, got)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("provisions a plain user on first sight", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		users.On("FindByUID", ctx, "uid-1").Return(nil, shared.ErrNotFound)
		users.On("Create", ctx, mock.AnythingOfType("*reimbursement.AppUser")).Return(nil)

		got, err := svc.EnsureProfile(ctx, "uid-1", "a@example.com", "A")
		require.NoError(t, err)
		assert.Equal(t, reimbursement.RoleUser, got.Role)
		assert.Equal(t, reimbursement.CommitteeOperations, got.DefaultCommittee)
	})

	t.Run("losing the create race reads the winner", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		winner := fx.User(fx.Actor(reimbursement.RoleUser))
		users.On("FindByUID", ctx, winner.UID).Return(nil, shared.ErrNotFound).Once()
		users.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)
		users.On("FindByUID", ctx, winner.UID).Return(winner, nil).Once()

		got, err := svc.EnsureProfile(ctx, winner.UID, winner.Email, winner.Name)
		require.NoError(t, err)
		assert.Same(t, winner, got)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		boom := errors.New("connection reset")
		users.On("FindByUID", ctx, "uid-2").Return(nil, boom)

		_, err := svc.EnsureProfile(ctx, "uid-2", "", "")
		assert.ErrorIs(t, err, boom)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	actor := fx.Actor(reimbursement.RoleUser)

	t.Run("saves editable fields", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		profile := fx.User(actor)
		users.On("FindByUID", ctx, actor.UID).Return(profile, nil)
		users.On("SaveWithLock", ctx, profile).Return(nil)

		resp, err := svc.UpdateProfile(ctx, actor, UpdateProfileInput{
			DisplayName:      "Kim",
			Phone:            "010-1234-5678",
			BankName:         "Shinhan",
			BankAccount:      "110-123-456789",
			DefaultCommittee: "preparation",
		})
		require.NoError(t, err)
		assert.Equal(t, "Kim", resp.DisplayName)
		assert.Equal(t, "preparation", resp.DefaultCommittee)
		assert.Equal(t, "user", resp.Role)
	})

	t.Run("unknown committee", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		users.On("FindByUID", ctx, actor.UID).Return(fx.User(actor), nil)

		_, err := svc.UpdateProfile(ctx, actor, UpdateProfileInput{DefaultCommittee: "finance"})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		users.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("stale profile conflicts", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		profile := fx.User(actor)
		users.On("FindByUID", ctx, actor.UID).Return(profile, nil)
		users.On("SaveWithLock", ctx, profile).Return(shared.ErrConcurrencyConflict)

		_, err := svc.UpdateProfile(ctx, actor, UpdateProfileInput{DisplayName: "Kim"})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestUserService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)

	t.Run("admin promotes a user", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		target := fx.User(fx.Actor(reimbursement.RoleUser))
		users.On("FindByUID", ctx, target.UID).Return(target, nil)
		users.On("SaveWithLock", ctx, target).Return(nil)

		resp, err := svc.ChangeRole(ctx, admin, target.UID, "approver")
		require.NoError(t, err)
		assert.Equal(t, "approver", resp.Role)
	})

	t.Run("admins cannot demote themselves", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil)
		self := fx.User(admin)
		users.On("FindByUID", ctx, admin.UID).Return(self, nil)

		_, err := svc.ChangeRole(ctx, admin, admin.UID, "user")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("approvers may not change roles", func(t *testing.T) {
		svc := NewUserService(new(MockUserRepository), nil)
		_, err := svc.ChangeRole(ctx, fx.Actor(reimbursement.RoleApprover), "x", "admin")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	admin := fx.Actor(reimbursement.RoleAdmin)
	users := new(MockUserRepository)
	svc := NewUserService(users, nil)
	approver := fx.User(fx.Actor(reimbursement.RoleApprover))

	byRole := mock.MatchedBy(func(f reimbursement.UserFilter) bool {
		return f.Role != nil && *f.Role == reimbursement.RoleApprover && f.Search == "kim"
	})
	users.On("FindAll", ctx, byRole).Return([]reimbursement.AppUser{*approver}, nil)
	users.On("Count", ctx, byRole).Return(int64(1), nil)

	page, err := svc.List(ctx, admin, ListUsersInput{Role: "approver", Search: " kim "})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, approver.UID, page.Items[0].UID)

	_, err = svc.List(ctx, admin, ListUsersInput{Role: "director"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}
