package reimbursement

import (
	"context"
	"errors"
	"strings"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService manages user profiles and roles
type UserService struct {
	userRepo reimbursement.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo reimbursement.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, logger: logger}
}

// EnsureProfile returns the stored profile for uid, creating one with role user
// on first sight
func (s *UserService) EnsureProfile(ctx context.Context, uid, email, name string) (*reimbursement.AppUser, error) {
	user, err := s.userRepo.FindByUID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err = reimbursement.NewAppUser(uid, email, name)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent first request may have created it
		if existing, findErr := s.userRepo.FindByUID(ctx, uid); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	s.logger.Info("user profile provisioned", zap.String("uid", uid))
	return user, nil
}

// GetProfile returns the caller's profile
func (s *UserService) GetProfile(ctx context.Context, actor reimbursement.Actor) (*UserResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, actor.UID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// UpdateProfile replaces the caller's self-editable fields
func (s *UserService) UpdateProfile(ctx context.Context, actor reimbursement.Actor, in UpdateProfileInput) (*UserResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, actor.UID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(reimbursement.ProfileUpdate{
		DisplayName:      in.DisplayName,
		Phone:            in.Phone,
		BankName:         in.BankName,
		BankAccount:      in.BankAccount,
		DefaultCommittee: reimbursement.Committee(in.DefaultCommittee),
		Signature:        in.Signature,
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, actor reimbursement.Actor, in ListUsersInput) (*shared.Paginated[UserResponse], error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	filter := reimbursement.UserFilter{
		Filter: toFilter(in.Page, in.PageSize, "created_at", "asc"),
		Search: strings.TrimSpace(in.Search),
	}
	if in.Role != "" {
		role := reimbursement.Role(in.Role)
		if !role.IsValid() {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "Unknown role")
		}
		filter.Role = &role
	}

	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ChangeRole sets another user's role
func (s *UserService) ChangeRole(ctx context.Context, actor reimbursement.Actor, uid, role string) (*UserResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	previous := user.Role
	if err := user.ChangeRole(actor, reimbursement.Role(role)); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user role changed",
		zap.String("uid", uid),
		zap.String("from", string(previous)),
		zap.String("to", role),
		zap.String("admin_uid", actor.UID))
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) load(ctx context.Context, uid string) (*reimbursement.AppUser, error) {
	user, err := s.userRepo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "User not found")
		}
		return nil, err
	}
	return user, nil
}
