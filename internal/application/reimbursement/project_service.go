package reimbursement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProjectService manages projects and their membership
type ProjectService struct {
	projectRepo reimbursement.ProjectRepository
	userRepo    reimbursement.UserRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo reimbursement.ProjectRepository, userRepo reimbursement.UserRepository, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{projectRepo: projectRepo, userRepo: userRepo, logger: logger}
}

// Create adds a project
func (s *ProjectService) Create(ctx context.Context, actor reimbursement.Actor, in ProjectInput) (*ProjectResponse, error) {
	project, err := reimbursement.NewProject(actor, in.toDraft())
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", zap.String("project_id", project.ID.String()), zap.String("name", project.Name))
	resp := ToProjectResponse(project)
	return &resp, nil
}

// Update replaces the editable fields of a project
func (s *ProjectService) Update(ctx context.Context, actor reimbursement.Actor, id uuid.UUID, in ProjectInput) (*ProjectResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.Update(actor, in.toDraft()); err != nil {
		return nil, err
	}
	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}
	resp := ToProjectResponse(project)
	return &resp, nil
}

// Get returns a project. Plain users may only read projects they belong to.
func (s *ProjectService) Get(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*ProjectResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanApprove() && !project.HasMember(actor.UID) {
		return nil, shared.NewDomainError("FORBIDDEN", "You are not a member of this project")
	}
	resp := ToProjectResponse(project)
	return &resp, nil
}

// List returns projects visible to the actor, ordered by name
func (s *ProjectService) List(ctx context.Context, actor reimbursement.Actor, activeOnly bool) ([]ProjectResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	filter := reimbursement.ProjectFilter{
		Filter:     shared.Filter{OrderBy: "name", OrderDir: "asc"},
		ActiveOnly: activeOnly,
	}
	if !actor.Role.CanApprove() {
		filter.MemberUID = actor.UID
	}
	projects, err := s.projectRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = ToProjectResponse(&projects[i])
	}
	return out, nil
}

// SetMembers replaces the member list and updates each affected user's project list
// in the same transaction
func (s *ProjectService) SetMembers(ctx context.Context, actor reimbursement.Actor, id uuid.UUID, uids []string) (*MembershipResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	added, removed, err := project.SetMembers(actor, uids)
	if err != nil {
		return nil, err
	}

	changed := append(append([]string{}, added...), removed...)
	users, err := s.userRepo.FindByUIDs(ctx, changed)
	if err != nil {
		return nil, err
	}
	byUID := make(map[string]*reimbursement.AppUser, len(users))
	for _, u := range users {
		byUID[u.UID] = u
	}
	for _, uid := range added {
		u, ok := byUID[uid]
		if !ok {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", fmt.Sprintf("Unknown user: %s", uid))
		}
		u.JoinProject(project.ID)
	}
	for _, uid := range removed {
		// members without a profile have no project list to update
		if u, ok := byUID[uid]; ok {
			u.LeaveProject(project.ID)
		}
	}

	if err := s.projectRepo.SaveMembership(ctx, project, users); err != nil {
		return nil, err
	}
	s.logger.Info("project membership changed",
		zap.String("project_id", project.ID.String()),
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)))

	return &MembershipResponse{
		Project: ToProjectResponse(project),
		Added:   nonNil(added),
		Removed: nonNil(removed),
	}, nil
}

func (s *ProjectService) load(ctx context.Context, id uuid.UUID) (*reimbursement.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Project not found")
		}
		return nil, err
	}
	return project, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
