package reimbursement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
)

// SettingsService reads and writes application-wide settings
type SettingsService struct {
	settingsRepo reimbursement.SettingsRepository
	projectRepo  reimbursement.ProjectRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo reimbursement.SettingsRepository, projectRepo reimbursement.ProjectRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, projectRepo: projectRepo}
}

// GetGlobal returns the global settings
func (s *SettingsService) GetGlobal(ctx context.Context, actor reimbursement.Actor) (*GlobalSettingsResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	global, err := s.settingsRepo.GetGlobal(ctx)
	if err != nil {
		return nil, err
	}
	return &GlobalSettingsResponse{DefaultProjectID: global.DefaultProjectID}, nil
}

// SetDefaultProject points new requests without a project at projectID
func (s *SettingsService) SetDefaultProject(ctx context.Context, actor reimbursement.Actor, projectID uuid.UUID) (*GlobalSettingsResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "Project not found")
		}
		return nil, err
	}
	global, err := s.settingsRepo.GetGlobal(ctx)
	if err != nil {
		return nil, err
	}
	global.DefaultProjectID = &projectID
	if err := s.settingsRepo.SaveGlobal(ctx, global); err != nil {
		return nil, err
	}
	return &GlobalSettingsResponse{DefaultProjectID: global.DefaultProjectID}, nil
}

// GetBudgetConfig returns the legacy application-wide budget
func (s *SettingsService) GetBudgetConfig(ctx context.Context, actor reimbursement.Actor) (*BudgetConfigResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	cfg, err := s.settingsRepo.GetBudgetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return toBudgetConfigResponse(cfg), nil
}

// SetBudgetConfig replaces the legacy application-wide budget
func (s *SettingsService) SetBudgetConfig(ctx context.Context, actor reimbursement.Actor, in BudgetConfigResponse) (*BudgetConfigResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if in.TotalBudget < 0 {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Total budget cannot be negative")
	}
	for code, amount := range in.ByCode {
		if code <= 0 || amount < 0 {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "Budget codes must be positive with non-negative amounts")
		}
	}
	cfg := &reimbursement.BudgetConfig{TotalBudget: in.TotalBudget, ByCode: in.ByCode}
	if err := s.settingsRepo.SaveBudgetConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return toBudgetConfigResponse(cfg), nil
}

func toBudgetConfigResponse(cfg *reimbursement.BudgetConfig) *BudgetConfigResponse {
	byCode := cfg.ByCode
	if byCode == nil {
		byCode = map[int]int64{}
	}
	return &BudgetConfigResponse{TotalBudget: cfg.TotalBudget, ByCode: byCode}
}
