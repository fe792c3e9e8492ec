package reimbursement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
)

// BudgetService reports budget consumption per project
type BudgetService struct {
	projectRepo reimbursement.ProjectRepository
	requestRepo reimbursement.PaymentRequestRepository
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(projectRepo reimbursement.ProjectRepository, requestRepo reimbursement.PaymentRequestRepository) *BudgetService {
	return &BudgetService{projectRepo: projectRepo, requestRepo: requestRepo}
}

// Usage sums approved and settled requests of the project against its budget
func (s *BudgetService) Usage(ctx context.Context, actor reimbursement.Actor, projectID uuid.UUID) (*BudgetUsageResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Project not found")
		}
		return nil, err
	}
	spent, err := s.requestRepo.SumCommitted(ctx, projectID)
	if err != nil {
		return nil, err
	}

	status, byCode := project.Budget(spent)
	return &BudgetUsageResponse{
		ProjectID:                 project.ID,
		Budget:                    status,
		ByCode:                    byCode,
		DirectorApprovalThreshold: project.DirectorApprovalThreshold,
	}, nil
}
