package reimbursement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RequestService drives the payment request lifecycle
type RequestService struct {
	requestRepo  reimbursement.PaymentRequestRepository
	userRepo     reimbursement.UserRepository
	projectRepo  reimbursement.ProjectRepository
	settingsRepo reimbursement.SettingsRepository
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo reimbursement.PaymentRequestRepository,
	userRepo reimbursement.UserRepository,
	projectRepo reimbursement.ProjectRepository,
	settingsRepo reimbursement.SettingsRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requestRepo:  requestRepo,
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		settingsRepo: settingsRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create submits a new pending request.
// The submitted phone and bank details are remembered on the submitter's profile.
func (s *RequestService) Create(ctx context.Context, actor reimbursement.Actor, in RequestInput) (*PaymentRequestResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	draft := in.toDraft()
	projectID, problem, err := s.resolveProject(ctx, draft.ProjectID)
	if err != nil {
		return nil, err
	}
	draft.ProjectID = projectID

	req, err := reimbursement.NewPaymentRequest(actor, draft)
	if problem != "" {
		err = reimbursement.WithProblem(err, problem)
	}
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("payment request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("uid", actor.UID),
		zap.Int64("total_amount", req.TotalAmount))

	s.rememberBanking(ctx, actor.UID, req)
	publishEvents(ctx, s.publisher, s.logger, req)

	resp := ToPaymentRequestResponse(req)
	return &resp, nil
}

// Resubmit creates a new pending request from a rejected one
func (s *RequestService) Resubmit(ctx context.Context, actor reimbursement.Actor, originalID uuid.UUID, in RequestInput) (*PaymentRequestResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	original, err := s.load(ctx, originalID)
	if err != nil {
		return nil, err
	}

	hasBankBook := false
	profile, err := s.userRepo.FindByUID(ctx, original.RequestedBy.UID)
	switch {
	case err == nil:
		hasBankBook = profile.HasBankBook()
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	draft := in.toDraft()
	var problem string
	if draft.ProjectID != nil {
		if _, problem, err = s.resolveProject(ctx, draft.ProjectID); err != nil {
			return nil, err
		}
	}

	req, err := reimbursement.ResubmitPaymentRequest(actor, original, draft, hasBankBook)
	if problem != "" {
		err = reimbursement.WithProblem(err, problem)
	}
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("payment request resubmitted",
		zap.String("request_id", req.ID.String()),
		zap.String("original_request_id", original.ID.String()),
		zap.String("uid", actor.UID))

	publishEvents(ctx, s.publisher, s.logger, req)
	resp := ToPaymentRequestResponse(req)
	return &resp, nil
}

// Approve moves a pending request to approved and reports whether the amount
// needs director sign-off
func (s *RequestService) Approve(ctx context.Context, actor reimbursement.Actor, id uuid.UUID, signature string) (*ApprovalResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Approve(actor, signature); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithStatus(ctx, req, reimbursement.StatusPending); err != nil {
		return nil, err
	}

	threshold := s.directorThreshold(ctx, req.ProjectID)
	requiresDirector := reimbursement.RequiresDirectorApproval(req.TotalAmount, threshold)

	s.logger.Info("payment request approved",
		zap.String("request_id", req.ID.String()),
		zap.String("approver_uid", actor.UID),
		zap.Bool("requires_director_approval", requiresDirector))

	publishEvents(ctx, s.publisher, s.logger, req)
	return &ApprovalResponse{
		Request:                   ToPaymentRequestResponse(req),
		RequiresDirectorApproval:  requiresDirector,
		DirectorApprovalThreshold: threshold,
	}, nil
}

// Reject moves a pending request to rejected with a reason
func (s *RequestService) Reject(ctx context.Context, actor reimbursement.Actor, id uuid.UUID, reason string) (*PaymentRequestResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(actor, reason); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithStatus(ctx, req, reimbursement.StatusPending); err != nil {
		return nil, err
	}

	s.logger.Info("payment request rejected",
		zap.String("request_id", req.ID.String()),
		zap.String("approver_uid", actor.UID))

	publishEvents(ctx, s.publisher, s.logger, req)
	resp := ToPaymentRequestResponse(req)
	return &resp, nil
}

// Cancel withdraws a request that has not reached a terminal status
func (s *RequestService) Cancel(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*PaymentRequestResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := req.Status
	if err := req.Cancel(actor); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithStatus(ctx, req, previous); err != nil {
		return nil, err
	}

	s.logger.Info("payment request cancelled",
		zap.String("request_id", req.ID.String()),
		zap.String("previous_status", string(previous)),
		zap.String("uid", actor.UID))

	publishEvents(ctx, s.publisher, s.logger, req)
	resp := ToPaymentRequestResponse(req)
	return &resp, nil
}

// Get returns a request the actor may see
func (s *RequestService) Get(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*PaymentRequestResponse, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.CanBeViewedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only view your own requests")
	}
	resp := ToPaymentRequestResponse(req)
	return &resp, nil
}

// List returns a page of requests. Plain users only ever see their own.
func (s *RequestService) List(ctx context.Context, actor reimbursement.Actor, in ListRequestsInput) (*shared.Paginated[PaymentRequestResponse], error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	filter := reimbursement.RequestFilter{
		Filter:      toFilter(in.Page, in.PageSize, in.OrderBy, in.OrderDir),
		ProjectID:   in.ProjectID,
		RequestedBy: in.RequestedBy,
	}
	if in.Status != "" {
		status := reimbursement.Status(in.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "Unknown status: "+in.Status)
		}
		filter.Status = &status
	}
	if in.Committee != "" {
		committee := reimbursement.Committee(in.Committee)
		if !committee.IsValid() {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", reimbursement.MsgCommitteeInvalid)
		}
		filter.Committee = &committee
	}
	if in.Mine || !actor.Role.CanApprove() {
		filter.RequestedBy = actor.UID
	}

	requests, err := s.requestRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.requestRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentRequestResponse, len(requests))
	for i := range requests {
		items[i] = ToPaymentRequestResponse(&requests[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *RequestService) load(ctx context.Context, id uuid.UUID) (*reimbursement.PaymentRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Request not found")
		}
		return nil, err
	}
	return req, nil
}

// resolveProject picks the default project when none is given. An unknown or
// archived project comes back as a validation message so it is reported
// together with the other input problems.
func (s *RequestService) resolveProject(ctx context.Context, projectID *uuid.UUID) (*uuid.UUID, string, error) {
	if projectID == nil {
		global, err := s.settingsRepo.GetGlobal(ctx)
		if err != nil {
			return nil, "", err
		}
		return global.DefaultProjectID, "", nil
	}
	project, err := s.projectRepo.FindByID(ctx, *projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return projectID, reimbursement.MsgProjectNotFound, nil
		}
		return nil, "", err
	}
	if !project.IsActive {
		return projectID, reimbursement.MsgProjectArchived, nil
	}
	return projectID, "", nil
}

func (s *RequestService) directorThreshold(ctx context.Context, projectID *uuid.UUID) int64 {
	if projectID == nil {
		return reimbursement.DefaultDirectorApprovalThreshold
	}
	project, err := s.projectRepo.FindByID(ctx, *projectID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("failed to load project thresholds", zap.String("project_id", projectID.String()), zap.Error(err))
		}
		return reimbursement.DefaultDirectorApprovalThreshold
	}
	return project.DirectorApprovalThreshold
}

// rememberBanking is best effort; the request is already stored
func (s *RequestService) rememberBanking(ctx context.Context, uid string, req *reimbursement.PaymentRequest) {
	profile, err := s.userRepo.FindByUID(ctx, uid)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("failed to load submitter profile", zap.String("uid", uid), zap.Error(err))
		}
		return
	}
	if !profile.RememberBanking(req.Phone, req.BankName, req.BankAccount) {
		return
	}
	if err := s.userRepo.SaveWithLock(ctx, profile); err != nil {
		s.logger.Warn("failed to remember banking details", zap.String("uid", uid), zap.Error(err))
	}
}
