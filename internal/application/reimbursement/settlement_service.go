package reimbursement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettlementService groups approved requests into settlements
type SettlementService struct {
	requestRepo    reimbursement.PaymentRequestRepository
	settlementRepo reimbursement.SettlementRepository
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	requestRepo reimbursement.PaymentRequestRepository,
	settlementRepo reimbursement.SettlementRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		requestRepo:    requestRepo,
		settlementRepo: settlementRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Settle creates one settlement from the selected approved requests.
// Either every request becomes settled together with the new settlement, or
// nothing is written and CONCURRENCY_CONFLICT is returned.
func (s *SettlementService) Settle(ctx context.Context, actor reimbursement.Actor, in SettleInput) (*SettlementResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	if len(in.RequestIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Select at least one request")
	}
	if hasDuplicates(in.RequestIDs) {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "A request was selected more than once")
	}

	requests, err := s.requestRepo.FindByIDs(ctx, in.RequestIDs)
	if err != nil {
		return nil, err
	}
	settlement, err := reimbursement.SettleRequests(actor, requests, reimbursement.Signatures{
		RequestedBy: in.RequestedBySignature,
		Approval:    in.ApprovalSignature,
	})
	if err != nil {
		return nil, err
	}
	if err := s.settlementRepo.CreateWithRequests(ctx, settlement, requests); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("settlement lost a race",
				zap.Int("request_count", len(requests)),
				zap.String("approver_uid", actor.UID))
		}
		return nil, err
	}

	s.logger.Info("settlement created",
		zap.String("settlement_id", settlement.ID.String()),
		zap.Int("request_count", len(requests)),
		zap.Int64("total_amount", settlement.TotalAmount))

	sources := make([]eventSource, 0, len(requests)+1)
	sources = append(sources, settlement)
	for _, req := range requests {
		sources = append(sources, req)
	}
	publishEvents(ctx, s.publisher, s.logger, sources...)

	resp := ToSettlementResponse(settlement)
	return &resp, nil
}

// AttachSignatures sets the signature images of an existing settlement
func (s *SettlementService) AttachSignatures(ctx context.Context, actor reimbursement.Actor, id uuid.UUID, requestedBy, approval string) (*SettlementResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	settlement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := settlement.AttachSignatures(actor, requestedBy, approval); err != nil {
		return nil, err
	}
	if err := s.settlementRepo.SaveWithLock(ctx, settlement); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.publisher, s.logger, settlement)
	resp := ToSettlementResponse(settlement)
	return &resp, nil
}

// Get returns a settlement
func (s *SettlementService) Get(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*SettlementResponse, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	settlement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(settlement)
	return &resp, nil
}

// List returns a page of settlements, newest first
func (s *SettlementService) List(ctx context.Context, actor reimbursement.Actor, in ListSettlementsInput) (*shared.Paginated[SettlementResponse], error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	filter := reimbursement.SettlementFilter{
		Filter:    toFilter(in.Page, in.PageSize, "created_at", "desc"),
		ProjectID: in.ProjectID,
		Payee:     in.Payee,
	}
	if in.Committee != "" {
		committee := reimbursement.Committee(in.Committee)
		if !committee.IsValid() {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", reimbursement.MsgCommitteeInvalid)
		}
		filter.Committee = &committee
	}

	settlements, err := s.settlementRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.settlementRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SettlementResponse, len(settlements))
	for i := range settlements {
		items[i] = ToSettlementResponse(&settlements[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *SettlementService) load(ctx context.Context, id uuid.UUID) (*reimbursement.Settlement, error) {
	settlement, err := s.settlementRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Settlement not found")
		}
		return nil, err
	}
	return settlement, nil
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
