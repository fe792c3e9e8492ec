package reimbursement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSettlementService() (*SettlementService, *MockRequestRepository, *MockSettlementRepository, *MockPublisher) {
	requests := new(MockRequestRepository)
	settlements := new(MockSettlementRepository)
	publisher := new(MockPublisher)
	return NewSettlementService(requests, settlements, publisher, nil), requests, settlements, publisher
}

func approvedPair(t *testing.T) ([]*reimbursement.PaymentRequest, reimbursement.Actor) {
	t.Helper()
	submitter := fx.Actor(reimbursement.RoleUser)
	approver := fx.Actor(reimbursement.RoleApprover)
	return []*reimbursement.PaymentRequest{
		fx.ApprovedRequest(submitter, approver, nil),
		fx.ApprovedRequest(submitter, approver, nil),
	}, approver
}

func TestSettlementService_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("settles every request and publishes once", func(t *testing.T) {
		svc, requests, settlements, publisher := newSettlementService()
		reqs, approver := approvedPair(t)
		ids := []uuid.UUID{reqs[0].ID, reqs[1].ID}

		requests.On("FindByIDs", ctx, ids).Return(reqs, nil)
		settlements.On("CreateWithRequests", ctx, mock.Anything, reqs).Return(nil)
		publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 3
		})).Return(nil)

		resp, err := svc.Settle(ctx, approver, SettleInput{RequestIDs: ids, RequestedBySignature: "data:image/png;base64,AA"})
		require.NoError(t, err)
		assert.Equal(t, ids, resp.RequestIDs)
		assert.Equal(t, reqs[0].TotalAmount+reqs[1].TotalAmount, resp.TotalAmount)
		assert.Equal(t, "data:image/png;base64,AA", resp.RequestedBySignature)
		for _, r := range reqs {
			assert.Equal(t, reimbursement.StatusSettled, r.Status)
			assert.Empty(t, r.GetDomainEvents())
		}
		publisher.AssertExpectations(t)
	})

	t.Run("rejects duplicates before loading", func(t *testing.T) {
		svc, requests, _, _ := newSettlementService()
		_, approver := approvedPair(t)
		id := uuid.New()

		_, err := svc.Settle(ctx, approver, SettleInput{RequestIDs: []uuid.UUID{id, id}})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		requests.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	})

	t.Run("empty selection", func(t *testing.T) {
		svc, _, _, _ := newSettlementService()
		_, approver := approvedPair(t)

		_, err := svc.Settle(ctx, approver, SettleInput{})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("lost race returns conflict without events", func(t *testing.T) {
		svc, requests, settlements, publisher := newSettlementService()
		reqs, approver := approvedPair(t)
		ids := []uuid.UUID{reqs[0].ID, reqs[1].ID}

		requests.On("FindByIDs", ctx, ids).Return(reqs, nil)
		settlements.On("CreateWithRequests", ctx, mock.Anything, reqs).Return(shared.ErrConcurrencyConflict)

		_, err := svc.Settle(ctx, approver, SettleInput{RequestIDs: ids})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		svc, _, _, _ := newSettlementService()
		_, err := svc.Settle(ctx, fx.Actor(reimbursement.RoleUser), SettleInput{RequestIDs: []uuid.UUID{uuid.New()}})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("mixed payees are refused", func(t *testing.T) {
		svc, requests, settlements, _ := newSettlementService()
		approver := fx.Actor(reimbursement.RoleApprover)
		reqs := []*reimbursement.PaymentRequest{
			fx.ApprovedRequest(fx.Actor(reimbursement.RoleUser), approver, nil),
			fx.ApprovedRequest(fx.Actor(reimbursement.RoleUser), approver, nil),
		}
		ids := []uuid.UUID{reqs[0].ID, reqs[1].ID}
		requests.On("FindByIDs", ctx, ids).Return(reqs, nil)

		_, err := svc.Settle(ctx, approver, SettleInput{RequestIDs: ids})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		settlements.AssertNotCalled(t, "CreateWithRequests", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, reimbursement.StatusApproved, reqs[0].Status)
	})
}

func TestSettlementService_AttachSignatures(t *testing.T) {
	ctx := context.Background()
	svc, _, settlements, publisher := newSettlementService()
	reqs, approver := approvedPair(t)
	settlement, err := reimbursement.SettleRequests(approver, reqs, reimbursement.Signatures{})
	require.NoError(t, err)
	settlement.ClearDomainEvents()

	settlements.On("FindByID", ctx, settlement.ID).Return(settlement, nil)
	settlements.On("SaveWithLock", ctx, settlement).Return(nil)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := svc.AttachSignatures(ctx, approver, settlement.ID, "data:image/png;base64,RB", "")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,RB", resp.RequestedBySignature)
	assert.Equal(t, 2, resp.Version)
}

func TestSettlementService_List(t *testing.T) {
	ctx := context.Background()
	svc, _, settlements, _ := newSettlementService()
	_, approver := approvedPair(t)

	newest := mock.MatchedBy(func(f reimbursement.SettlementFilter) bool {
		return f.OrderBy == "created_at" && f.OrderDir == "desc" && f.Payee == "Kim"
	})
	settlements.On("FindAll", ctx, newest).Return([]reimbursement.Settlement{}, nil)
	settlements.On("Count", ctx, newest).Return(int64(0), nil)

	page, err := svc.List(ctx, approver, ListSettlementsInput{Payee: "Kim"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = svc.List(ctx, fx.Actor(reimbursement.RoleUser), ListSettlementsInput{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
