package reimbursement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// Signatures are the optional data-URL signature images attached to a settlement
type Signatures struct {
	RequestedBy string
	Approval    string
}

// Settlement groups approved requests into one payout document.
// Payee and banking details are copied from the requests at creation time.
type Settlement struct {
	shared.BaseAggregateRoot
	ProjectID            *uuid.UUID
	Committee            Committee
	Session              string
	Payee                string
	Phone                string
	BankName             string
	BankAccount          string
	Items                LineItems
	TotalAmount          int64
	RequestIDs           UUIDList
	Receipts             Receipts
	RequestedBySignature string
	ApprovalSignature    string
	ApprovedBy           *UserSnapshot
	CreatedBy            UserSnapshot
}

// NewSettlement builds a settlement from approved requests without touching them.
//
// All requests must be approved and share payee, committee and project. Items and
// receipts are flattened in the order the requests are given.
func NewSettlement(actor Actor, requests []*PaymentRequest, sigs Signatures) (*Settlement, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "At least one request is required")
	}

	first := requests[0]
	seen := make(map[uuid.UUID]struct{}, len(requests))
	for _, r := range requests {
		if _, dup := seen[r.ID]; dup {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", fmt.Sprintf("Request %s is selected twice", r.ID))
		}
		seen[r.ID] = struct{}{}

		if !r.Status.CanSettle() {
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Request %s is %s, only approved requests can be settled", r.ID, r.Status))
		}
		if r.Payee != first.Payee {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "All requests in a settlement must have the same payee")
		}
		if r.Committee != first.Committee {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "All requests in a settlement must belong to the same committee")
		}
		if !sameProject(r.ProjectID, first.ProjectID) {
			return nil, shared.NewDomainError("INVALID_ARGUMENT", "All requests in a settlement must belong to the same project")
		}
	}

	s := &Settlement{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		ProjectID:            first.ProjectID,
		Committee:            first.Committee,
		Payee:                first.Payee,
		Phone:                first.Phone,
		BankName:             first.BankName,
		BankAccount:          first.BankAccount,
		Items:                LineItems{},
		RequestIDs:           make(UUIDList, 0, len(requests)),
		Receipts:             Receipts{},
		RequestedBySignature: sigs.RequestedBy,
		ApprovalSignature:    sigs.Approval,
		CreatedBy:            actor.Snapshot(),
	}
	for _, r := range requests {
		if s.Session == "" {
			s.Session = r.Session
		}
		if s.ApprovedBy == nil && r.ApprovedBy != nil {
			approver := *r.ApprovedBy
			s.ApprovedBy = &approver
		}
		if s.ApprovalSignature == "" {
			s.ApprovalSignature = r.ApprovalSignature
		}
		s.Items = append(s.Items, r.Items...)
		s.Receipts = append(s.Receipts, r.Receipts...)
		s.RequestIDs = append(s.RequestIDs, r.ID)
	}
	s.TotalAmount = s.Items.Total()
	return s, nil
}

// SettleRequests builds the settlement and moves every request to settled.
// The requests are only mutated once the whole group has been validated.
func SettleRequests(actor Actor, requests []*PaymentRequest, sigs Signatures) (*Settlement, error) {
	s, err := NewSettlement(actor, requests, sigs)
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		if err := r.markSettled(s.ID, actor); err != nil {
			return nil, err
		}
	}
	s.AddDomainEvent(NewSettlementCreatedEvent(s, actor))
	return s, nil
}

// AttachSignatures replaces the signature images. Empty values keep the current image.
func (s *Settlement) AttachSignatures(actor Actor, requestedBy, approval string) error {
	if err := actor.RequireApprover(); err != nil {
		return err
	}
	if requestedBy == "" && approval == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "At least one signature is required")
	}
	if requestedBy != "" {
		s.RequestedBySignature = requestedBy
	}
	if approval != "" {
		s.ApprovalSignature = approval
	}
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewSettlementSignaturesUpdatedEvent(s, actor))
	return nil
}

// RequestCount returns the number of settled requests
func (s *Settlement) RequestCount() int {
	return len(s.RequestIDs)
}

func sameProject(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
