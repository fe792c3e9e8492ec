package reimbursement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a payment request
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
// Rejected is not terminal: a resubmission may still point back at it.
func (s Status) IsTerminal() bool {
	return s == StatusSettled || s == StatusCancelled
}

// CanApprove returns true if the request can be approved
func (s Status) CanApprove() bool {
	return s == StatusPending
}

// CanReject returns true if the request can be rejected
func (s Status) CanReject() bool {
	return s == StatusPending
}

// CanResubmit returns true if a new request may be derived from this one
func (s Status) CanResubmit() bool {
	return s == StatusRejected
}

// CanSettle returns true if the request may join a settlement
func (s Status) CanSettle() bool {
	return s == StatusApproved
}

// CanCancel returns true if the request can be cancelled
func (s Status) CanCancel() bool {
	return !s.IsTerminal()
}

// DateLayout is the layout of PaymentRequest.Date
const DateLayout = "2006-01-02"

// PaymentRequest is the aggregate root for a reimbursement request
type PaymentRequest struct {
	shared.BaseAggregateRoot
	Status            Status
	ProjectID         *uuid.UUID
	Payee             string
	Phone             string
	BankName          string
	BankAccount       string
	Date              string
	Session           string
	Committee         Committee
	Items             LineItems
	TotalAmount       int64
	Receipts          Receipts
	Comments          string
	RequestedBy       UserSnapshot
	ApprovedBy        *UserSnapshot
	ApprovalSignature string
	ApprovedAt        *time.Time
	RejectionReason   string
	SettlementID      *uuid.UUID
	OriginalRequestID *uuid.UUID
}

// RequestDraft is the user-supplied content of a new or resubmitted request
type RequestDraft struct {
	ProjectID   *uuid.UUID
	Payee       string
	Phone       string
	BankName    string
	BankAccount string
	Date        string
	Session     string
	Committee   Committee
	Items       []LineItem
	Receipts    []Receipt
	Comments    string
}

type normalizedDraft struct {
	RequestDraft
	items LineItems
}

func normalize(d RequestDraft) normalizedDraft {
	d.Payee = strings.TrimSpace(d.Payee)
	d.Phone = strings.TrimSpace(d.Phone)
	d.BankName = strings.TrimSpace(d.BankName)
	d.BankAccount = strings.TrimSpace(d.BankAccount)
	d.Date = strings.TrimSpace(d.Date)
	d.Session = strings.TrimSpace(d.Session)
	d.Comments = strings.TrimSpace(d.Comments)
	items := FilterLineItems(d.Items)
	for i := range items {
		items[i].Description = strings.TrimSpace(items[i].Description)
	}
	return normalizedDraft{RequestDraft: d, items: items}
}

// validate collects every unmet condition rather than stopping at the first
func (d normalizedDraft) validate() ValidationErrors {
	var errs ValidationErrors
	if d.Payee == "" {
		errs.Add(MsgPayeeRequired)
	}
	if d.Phone == "" {
		errs.Add(MsgPhoneRequired)
	}
	if d.BankName == "" {
		errs.Add(MsgBankNameRequired)
	}
	if d.BankAccount == "" {
		errs.Add(MsgBankAccountRequired)
	}
	if d.Date == "" {
		errs.Add(MsgDateRequired)
	} else if _, err := time.Parse(DateLayout, d.Date); err != nil {
		errs.Add(MsgDateInvalid)
	}
	if len(d.items) == 0 {
		errs.Add(MsgItemsRequired)
	}
	for _, item := range d.items {
		if item.BudgetCode == 0 {
			errs.Add(MsgBudgetCodeRequired)
			break
		}
	}
	if len(d.Receipts) == 0 {
		errs.Add(MsgReceiptsRequired)
	}
	if !d.Committee.IsValid() {
		errs.Add(MsgCommitteeInvalid)
	}
	if len(d.items) > MaxLineItems {
		errs.Add(MsgTooManyItems)
	}
	return errs
}

func newFromDraft(d normalizedDraft, requestedBy UserSnapshot) *PaymentRequest {
	return &PaymentRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            StatusPending,
		ProjectID:         d.ProjectID,
		Payee:             d.Payee,
		Phone:             d.Phone,
		BankName:          d.BankName,
		BankAccount:       d.BankAccount,
		Date:              d.Date,
		Session:           d.Session,
		Committee:         d.Committee,
		Items:             d.items,
		TotalAmount:       d.items.Total(),
		Receipts:          Receipts(d.Receipts),
		Comments:          d.Comments,
		RequestedBy:       requestedBy,
	}
}

// NewPaymentRequest creates a pending request owned by the actor.
// Items with an empty description or a non-positive amount are dropped before validation.
func NewPaymentRequest(actor Actor, draft RequestDraft) (*PaymentRequest, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	d := normalize(draft)
	if err := d.validate().Err(); err != nil {
		return nil, err
	}

	r := newFromDraft(d, actor.Snapshot())
	r.AddDomainEvent(NewRequestSubmittedEvent(r, actor))
	return r, nil
}

// ResubmitPaymentRequest derives a new pending request from a rejected one.
//
// The original is never modified. When the draft carries no receipts the original's
// receipts are reused. Only receipts the original does not reference count as newly
// attached. hasBankBook tells whether the submitter has a registered bank book.
func ResubmitPaymentRequest(actor Actor, original *PaymentRequest, draft RequestDraft, hasBankBook bool) (*PaymentRequest, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if !original.Status.CanResubmit() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resubmit request in %s status", original.Status))
	}
	if !original.IsOwnedBy(actor.UID) && actor.Role != RoleAdmin {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the submitter may resubmit this request")
	}

	hasNewReceipts := original.Receipts.AnyNew(draft.Receipts)
	if len(draft.Receipts) == 0 {
		draft.Receipts = append([]Receipt(nil), original.Receipts...)
	}
	if draft.ProjectID == nil {
		draft.ProjectID = original.ProjectID
	}

	d := normalize(draft)
	errs := d.validate()
	if !hasBankBook {
		errs.Add(MsgBankBookRequired)
	}
	if !hasNewReceipts && !original.differsFrom(d) {
		errs.Add(MsgNoChanges)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	r := newFromDraft(d, original.RequestedBy)
	originalID := original.ID
	r.OriginalRequestID = &originalID
	r.AddDomainEvent(NewRequestSubmittedEvent(r, actor))
	return r, nil
}

func (r *PaymentRequest) differsFrom(d normalizedDraft) bool {
	return r.Payee != d.Payee ||
		r.Phone != d.Phone ||
		r.BankName != d.BankName ||
		r.BankAccount != d.BankAccount ||
		r.Date != d.Date ||
		r.Committee != d.Committee ||
		r.Comments != d.Comments ||
		!r.Items.Equal(d.items)
}

// Approve moves a pending request to approved
func (r *PaymentRequest) Approve(actor Actor, signature string) error {
	if err := actor.RequireApprover(); err != nil {
		return err
	}
	if !r.Status.CanApprove() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve request in %s status", r.Status))
	}

	now := time.Now().UTC()
	approver := actor.Snapshot()
	r.Status = StatusApproved
	r.ApprovedBy = &approver
	r.ApprovedAt = &now
	r.ApprovalSignature = signature
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRequestApprovedEvent(r, actor))
	return nil
}

// Reject moves a pending request to rejected. A non-blank reason is required.
func (r *PaymentRequest) Reject(actor Actor, reason string) error {
	if err := actor.RequireApprover(); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "Rejection reason is required")
	}
	if !r.Status.CanReject() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject request in %s status", r.Status))
	}

	r.Status = StatusRejected
	r.RejectionReason = reason
	r.Touch()
	r.IncrementVersion()

	r.AddDomainEvent(NewRequestRejectedEvent(r, actor))
	return nil
}

// Cancel moves a non-terminal request to cancelled.
// The submitter may cancel their own pending request; approvers and admins may cancel any non-terminal one.
func (r *PaymentRequest) Cancel(actor Actor) error {
	if err := actor.RequireAuthenticated(); err != nil {
		return err
	}
	if !r.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel request in %s status", r.Status))
	}
	if !actor.Role.CanApprove() {
		if !r.IsOwnedBy(actor.UID) {
			return shared.NewDomainError("FORBIDDEN", "Only the submitter may cancel this request")
		}
		if r.Status != StatusPending {
			return shared.NewDomainError("FORBIDDEN", "Only pending requests can be cancelled by the submitter")
		}
	}

	r.Status = StatusCancelled
	r.Touch()
	r.IncrementVersion()

	r.AddDomainEvent(NewRequestCancelledEvent(r, actor))
	return nil
}

// markSettled links the request to a settlement. Only SettleRequests calls it.
func (r *PaymentRequest) markSettled(settlementID uuid.UUID, actor Actor) error {
	if !r.Status.CanSettle() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot settle request in %s status", r.Status))
	}
	r.Status = StatusSettled
	r.SettlementID = &settlementID
	r.Touch()
	r.IncrementVersion()

	r.AddDomainEvent(NewRequestSettledEvent(r, actor))
	return nil
}

// IsOwnedBy reports whether uid submitted the request
func (r *PaymentRequest) IsOwnedBy(uid string) bool {
	return uid != "" && r.RequestedBy.UID == uid
}

// CanBeViewedBy reports whether the actor may read the request
func (r *PaymentRequest) CanBeViewedBy(actor Actor) bool {
	return actor.Role.CanApprove() || r.IsOwnedBy(actor.UID)
}

// IsResubmission reports whether the request was derived from a rejected one
func (r *PaymentRequest) IsResubmission() bool {
	return r.OriginalRequestID != nil
}

// IsPending returns true if the request awaits a decision
func (r *PaymentRequest) IsPending() bool {
	return r.Status == StatusPending
}

// IsApproved returns true if the request is approved and not yet settled
func (r *PaymentRequest) IsApproved() bool {
	return r.Status == StatusApproved
}

// IsSettled returns true if the request belongs to a settlement
func (r *PaymentRequest) IsSettled() bool {
	return r.Status == StatusSettled
}
