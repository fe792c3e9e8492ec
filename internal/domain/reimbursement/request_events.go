package reimbursement

import (
	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// Event type names
const (
	EventTypeRequestSubmitted           = "RequestSubmitted"
	EventTypeRequestApproved            = "RequestApproved"
	EventTypeRequestRejected            = "RequestRejected"
	EventTypeRequestCancelled           = "RequestCancelled"
	EventTypeRequestSettled             = "RequestSettled"
	EventTypeSettlementCreated          = "SettlementCreated"
	EventTypeSettlementSignaturesUpdate = "SettlementSignaturesUpdated"
)

const aggregateTypeRequest = "PaymentRequest"

// RequestSubmittedEvent is raised when a request is created or resubmitted
type RequestSubmittedEvent struct {
	shared.BaseDomainEvent
	RequestID         uuid.UUID  `json:"request_id"`
	ProjectID         *uuid.UUID `json:"project_id,omitempty"`
	Committee         Committee  `json:"committee"`
	Payee             string     `json:"payee"`
	TotalAmount       int64      `json:"total_amount"`
	OriginalRequestID *uuid.UUID `json:"original_request_id,omitempty"`
}

// NewRequestSubmittedEvent creates a new RequestSubmittedEvent
func NewRequestSubmittedEvent(r *PaymentRequest, actor Actor) *RequestSubmittedEvent {
	return &RequestSubmittedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequestSubmitted, aggregateTypeRequest, r.ID, actor.UID),
		RequestID:         r.ID,
		ProjectID:         r.ProjectID,
		Committee:         r.Committee,
		Payee:             r.Payee,
		TotalAmount:       r.TotalAmount,
		OriginalRequestID: r.OriginalRequestID,
	}
}

// RequestApprovedEvent is raised when a request is approved
type RequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestID   uuid.UUID `json:"request_id"`
	TotalAmount int64     `json:"total_amount"`
	ApprovedBy  string    `json:"approved_by"`
}

// NewRequestApprovedEvent creates a new RequestApprovedEvent
func NewRequestApprovedEvent(r *PaymentRequest, actor Actor) *RequestApprovedEvent {
	return &RequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestApproved, aggregateTypeRequest, r.ID, actor.UID),
		RequestID:       r.ID,
		TotalAmount:     r.TotalAmount,
		ApprovedBy:      actor.UID,
	}
}

// RequestRejectedEvent is raised when a request is rejected
type RequestRejectedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID `json:"request_id"`
	Reason    string    `json:"reason"`
}

// NewRequestRejectedEvent creates a new RequestRejectedEvent
func NewRequestRejectedEvent(r *PaymentRequest, actor Actor) *RequestRejectedEvent {
	return &RequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestRejected, aggregateTypeRequest, r.ID, actor.UID),
		RequestID:       r.ID,
		Reason:          r.RejectionReason,
	}
}

// RequestCancelledEvent is raised when a request is cancelled
type RequestCancelledEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID `json:"request_id"`
}

// NewRequestCancelledEvent creates a new RequestCancelledEvent
func NewRequestCancelledEvent(r *PaymentRequest, actor Actor) *RequestCancelledEvent {
	return &RequestCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestCancelled, aggregateTypeRequest, r.ID, actor.UID),
		RequestID:       r.ID,
	}
}

// RequestSettledEvent is raised when a request joins a settlement
type RequestSettledEvent struct {
	shared.BaseDomainEvent
	RequestID    uuid.UUID `json:"request_id"`
	SettlementID uuid.UUID `json:"settlement_id"`
}

// NewRequestSettledEvent creates a new RequestSettledEvent
func NewRequestSettledEvent(r *PaymentRequest, actor Actor) *RequestSettledEvent {
	e := &RequestSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequestSettled, aggregateTypeRequest, r.ID, actor.UID),
		RequestID:       r.ID,
	}
	if r.SettlementID != nil {
		e.SettlementID = *r.SettlementID
	}
	return e
}
