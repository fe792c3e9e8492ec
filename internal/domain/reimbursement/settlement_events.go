package reimbursement

import (
	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

const aggregateTypeSettlement = "Settlement"

// SettlementCreatedEvent is raised when approved requests are settled
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID   `json:"settlement_id"`
	ProjectID    *uuid.UUID  `json:"project_id,omitempty"`
	Payee        string      `json:"payee"`
	TotalAmount  int64       `json:"total_amount"`
	RequestIDs   []uuid.UUID `json:"request_ids"`
}

// NewSettlementCreatedEvent creates a new SettlementCreatedEvent
func NewSettlementCreatedEvent(s *Settlement, actor Actor) *SettlementCreatedEvent {
	return &SettlementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementCreated, aggregateTypeSettlement, s.ID, actor.UID),
		SettlementID:    s.ID,
		ProjectID:       s.ProjectID,
		Payee:           s.Payee,
		TotalAmount:     s.TotalAmount,
		RequestIDs:      append([]uuid.UUID(nil), s.RequestIDs...),
	}
}

// SettlementSignaturesUpdatedEvent is raised when signatures are attached after creation
type SettlementSignaturesUpdatedEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID `json:"settlement_id"`
}

// NewSettlementSignaturesUpdatedEvent creates a new SettlementSignaturesUpdatedEvent
func NewSettlementSignaturesUpdatedEvent(s *Settlement, actor Actor) *SettlementSignaturesUpdatedEvent {
	return &SettlementSignaturesUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementSignaturesUpdate, aggregateTypeSettlement, s.ID, actor.UID),
		SettlementID:    s.ID,
	}
}
