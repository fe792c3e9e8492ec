package reimbursement

import (
	"context"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	shared.Filter
	Status      *Status
	Committee   *Committee
	ProjectID   *uuid.UUID
	RequestedBy string
}

// PaymentRequestRepository persists payment requests
type PaymentRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRequest, error)
	// FindByIDs returns the requests in the order of ids. Missing ids yield ErrNotFound.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*PaymentRequest, error)
	FindAll(ctx context.Context, filter RequestFilter) ([]PaymentRequest, error)
	Count(ctx context.Context, filter RequestFilter) (int64, error)
	Create(ctx context.Context, r *PaymentRequest) error
	// SaveWithStatus writes a transition only if the stored row is still in expected
	// status at the version preceding r.Version. Otherwise ErrConcurrencyConflict.
	SaveWithStatus(ctx context.Context, r *PaymentRequest, expected Status) error
	// SumCommitted adds up approved and settled requests of a project
	SumCommitted(ctx context.Context, projectID uuid.UUID) (CommittedSpend, error)
}

// SettlementFilter narrows settlement listings
type SettlementFilter struct {
	shared.Filter
	ProjectID *uuid.UUID
	Committee *Committee
	Payee     string
}

// SettlementRepository persists settlements
type SettlementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)
	FindAll(ctx context.Context, filter SettlementFilter) ([]Settlement, error)
	Count(ctx context.Context, filter SettlementFilter) (int64, error)
	// CreateWithRequests inserts s and moves every request from approved to settled in
	// one transaction. If any request row changed concurrently nothing is written and
	// ErrConcurrencyConflict is returned.
	CreateWithRequests(ctx context.Context, s *Settlement, requests []*PaymentRequest) error
	SaveWithLock(ctx context.Context, s *Settlement) error
}

// ProjectFilter narrows project listings
type ProjectFilter struct {
	shared.Filter
	ActiveOnly bool
	MemberUID  string
}

// ProjectRepository persists projects
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, filter ProjectFilter) ([]Project, error)
	Count(ctx context.Context, filter ProjectFilter) (int64, error)
	Create(ctx context.Context, p *Project) error
	SaveWithLock(ctx context.Context, p *Project) error
	// SaveMembership writes the project and the changed users in one transaction
	SaveMembership(ctx context.Context, p *Project, users []*AppUser) error
}

// UserFilter narrows user listings
type UserFilter struct {
	shared.Filter
	Role   *Role
	Search string
}

// UserRepository persists user profiles
type UserRepository interface {
	FindByUID(ctx context.Context, uid string) (*AppUser, error)
	FindByUIDs(ctx context.Context, uids []string) ([]*AppUser, error)
	FindAll(ctx context.Context, filter UserFilter) ([]AppUser, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	Create(ctx context.Context, u *AppUser) error
	SaveWithLock(ctx context.Context, u *AppUser) error
}

// SettingsRepository reads and writes the keyed settings documents
type SettingsRepository interface {
	GetGlobal(ctx context.Context) (*GlobalSettings, error)
	SaveGlobal(ctx context.Context, s *GlobalSettings) error
	GetBudgetConfig(ctx context.Context) (*BudgetConfig, error)
	SaveBudgetConfig(ctx context.Context, c *BudgetConfig) error
	GetDocumentNo(ctx context.Context) (string, error)
}
