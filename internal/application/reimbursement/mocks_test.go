package reimbursement

import (
	"context"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockRequestRepository is a mock implementation of PaymentRequestRepository
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.PaymentRequest), args.Error(1)
}

func (m *MockRequestRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*reimbursement.PaymentRequest, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reimbursement.PaymentRequest), args.Error(1)
}

func (m *MockRequestRepository) FindAll(ctx context.Context, filter reimbursement.RequestFilter) ([]reimbursement.PaymentRequest, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reimbursement.PaymentRequest), args.Error(1)
}

func (m *MockRequestRepository) Count(ctx context.Context, filter reimbursement.RequestFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepository) Create(ctx context.Context, r *reimbursement.PaymentRequest) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRequestRepository) SaveWithStatus(ctx context.Context, r *reimbursement.PaymentRequest, expected reimbursement.Status) error {
	return m.Called(ctx, r, expected).Error(0)
}

func (m *MockRequestRepository) SumCommitted(ctx context.Context, projectID uuid.UUID) (reimbursement.CommittedSpend, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(reimbursement.CommittedSpend), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindAll(ctx context.Context, filter reimbursement.SettlementFilter) ([]reimbursement.Settlement, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reimbursement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) Count(ctx context.Context, filter reimbursement.SettlementFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettlementRepository) CreateWithRequests(ctx context.Context, s *reimbursement.Settlement, requests []*reimbursement.PaymentRequest) error {
	return m.Called(ctx, s, requests).Error(0)
}

func (m *MockSettlementRepository) SaveWithLock(ctx context.Context, s *reimbursement.Settlement) error {
	return m.Called(ctx, s).Error(0)
}

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, filter reimbursement.ProjectFilter) ([]reimbursement.Project, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reimbursement.Project), args.Error(1)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter reimbursement.ProjectFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) Create(ctx context.Context, p *reimbursement.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProjectRepository) SaveWithLock(ctx context.Context, p *reimbursement.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProjectRepository) SaveMembership(ctx context.Context, p *reimbursement.Project, users []*reimbursement.AppUser) error {
	return m.Called(ctx, p, users).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByUID(ctx context.Context, uid string) (*reimbursement.AppUser, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.AppUser), args.Error(1)
}

func (m *MockUserRepository) FindByUIDs(ctx context.Context, uids []string) ([]*reimbursement.AppUser, error) {
	args := m.Called(ctx, uids)
	return args.Get(0).([]*reimbursement.AppUser), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter reimbursement.UserFilter) ([]reimbursement.AppUser, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reimbursement.AppUser), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter reimbursement.UserFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *reimbursement.AppUser) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) SaveWithLock(ctx context.Context, u *reimbursement.AppUser) error {
	return m.Called(ctx, u).Error(0)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetGlobal(ctx context.Context) (*reimbursement.GlobalSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.GlobalSettings), args.Error(1)
}

func (m *MockSettingsRepository) SaveGlobal(ctx context.Context, s *reimbursement.GlobalSettings) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSettingsRepository) GetBudgetConfig(ctx context.Context) (*reimbursement.BudgetConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reimbursement.BudgetConfig), args.Error(1)
}

func (m *MockSettingsRepository) SaveBudgetConfig(ctx context.Context, c *reimbursement.BudgetConfig) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockSettingsRepository) GetDocumentNo(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// MockStorage is a mock implementation of ObjectStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key, contentType string, data []byte) error {
	return m.Called(ctx, key, contentType, data).Error(0)
}

func (m *MockStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockStorage) PublicURL(key string) string {
	return "https://storage.googleapis.com/receipts-test/" + key
}

// MockRenderer is a mock implementation of PDFRenderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockRasterizer is a mock implementation of PageRasterizer
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	args := m.Called(ctx, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// passThroughImages returns images unchanged
type passThroughImages struct{}

func (passThroughImages) Normalize(data []byte) ([]byte, string, error) {
	return data, "image/jpeg", nil
}

// capturingTemplate records the view it was given
type capturingTemplate struct {
	view *SettlementReportView
}

func (t *capturingTemplate) Execute(view *SettlementReportView) (string, error) {
	t.view = view
	return "<html>" + view.Payee + "</html>", nil
}
