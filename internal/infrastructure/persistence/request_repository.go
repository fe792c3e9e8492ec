package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRequestRepository implements PaymentRequestRepository using GORM
type GormPaymentRequestRepository struct {
	db *gorm.DB
}

// NewGormPaymentRequestRepository creates a new GormPaymentRequestRepository
func NewGormPaymentRequestRepository(db *gorm.DB) *GormPaymentRequestRepository {
	return &GormPaymentRequestRepository{db: db}
}

// FindByID finds a payment request by its ID
func (r *GormPaymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.PaymentRequest, error) {
	var model models.PaymentRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads requests in the order of ids
func (r *GormPaymentRequestRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*reimbursement.PaymentRequest, error) {
	if len(ids) == 0 {
		return []*reimbursement.PaymentRequest{}, nil
	}
	var requestModels []models.PaymentRequestModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&requestModels).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*reimbursement.PaymentRequest, len(requestModels))
	for i := range requestModels {
		byID[requestModels[i].ID] = requestModels[i].ToDomain()
	}
	requests := make([]*reimbursement.PaymentRequest, 0, len(ids))
	for _, id := range ids {
		req, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Request %s not found", id))
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// FindAll lists requests matching the filter
func (r *GormPaymentRequestRepository) FindAll(ctx context.Context, filter reimbursement.RequestFilter) ([]reimbursement.PaymentRequest, error) {
	var requestModels []models.PaymentRequestModel
	query := r.db.WithContext(ctx).Model(&models.PaymentRequestModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&requestModels).Error; err != nil {
		return nil, err
	}
	requests := make([]reimbursement.PaymentRequest, len(requestModels))
	for i, model := range requestModels {
		requests[i] = *model.ToDomain()
	}
	return requests, nil
}

// Count counts requests matching the filter
func (r *GormPaymentRequestRepository) Count(ctx context.Context, filter reimbursement.RequestFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PaymentRequestModel{})
	query = r.applyFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new request
func (r *GormPaymentRequestRepository) Create(ctx context.Context, req *reimbursement.PaymentRequest) error {
	model := models.PaymentRequestModelFromDomain(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// SaveWithStatus writes a transition guarded by the expected status and version
func (r *GormPaymentRequestRepository) SaveWithStatus(ctx context.Context, req *reimbursement.PaymentRequest, expected reimbursement.Status) error {
	// The domain model already incremented the version
	expectedVersion := req.GetVersion() - 1
	model := models.PaymentRequestModelFromDomain(req)

	result := r.db.WithContext(ctx).Model(&models.PaymentRequestModel{}).
		Where("id = ? AND status = ? AND version = ?", req.ID, expected, expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, req.ID)
	}
	return nil
}

func (r *GormPaymentRequestRepository) missingOrConflict(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentRequestModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// SumCommitted adds up approved and settled requests of a project, overall and per budget code
func (r *GormPaymentRequestRepository) SumCommitted(ctx context.Context, projectID uuid.UUID) (reimbursement.CommittedSpend, error) {
	var rows []models.PaymentRequestModel
	if err := r.db.WithContext(ctx).Model(&models.PaymentRequestModel{}).
		Select("items", "total_amount").
		Where("project_id = ? AND status IN ?", projectID, []reimbursement.Status{reimbursement.StatusApproved, reimbursement.StatusSettled}).
		Find(&rows).Error; err != nil {
		return reimbursement.CommittedSpend{}, err
	}

	spent := reimbursement.CommittedSpend{ByCode: make(map[int]int64)}
	for _, row := range rows {
		spent.Total += row.TotalAmount
		for code, amount := range row.Items.SumByCode() {
			spent.ByCode[code] += amount
		}
	}
	return spent, nil
}

func (r *GormPaymentRequestRepository) applyFilter(query *gorm.DB, filter reimbursement.RequestFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	query = query.Order(requestSortColumns.orderClause(filter.Filter, "created_at"))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
	}
	return query
}

func (r *GormPaymentRequestRepository) applyFilterWithoutPagination(query *gorm.DB, filter reimbursement.RequestFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Committee != nil {
		query = query.Where("committee = ?", *filter.Committee)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.RequestedBy != "" {
		query = query.Where("requested_by_uid = ?", filter.RequestedBy)
	}
	return query
}
