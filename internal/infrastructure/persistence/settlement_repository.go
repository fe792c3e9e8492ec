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

// GormSettlementRepository implements SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByID finds a settlement by its ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists settlements matching the filter
func (r *GormSettlementRepository) FindAll(ctx context.Context, filter reimbursement.SettlementFilter) ([]reimbursement.Settlement, error) {
	var settlementModels []models.SettlementModel
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.SettlementModel{}), filter)

	query = query.Order(settlementSortColumns.orderClause(filter.Filter, "created_at"))
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Find(&settlementModels).Error; err != nil {
		return nil, err
	}
	settlements := make([]reimbursement.Settlement, len(settlementModels))
	for i, model := range settlementModels {
		settlements[i] = *model.ToDomain()
	}
	return settlements, nil
}

// Count counts settlements matching the filter
func (r *GormSettlementRepository) Count(ctx context.Context, filter reimbursement.SettlementFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.SettlementModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateWithRequests inserts the settlement and settles every request in one transaction.
// Each request update only matches a row that is still approved at the version the
// caller read; a zero-row update rolls the whole transaction back.
func (r *GormSettlementRepository) CreateWithRequests(ctx context.Context, s *reimbursement.Settlement, requests []*reimbursement.PaymentRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.SettlementModelFromDomain(s)).Error; err != nil {
			return fmt.Errorf("failed to create settlement: %w", err)
		}

		for _, req := range requests {
			expectedVersion := req.GetVersion() - 1
			result := tx.Model(&models.PaymentRequestModel{}).
				Where("id = ? AND status = ? AND version = ?", req.ID, reimbursement.StatusApproved, expectedVersion).
				Updates(map[string]any{
					"status":        req.Status,
					"settlement_id": req.SettlementID,
					"version":       req.Version,
					"updated_at":    req.UpdatedAt,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to settle request %s: %w", req.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.NewDomainError("CONCURRENCY_CONFLICT",
					fmt.Sprintf("Request %s was modified by another process", req.ID))
			}
		}
		return nil
	})
}

// SaveWithLock saves the settlement with optimistic locking
func (r *GormSettlementRepository) SaveWithLock(ctx context.Context, s *reimbursement.Settlement) error {
	expectedVersion := s.GetVersion() - 1
	model := models.SettlementModelFromDomain(s)

	result := r.db.WithContext(ctx).Model(&models.SettlementModel{}).
		Where("id = ? AND version = ?", s.ID, expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save settlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormSettlementRepository) applyFilterWithoutPagination(query *gorm.DB, filter reimbursement.SettlementFilter) *gorm.DB {
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Committee != nil {
		query = query.Where("committee = ?", *filter.Committee)
	}
	if filter.Payee != "" {
		query = query.Where("payee = ?", filter.Payee)
	}
	return query
}
