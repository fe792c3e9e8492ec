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

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*reimbursement.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists projects matching the filter
func (r *GormProjectRepository) FindAll(ctx context.Context, filter reimbursement.ProjectFilter) ([]reimbursement.Project, error) {
	var projectModels []models.ProjectModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}), filter)

	query = query.Order(projectSortColumns.orderClause(filter.Filter, "name"))
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Find(&projectModels).Error; err != nil {
		return nil, err
	}
	projects := make([]reimbursement.Project, 0, len(projectModels))
	for _, model := range projectModels {
		p := model.ToDomain()
		// member_uids is jsonb; membership is filtered here so the query stays portable
		if filter.MemberUID != "" && !p.HasMember(filter.MemberUID) {
			continue
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// Count counts projects matching the filter, ignoring the member filter
func (r *GormProjectRepository) Count(ctx context.Context, filter reimbursement.ProjectFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new project
func (r *GormProjectRepository) Create(ctx context.Context, p *reimbursement.Project) error {
	if err := r.db.WithContext(ctx).Create(models.ProjectModelFromDomain(p)).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// SaveWithLock saves the project with optimistic locking
func (r *GormProjectRepository) SaveWithLock(ctx context.Context, p *reimbursement.Project) error {
	return saveProjectWithLock(r.db.WithContext(ctx), p)
}

// SaveMembership writes the project and the affected users in one transaction
func (r *GormProjectRepository) SaveMembership(ctx context.Context, p *reimbursement.Project, users []*reimbursement.AppUser) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveProjectWithLock(tx, p); err != nil {
			return err
		}
		for _, u := range users {
			if err := saveUserWithLock(tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveProjectWithLock(db *gorm.DB, p *reimbursement.Project) error {
	expectedVersion := p.GetVersion() - 1
	result := db.Model(&models.ProjectModel{}).
		Where("id = ? AND version = ?", p.ID, expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(models.ProjectModelFromDomain(p))
	if result.Error != nil {
		return fmt.Errorf("failed to save project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter reimbursement.ProjectFilter) *gorm.DB {
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	return query
}
