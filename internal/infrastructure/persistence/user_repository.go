package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByUID finds a user by identity-provider uid
func (r *GormUserRepository) FindByUID(ctx context.Context, uid string) (*reimbursement.AppUser, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUIDs returns the users that exist among uids
func (r *GormUserRepository) FindByUIDs(ctx context.Context, uids []string) ([]*reimbursement.AppUser, error) {
	if len(uids) == 0 {
		return []*reimbursement.AppUser{}, nil
	}
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).Where("uid IN ?", uids).Find(&userModels).Error; err != nil {
		return nil, err
	}
	users := make([]*reimbursement.AppUser, len(userModels))
	for i := range userModels {
		users[i] = userModels[i].ToDomain()
	}
	return users, nil
}

// FindAll lists users matching the filter
func (r *GormUserRepository) FindAll(ctx context.Context, filter reimbursement.UserFilter) ([]reimbursement.AppUser, error) {
	var userModels []models.UserModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.UserModel{}), filter)

	query = query.Order(userSortColumns.orderClause(filter.Filter, "created_at"))
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	if err := query.Find(&userModels).Error; err != nil {
		return nil, err
	}
	users := make([]reimbursement.AppUser, len(userModels))
	for i, model := range userModels {
		users[i] = *model.ToDomain()
	}
	return users, nil
}

// Count counts users matching the filter
func (r *GormUserRepository) Count(ctx context.Context, filter reimbursement.UserFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.UserModel{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new profile
func (r *GormUserRepository) Create(ctx context.Context, u *reimbursement.AppUser) error {
	if err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(u)).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SaveWithLock saves the profile if nobody else saved it since it was read.
// On success u.Version is advanced to the stored version.
func (r *GormUserRepository) SaveWithLock(ctx context.Context, u *reimbursement.AppUser) error {
	return saveUserWithLock(r.db.WithContext(ctx), u)
}

func saveUserWithLock(db *gorm.DB, u *reimbursement.AppUser) error {
	model := models.UserModelFromDomain(u)
	model.Version = u.Version + 1

	result := db.Model(&models.UserModel{}).
		Where("uid = ? AND version = ?", u.UID, u.Version).
		Select("*").Omit("uid", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	u.Version = model.Version
	return nil
}

func (r *GormUserRepository) applyFilter(query *gorm.DB, filter reimbursement.UserFilter) *gorm.DB {
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR LOWER(display_name) LIKE ?)", pattern, pattern, pattern)
	}
	return query
}
