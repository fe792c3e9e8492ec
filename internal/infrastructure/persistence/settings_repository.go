package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements SettingsRepository on the keyed settings table
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// GetGlobal returns the global settings, or empty settings when none are stored
func (r *GormSettingsRepository) GetGlobal(ctx context.Context) (*reimbursement.GlobalSettings, error) {
	var s reimbursement.GlobalSettings
	if _, err := r.get(ctx, reimbursement.SettingsKeyGlobal, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveGlobal upserts the global settings
func (r *GormSettingsRepository) SaveGlobal(ctx context.Context, s *reimbursement.GlobalSettings) error {
	return UpsertSetting(r.db.WithContext(ctx), reimbursement.SettingsKeyGlobal, s)
}

// GetBudgetConfig returns the legacy budget configuration
func (r *GormSettingsRepository) GetBudgetConfig(ctx context.Context) (*reimbursement.BudgetConfig, error) {
	var c reimbursement.BudgetConfig
	if _, err := r.get(ctx, reimbursement.SettingsKeyBudgetConfig, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveBudgetConfig upserts the legacy budget configuration
func (r *GormSettingsRepository) SaveBudgetConfig(ctx context.Context, c *reimbursement.BudgetConfig) error {
	return UpsertSetting(r.db.WithContext(ctx), reimbursement.SettingsKeyBudgetConfig, c)
}

// GetDocumentNo returns the legacy document number, or "" when unset
func (r *GormSettingsRepository) GetDocumentNo(ctx context.Context) (string, error) {
	var d reimbursement.DocumentNoSetting
	if _, err := r.get(ctx, reimbursement.SettingsKeyDocumentNo, &d); err != nil {
		return "", err
	}
	return d.Value, nil
}

func (r *GormSettingsRepository) get(ctx context.Context, key string, dest any) (bool, error) {
	var model models.SettingModel
	if err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(model.Value), dest); err != nil {
		return false, fmt.Errorf("failed to decode setting %q: %w", key, err)
	}
	return true, nil
}

// UpsertSetting writes value as the JSON document for key
func UpsertSetting(db *gorm.DB, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}
	model := models.SettingModel{Key: key, Value: string(b), UpdatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
}
