package datamigration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BankBookReport counts what ClearBankBookImage did
type BankBookReport struct {
	DryRun       bool  `json:"dry_run"`
	Cleared      int64 `json:"cleared"`
	SkippedEmpty int64 `json:"skipped_empty"`
	// SkippedNoURL users keep their embedded image since it is their only copy
	SkippedNoURL int64 `json:"skipped_no_url"`
}

// ClearBankBookImage drops the embedded bank book data URL of users whose
// bank book is already stored remotely
func (r *Runner) ClearBankBookImage(ctx context.Context, dryRun bool) (*BankBookReport, error) {
	report := &BankBookReport{DryRun: dryRun}
	err := r.inTx(ctx, dryRun, func(tx *gorm.DB) error {
		var users []models.UserModel
		if err := tx.Select("uid", "name", "bank_book_url", "bank_book_image").Order("uid").Find(&users).Error; err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		now := time.Now().UTC()
		for _, u := range users {
			switch {
			case !strings.HasPrefix(u.BankBookImage, "data:"):
				report.SkippedEmpty++
			case u.BankBookURL == "":
				report.SkippedNoURL++
				r.logger.Warn("Bank book image kept, no stored copy",
					zap.String("uid", u.UID),
					zap.Int("size_kb", len(u.BankBookImage)/1024))
			default:
				res := tx.Model(&models.UserModel{}).Where("uid = ?", u.UID).Updates(map[string]any{
					"bank_book_image": "",
					"version":         gorm.Expr("version + 1"),
					"updated_at":      now,
				})
				if res.Error != nil {
					return fmt.Errorf("clear user %s: %w", u.UID, res.Error)
				}
				report.Cleared += res.RowsAffected
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clear bank book image: %w", err)
	}
	r.logger.Info("Bank book image migration finished",
		zap.Bool("dry_run", dryRun),
		zap.Int64("cleared", report.Cleared),
		zap.Int64("skipped_empty", report.SkippedEmpty),
		zap.Int64("skipped_no_url", report.SkippedNoURL))
	return report, nil
}
