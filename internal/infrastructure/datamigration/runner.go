package datamigration

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errDryRun = errors.New("dry run")

// Runner executes data migrations against the application database
type Runner struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRunner creates a Runner
func NewRunner(db *gorm.DB, logger *zap.Logger) *Runner {
	return &Runner{db: db, logger: logger.Named("datamigration")}
}

// inTx runs fn in a transaction, rolling it back when dryRun is set
func (r *Runner) inTx(ctx context.Context, dryRun bool, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		if dryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		return nil
	}
	return err
}
