package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db together with callbacks that tag
// slow statements and record errors on the active span.
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	sq := &slowQueryTagger{threshold: cfg.DBSlowQueryThresh, logger: logger}
	if err := sq.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.DBLogFullSQL),
		zap.Duration("slow_query_threshold", cfg.DBSlowQueryThresh))
	return nil
}

type slowQueryTagger struct {
	threshold time.Duration
	logger    *zap.Logger
}

func (s *slowQueryTagger) register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("reimb:start_create", s.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("reimb:slow_create", s.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("reimb:start_query", s.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("reimb:slow_query", s.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("reimb:start_update", s.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("reimb:slow_update", s.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("reimb:start_delete", s.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("reimb:slow_delete", s.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("reimb:start_raw", s.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("reimb:slow_raw", s.after)
}

func (s *slowQueryTagger) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (s *slowQueryTagger) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= s.threshold {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	s.logger.Warn("Slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Duration("threshold", s.threshold))
}
