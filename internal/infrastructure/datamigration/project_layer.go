package datamigration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/persistence"
	"github.com/reimburse/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CurrentSchemaVersion marks records written after the project layer exists
const CurrentSchemaVersion = 2

const defaultProjectDescription = "Migrated from existing data"

// ProjectLayerReport counts what AddProjectLayer changed
type ProjectLayerReport struct {
	DryRun                bool  `json:"dry_run"`
	ProjectCreated        bool  `json:"project_created"`
	RequestsUpdated       int64 `json:"requests_updated"`
	SettlementsUpdated    int64 `json:"settlements_updated"`
	UsersUpdated          int64 `json:"users_updated"`
	MembersAdded          int   `json:"members_added"`
	GlobalSettingsUpdated bool  `json:"global_settings_updated"`
	SchemaVersionBumped   int64 `json:"schema_version_bumped"`
}

// Changed reports whether the run touched anything
func (r ProjectLayerReport) Changed() bool {
	return r.ProjectCreated || r.RequestsUpdated > 0 || r.SettlementsUpdated > 0 || r.UsersUpdated > 0 ||
		r.MembersAdded > 0 || r.GlobalSettingsUpdated || r.SchemaVersionBumped > 0
}

// AddProjectLayer moves pre-project data under the default project. It seeds
// the project from the legacy budget-config and document-no settings, assigns
// it to every request, settlement and user lacking one, makes every user a
// member and records it as the global default.
func (r *Runner) AddProjectLayer(ctx context.Context, dryRun bool) (*ProjectLayerReport, error) {
	report := &ProjectLayerReport{DryRun: dryRun}
	err := r.inTx(ctx, dryRun, func(tx *gorm.DB) error {
		return addProjectLayer(tx, report)
	})
	if err != nil {
		return nil, fmt.Errorf("add project layer: %w", err)
	}
	r.logger.Info("Project layer migration finished",
		zap.Bool("dry_run", dryRun),
		zap.Bool("project_created", report.ProjectCreated),
		zap.Int64("requests", report.RequestsUpdated),
		zap.Int64("settlements", report.SettlementsUpdated),
		zap.Int64("users", report.UsersUpdated),
		zap.Int("members_added", report.MembersAdded),
		zap.Bool("global_settings", report.GlobalSettingsUpdated),
		zap.Int64("schema_version_bumped", report.SchemaVersionBumped))
	return report, nil
}

func addProjectLayer(tx *gorm.DB, report *ProjectLayerReport) error {
	ctx := tx.Statement.Context
	defaultID := reimbursement.DefaultProjectID
	now := time.Now().UTC()
	settings := persistence.NewGormSettingsRepository(tx)

	var project models.ProjectModel
	err := tx.First(&project, "id = ?", defaultID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cfg, err := settings.GetBudgetConfig(ctx)
		if err != nil {
			return err
		}
		docNo, err := settings.GetDocumentNo(ctx)
		if err != nil {
			return err
		}
		p := reimbursement.NewDefaultProject(*cfg, docNo)
		p.Description = defaultProjectDescription
		project = *models.ProjectModelFromDomain(p)
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create default project: %w", err)
		}
		report.ProjectCreated = true
	case err != nil:
		return err
	}

	assign := map[string]any{
		"project_id": defaultID,
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	}
	res := tx.Model(&models.PaymentRequestModel{}).Where("project_id IS NULL").Updates(assign)
	if res.Error != nil {
		return fmt.Errorf("assign requests: %w", res.Error)
	}
	report.RequestsUpdated = res.RowsAffected

	res = tx.Model(&models.SettlementModel{}).Where("project_id IS NULL").Updates(assign)
	if res.Error != nil {
		return fmt.Errorf("assign settlements: %w", res.Error)
	}
	report.SettlementsUpdated = res.RowsAffected

	var users []models.UserModel
	if err := tx.Select("uid", "project_ids").Order("uid").Find(&users).Error; err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	members := make(map[string]bool, len(project.MemberUIDs))
	for _, uid := range project.MemberUIDs {
		members[uid] = true
	}
	for _, u := range users {
		if !members[u.UID] {
			members[u.UID] = true
			project.MemberUIDs = append(project.MemberUIDs, u.UID)
			report.MembersAdded++
		}
		if len(u.ProjectIDs) > 0 {
			continue
		}
		res := tx.Model(&models.UserModel{}).Where("uid = ?", u.UID).Updates(map[string]any{
			"project_ids": reimbursement.UUIDList{defaultID},
			"version":     gorm.Expr("version + 1"),
			"updated_at":  now,
		})
		if res.Error != nil {
			return fmt.Errorf("assign user %s: %w", u.UID, res.Error)
		}
		report.UsersUpdated += res.RowsAffected
	}
	if report.MembersAdded > 0 {
		err := tx.Model(&models.ProjectModel{}).Where("id = ?", defaultID).Updates(map[string]any{
			"member_uids": project.MemberUIDs,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  now,
		}).Error
		if err != nil {
			return fmt.Errorf("update members: %w", err)
		}
	}

	global, err := settings.GetGlobal(ctx)
	if err != nil {
		return err
	}
	if global.DefaultProjectID == nil || *global.DefaultProjectID != defaultID {
		global.DefaultProjectID = &defaultID
		if err := settings.SaveGlobal(ctx, global); err != nil {
			return fmt.Errorf("save global settings: %w", err)
		}
		report.GlobalSettingsUpdated = true
	}

	for _, model := range []any{&models.PaymentRequestModel{}, &models.SettlementModel{}, &models.ProjectModel{}, &models.UserModel{}} {
		res := tx.Model(model).Where("schema_version < ?", CurrentSchemaVersion).
			Update("schema_version", CurrentSchemaVersion)
		if res.Error != nil {
			return fmt.Errorf("bump schema version: %w", res.Error)
		}
		report.SchemaVersionBumped += res.RowsAffected
	}
	return nil
}
