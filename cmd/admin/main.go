// Command admin runs operator tasks against the reimbursement database:
// one-off data migrations, role assignment and development tokens.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	app "github.com/reimburse/backend/internal/application/reimbursement"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/auth"
	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/reimburse/backend/internal/infrastructure/datamigration"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/infrastructure/persistence"
)

var version = "dev"

// operator is the actor recorded for changes made from this tool
var operator = reimbursement.Actor{UID: "system:admin-cli", Name: "admin cli", Role: reimbursement.RoleAdmin}

func main() {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tasks for the reimbursement backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(projectLayerCmd(), bankBookCmd(), roleCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
}

func (e *env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.Warn("Error closing database", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

func open(withDB bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(config.LogConfig{Level: cfg.Log.Level, Format: "console", Output: "stderr"}, "development")
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}
	if !withDB {
		return e, nil
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel("warn"), time.Second)))
	if err != nil {
		return nil, err
	}
	e.db = db
	return e, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func projectLayerCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate-project-layer",
		Short: "Move pre-project data under a default project",
		Long: `Creates the default project from the legacy budget configuration, assigns it
to every request, settlement and user without a project, and records it as the
global default. Running it twice changes nothing the second time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(true)
			if err != nil {
				return err
			}
			defer e.close()

			report, err := datamigration.NewRunner(e.db.DB, e.log).AddProjectLayer(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change and roll back")
	return cmd
}

func bankBookCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clear-bankbook-image",
		Short: "Drop embedded bank book images that are already stored remotely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(true)
			if err != nil {
				return err
			}
			defer e.close()

			report, err := datamigration.NewRunner(e.db.DB, e.log).ClearBankBookImage(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change and roll back")
	return cmd
}

func roleCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "role UID ROLE",
		Short: "Set the role of a user (user, approver, admin)",
		Long: `Sets the role of a user. With --email the profile is created first when it
does not exist yet, which is how the first admin is bootstrapped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, role := args[0], args[1]
			if !reimbursement.Role(role).IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			e, err := open(true)
			if err != nil {
				return err
			}
			defer e.close()

			users := app.NewUserService(persistence.NewGormUserRepository(e.db.DB), e.log)
			ctx := cmd.Context()
			if email != "" {
				if _, err := users.EnsureProfile(ctx, uid, email, name); err != nil {
					return err
				}
			}
			resp, err := users.ChangeRole(ctx, operator, uid, role)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "create the profile with this email when missing")
	cmd.Flags().StringVar(&name, "name", "", "display name used with --email")
	return cmd
}

func tokenCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "token UID",
		Short: "Issue a signed bearer token for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(false)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.App.Env == "production" {
				return errors.New("refusing to issue development tokens in production")
			}
			token, expires, err := auth.NewJWTService(e.cfg.JWT).GenerateToken(auth.Identity{UID: args[0], Email: email, Name: name})
			if err != nil {
				return err
			}
			e.log.Info("Token issued", zap.String("uid", args[0]), zap.Time("expires_at", expires))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	return cmd
}
