package main

import (
	"fmt"
	"os"

	"workflow/internal/database"
	"workflow/internal/repository"
	"workflow/internal/server"
	"workflow/internal/service"
	"workflow/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliActor is recorded as the actor of audit entries written by workflowctl.
var cliActor = service.Actor{Name: "workflowctl", Role: "SYSTEM"}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			e.log.Info("Migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var adminName string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin, sample teams and sample materials",
		Long:  "Creates the ADMIN_EMAIL admin with ADMIN_PASSWORD unless it exists, then upserts sample teams and materials. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			svc := server.NewServices(e.db, session.NewManager(e.cfg.Auth.Secret, e.cfg.Auth.SessionTTL), nil, nil, e.log)
			seeder := service.NewSeeder(
				svc.Users,
				repository.NewTeamRepository(e.db),
				repository.NewMaterialRepository(e.db),
				repository.NewTransactionManager(e.db),
			)

			res, err := seeder.Seed(cmd.Context(), service.SeedOptions{
				AdminName:     adminName,
				AdminEmail:    e.cfg.Auth.AdminEmail,
				AdminPassword: e.cfg.Auth.AdminPassword,
			})
			if err != nil {
				return err
			}
			e.log.Info("Seed complete",
				zap.Bool("admin_created", res.AdminCreated),
				zap.Int("teams_created", res.TeamsCreated),
				zap.Int("materials_upserted", res.MaterialsUpserted),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&adminName, "admin-name", "Admin", "display name of the bootstrap admin")
	return cmd
}

func newImportMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-materials <file.xlsx>",
		Short: "Upsert materials from a parts-list workbook",
		Long:  `Reads the first sheet of the workbook. Rows need "SAP PN" and "DESCRIPTION" columns; new parts are created, existing ones renamed and reactivated.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			svc := server.NewServices(e.db, session.NewManager(e.cfg.Auth.Secret, e.cfg.Auth.SessionTTL), nil, nil, e.log)
			res, err := svc.Materials.ImportMaterials(cmd.Context(), cliActor, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, skipped %d\n", res.Created, res.Updated, res.Skipped)
			return nil
		},
	}
}
