package main

import (
	"fmt"
	"log"

	"workflow/internal/config"
	"workflow/internal/database"
	"workflow/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env is what every subcommand needs: config, a logger and an open database.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "workflowctl",
		Short:         "Maintenance commands for the WorkFlow database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil {
				log.Printf("No %s file found or error loading it", envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "configs/.env", "dotenv file loaded before the config")

	root.AddCommand(newMigrateCmd(), newSeedCmd(), newImportMaterialsCmd())
	return root
}

// openEnv loads the config, builds the logger and connects to the database.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	zapLog, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	db, err := database.Open(cfg.Database, zapLog)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: zapLog, db: db}, nil
}
