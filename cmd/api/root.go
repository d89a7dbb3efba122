package main

import (
	"fmt"

	"dailyreport/internal/config"
	"dailyreport/internal/database"
	"dailyreport/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "dailyreport",
	Short:        "Daily work report service",
	Long:         "Collects employees' work records, consolidates them into daily reports and routes them to supervisors for review.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, backfillCmd)
}

// bootstrap loads configuration, the logger and a database connection shared by every command.
func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log)

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return cfg, log, db, nil
}
