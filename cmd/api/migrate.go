package main

import (
	"dailyreport/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrated")
		return nil
	},
}
