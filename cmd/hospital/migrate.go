package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/hospital/pkg/common/database"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/records"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close(db)

		if err := records.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Log.WithField("driver", cfg.DBDriver).Info("Schema migrated")
		return nil
	},
}
