// cmd/server/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vials-labs/vials-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close(db)

		return database.RunMigrations(db)
	},
}
