// cmd/server/main.go
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/i18n"
)

var rootCmd = &cobra.Command{
	Use:   "vials-server",
	Short: "Vials derivative marketplace backend",
	Long: `HTTP backend for Vials: drafts, marketplace listings, mint records,
NFT ownership lookups, IPFS pinning and derivative generation.

Available subcommands:
  serve   - Run the HTTP API (default)
  migrate - Apply database migrations and exit
  token   - Issue a relayer token for write routes`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// loadConfig reads configuration and sets up the process-wide logger,
// translations and gin mode to match it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	setupLogging(cfg)

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
