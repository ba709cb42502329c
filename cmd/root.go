// Package cmd contains the newsdesk commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsdesk/config"
	"newsdesk/internal/database"
	"newsdesk/internal/logger"
	"newsdesk/internal/taxonomy"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Aggregated markets and business news site",
	Long: `newsdesk serves the aggregated Bloomberg, FT and Reuters feed with
channel filtering, sitemaps and RSS, and ingests RSS sources into the store.

Example usage:
  newsdesk serve                 # Start the web server
  newsdesk ingest --once         # Pull every configured feed once
  newsdesk ingest                # Pull feeds on the configured schedule`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log, err = logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func openDB() (*gorm.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

func loadTaxonomy() (*taxonomy.Mapper, error) {
	if cfg.Taxonomy.File != "" {
		return taxonomy.LoadFile(cfg.Taxonomy.File)
	}
	return taxonomy.Embedded()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
