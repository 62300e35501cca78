package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ioproxxy/mosolarweb/internal/pkg/telemetry"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/gormstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the PostgreSQL schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.Log.Level, cfg.Telemetry.ServiceName)
	if cfg.Store.Driver != "postgres" {
		return errors.New("migrate needs store.driver=postgres")
	}

	db, err := gormstore.Open(gormstore.Config{
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := gormstore.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	slog.Info("schema migrated")
	return nil
}
