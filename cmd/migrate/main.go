package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/config"
	"github.com/blagoySimandov/clinicbook/internal/db"
	"github.com/blagoySimandov/clinicbook/internal/logger"
	"github.com/blagoySimandov/clinicbook/migrations"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var (
	databaseURL string
	bunDB       *bun.DB
	migrator    *migrate.Migrator
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, "console")

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the clinicbook database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bunDB = db.NewBunPostgresClient(databaseURL)
			migrator = migrate.NewMigrator(bunDB, migrations.Migrations)
			if err := migrator.Init(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return bunDB.Close()
		},
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "postgres connection string")

	root.AddCommand(upCmd(), downCmd(), statusCmd(), createCmd())
	return root
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := migrator.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if group.IsZero() {
				log.Info().Msg("No new migrations to run (database is up to date)")
				return nil
			}
			log.Info().Str("group", group.String()).Msg("Migrated")
			return nil
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Rollback the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := migrator.Rollback(cmd.Context())
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			if group.IsZero() {
				log.Info().Msg("No migrations to rollback")
				return nil
			}
			log.Info().Str("group", group.String()).Msg("Rolled back")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := migrator.MigrationsWithStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Println("Migrations:")
			for _, m := range ms {
				status := "pending"
				if m.IsApplied() {
					status = "applied"
				}
				fmt.Printf("  %s_%s: %s\n", m.Name, m.Comment, status)
			}
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create new transactional SQL migration files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := migrator.CreateTxSQLMigrations(cmd.Context(), strings.Join(args, "_"))
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			for _, f := range files {
				log.Info().Str("path", f.Path).Msg("Created migration")
			}
			return nil
		},
	}
}
