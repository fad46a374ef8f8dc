package main

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/adapters/cache"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/platform/db"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	dbPath      string
	databaseURL string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dbtool",
		Short: "Manage the dispatch service databases",
		Long: `Manage the SQLite scenario database and the optional Postgres route cache.

Examples:
  dbtool init
  dbtool seed --resources data/seeds/resources.json --emergencies data/seeds/emergencies.json
  dbtool cache-clear --database-url postgres://localhost/dispatch`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", config.Get("DB_PATH", "data/app.db"), "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", config.Get("DATABASE_URL", ""), "Postgres URL for the shared route cache (optional)")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newCacheClearCommand(opts))

	return cmd
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create database schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(opts, func(sqliteDB *sql.DB) error {
				log.Println("Initializing database schema...")
				if err := repositories.InitSchema(sqliteDB); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}

				if opts.databaseURL != "" {
					pg, err := db.Open(opts.databaseURL)
					if err != nil {
						return err
					}
					defer pg.Close()

					if err := repositories.InitPostgresSchema(pg); err != nil {
						return fmt.Errorf("postgres schema initialization failed: %w", err)
					}
				}

				log.Println("Schema ready.")
				return nil
			})
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var resourcesPath, emergenciesPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load resources and emergencies from JSON seed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resourcesPath == "" && emergenciesPath == "" {
				return fmt.Errorf("at least one of --resources or --emergencies is required")
			}

			return withSQLite(opts, func(sqliteDB *sql.DB) error {
				if err := repositories.InitSchema(sqliteDB); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}

				log.Println("Seeding database...")
				if resourcesPath != "" {
					if err := repositories.SeedResourcesFromJSON(sqliteDB, resourcesPath); err != nil {
						return fmt.Errorf("seeding failed: %w", err)
					}
				}
				if emergenciesPath != "" {
					if err := repositories.SeedEmergenciesFromJSON(sqliteDB, emergenciesPath); err != nil {
						return fmt.Errorf("seeding failed: %w", err)
					}
				}
				log.Println("Seeding complete.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&resourcesPath, "resources", config.Get("RESOURCES_SEED_PATH", "data/seeds/resources.json"), "resources seed file")
	cmd.Flags().StringVar(&emergenciesPath, "emergencies", config.Get("EMERGENCIES_SEED_PATH", "data/seeds/emergencies.json"), "emergencies seed file")

	return cmd
}

func newCacheClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-clear",
		Short: "Delete every cached route",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if opts.databaseURL != "" {
				pg, err := db.Open(opts.databaseURL)
				if err != nil {
					return err
				}
				defer pg.Close()

				n, err := cache.NewSQLRouteCache(pg).Clear(ctx)
				if err != nil {
					return err
				}
				log.Printf("Cleared postgres route cache rows=%d", n)
				return nil
			}

			return withSQLite(opts, func(sqliteDB *sql.DB) error {
				if err := repositories.InitSchema(sqliteDB); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}

				n, err := cache.NewSqliteRouteCache(sqliteDB).Clear(ctx)
				if err != nil {
					return err
				}
				log.Printf("Cleared sqlite route cache rows=%d", n)
				return nil
			})
		},
	}
}

func withSQLite(opts *rootOptions, fn func(*sql.DB) error) error {
	sqliteDB, err := db.OpenSQLite(opts.dbPath)
	if err != nil {
		return err
	}
	defer sqliteDB.Close()

	return fn(sqliteDB)
}
