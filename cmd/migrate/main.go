package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sidecrew/internal/config"
	"sidecrew/internal/database/migration"
	dbpostgres "sidecrew/internal/database/postgres"
	"sidecrew/internal/database/seeder"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR, then the embedded set)")
	status := flag.Bool("status", false, "list migrations and exit without applying")
	seed := flag.Bool("seed", false, "create approved demo accounts after migrating")
	seedPassword := flag.String("seed-password", os.Getenv("DEMO_PASSWORD"), "password for the demo accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.App.StoreBackend != config.StoreBackendPostgres {
		log.Fatal("migrate requires STORE_BACKEND=postgres", "store", cfg.App.StoreBackend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", "error", err)
	}
	defer func() {
		_ = db.Close()
	}()

	migDir := strings.TrimSpace(*dir)
	if migDir == "" {
		migDir = cfg.App.MigrationsDir
	}
	r := migration.Runner{Dir: migDir, Log: log}

	if *status {
		states, err := r.Status(ctx, db.SQLDB())
		if err != nil {
			log.Fatal("migration status failed", "error", err)
		}
		for _, st := range states {
			if st.AppliedAt != nil {
				log.Info("migration", "version", st.Version, "name", st.Name, "applied_at", st.AppliedAt.Format(time.RFC3339))
			} else {
				log.Info("migration", "version", st.Version, "name", st.Name, "applied_at", "pending")
			}
		}
		return
	}

	if err := r.Run(ctx, db.SQLDB()); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if err := migration.Verify(ctx, db); err != nil {
		log.Fatal("schema check failed", "error", err)
	}
	log.Info("migrations up to date")

	if !*seed {
		return
	}
	seeds := seeder.Runner{Seeders: seeder.Defaults(*seedPassword), Log: log}
	if err := seeds.Run(ctx, repository.NewPostgresStore(db)); err != nil {
		log.Fatal("seeding failed", "error", err)
	}
}
