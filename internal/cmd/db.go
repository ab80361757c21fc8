package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fmarques/imago/internal/config"
	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/logging"
)

func withDB(fn func(ctx context.Context, conn *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init()

	conn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(context.Background(), conn)
}

// RunMigrate applies pending migrations and exits.
func RunMigrate() error {
	return withDB(func(ctx context.Context, conn *sql.DB) error {
		if err := db.RunMigrations(ctx, conn); err != nil {
			return err
		}
		logging.Get().Info("migrations applied")
		return nil
	})
}

// RunSeed applies migrations and inserts the demo account.
func RunSeed() error {
	return withDB(func(ctx context.Context, conn *sql.DB) error {
		if err := db.RunMigrations(ctx, conn); err != nil {
			return err
		}
		return db.Seed(ctx, conn)
	})
}
