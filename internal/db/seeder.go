package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/fmarques/imago/internal/logging"
)

// Seed creates a demo account (demo / demo1234) for local development.
func Seed(ctx context.Context, dbConn *sql.DB) error {
	queries := New(dbConn)

	if _, err := queries.GetUserByUsername(ctx, "demo"); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	if _, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     "demo",
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	logging.Get().Info("database seeded",
		slog.String("demo_username", "demo"),
		slog.String("demo_password", "demo1234"),
	)
	return nil
}
