package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/validator"
)

// RunCreateUser prompts for credentials on stdin and inserts the user.
func RunCreateUser() error {
	return withDB(func(ctx context.Context, conn *sql.DB) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Username: ")
		username, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(username)

		fmt.Print("Password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimSpace(password)

		if result := validator.ValidateRegistration(username, password); !result.Valid {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Field, e.Message)
			}
			return fmt.Errorf("invalid credentials")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		queries := db.New(conn)
		user, err := queries.CreateUser(ctx, db.CreateUserParams{
			Username:     username,
			PasswordHash: string(hash),
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Printf("created user %q (id %d)\n", user.Username, user.ID)
		return nil
	})
}
