package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/token"
)

func testAuth(t *testing.T) (*AuthService, *token.Manager, *db.Queries) {
	t.Helper()
	queries := testQueries(t)
	tokens := token.NewManager("test-secret", time.Minute)
	return NewAuthService(queries, tokens), tokens, queries
}

func TestRegisterAndLogin(t *testing.T) {
	auth, tokens, _ := testAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q", user.Username)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password must not be stored in plain text")
	}

	accessToken, err := auth.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	subject, err := tokens.Verify(accessToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "alice" {
		t.Errorf("token subject = %q", subject)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := testAuth(t)

	_, err := auth.Register(context.Background(), "x", "y")
	var validationErr *ValidationFailedError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	if len(validationErr.Result.Errors) != 2 {
		t.Errorf("expected two field errors, got %v", validationErr.Result.Errors)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	auth, _, _ := testAuth(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := auth.Register(ctx, "alice", "other456"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth, _, _ := testAuth(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := auth.Login(ctx, "alice", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	auth, _, _ := testAuth(t)

	if _, err := auth.Login(context.Background(), "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
