// Package services holds the business logic between the HTTP handlers and the
// storage, model, and upload layers.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/token"
	"github.com/fmarques/imago/internal/validator"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrAccountDisabled    = errors.New("user account is disabled")
)

// ValidationFailedError carries the per-field messages from registration
// validation so the handler can return them verbatim.
type ValidationFailedError struct {
	Result validator.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	if len(e.Result.Errors) > 0 {
		return e.Result.Errors[0].Message
	}
	return "validation failed"
}

type AuthService struct {
	queries *db.Queries
	tokens  *token.Manager
}

func NewAuthService(queries *db.Queries, tokens *token.Manager) *AuthService {
	return &AuthService{queries: queries, tokens: tokens}
}

// Register validates the credentials, hashes the password, and creates the
// user. Duplicate usernames are reported before the insert so the caller gets
// a clean conflict error instead of a constraint violation.
func (s *AuthService) Register(ctx context.Context, username, password string) (db.User, error) {
	if result := validator.ValidateRegistration(username, password); !result.Valid {
		return db.User{}, &ValidationFailedError{Result: result}
	}

	if _, err := s.queries.GetUserByUsername(ctx, username); err == nil {
		return db.User{}, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return db.User{}, fmt.Errorf("checking username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return db.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed access token. Unknown
// usernames and wrong passwords produce the same error so the endpoint does
// not leak which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", ErrAccountDisabled
	}

	accessToken, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return accessToken, nil
}
