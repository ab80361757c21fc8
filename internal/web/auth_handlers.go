package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fmarques/imago/internal/middleware"
	"github.com/fmarques/imago/internal/services"
	"github.com/fmarques/imago/internal/validator"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleRegister creates a new user account.
//
//	@Summary	Register a new user
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		registerRequest	true	"Credentials"
//	@Success	201		{object}	userResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/auth/register [post]
func (deps *HandlerDeps) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("invalid JSON body")
	}

	if result := validator.ValidateStruct(req); !result.Valid {
		return &services.ValidationFailedError{Result: result}
	}

	user, err := deps.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	})
	return nil
}

// handleToken exchanges form credentials for a bearer access token.
//
//	@Summary	Obtain an access token
//	@Tags		auth
//	@Accept		x-www-form-urlencoded
//	@Produce	json
//	@Param		username	formData	string	true	"Username"
//	@Param		password	formData	string	true	"Password"
//	@Success	200			{object}	tokenResponse
//	@Failure	401			{object}	map[string]string
//	@Router		/auth/token [post]
func (deps *HandlerDeps) handleToken(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return badRequest("invalid form body")
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		return badRequest("username and password are required")
	}

	accessToken, err := deps.Auth.Login(r.Context(), username, password)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
	return nil
}

// handleMe returns the authenticated user's profile.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	userResponse
//	@Failure	401	{object}	map[string]string
//	@Router		/auth/me [get]
func (deps *HandlerDeps) handleMe(w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return &requestError{status: http.StatusUnauthorized, detail: "not authenticated"}
	}

	respondJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	})
	return nil
}
