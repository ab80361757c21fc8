// Package web wires the HTTP surface: JSON handlers for auth and images, the
// error-to-status mapping, and route registration.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fmarques/imago/internal/config"
	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/logging"
	"github.com/fmarques/imago/internal/middleware"
	"github.com/fmarques/imago/internal/services"
	"github.com/fmarques/imago/internal/token"
	"github.com/fmarques/imago/internal/upload"
)

type HandlerDeps struct {
	Config  *config.Config
	Queries *db.Queries
	Tokens  *token.Manager
	Auth    *services.AuthService
	Images  *services.ImageService
	Pinger  interface{ Ping() error }
}

// AppHandler lets handlers return errors instead of writing status codes
// inline; the adapter maps each error to a response exactly once.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

func (h AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		writeError(w, r, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.AddToEvent(r.Context(), slog.String("error", err.Error()))

	var uploadErr *upload.UploadError
	var validationErr *services.ValidationFailedError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"detail": "validation failed",
			"errors": validationErr.Result.Errors,
		})
	case errors.As(err, &uploadErr):
		status := http.StatusBadRequest
		if uploadErr.Code == "FILE_TOO_LARGE" {
			status = http.StatusRequestEntityTooLarge
		}
		respondDetail(w, status, uploadErr.Message)
	case errors.Is(err, services.ErrUsernameTaken):
		respondDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		respondDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrEmptyQuery):
		respondDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrImageNotFound):
		respondDetail(w, http.StatusNotFound, err.Error())
	default:
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			respondDetail(w, reqErr.status, reqErr.detail)
			return
		}
		logging.Get().Error("unhandled request error",
			"error", err, "path", r.URL.Path, "method", r.Method)
		respondDetail(w, http.StatusInternalServerError, "Internal server error occurred")
	}
}

// requestError short-circuits a handler with a specific status and detail.
type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string { return e.detail }

func badRequest(detail string) error {
	return &requestError{status: http.StatusBadRequest, detail: detail}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get().Error("failed to encode response", "error", err)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// RegisterRoutes mounts every API endpoint on the mux. Auth-protected routes
// are wrapped individually so public ones stay free of token checks.
func RegisterRoutes(mux *http.ServeMux, deps *HandlerDeps) {
	authed := func(h AppHandler) http.Handler {
		return middleware.RequireAuth(deps.Tokens, deps.Queries, h)
	}

	mux.Handle(PathRoot, AppHandler(deps.handleRoot))
	mux.Handle(PathHealth, AppHandler(deps.handleHealth))

	mux.Handle(PathRegister, AppHandler(deps.handleRegister))
	mux.Handle(PathToken, AppHandler(deps.handleToken))
	mux.Handle(PathMe, authed(deps.handleMe))

	mux.Handle(PathImageUpload, authed(deps.handleImageUpload))
	mux.Handle(PathImageSearch, authed(deps.handleImageSearch))
	mux.Handle(PathImageHistory, authed(deps.handleImageHistory))
	mux.Handle(PathImageGet, authed(deps.handleImageGet))
	mux.Handle(PathImageDownload, authed(deps.handleImageDownload))
	mux.Handle(PathImageDelete, authed(deps.handleImageDelete))
}
