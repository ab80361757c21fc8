package web

import (
	"net/http"
	"os"
)

// handleRoot returns service metadata so a bare GET / is self-describing.
func (deps *HandlerDeps) handleRoot(w http.ResponseWriter, r *http.Request) error {
	respondJSON(w, http.StatusOK, map[string]string{
		"name":    "imago",
		"message": "Image caption and similarity search API",
		"docs":    "/swagger/index.html",
		"health":  "/health",
	})
	return nil
}

// handleHealth reports liveness: database reachable and upload directory
// writable.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health [get]
func (deps *HandlerDeps) handleHealth(w http.ResponseWriter, r *http.Request) error {
	status := map[string]string{
		"status":   "ok",
		"database": "up",
		"storage":  "up",
	}
	healthy := true

	if err := deps.Pinger.Ping(); err != nil {
		status["database"] = "down"
		healthy = false
	}

	if info, err := os.Stat(deps.Config.UploadDir); err != nil || !info.IsDir() {
		status["storage"] = "down"
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
	return nil
}
