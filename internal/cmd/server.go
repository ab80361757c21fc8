// Package cmd implements the console subcommands behind the api binary.
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fmarques/imago/docs"
	"github.com/fmarques/imago/internal/config"
	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/httpclient"
	"github.com/fmarques/imago/internal/llm"
	"github.com/fmarques/imago/internal/logging"
	"github.com/fmarques/imago/internal/middleware"
	"github.com/fmarques/imago/internal/services"
	"github.com/fmarques/imago/internal/token"
	"github.com/fmarques/imago/internal/upload"
	"github.com/fmarques/imago/internal/vector"
	"github.com/fmarques/imago/internal/web"
)

const embeddingCacheSize = 1024

// RunServer boots the HTTP API and blocks until SIGINT or SIGTERM.
func RunServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init()
	logger := logging.Get()

	dbConn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}

	llmClient, err := llm.NewClient(
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithAPIKey(cfg.LLMAPIKey),
		llm.WithHTTPClient(httpclient.New(httpclient.Config{
			Name:    "llm",
			Timeout: 120 * time.Second,
		}).Client),
	)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	embedder, err := vector.NewCachedEmbedder(
		vector.NewEmbedder(llmClient, cfg.EmbeddingModel, cfg.EmbeddingDim),
		cfg.EmbeddingModel,
		embeddingCacheSize,
	)
	if err != nil {
		return fmt.Errorf("creating embedding cache: %w", err)
	}

	queries := db.New(dbConn)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL)

	deps := &web.HandlerDeps{
		Config:  cfg,
		Queries: queries,
		Tokens:  tokens,
		Pinger:  dbConn,
		Auth:    services.NewAuthService(queries, tokens),
		Images: services.NewImageService(queries, llmClient, embedder, services.ImageServiceConfig{
			CaptionModel:   cfg.CaptionModel,
			EmbeddingModel: cfg.EmbeddingModel,
			EmbeddingDim:   cfg.EmbeddingDim,
			Upload: upload.Config{
				AllowedExt: cfg.AllowedExtensions,
				MaxSize:    cfg.MaxFileSize,
				Directory:  cfg.UploadDir,
			},
		}),
	}

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, deps)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	mux.Handle("GET /static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	rateLimiter := middleware.NewRateLimiter(20, 40)

	var handler http.Handler = gzhttp.GzipHandler(mux)
	handler = middleware.Logger(handler)
	handler = middleware.CORS(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = rateLimiter.Middleware(handler)
	handler = middleware.Recovery(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	dbConn, err := sql.Open("sqlite3", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := config.GetSQLiteConfig().ApplyPragmas(dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}

	return dbConn, nil
}
