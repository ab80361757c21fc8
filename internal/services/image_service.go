package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/llm"
	"github.com/fmarques/imago/internal/logging"
	"github.com/fmarques/imago/internal/metrics"
	"github.com/fmarques/imago/internal/upload"
	"github.com/fmarques/imago/internal/vector"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrEmptyQuery    = errors.New("search query must not be empty")
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 100
	searchDefaultLimit  = 3
	searchMaxLimit      = 20
)

// Captioner is the slice of the model client the upload pipeline needs.
type Captioner interface {
	Caption(ctx context.Context, req llm.CaptionRequest) (string, error)
}

type ImageService struct {
	queries        *db.Queries
	captioner      Captioner
	embedder       vector.TextEmbedder
	sanitizer      *bluemonday.Policy
	captionModel   string
	embeddingModel string
	embeddingDim   int
	uploadCfg      upload.Config
}

type ImageServiceConfig struct {
	CaptionModel   string
	EmbeddingModel string
	EmbeddingDim   int
	Upload         upload.Config
}

func NewImageService(queries *db.Queries, captioner Captioner, embedder vector.TextEmbedder, cfg ImageServiceConfig) *ImageService {
	return &ImageService{
		queries:        queries,
		captioner:      captioner,
		embedder:       embedder,
		sanitizer:      bluemonday.StrictPolicy(),
		captionModel:   cfg.CaptionModel,
		embeddingModel: cfg.EmbeddingModel,
		embeddingDim:   cfg.EmbeddingDim,
		uploadCfg:      cfg.Upload,
	}
}

// SearchResult pairs a stored image with its similarity to the query.
type SearchResult struct {
	Image      db.Image
	Similarity float64
}

// Upload runs the full ingestion pipeline: store the file, caption it with
// the vision model, embed the caption, and persist the row. The saved file is
// removed again if any later stage fails.
func (s *ImageService) Upload(ctx context.Context, r *http.Request, fieldName string) (db.Image, error) {
	result, err := upload.SaveImage(r, fieldName, s.uploadCfg)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("rejected").Inc()
		return db.Image{}, err
	}

	img, err := s.ingest(ctx, result)
	if err != nil {
		if rmErr := upload.DeleteFile(result.Path); rmErr != nil {
			logging.Get().Warn("failed to remove file after ingestion error",
				"path", result.Path, "error", rmErr)
		}
		metrics.ImageUploads.WithLabelValues("error").Inc()
		return db.Image{}, err
	}

	metrics.ImageUploads.WithLabelValues("success").Inc()
	return img, nil
}

func (s *ImageService) ingest(ctx context.Context, result *upload.Result) (db.Image, error) {
	data, err := os.ReadFile(result.Path)
	if err != nil {
		return db.Image{}, fmt.Errorf("reading saved file: %w", err)
	}

	caption, err := s.generateCaption(ctx, data, result.MIMEType)
	if err != nil {
		return db.Image{}, fmt.Errorf("generating caption: %w", err)
	}

	embedding, err := s.embedText(ctx, caption)
	if err != nil {
		return db.Image{}, fmt.Errorf("embedding caption: %w", err)
	}

	img, err := s.queries.CreateImage(ctx, db.CreateImageParams{
		Filename:    result.Filename,
		Caption:     caption,
		Embedding:   vector.Encode(embedding),
		FilePath:    result.Path,
		FileSize:    result.Size,
		ContentType: result.MIMEType,
	})
	if err != nil {
		return db.Image{}, fmt.Errorf("storing image: %w", err)
	}

	logging.AddToEvent(ctx,
		slog.Int64("image_id", img.ID),
		slog.String("caption", caption),
		slog.Int("embedding_dim", len(embedding)),
	)
	return img, nil
}

func (s *ImageService) generateCaption(ctx context.Context, data []byte, mimeType string) (string, error) {
	start := time.Now()
	caption, err := s.captioner.Caption(ctx, llm.CaptionRequest{
		Model:     s.captionModel,
		ImageData: data,
		MIMEType:  mimeType,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CaptionDuration.WithLabelValues(s.captionModel, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	// Model output is stored and echoed back to clients, so strip any markup
	// it may contain.
	return s.sanitizer.Sanitize(caption), nil
}

func (s *ImageService) embedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	embedding, err := s.embedder.Embed(ctx, text)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingDuration.WithLabelValues(s.embeddingModel, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if len(embedding) != s.embeddingDim {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			vector.ErrDimensionMismatch, len(embedding), s.embeddingDim)
	}
	return embedding, nil
}

// Search embeds the query text and ranks every stored image by cosine
// similarity. An empty store yields an empty result, not an error.
func (s *ImageService) Search(ctx context.Context, query string, limit int, threshold float64) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	queryVec, err := s.embedText(ctx, query)
	if err != nil {
		metrics.Searches.WithLabelValues("error").Inc()
		return nil, err
	}

	rows, err := s.queries.ListEmbeddings(ctx)
	if err != nil {
		metrics.Searches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	entries := make([]vector.Entry, 0, len(rows))
	for _, row := range rows {
		vec, err := vector.Decode(row.Embedding)
		if err != nil {
			metrics.Searches.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("decoding embedding for image %d: %w", row.ID, err)
		}
		entries = append(entries, vector.Entry{ID: row.ID, Vector: vec})
	}

	matches, err := vector.Rank(queryVec, entries, limit, threshold)
	if err != nil {
		metrics.Searches.WithLabelValues("error").Inc()
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		img, err := s.queries.GetImage(ctx, m.ID)
		if err != nil {
			metrics.Searches.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("loading image %d: %w", m.ID, err)
		}
		results = append(results, SearchResult{
			Image:      img,
			Similarity: roundSimilarity(m.Similarity),
		})
	}

	logging.AddToEvent(ctx,
		slog.Int("candidates", len(entries)),
		slog.Int("matches", len(results)),
	)
	metrics.Searches.WithLabelValues("success").Inc()
	return results, nil
}

// roundSimilarity trims scores to four decimal places for the API responses.
func roundSimilarity(sim float64) float64 {
	return math.Round(sim*10000) / 10000
}

// HistoryPage is one page of uploads. Limit and Offset are the clamped values
// the query actually ran with, not the raw request parameters.
type HistoryPage struct {
	Images []db.Image
	Total  int64
	Limit  int
	Offset int
}

// History returns a page of images, newest first, plus the total count.
func (s *ImageService) History(ctx context.Context, limit, offset int) (HistoryPage, error) {
	params := db.ListParams{Limit: limit, Offset: offset}.Clamp(historyDefaultLimit, historyMaxLimit)

	images, err := s.queries.ListImages(ctx, db.ListImagesParams{
		Limit:  int64(params.Limit),
		Offset: int64(params.Offset),
	})
	if err != nil {
		return HistoryPage{}, fmt.Errorf("listing images: %w", err)
	}

	total, err := s.queries.CountImages(ctx)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("counting images: %w", err)
	}

	return HistoryPage{
		Images: images,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

func (s *ImageService) Get(ctx context.Context, id int64) (db.Image, error) {
	img, err := s.queries.GetImage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Image{}, ErrImageNotFound
		}
		return db.Image{}, fmt.Errorf("loading image: %w", err)
	}
	return img, nil
}

// Delete removes the database row and the file on disk. A missing file is
// logged but does not fail the delete; the row is authoritative.
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteImage(ctx, id); err != nil {
		return fmt.Errorf("deleting image row: %w", err)
	}

	if upload.FileExists(img.FilePath) {
		if err := upload.DeleteFile(img.FilePath); err != nil {
			logging.Get().Warn("failed to remove image file",
				"path", img.FilePath, "error", err)
		}
	}
	return nil
}

// SearchLimits clamps the user-supplied search parameters. Thresholds are
// confined to [0, 1] at the API boundary even though the ranker itself accepts
// the full cosine range.
func SearchLimits(limit int, threshold float64) (int, float64) {
	if limit < 1 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return limit, threshold
}
