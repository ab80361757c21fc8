package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/services"
	"github.com/fmarques/imago/internal/upload"
)

type imageResponse struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	Caption     string    `json:"caption"`
	UploadTime  time.Time `json:"upload_time"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
}

type searchResultResponse struct {
	imageResponse
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Query   string                 `json:"query"`
	Results []searchResultResponse `json:"results"`
	Count   int                    `json:"count"`
}

type historyResponse struct {
	Images []imageResponse `json:"images"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func toImageResponse(img db.Image) imageResponse {
	return imageResponse{
		ID:          img.ID,
		Filename:    img.Filename,
		Caption:     img.Caption,
		UploadTime:  img.UploadTime,
		FileSize:    img.FileSize,
		ContentType: img.ContentType,
		URL:         "/static/" + img.Filename,
	}
}

// handleImageUpload ingests a multipart image: save, caption, embed, store.
//
//	@Summary	Upload an image
//	@Tags		images
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"Image file (jpg, jpeg, png)"
//	@Success	201		{object}	imageResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/images/upload [post]
func (deps *HandlerDeps) handleImageUpload(w http.ResponseWriter, r *http.Request) error {
	img, err := deps.Images.Upload(r.Context(), r, "file")
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, toImageResponse(img))
	return nil
}

// handleImageSearch ranks stored images against a text query by cosine
// similarity of their caption embeddings.
//
//	@Summary	Search images by text
//	@Tags		images
//	@Produce	json
//	@Security	BearerAuth
//	@Param		query		query		string	true	"Search text"
//	@Param		limit		query		int		false	"Maximum results (1-20, default 3)"
//	@Param		threshold	query		number	false	"Minimum similarity (0-1, default 0)"
//	@Success	200			{object}	searchResponse
//	@Failure	400			{object}	map[string]string
//	@Router		/images/search [get]
func (deps *HandlerDeps) handleImageSearch(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("query")
	if query == "" {
		return badRequest("query parameter is required")
	}

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		return err
	}
	threshold, err := floatParam(r, "threshold", 0)
	if err != nil {
		return err
	}
	limit, threshold = services.SearchLimits(limit, threshold)

	results, err := deps.Images.Search(r.Context(), query, limit, threshold)
	if err != nil {
		return err
	}

	out := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, searchResultResponse{
			imageResponse: toImageResponse(res.Image),
			Similarity:    res.Similarity,
		})
	}

	respondJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Results: out,
		Count:   len(out),
	})
	return nil
}

// handleImageHistory lists uploaded images, newest first.
//
//	@Summary	Upload history
//	@Tags		images
//	@Produce	json
//	@Security	BearerAuth
//	@Param		limit	query		int	false	"Page size (1-100, default 50)"
//	@Param		offset	query		int	false	"Rows to skip"
//	@Success	200		{object}	historyResponse
//	@Router		/images/history [get]
func (deps *HandlerDeps) handleImageHistory(w http.ResponseWriter, r *http.Request) error {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		return err
	}

	page, err := deps.Images.History(r.Context(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]imageResponse, 0, len(page.Images))
	for _, img := range page.Images {
		out = append(out, toImageResponse(img))
	}

	respondJSON(w, http.StatusOK, historyResponse{
		Images: out,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	return nil
}

// handleImageGet returns a single image's metadata.
//
//	@Summary	Image details
//	@Tags		images
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Image ID"
//	@Success	200	{object}	imageResponse
//	@Failure	404	{object}	map[string]string
//	@Router		/images/{id} [get]
func (deps *HandlerDeps) handleImageGet(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	img, err := deps.Images.Get(r.Context(), id)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, toImageResponse(img))
	return nil
}

// handleImageDownload streams the original file back to the client.
//
//	@Summary	Download an image file
//	@Tags		images
//	@Produce	octet-stream
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Image ID"
//	@Success	200	{file}	binary
//	@Failure	404	{object}	map[string]string
//	@Router		/images/{id}/download [get]
func (deps *HandlerDeps) handleImageDownload(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	img, err := deps.Images.Get(r.Context(), id)
	if err != nil {
		return err
	}

	if !upload.FileExists(img.FilePath) {
		return services.ErrImageNotFound
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+img.Filename+`"`)
	http.ServeFile(w, r, img.FilePath)
	return nil
}

// handleImageDelete removes the image row and its file.
//
//	@Summary	Delete an image
//	@Tags		images
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Image ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/images/{id} [delete]
func (deps *HandlerDeps) handleImageDelete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := deps.Images.Delete(r.Context(), id); err != nil {
		return err
	}

	respondDetail(w, http.StatusOK, "Image deleted successfully")
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("invalid image id")
	}
	return id, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid " + name + " parameter")
	}
	return v, nil
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid " + name + " parameter")
	}
	return v, nil
}
