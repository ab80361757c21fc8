package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fmarques/imago/internal/config"
	"github.com/fmarques/imago/internal/db"
	"github.com/fmarques/imago/internal/llm"
	"github.com/fmarques/imago/internal/middleware"
	"github.com/fmarques/imago/internal/services"
	"github.com/fmarques/imago/internal/token"
	"github.com/fmarques/imago/internal/upload"
	"github.com/fmarques/imago/internal/vector"
	"github.com/fmarques/imago/internal/web"
)

// fakeModelServer speaks just enough of the OpenAI API for the upload and
// search paths: captions every image the same way and embeds text by hashing
// characters into a small fixed vector.
func fakeModelServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llm.CompletionResponse{
			Choices: []llm.Choice{
				{Message: llm.ResponseMessage{Role: llm.RoleAssistant, Content: "a dog running on a beach"}},
			},
		})
	})
	mux.HandleFunc("POST /embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req llm.EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding embedding request: %v", err)
		}
		text, _ := req.Input.(string)

		vec := make([]float64, 4)
		for i, ch := range text {
			vec[i%4] += float64(ch) / 1000
		}
		json.NewEncoder(w).Encode(llm.EmbeddingResponse{
			Data: []llm.Embedding{{Embedding: vec}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.RunMigrations(context.Background(), conn); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	modelServer := fakeModelServer(t)

	llmClient, err := llm.NewClient(llm.WithBaseURL(modelServer.URL))
	if err != nil {
		t.Fatalf("creating model client: %v", err)
	}

	embedder, err := vector.NewCachedEmbedder(
		vector.NewEmbedder(llmClient, "embed-model", 4), "embed-model", 64)
	if err != nil {
		t.Fatalf("creating embedder: %v", err)
	}

	uploadDir := t.TempDir()
	queries := db.New(conn)
	tokens := token.NewManager("integration-secret", time.Minute)

	deps := &web.HandlerDeps{
		Config:  &config.Config{Env: "dev", UploadDir: uploadDir},
		Queries: queries,
		Tokens:  tokens,
		Pinger:  conn,
		Auth:    services.NewAuthService(queries, tokens),
		Images: services.NewImageService(queries, llmClient, embedder, services.ImageServiceConfig{
			CaptionModel:   "vision-model",
			EmbeddingModel: "embed-model",
			EmbeddingDim:   4,
			Upload: upload.Config{
				AllowedExt: []string{"png", "jpg", "jpeg"},
				MaxSize:    1 << 20,
				Directory:  uploadDir,
			},
		}),
	}

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, deps)
	mux.Handle("GET /static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(uploadDir))))

	var handler http.Handler = middleware.Logger(mux)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Recovery(handler)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFullFlow(t *testing.T) {
	server := apiServer(t)
	client := server.Client()

	// Register.
	resp, err := client.Post(server.URL+"/auth/register", "application/json",
		strings.NewReader(`{"username":"carol","password":"hunter22"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	// Login.
	resp, err = client.PostForm(server.URL+"/auth/token", url.Values{
		"username": {"carol"},
		"password": {"hunter22"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	resp.Body.Close()
	if tr.AccessToken == "" {
		t.Fatal("empty access token")
	}

	authed := func(method, target string, body *bytes.Buffer, contentType string) *http.Response {
		t.Helper()
		var reader *bytes.Buffer
		if body == nil {
			reader = &bytes.Buffer{}
		} else {
			reader = body
		}
		req, err := http.NewRequest(method, target, reader)
		if err != nil {
			t.Fatalf("building request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tr.AccessToken)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, target, err)
		}
		return resp
	}

	// Upload.
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="dog.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write(img.Bytes())
	writer.Close()

	resp = authed(http.MethodPost, server.URL+"/images/upload", &body, writer.FormDataContentType())
	var uploaded struct {
		ID      int64  `json:"id"`
		Caption string `json:"caption"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decoding upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	if uploaded.Caption != "a dog running on a beach" {
		t.Errorf("caption = %q", uploaded.Caption)
	}

	// Search with the caption text itself: its embedding matches exactly.
	resp = authed(http.MethodGet,
		server.URL+"/images/search?query="+url.QueryEscape(uploaded.Caption), nil, "")
	var search struct {
		Count   int `json:"count"`
		Results []struct {
			ID         int64   `json:"id"`
			Similarity float64 `json:"similarity"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		t.Fatalf("decoding search: %v", err)
	}
	resp.Body.Close()
	if search.Count != 1 {
		t.Fatalf("search count = %d, want 1", search.Count)
	}
	if search.Results[0].ID != uploaded.ID {
		t.Errorf("search returned ID %d, want %d", search.Results[0].ID, uploaded.ID)
	}
	if search.Results[0].Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", search.Results[0].Similarity)
	}

	// The stored file is served statically.
	resp = authed(http.MethodGet, server.URL+uploaded.URL, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("static file status = %d", resp.StatusCode)
	}

	// Download endpoint streams it with a filename.
	resp = authed(http.MethodGet, server.URL+"/images/"+itoa(uploaded.ID)+"/download", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("download status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// History shows one entry.
	resp = authed(http.MethodGet, server.URL+"/images/history", nil, "")
	var history struct {
		Total int64 `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	resp.Body.Close()
	if history.Total != 1 {
		t.Errorf("history total = %d, want 1", history.Total)
	}

	// Delete and verify it is gone.
	resp = authed(http.MethodDelete, server.URL+"/images/"+itoa(uploaded.ID), nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", resp.StatusCode)
	}

	resp = authed(http.MethodGet, server.URL+"/images/"+itoa(uploaded.ID), nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
