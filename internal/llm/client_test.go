package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithMaxRetries(2),
		WithRetryWaitRange(time.Millisecond, 5*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestCaption(t *testing.T) {
	var gotReq CompletionRequest

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		json.NewEncoder(w).Encode(CompletionResponse{
			Choices: []Choice{
				{Message: ResponseMessage{Role: RoleAssistant, Content: "  a cat sleeping on a sofa  "}},
			},
		})
	})

	caption, err := client.Caption(context.Background(), CaptionRequest{
		Model:     "vision-model",
		ImageData: []byte{0xFF, 0xD8},
		MIMEType:  "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Caption() error = %v", err)
	}
	if caption != "a cat sleeping on a sofa" {
		t.Errorf("caption = %q", caption)
	}

	if gotReq.Model != "vision-model" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("expected one message with text and image parts, got %+v", gotReq.Messages)
	}
	imagePart := gotReq.Messages[0].Content[1]
	if imagePart.ImageURL == nil || !strings.HasPrefix(imagePart.ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("image part = %+v", imagePart)
	}
}

func TestCaptionValidation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached")
	})

	if _, err := client.Caption(context.Background(), CaptionRequest{ImageData: []byte{1}}); err == nil {
		t.Error("expected error for missing model")
	}
	if _, err := client.Caption(context.Background(), CaptionRequest{Model: "m"}); err == nil {
		t.Error("expected error for missing image data")
	}
}

func TestCaptionNoChoices(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CompletionResponse{})
	})

	_, err := client.Caption(context.Background(), CaptionRequest{
		Model:     "m",
		ImageData: []byte{1},
		MIMEType:  "image/png",
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestEmbed(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []Embedding{{Embedding: []float64{0.1, 0.2, 0.3}}},
		})
	})

	resp, err := client.Embed(context.Background(), EmbeddingRequest{
		Model: "embed-model",
		Input: "a cat",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(resp.Data) != 1 || len(resp.Data[0].Embedding) != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestEmbedAuthError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(APIErrorResponse{
			Error: APIError{Message: "bad key", Type: "invalid_api_key"},
		})
	})

	_, err := client.Embed(context.Background(), EmbeddingRequest{Model: "m", Input: "x"})
	if !IsAuthError(err) {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []Embedding{{Embedding: []float64{1}}},
		})
	})

	resp, err := client.Embed(context.Background(), EmbeddingRequest{Model: "m", Input: "x"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Embed(context.Background(), EmbeddingRequest{Model: "m", Input: "x"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// maxRetries 2 means one initial attempt plus two retries.
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}
