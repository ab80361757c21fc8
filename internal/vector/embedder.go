package vector

import (
	"context"

	"github.com/fmarques/imago/internal/llm"
)

// TextEmbedder turns text into a fixed-dimension vector.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Embedder struct {
	llmClient *llm.Client
	model     string
	dimension int
}

func NewEmbedder(llmClient *llm.Client, model string, dimension int) *Embedder {
	return &Embedder{
		llmClient: llmClient,
		model:     model,
		dimension: dimension,
	}
}

func (e *Embedder) Model() string { return e.model }

// Dimension is the vector size this embedder is configured to produce. Every
// stored embedding must match it.
func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.llmClient.Embed(ctx, llm.EmbeddingRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

var ErrNoEmbedding = &EmbeddingError{Message: "no embedding returned"}

type EmbeddingError struct {
	Message string
}

func (e *EmbeddingError) Error() string {
	return e.Message
}
