package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultCaptionPrompt = "Describe this image in one short sentence."

type CaptionRequest struct {
	Model     string
	ImageData []byte
	MIMEType  string
	Prompt    string
	MaxTokens int
}

// Caption sends the image to a vision chat model and returns the generated
// description. The image travels inline as a base64 data URL.
func (c *Client) Caption(ctx context.Context, req CaptionRequest) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if req.Model == "" {
		return "", &APIError{Message: "model is required"}
	}
	if len(req.ImageData) == 0 {
		return "", &APIError{Message: "image data is required"}
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultCaptionPrompt
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 60
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.MIMEType, base64.StdEncoding.EncodeToString(req.ImageData))

	body := CompletionRequest{
		Model: req.Model,
		Messages: []Message{
			{
				Role:    RoleUser,
				Content: []ContentPart{TextPart(prompt), ImagePart(dataURL)},
			},
		},
		MaxTokens: maxTokens,
	}

	resp, err := c.doRequestWithRetry(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("failed to read error response: %w", readErr)
		}
		return "", parseAPIError(resp.StatusCode, respBody)
	}

	var completion CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", &APIError{Message: "no completion choices returned"}
	}

	caption := strings.TrimSpace(completion.Choices[0].Message.Content)
	if caption == "" {
		return "", &APIError{Message: "empty caption returned"}
	}
	return caption, nil
}
