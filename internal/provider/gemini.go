package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
)

const (
	// GeminiBaseURL is the base URL for the Gemini API.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// GeminiDefaultModel is used when no model is configured.
	GeminiDefaultModel = "gemini-2.0-flash"
	// GeminiRequestTimeout is the default timeout for API requests.
	GeminiRequestTimeout = 60 * time.Second
)

// GeminiConfig contains configuration for the Gemini client.
type GeminiConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GeminiClient implements the Client interface for the Gemini generateContent API.
type GeminiClient struct {
	client *http.Client
	apiURL string
	logger *logger.Logger
}

// geminiRequest is the request body for generateContent.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a Gemini client from configuration.
func NewGeminiClient(cfg GeminiConfig, log *logger.Logger) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = GeminiDefaultModel
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = GeminiRequestTimeout
	}

	return &GeminiClient{
		client: &http.Client{
			Timeout: timeout,
		},
		apiURL: fmt.Sprintf("%s/models/%s:generateContent", cfg.BaseURL, cfg.Model),
		logger: log,
	}
}

// Kind returns task.ProviderGemini.
func (c *GeminiClient) Kind() task.ProviderKind {
	return task.ProviderGemini
}

// Generate submits the prompt as a single content part and returns the first
// non-empty text part of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.ErrorCtx(ctx, "gemini request failed", err)
		return "", err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.ErrorCtx(ctx, "gemini returned error status", nil,
			logger.Field{Key: "status_code", Value: httpResp.StatusCode},
			logger.Field{Key: "response_body", Value: string(respBody)})
		return "", &HTTPError{
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &ParseError{Kind: task.ProviderGemini, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(resp.Candidates) == 0 {
		return "", &ParseError{Kind: task.ProviderGemini, Reason: "no candidates in response"}
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", &ParseError{Kind: task.ProviderGemini, Reason: "no text part in first candidate"}
}
