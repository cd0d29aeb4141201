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

// chatRequestTimeout is the default timeout for chat-completion requests.
const chatRequestTimeout = 60 * time.Second

// ChatConfig contains configuration for an OpenAI-style chat client.
type ChatConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// chatClient implements the Client interface for OpenAI-style
// chat-completion APIs. Deepseek and Grok share this wire format and differ
// only in endpoint and default model.
type chatClient struct {
	kind   task.ProviderKind
	client *http.Client
	apiURL string
	model  string
	logger *logger.Logger
}

// chatRequest is the non-streaming chat-completion request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat-completion response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newChatClient(kind task.ProviderKind, cfg ChatConfig, log *logger.Logger) *chatClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = chatRequestTimeout
	}

	return &chatClient{
		kind: kind,
		client: &http.Client{
			Timeout: timeout,
		},
		apiURL: cfg.BaseURL,
		model:  cfg.Model,
		logger: log,
	}
}

// Kind returns the provider this client talks to.
func (c *chatClient) Kind() task.ProviderKind {
	return c.kind
}

// Generate submits the prompt as a single user message with streaming
// disabled and returns the content of the first choice.
func (c *chatClient) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Stream: false,
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
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.ErrorCtx(ctx, "chat request failed", err,
			logger.Field{Key: "provider", Value: c.kind})
		return "", err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.ErrorCtx(ctx, "provider returned error status", nil,
			logger.Field{Key: "provider", Value: c.kind},
			logger.Field{Key: "status_code", Value: httpResp.StatusCode},
			logger.Field{Key: "response_body", Value: string(respBody)})
		return "", &HTTPError{
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &ParseError{Kind: c.kind, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &ParseError{Kind: c.kind, Reason: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}
