package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestGeminiClient_Generate(t *testing.T) {
	var gotReq geminiRequest
	var gotHeader http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"the answer"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{BaseURL: srv.URL}, testLogger(t))

	result, err := client.Generate(context.Background(), "what is up?", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "the answer", result)

	assert.Equal(t, "test-key", gotHeader.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "what is up?", gotReq.Contents[0].Parts[0].Text)
}

func TestGeminiClient_SkipsEmptyParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":""},{"text":"second part"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{BaseURL: srv.URL}, testLogger(t))

	result, err := client.Generate(context.Background(), "p", "k")
	require.NoError(t, err)
	assert.Equal(t, "second part", result)
}

func TestGeminiClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{BaseURL: srv.URL}, testLogger(t))

	_, err := client.Generate(context.Background(), "p", "k")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 429, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "quota exceeded")
}

func TestGeminiClient_ParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"no text parts", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewGeminiClient(GeminiConfig{BaseURL: srv.URL}, testLogger(t))

			_, err := client.Generate(context.Background(), "p", "k")
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, task.ProviderGemini, parseErr.Kind)
		})
	}
}

func TestGeminiClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewGeminiClient(GeminiConfig{BaseURL: srv.URL}, testLogger(t))

	_, err := client.Generate(context.Background(), "p", "k")
	require.Error(t, err)

	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr), "connection failure is not an HTTPError")
}
