package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerr "github.com/lifetales/lifetales/internal/errors"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"
	cfg.MaxRetries = 1
	cfg.Timeout = 5 * time.Second
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RequestsPerMinute = 0
	return NewOpenAIProvider(cfg), server
}

func completionResponse(content string) []byte {
	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return data
}

func TestCompleteSuccess(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionResponse("Hello there!"))
	})

	result, err := provider.Complete(context.Background(), []Message{
		SystemMessage("You are a helpful assistant."),
		UserMessage("Hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", result)
}

func TestCompleteRateLimited(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error"}}`))
	})

	_, err := provider.Complete(context.Background(), []Message{UserMessage("Hi")})
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeRateLimited))
	assert.True(t, coreerr.Retryable(err))
}

func TestCompleteUnauthorized(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
	})

	_, err := provider.Complete(context.Background(), []Message{UserMessage("Hi")})
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeUnauthorized))
	assert.False(t, coreerr.Retryable(err))
}

func TestCompleteServerErrorIsProviderUnavailable(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := provider.Complete(context.Background(), []Message{UserMessage("Hi")})
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeProviderUnavailable))
}

func TestCompleteRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionResponse("recovered"))
	})
	provider.config.MaxRetries = 2

	result, err := provider.Complete(context.Background(), []Message{UserMessage("Hi")})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteDoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
	})
	provider.config.MaxRetries = 3

	_, err := provider.Complete(context.Background(), []Message{UserMessage("Hi")})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassifyUnknownErrorFallsBackToProviderUnavailable(t *testing.T) {
	err := classify(errors.New("connection reset by peer"))
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeProviderUnavailable))
	assert.True(t, coreerr.Retryable(err))
}
