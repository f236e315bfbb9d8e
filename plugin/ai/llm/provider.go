// Package llm wraps the chat completion provider used by the
// conversational assistant. Provider failures are classified into the
// shared error codes so callers can decide whether to retry or degrade.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	coreerr "github.com/lifetales/lifetales/internal/errors"
)

// Message is a single turn of a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Chat message roles.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CompletionService produces assistant replies from a chat transcript.
type CompletionService interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config holds the provider configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
	Timeout     time.Duration
	// RetryBaseDelay is the first backoff interval; each retry doubles it.
	RetryBaseDelay time.Duration
	// RequestsPerMinute caps outbound request rate. 0 disables the limiter.
	RequestsPerMinute int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.openai.com/v1",
		Model:             "gpt-4o-mini",
		MaxTokens:         1024,
		Temperature:       0.7,
		MaxRetries:        3,
		Timeout:           30 * time.Second,
		RetryBaseDelay:    time.Second,
		RequestsPerMinute: 60,
	}
}

// OpenAIProvider implements CompletionService against an OpenAI-compatible API.
type OpenAIProvider struct {
	client  *openai.Client
	config  *Config
	limiter *rate.Limiter
}

// NewOpenAIProvider creates a new provider.
func NewOpenAIProvider(cfg *Config) *OpenAIProvider {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: limiter,
	}
}

// Complete performs a chat completion with retry on transient failures.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", coreerr.ContextCanceled(err)
		}
	}

	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    llmMessages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
	}

	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		resp, err := p.client.CreateChatCompletion(reqCtx, req)
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", coreerr.ProviderUnavailable("empty chat response", nil)
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = classify(err)
		if !coreerr.Retryable(lastErr) || attempt == p.config.MaxRetries-1 {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * p.config.RetryBaseDelay
		slog.Debug("chat completion failed, retrying",
			"attempt", attempt+1,
			"wait_time", waitTime,
			"error", err)
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return "", coreerr.ContextCanceled(ctx.Err())
		}
	}
	return "", lastErr
}

// classify maps provider errors onto the shared error codes.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return coreerr.ContextCanceled(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return coreerr.Wrap(err, coreerr.ErrCodeUnauthorized, "provider rejected credential")
		case apiErr.HTTPStatusCode == 429:
			return coreerr.Wrap(err, coreerr.ErrCodeRateLimited, "provider rate limit exceeded")
		default:
			return coreerr.ProviderUnavailable("provider request failed", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return coreerr.Offline(err)
	}

	return coreerr.ProviderUnavailable("provider request failed", err)
}

var _ CompletionService = (*OpenAIProvider)(nil)
