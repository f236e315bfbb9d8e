// Package transcribe converts recorded audio into memoir text via the
// provider's speech-to-text endpoint.
package transcribe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	coreerr "github.com/lifetales/lifetales/internal/errors"
)

// MaxPayloadBytes is the largest audio payload accepted for transcription.
// The provider rejects larger uploads anyway; checking locally saves the
// round trip.
const MaxPayloadBytes = 25 * 1024 * 1024

// supportedExtensions are the audio container formats the provider accepts.
var supportedExtensions = map[string]bool{
	".flac": true,
	".m4a":  true,
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".oga":  true,
	".ogg":  true,
	".wav":  true,
	".webm": true,
}

// Transcriber converts an audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader, size int64) (string, error)
}

// Config holds the transcription configuration.
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// WhisperTranscriber implements Transcriber against an OpenAI-compatible
// audio transcription endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	config *Config
}

// NewWhisperTranscriber creates a new transcriber.
func NewWhisperTranscriber(cfg *Config) *WhisperTranscriber {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Transcribe sends the audio payload for transcription and returns the text.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader, size int64) (string, error) {
	if size > MaxPayloadBytes {
		return "", coreerr.Wrap(nil, coreerr.ErrCodeTranscribeTooLarge, "audio payload exceeds size limit")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return "", coreerr.Wrap(nil, coreerr.ErrCodeTranscribeFormat, "unsupported audio format "+ext)
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := t.client.CreateTranscription(reqCtx, openai.AudioRequest{
		Model:    t.config.Model,
		FilePath: filename,
		Reader:   audio,
		Language: t.config.Language,
	})
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", coreerr.Wrap(nil, coreerr.ErrCodeTranscribeNoSpeech, "no speech detected")
	}

	slog.Debug("transcription completed",
		"filename", filename,
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(text))
	return text, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return coreerr.ContextCanceled(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return coreerr.Wrap(err, coreerr.ErrCodeUnauthorized, "provider rejected credential")
		case apiErr.HTTPStatusCode == 413:
			return coreerr.Wrap(err, coreerr.ErrCodeTranscribeTooLarge, "audio payload rejected as too large")
		case apiErr.HTTPStatusCode == 415 || apiErr.HTTPStatusCode == 400:
			return coreerr.Wrap(err, coreerr.ErrCodeTranscribeFormat, "audio payload rejected")
		case apiErr.HTTPStatusCode == 429:
			return coreerr.Wrap(err, coreerr.ErrCodeRateLimited, "provider rate limit exceeded")
		default:
			return coreerr.ProviderUnavailable("transcription request failed", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return coreerr.Offline(err)
	}

	return coreerr.ProviderUnavailable("transcription request failed", err)
}

var _ Transcriber = (*WhisperTranscriber)(nil)
