package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerr "github.com/lifetales/lifetales/internal/errors"
)

func newTestTranscriber(t *testing.T, handler http.HandlerFunc) *WhisperTranscriber {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewWhisperTranscriber(&Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
}

func TestTranscribeSuccess(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"My mother took me to the hospital."}`))
	})

	text, err := tr.Transcribe(context.Background(), "memory.mp3", strings.NewReader("fake-audio"), 10)
	require.NoError(t, err)
	assert.Equal(t, "My mother took me to the hospital.", text)
}

func TestTranscribeRejectsOversizedPayload(t *testing.T) {
	tr := NewWhisperTranscriber(&Config{APIKey: "test-key"})

	_, err := tr.Transcribe(context.Background(), "memory.mp3", strings.NewReader(""), MaxPayloadBytes+1)
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeTranscribeTooLarge))
}

func TestTranscribeRejectsUnsupportedFormat(t *testing.T) {
	tr := NewWhisperTranscriber(&Config{APIKey: "test-key"})

	_, err := tr.Transcribe(context.Background(), "memory.txt", strings.NewReader("not audio"), 10)
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeTranscribeFormat))
}

func TestTranscribeNoSpeech(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  "}`))
	})

	_, err := tr.Transcribe(context.Background(), "silence.wav", strings.NewReader("fake-audio"), 10)
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeTranscribeNoSpeech))
}

func TestTranscribeProviderFailure(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := tr.Transcribe(context.Background(), "memory.mp3", strings.NewReader("fake-audio"), 10)
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.ErrCodeProviderUnavailable))
}
