package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreUnavailable("failed to load context", cause)

	assert.Contains(t, err.Error(), "STORE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestRetryable(t *testing.T) {
	assert.True(t, RateLimited("slow down").Retryable())
	assert.True(t, ProviderUnavailable("upstream 503", nil).Retryable())
	assert.True(t, Offline(nil).Retryable())
	assert.False(t, Unauthorized("bad key").Retryable())
	assert.False(t, InvalidArgument("empty content").Retryable())
}

func TestIsCode(t *testing.T) {
	err := RateLimited("slow down")
	assert.True(t, IsCode(err, ErrCodeRateLimited))
	assert.False(t, IsCode(err, ErrCodeOffline))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeRateLimited))
}

func TestUserMessageNeverRaw(t *testing.T) {
	raw := errors.New("pq: SSLv3 alert handshake failure at 10.0.0.3:5432")
	msg := UserMessage(StoreUnavailable("load failed", raw))
	assert.NotContains(t, msg, "pq:")
	assert.NotContains(t, msg, "10.0.0.3")

	// Unknown errors fall back to the generic transient message.
	assert.NotEmpty(t, UserMessage(raw))
}
