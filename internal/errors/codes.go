// Package errors defines the tagged error type shared by the analysis,
// conversation, and persistence layers. Expected failures travel as
// *CoreError values carrying a stable code so callers can branch on the
// class of failure instead of matching message strings.
package errors

import (
	"fmt"
)

// ErrorCode represents a specific error class for core operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnauthorized indicates a missing or rejected provider credential.
	// Not retryable; requires a configuration fix.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimited indicates the provider rate limit has been exceeded.
	// Retryable after a delay.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeProviderUnavailable indicates a transient provider-side failure.
	// Retryable.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeOffline indicates the network is unreachable.
	ErrCodeOffline ErrorCode = "OFFLINE"
	// ErrCodeStoreUnavailable indicates a backing-store read or write failure.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeLinkFailed indicates a connection/story link update failed before
	// both sides were written.
	ErrCodeLinkFailed ErrorCode = "LINK_FAILED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"

	// Transcription error classes, surfaced distinctly per provider contract.

	// ErrCodeTranscribePermission indicates microphone/recording permission was denied.
	ErrCodeTranscribePermission ErrorCode = "TRANSCRIBE_PERMISSION_DENIED"
	// ErrCodeTranscribeNoDevice indicates no capture device was available.
	ErrCodeTranscribeNoDevice ErrorCode = "TRANSCRIBE_NO_DEVICE"
	// ErrCodeTranscribeFormat indicates the audio payload format is unsupported.
	ErrCodeTranscribeFormat ErrorCode = "TRANSCRIBE_UNSUPPORTED_FORMAT"
	// ErrCodeTranscribeTooLarge indicates the audio payload exceeds the size limit.
	ErrCodeTranscribeTooLarge ErrorCode = "TRANSCRIBE_PAYLOAD_TOO_LARGE"
	// ErrCodeTranscribeNoSpeech indicates no speech was detected in the payload.
	ErrCodeTranscribeNoSpeech ErrorCode = "TRANSCRIBE_NO_SPEECH"
)

// CoreError represents a structured error for core operations.
type CoreError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CoreError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *CoreError) GetCode() ErrorCode {
	return e.Code
}

// Retryable reports whether the failure class is safe to retry with backoff.
func (e *CoreError) Retryable() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeProviderUnavailable, ErrCodeOffline:
		return true
	}
	return false
}

// Convenience constructors for common error classes.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *CoreError {
	return &CoreError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Unauthorized creates a credential error.
func Unauthorized(msg string) *CoreError {
	return &CoreError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimited creates a rate limit error.
func RateLimited(msg string) *CoreError {
	return &CoreError{Code: ErrCodeRateLimited, Message: msg}
}

// ProviderUnavailable creates a transient provider error.
func ProviderUnavailable(msg string, cause error) *CoreError {
	return &CoreError{Code: ErrCodeProviderUnavailable, Message: msg, Cause: cause}
}

// Offline creates a network-unreachable error.
func Offline(cause error) *CoreError {
	return &CoreError{Code: ErrCodeOffline, Message: "network unreachable", Cause: cause}
}

// StoreUnavailable creates a backing-store error.
func StoreUnavailable(msg string, cause error) *CoreError {
	return &CoreError{Code: ErrCodeStoreUnavailable, Message: msg, Cause: cause}
}

// LinkFailed creates a connection link error.
func LinkFailed(msg string, cause error) *CoreError {
	return &CoreError{Code: ErrCodeLinkFailed, Message: msg, Cause: cause}
}

// ContextCanceled creates a canceled error.
func ContextCanceled(cause error) *CoreError {
	return &CoreError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, Cause: cause}
}

// Retryable reports whether any error is a retryable CoreError.
func Retryable(err error) bool {
	if coreErr, ok := err.(*CoreError); ok {
		return coreErr.Retryable()
	}
	return false
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if coreErr, ok := err.(*CoreError); ok {
		return coreErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a CoreError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if coreErr, ok := err.(*CoreError); ok {
		return coreErr.Code
	}
	return defaultCode
}

// userMessages maps error codes to short human-readable messages. Raw
// exception text never reaches the UI layer.
var userMessages = map[ErrorCode]string{
	ErrCodeInvalidArgument:      "That request was missing something. Please try again.",
	ErrCodeUnauthorized:         "The AI service credential is missing or invalid. Check your configuration.",
	ErrCodeRateLimited:          "The AI service is busy right now. Please wait a moment and try again.",
	ErrCodeProviderUnavailable:  "The AI service had a hiccup. Please try again.",
	ErrCodeOffline:              "You appear to be offline. Reconnect and try again.",
	ErrCodeStoreUnavailable:     "We couldn't reach your saved data. Please try again.",
	ErrCodeLinkFailed:           "We couldn't link that person to your story. Please try again.",
	ErrCodeContextCanceled:      "That request was canceled.",
	ErrCodeTranscribePermission: "Microphone access was denied.",
	ErrCodeTranscribeNoDevice:   "No microphone was found.",
	ErrCodeTranscribeFormat:     "That audio format isn't supported.",
	ErrCodeTranscribeTooLarge:   "That recording is too long to transcribe.",
	ErrCodeTranscribeNoSpeech:   "We couldn't hear any speech in that recording.",
}

// UserMessage resolves any error to a short human-readable message.
func UserMessage(err error) string {
	code := GetCodeFromError(err, ErrCodeProviderUnavailable)
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
