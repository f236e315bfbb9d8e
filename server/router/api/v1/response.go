package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	coreerr "github.com/lifetales/lifetales/internal/errors"
)

// errorBody is the error envelope. Message is always the short
// human-readable text; raw error strings never reach the client.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var codeStatus = map[coreerr.ErrorCode]int{
	coreerr.ErrCodeInvalidArgument:      http.StatusBadRequest,
	coreerr.ErrCodeUnauthorized:         http.StatusUnauthorized,
	coreerr.ErrCodeRateLimited:          http.StatusTooManyRequests,
	coreerr.ErrCodeProviderUnavailable:  http.StatusBadGateway,
	coreerr.ErrCodeOffline:              http.StatusBadGateway,
	coreerr.ErrCodeStoreUnavailable:     http.StatusServiceUnavailable,
	coreerr.ErrCodeLinkFailed:           http.StatusConflict,
	coreerr.ErrCodeContextCanceled:      499,
	coreerr.ErrCodeTranscribePermission: http.StatusForbidden,
	coreerr.ErrCodeTranscribeNoDevice:   http.StatusBadRequest,
	coreerr.ErrCodeTranscribeFormat:     http.StatusUnsupportedMediaType,
	coreerr.ErrCodeTranscribeTooLarge:   http.StatusRequestEntityTooLarge,
	coreerr.ErrCodeTranscribeNoSpeech:   http.StatusUnprocessableEntity,
}

// errorResponse renders any error as the envelope with the right status.
func errorResponse(c echo.Context, err error) error {
	code := coreerr.GetCodeFromError(err, coreerr.ErrCodeProviderUnavailable)
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, errorBody{
		Code:    string(code),
		Message: coreerr.UserMessage(err),
	})
}

// invalidArgument is a shortcut for request validation failures.
func invalidArgument(c echo.Context, msg string) error {
	return errorResponse(c, coreerr.InvalidArgument(msg))
}

// parseID parses a numeric path or header id.
func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// pathID extracts the :id path parameter.
func pathID(c echo.Context) (int32, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}
