package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/internal/observability"
)

// Transcribe converts an uploaded audio recording into text.
func (s *APIV1Service) Transcribe(c echo.Context) error {
	ctx := c.Request().Context()
	rc := observability.FromContext(ctx)

	if s.Transcriber == nil {
		return errorResponse(c, coreerr.ProviderUnavailable("transcription not configured", nil))
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return invalidArgument(c, "an audio file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return invalidArgument(c, "could not read the audio file")
	}
	defer file.Close()

	text, err := s.Transcriber.Transcribe(ctx, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		return errorResponse(c, err)
	}

	rc.Info("audio transcribed",
		"filename", fileHeader.Filename,
		"bytes", fileHeader.Size,
		"chars", len(text))
	return c.JSON(http.StatusOK, map[string]string{"text": text})
}
