package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifetales/lifetales/internal/observability"
)

type analyzeRequest struct {
	Content string `json:"content"`
}

type analyzeResponse struct {
	Result    any      `json:"result"`
	Questions any      `json:"questions"`
	Greeting  string   `json:"greeting"`
	Names     []string `json:"names"`
}

// Analyze runs memory analysis over raw content and returns the result
// with derived follow-up questions, a greeting, and detected names.
func (s *APIV1Service) Analyze(c echo.Context) error {
	ctx := c.Request().Context()
	rc := observability.FromContext(ctx)

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	result := s.Engine.Analyze(req.Content)
	names := s.Detector.Detect(req.Content)

	rc.Debug("content analyzed",
		observability.LogFieldMessageLen, len(req.Content),
		"elements", result.Metadata.TotalElements)

	return c.JSON(http.StatusOK, analyzeResponse{
		Result:    result,
		Questions: s.Engine.GenerateFollowUpQuestions(result),
		Greeting:  s.Engine.GenerateGreeting(req.Content, result),
		Names:     names,
	})
}

type detectRequest struct {
	Content    string   `json:"content"`
	KnownNames []string `json:"knownNames"`
}

type detectResponse struct {
	Names []string `json:"names"`
}

// Detect returns probable person names found in the content, excluding
// any already-known names.
func (s *APIV1Service) Detect(c echo.Context) error {
	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	names := s.Detector.Detect(req.Content, req.KnownNames...)
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, detectResponse{Names: names})
}
