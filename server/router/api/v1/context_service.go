package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifetales/lifetales/plugin/ai/contextstore"
)

type saveContextRequest struct {
	Context contextstore.ConversationContext `json:"context"`
}

// SaveContext persists the conversational context for a story. The
// analysis snapshot is recomputed from the message history.
func (s *APIV1Service) SaveContext(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	var req saveContextRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	if err := s.Contexts.Save(ctx, id, req.Context, nil); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LoadContext returns the stored context for a story, or 404 when no
// context has been saved yet.
func (s *APIV1Service) LoadContext(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	sc, err := s.Contexts.Load(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if sc == nil {
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "No context saved for this story yet."})
	}
	return c.JSON(http.StatusOK, sc)
}
