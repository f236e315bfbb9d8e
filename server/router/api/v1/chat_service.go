package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lifetales/lifetales/plugin/ai/assistant"
)

// InitializeSession starts or refreshes the chat session for a story and
// returns the greeting. Re-initializing with materially unchanged
// content returns the existing message list untouched.
func (s *APIV1Service) InitializeSession(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	story, err := s.findStory(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if story == nil {
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Story not found."})
	}

	greeting, initialized := s.Sessions.Initialize(ctx, story)
	return c.JSON(http.StatusOK, map[string]any{
		"initialized": initialized,
		"greeting":    greeting,
		"messages":    s.Sessions.Messages(id),
	})
}

// ListMessages returns the story's current message list.
func (s *APIV1Service) ListMessages(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}
	return c.JSON(http.StatusOK, s.Sessions.Messages(id))
}

type sendMessageRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// SendMessage accepts an externally produced message into the session.
// Malformed messages are dropped, reported as accepted=false.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	msg := assistant.NewMessage(id, req.Sender, req.Content)
	if req.ID != "" {
		msg.ID = req.ID
	}
	accepted := s.Sessions.SendMessage(ctx, msg)
	return c.JSON(http.StatusOK, map[string]any{"accepted": accepted})
}

// ClearMessages drops the story's message list and transcript.
func (s *APIV1Service) ClearMessages(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}
	if err := s.Sessions.ClearMessages(ctx, id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type chatRequest struct {
	Content string `json:"content"`
}

// Chat sends the user's message to the assistant and returns the reply.
func (s *APIV1Service) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	story, err := s.findStory(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if story == nil {
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Story not found."})
	}

	reply, err := s.Assistant.Send(ctx, story, req.Content)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// ReviseStory asks the assistant for a revised story body built from the
// recent conversation. The revision is returned for review; the story is
// not modified here.
func (s *APIV1Service) ReviseStory(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	story, err := s.findStory(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if story == nil {
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Story not found."})
	}

	revised, err := s.Assistant.UpdateStory(ctx, story)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"content": revised})
}
