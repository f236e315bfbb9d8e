package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lifetales/lifetales/plugin/ai/connection"
	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

type storyPayload struct {
	ID            int32    `json:"id"`
	UID           string   `json:"uid"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Year          int      `json:"year,omitempty"`
	PhaseID       string   `json:"phaseId,omitempty"`
	Tags          []string `json:"tags"`
	ConnectionIDs []int32  `json:"connectionIds"`
	CreatedTs     int64    `json:"createdTs"`
	UpdatedTs     int64    `json:"updatedTs"`
}

func toStoryPayload(story *store.Story) storyPayload {
	p := storyPayload{
		ID:            story.ID,
		UID:           story.UID,
		Title:         story.Title,
		Content:       story.Content,
		Year:          story.Year,
		PhaseID:       story.PhaseID,
		Tags:          story.Tags,
		ConnectionIDs: story.ConnectionIDs,
		CreatedTs:     story.CreatedTs,
		UpdatedTs:     story.UpdatedTs,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ConnectionIDs == nil {
		p.ConnectionIDs = []int32{}
	}
	return p
}

type createStoryRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Year    int      `json:"year"`
	PhaseID string   `json:"phaseId"`
	Tags    []string `json:"tags"`
}

// CreateStory creates a story and links any people detected in its
// content.
func (s *APIV1Service) CreateStory(c echo.Context) error {
	ctx := c.Request().Context()
	rc := observability.FromContext(ctx)

	var req createStoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}
	if req.Title == "" && req.Content == "" {
		return invalidArgument(c, "a title or content is required")
	}

	now := time.Now().Unix()
	story, err := s.Store.CreateStory(ctx, &store.Story{
		UID:       shortuuid.New(),
		CreatorID: currentUserID(c),
		Title:     req.Title,
		Content:   req.Content,
		Year:      req.Year,
		PhaseID:   req.PhaseID,
		Tags:      req.Tags,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to create story", err))
	}

	s.linkDetectedConnections(c, story)
	rc.Info("story created", "story_id", story.ID)
	return c.JSON(http.StatusOK, toStoryPayload(story))
}

// ListStories lists the user's stories, newest first.
func (s *APIV1Service) ListStories(c echo.Context) error {
	ctx := c.Request().Context()
	creatorID := currentUserID(c)

	find := &store.FindStory{
		CreatorID:        &creatorID,
		OrderByUpdatedTs: true,
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := parseID(raw); err == nil && limit > 0 {
			n := int(limit)
			find.Limit = &n
		}
	}

	stories, err := s.Store.ListStories(ctx, find)
	if err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to list stories", err))
	}

	payloads := make([]storyPayload, 0, len(stories))
	for _, story := range stories {
		payloads = append(payloads, toStoryPayload(story))
	}
	return c.JSON(http.StatusOK, payloads)
}

// GetStory returns one story by id.
func (s *APIV1Service) GetStory(c echo.Context) error {
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
	return c.JSON(http.StatusOK, toStoryPayload(story))
}

type updateStoryRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Year    *int      `json:"year"`
	PhaseID *string   `json:"phaseId"`
	Tags    *[]string `json:"tags"`
}

// UpdateStory patches a story. Content changes feed the debounced
// re-analysis and re-run connection detection.
func (s *APIV1Service) UpdateStory(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	var req updateStoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, "malformed request body")
	}

	now := time.Now().Unix()
	if err := s.Store.UpdateStory(ctx, &store.UpdateStory{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		Year:      req.Year,
		PhaseID:   req.PhaseID,
		Tags:      req.Tags,
		UpdatedTs: &now,
	}); err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to update story", err))
	}

	story, err := s.findStory(ctx, id)
	if err != nil {
		return errorResponse(c, err)
	}
	if story == nil {
		return c.JSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Story not found."})
	}

	if req.Content != nil {
		s.Sessions.NoteContentChange(ctx, id, *req.Content)
		s.linkDetectedConnections(c, story)
	}
	return c.JSON(http.StatusOK, toStoryPayload(story))
}

// DeleteStory removes a story, its context, and its transcript.
func (s *APIV1Service) DeleteStory(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid story id")
	}

	if err := s.Store.DeleteStory(ctx, &store.DeleteStory{ID: id}); err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to delete story", err))
	}
	if err := s.Contexts.Delete(ctx, id); err != nil {
		observability.FromContext(ctx).Warn("failed to delete story context", "story_id", id, "error", err)
	}
	if err := s.Assistant.ClearSession(ctx, id); err != nil {
		observability.FromContext(ctx).Warn("failed to clear story transcript", "story_id", id, "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) findStory(ctx context.Context, id int32) (*store.Story, error) {
	stories, err := s.Store.ListStories(ctx, &store.FindStory{ID: &id})
	if err != nil {
		return nil, coreerr.StoreUnavailable("failed to load story", err)
	}
	if len(stories) == 0 {
		return nil, nil
	}
	return stories[0], nil
}

// linkDetectedConnections runs connection detection over the story body
// and links every detected person. Detection failures never fail the
// story write; they only log.
func (s *APIV1Service) linkDetectedConnections(c echo.Context, story *store.Story) {
	ctx := c.Request().Context()
	rc := observability.FromContext(ctx)

	matches := s.Detector.DetectMatches(story.Content)
	if len(matches) == 0 {
		return
	}
	if _, err := s.Linker.LinkAll(ctx, story.CreatorID, connection.StoryInfo{
		ID:      story.ID,
		Title:   story.Title,
		Year:    story.Year,
		PhaseID: story.PhaseID,
	}, matches); err != nil {
		rc.Warn("failed to link detected connections", "story_id", story.ID, "error", err)
	}
}
