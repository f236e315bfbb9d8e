package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/store"
)

type connectionPayload struct {
	ID              int32            `json:"id"`
	UID             string           `json:"uid"`
	Name            string           `json:"name"`
	Relationship    string           `json:"relationship,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	FirstAppearance store.StoryRef   `json:"firstAppearance"`
	Stories         []store.StoryRef `json:"stories"`
	CreatedTs       int64            `json:"createdTs"`
	UpdatedTs       int64            `json:"updatedTs"`
}

func toConnectionPayload(conn *store.Connection) connectionPayload {
	p := connectionPayload{
		ID:              conn.ID,
		UID:             conn.UID,
		Name:            conn.Name,
		Relationship:    conn.Relationship,
		Notes:           conn.Notes,
		FirstAppearance: conn.FirstAppearance,
		Stories:         conn.Stories,
		CreatedTs:       conn.CreatedTs,
		UpdatedTs:       conn.UpdatedTs,
	}
	if p.Stories == nil {
		p.Stories = []store.StoryRef{}
	}
	return p
}

// ListConnections lists the user's connections.
func (s *APIV1Service) ListConnections(c echo.Context) error {
	ctx := c.Request().Context()
	creatorID := currentUserID(c)

	connections, err := s.Store.ListConnections(ctx, &store.FindConnection{CreatorID: &creatorID})
	if err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to list connections", err))
	}

	payloads := make([]connectionPayload, 0, len(connections))
	for _, conn := range connections {
		payloads = append(payloads, toConnectionPayload(conn))
	}
	return c.JSON(http.StatusOK, payloads)
}

// DeleteConnection removes a connection. Connections are never deleted
// automatically; this is the explicit user path.
func (s *APIV1Service) DeleteConnection(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c)
	if !ok {
		return invalidArgument(c, "invalid connection id")
	}

	if err := s.Store.DeleteConnection(ctx, &store.DeleteConnection{ID: id}); err != nil {
		return errorResponse(c, coreerr.StoreUnavailable("failed to delete connection", err))
	}
	return c.NoContent(http.StatusNoContent)
}
