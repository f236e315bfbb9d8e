package store

// StoryRef is one appearance of a connection in a story.
type StoryRef struct {
	StoryID int32  `json:"storyId"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	PhaseID string `json:"phaseId,omitempty"`
}

// Connection is a person tracked across stories for a given user.
// At most one record exists per (CreatorID, NormalizedName). Connections
// are never auto-deleted; only an explicit user delete removes one.
type Connection struct {
	ID              int32
	UID             string
	CreatorID       int32
	Name            string
	NormalizedName  string
	Relationship    string
	Notes           string
	FirstAppearance StoryRef
	Stories         []StoryRef
	CreatedTs       int64
	UpdatedTs       int64
}

// FindConnection is the filter for connection queries.
type FindConnection struct {
	ID             *int32
	CreatorID      *int32
	NormalizedName *string
}

// UpdateConnection is the patch for connection updates.
type UpdateConnection struct {
	ID           int32
	Relationship *string
	Notes        *string
	UpdatedTs    *int64
}

// DeleteConnection identifies a connection to delete.
type DeleteConnection struct {
	ID int32
}

// LinkConnectionStory records one appearance of a connection in a story.
// The driver applies both sides in a single transaction: the story ref is
// appended to the connection and the connection id is appended to the
// story. Re-linking an already-linked pair is a no-op.
type LinkConnectionStory struct {
	ConnectionID int32
	StoryID      int32
	StoryTitle   string
	StoryYear    int
	UpdatedTs    int64
}
