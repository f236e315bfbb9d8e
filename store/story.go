package store

// Story is one memoir entry tied to a year of the author's life.
type Story struct {
	ID            int32
	UID           string
	CreatorID     int32
	Title         string
	Content       string
	Year          int
	PhaseID       string
	Tags          []string
	ConnectionIDs []int32
	CreatedTs     int64
	UpdatedTs     int64
}

// FindStory is the filter for story queries.
type FindStory struct {
	ID        *int32
	UID       *string
	CreatorID *int32

	// OrderByUpdatedTs requests newest-first ordering. The facade falls
	// back to an unordered fetch plus in-process sort when the driver
	// cannot satisfy the ordering (missing composite index).
	OrderByUpdatedTs bool
	Limit            *int
}

// UpdateStory is the patch for story updates. Nil fields are left untouched.
type UpdateStory struct {
	ID        int32
	Title     *string
	Content   *string
	Year      *int
	PhaseID   *string
	Tags      *[]string
	UpdatedTs *int64
}

// DeleteStory identifies a story to delete.
type DeleteStory struct {
	ID int32
}
