package store

// ContextRecord is the persisted conversational context for one story.
// Data holds the serialized stored context; Version is the schema version
// stamped at write time so stale records can be upgraded on read.
type ContextRecord struct {
	StoryID   int32
	Data      []byte
	Version   int
	UpdatedTs int64
}

// FindContextRecord identifies a context record to load.
type FindContextRecord struct {
	StoryID int32
}

// DeleteContextRecord identifies a context record to delete.
type DeleteContextRecord struct {
	StoryID int32
}
