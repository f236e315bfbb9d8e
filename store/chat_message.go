package store

// Chat message senders.
const (
	ChatSenderUser = "user"
	ChatSenderAI   = "ai"
)

// ChatMessage is one persisted message in a story's conversation.
// IDs are ULIDs: unique and lexically ordered, so a collision can be
// detected instead of silently dropping a message.
type ChatMessage struct {
	ID           string
	StoryID      int32
	Sender       string
	Content      string
	IsGreeting   bool
	QuickReplies []string
	CreatedTs    int64
}

// FindChatMessage is the filter for chat message queries.
type FindChatMessage struct {
	StoryID *int32
	Limit   *int
}

// DeleteChatMessages removes all messages for a story.
type DeleteChatMessages struct {
	StoryID int32
}
