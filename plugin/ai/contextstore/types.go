// Package contextstore persists and caches the per-story conversational
// context: what the conversation has established about a story, pointers
// into the message history, and the latest analysis snapshot.
package contextstore

import (
	"github.com/lifetales/lifetales/plugin/ai/analysis"
)

// CurrentSchemaVersion is stamped on every stored context at write time.
// Records with an older version are upgraded on read.
const CurrentSchemaVersion = 2

// StoryDetails captures what the conversation has confirmed about the
// story so far.
type StoryDetails struct {
	MainTopic string   `json:"mainTopic,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
	Locations []string `json:"locations"`
	People    []string `json:"people"`
	Emotions  []string `json:"emotions"`
}

// UserPreferences captures how the user likes the assistant to respond.
type UserPreferences struct {
	DetailLevel string `json:"detailLevel"`
	Tone        string `json:"tone"`
}

// MessageHistory holds pointers into the chat transcript, not the
// transcript itself.
type MessageHistory struct {
	LastUserMessage string   `json:"lastUserMessage,omitempty"`
	LastAiResponse  string   `json:"lastAiResponse,omitempty"`
	TopicStack      []string `json:"topicStack"`
}

// ConversationContext is the per-story conversational state.
type ConversationContext struct {
	RecentTopics        []string        `json:"recentTopics"`
	CurrentStoryDetails StoryDetails    `json:"currentStoryDetails"`
	UserPreferences     UserPreferences `json:"userPreferences"`
	MessageHistory      MessageHistory  `json:"messageHistory"`
}

// StoredContext wraps ConversationContext with the analysis snapshot and
// versioning metadata persisted alongside it.
type StoredContext struct {
	Context   ConversationContext `json:"context"`
	Analysis  *analysis.Result    `json:"analysis,omitempty"`
	UpdatedAt int64               `json:"updatedAt"`
	Version   int                 `json:"version"`
}

// Sanitize fills every optional collection with an empty value so
// consumers never need nil checks on nested fields.
func (c *ConversationContext) Sanitize() {
	if c.RecentTopics == nil {
		c.RecentTopics = []string{}
	}
	if c.CurrentStoryDetails.Locations == nil {
		c.CurrentStoryDetails.Locations = []string{}
	}
	if c.CurrentStoryDetails.People == nil {
		c.CurrentStoryDetails.People = []string{}
	}
	if c.CurrentStoryDetails.Emotions == nil {
		c.CurrentStoryDetails.Emotions = []string{}
	}
	if c.MessageHistory.TopicStack == nil {
		c.MessageHistory.TopicStack = []string{}
	}
	if c.UserPreferences.DetailLevel == "" {
		c.UserPreferences.DetailLevel = "balanced"
	}
	if c.UserPreferences.Tone == "" {
		c.UserPreferences.Tone = "warm"
	}
}
