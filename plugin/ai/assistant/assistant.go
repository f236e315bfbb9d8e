// Package assistant runs the per-story conversation: it keeps a sliding
// window of recent turns, composes provider prompts from the story and
// its conversational context, and persists the transcript.
package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/contextstore"
	"github.com/lifetales/lifetales/plugin/ai/llm"
	coreerr "github.com/lifetales/lifetales/internal/errors"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

// updateStoryWindow is the number of trailing messages fed to the
// update-story mode. The full history is deliberately not used.
const updateStoryWindow = 5

// maxQuickReplies caps the suggestions attached to an assistant message.
const maxQuickReplies = 2

// Transcript is the subset of the store the assistant persists through.
type Transcript interface {
	CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error)
	DeleteChatMessages(ctx context.Context, delete *store.DeleteChatMessages) error
}

// Service is the conversational assistant. Sends for the same story are
// serialized with a per-story mutex so messages append in call order.
type Service struct {
	provider   llm.CompletionService
	contexts   *contextstore.Service
	engine     *analysis.Engine
	memory     *SessionMemory
	transcript Transcript

	mu    sync.Mutex
	locks map[int32]*sync.Mutex
}

// NewService creates a new assistant.
func NewService(provider llm.CompletionService, contexts *contextstore.Service, engine *analysis.Engine, transcript Transcript) *Service {
	s := &Service{
		provider:   provider,
		contexts:   contexts,
		engine:     engine,
		memory:     NewSessionMemory(20),
		transcript: transcript,
	}
	s.memory.OnEvict(s.releaseStoryLock)
	return s
}

// Close releases session memory resources.
func (s *Service) Close() {
	s.memory.Close()
}

// storyLock returns the mutex serializing sends for one story.
func (s *Service) storyLock(storyID int32) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[int32]*sync.Mutex)
	}
	lock, ok := s.locks[storyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[storyID] = lock
	}
	return lock
}

// releaseStoryLock drops a story's send mutex once its session has been
// swept. A story idle long enough to be evicted has no send in flight.
func (s *Service) releaseStoryLock(storyID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, storyID)
}

// Greet starts a session with the fixed persona greeting. No provider
// call is made; quick replies come from the analysis follow-up questions.
// The session window is reset to just the greeting.
func (s *Service) Greet(ctx context.Context, storyID int32, result *analysis.Result) Message {
	msg := NewMessage(storyID, store.ChatSenderAI, greetingMessage)
	msg.IsGreeting = true
	msg.QuickReplies = s.quickReplies(result)

	s.memory.Reset(storyID, []Message{msg})
	s.persist(ctx, msg)
	return msg
}

// Send appends the user's message, asks the provider for a reply, and
// appends the assistant message. On provider failure the user message
// stays in the window and no partial assistant message is appended.
func (s *Service) Send(ctx context.Context, story *store.Story, userText string) (*Message, error) {
	rc := observability.FromContext(ctx)

	if strings.TrimSpace(userText) == "" {
		return nil, coreerr.InvalidArgument("message content is required")
	}
	if story == nil {
		return nil, coreerr.InvalidArgument("story is required")
	}
	if s.provider == nil {
		return nil, coreerr.ProviderUnavailable("AI provider not configured", nil)
	}

	lock := s.storyLock(story.ID)
	lock.Lock()
	defer lock.Unlock()

	userMsg := NewMessage(story.ID, store.ChatSenderUser, userText)
	s.memory.Append(userMsg)
	s.persist(ctx, userMsg)

	sc, err := s.contexts.Load(ctx, story.ID)
	if err != nil {
		rc.Warn("context load failed, sending without context", "story_id", story.ID, "error", err)
	}

	recent := s.memory.Recent(story.ID, 0)
	// Drop the user message we just appended; it closes the prompt.
	if len(recent) > 0 {
		recent = recent[:len(recent)-1]
	}

	reply, err := s.provider.Complete(ctx, buildSendMessages(story, sc, recent, userText))
	if err != nil {
		rc.Warn("completion failed",
			"story_id", story.ID,
			observability.LogFieldErrorCode, coreerr.GetCodeFromError(err, coreerr.ErrCodeProviderUnavailable),
			"error", err)
		return nil, err
	}

	aiMsg := NewMessage(story.ID, store.ChatSenderAI, reply)
	if sc != nil {
		aiMsg.QuickReplies = s.quickReplies(sc.Analysis)
	}
	s.memory.Append(aiMsg)
	s.persist(ctx, aiMsg)

	rc.Debug("assistant replied",
		"story_id", story.ID,
		observability.LogFieldMessageLen, len(reply))
	return &aiMsg, nil
}

// UpdateStory asks the provider for a revised story body using only the
// trailing conversation window. The revision is returned for the user to
// accept or reject; nothing is written to the story here.
func (s *Service) UpdateStory(ctx context.Context, story *store.Story) (string, error) {
	if story == nil {
		return "", coreerr.InvalidArgument("story is required")
	}
	if s.provider == nil {
		return "", coreerr.ProviderUnavailable("AI provider not configured", nil)
	}

	recent := s.memory.Recent(story.ID, updateStoryWindow)
	if len(recent) == 0 {
		return "", coreerr.InvalidArgument("no conversation to update the story from")
	}

	revised, err := s.provider.Complete(ctx, buildRevisionMessages(story.Content, recent))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(revised), nil
}

// Append records an externally produced message in the session window
// and transcript without invoking the provider.
func (s *Service) Append(ctx context.Context, msg Message) {
	s.memory.Append(msg)
	s.persist(ctx, msg)
}

// Recent returns the story's current session window.
func (s *Service) Recent(storyID int32, limit int) []Message {
	return s.memory.Recent(storyID, limit)
}

// ClearSession drops the story's session window and persisted transcript.
func (s *Service) ClearSession(ctx context.Context, storyID int32) error {
	s.memory.Clear(storyID)
	if err := s.transcript.DeleteChatMessages(ctx, &store.DeleteChatMessages{StoryID: storyID}); err != nil {
		return coreerr.StoreUnavailable("failed to clear transcript", err)
	}
	return nil
}

// quickReplies derives suggestion chips from the follow-up questions.
func (s *Service) quickReplies(result *analysis.Result) []string {
	if result == nil {
		return nil
	}
	questions := s.engine.GenerateFollowUpQuestions(result)
	replies := make([]string, 0, maxQuickReplies)
	for _, q := range questions {
		if len(replies) == maxQuickReplies {
			break
		}
		replies = append(replies, q.Text)
	}
	if len(replies) == 0 {
		return nil
	}
	return replies
}

// persist writes a message to the transcript, best effort. Session flow
// never fails on transcript writes.
func (s *Service) persist(ctx context.Context, msg Message) {
	if s.transcript == nil {
		return
	}
	if _, err := s.transcript.CreateChatMessage(ctx, msg.ToChatMessage()); err != nil {
		observability.FromContext(ctx).Warn("failed to persist chat message",
			"story_id", msg.StoryID, "message_id", msg.ID, "error", err)
	}
}
