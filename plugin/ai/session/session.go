// Package session coordinates the chat lifecycle for a story: analyzing
// content on entry, greeting the user, accepting messages, and
// re-analyzing content after edits settle.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/assistant"
	"github.com/lifetales/lifetales/plugin/ai/contextstore"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

const (
	// initSkipThreshold: re-initializing with a content-length delta below
	// this is treated as unchanged, avoiding re-analysis thrash.
	initSkipThreshold = 100

	// minAnalyzeLength: content shorter than this is not re-analyzed on edit.
	minAnalyzeLength = 20

	// defaultDebounceDelay is the quiet period before an edit triggers
	// re-analysis.
	defaultDebounceDelay = 2 * time.Second
)

// Manager holds per-story chat session state.
type Manager struct {
	engine    *analysis.Engine
	assistant *assistant.Service
	contexts  *contextstore.Service

	debounceDelay time.Duration

	mu       sync.Mutex
	sessions map[int32]*state
}

type state struct {
	snapshot  string
	result    *analysis.Result
	debouncer *Debouncer
}

// NewManager creates a session manager.
func NewManager(engine *analysis.Engine, assistantSvc *assistant.Service, contexts *contextstore.Service) *Manager {
	return &Manager{
		engine:        engine,
		assistant:     assistantSvc,
		contexts:      contexts,
		debounceDelay: defaultDebounceDelay,
		sessions:      make(map[int32]*state),
	}
}

// Close cancels all pending re-analysis timers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.sessions {
		st.debouncer.Stop()
	}
	m.sessions = make(map[int32]*state)
}

// Initialize starts or refreshes the session for a story. If the session
// already exists and the content length has not moved by at least the
// skip threshold, nothing happens and ok is false. Otherwise the content
// is analyzed, the context is saved, and the message list is reset to a
// fresh greeting.
func (m *Manager) Initialize(ctx context.Context, story *store.Story) (assistant.Message, bool) {
	rc := observability.FromContext(ctx)

	m.mu.Lock()
	st, exists := m.sessions[story.ID]
	if exists && lengthDelta(story.Content, st.snapshot) < initSkipThreshold {
		m.mu.Unlock()
		rc.Debug("session already initialized, content unchanged", "story_id", story.ID)
		return assistant.Message{}, false
	}
	if !exists {
		st = &state{debouncer: NewDebouncer(m.debounceDelay)}
		m.sessions[story.ID] = st
	}
	m.mu.Unlock()

	result := m.engine.Analyze(story.Content)

	m.mu.Lock()
	st.snapshot = story.Content
	st.result = result
	m.mu.Unlock()

	if err := m.contexts.Save(ctx, story.ID, contextFromAnalysis(result), result); err != nil {
		rc.Warn("failed to save initial context", "story_id", story.ID, "error", err)
	}

	greeting := m.assistant.Greet(ctx, story.ID, result)
	rc.Info("session initialized",
		"story_id", story.ID,
		observability.LogFieldMessageLen, len(story.Content))
	return greeting, true
}

// SendMessage accepts an externally produced message into the session.
// Malformed messages (missing id, content, or a valid sender) are
// dropped with a log line; the message list is unchanged and no error
// is raised.
func (m *Manager) SendMessage(ctx context.Context, msg assistant.Message) bool {
	rc := observability.FromContext(ctx)

	if msg.ID == "" || strings.TrimSpace(msg.Content) == "" ||
		(msg.Sender != store.ChatSenderUser && msg.Sender != store.ChatSenderAI) {
		rc.Warn("dropping malformed message",
			"story_id", msg.StoryID,
			"message_id", msg.ID,
			"sender", msg.Sender)
		return false
	}

	m.assistant.Append(ctx, msg)
	return true
}

// Messages returns the story's current message list.
func (m *Manager) Messages(storyID int32) []assistant.Message {
	return m.assistant.Recent(storyID, 0)
}

// ClearMessages drops the story's message list and transcript. The
// session itself stays initialized.
func (m *Manager) ClearMessages(ctx context.Context, storyID int32) error {
	return m.assistant.ClearSession(ctx, storyID)
}

// Analysis returns the last analysis snapshot for a story, or nil.
func (m *Manager) Analysis(storyID int32) *analysis.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sessions[storyID]; ok {
		return st.result
	}
	return nil
}

// NoteContentChange schedules a re-analysis after the edit quiet period.
// Rapid edits keep pushing the timer back; only the last state is
// analyzed. Content below the minimum length or identical to the last
// analyzed snapshot is skipped at fire time.
func (m *Manager) NoteContentChange(ctx context.Context, storyID int32, content string) {
	m.mu.Lock()
	st, ok := m.sessions[storyID]
	m.mu.Unlock()
	if !ok {
		return
	}

	// The callback outlives the request; detach from its cancellation but
	// keep the request-scoped logging values.
	detached := context.WithoutCancel(ctx)
	st.debouncer.Trigger(func() {
		m.reanalyze(detached, storyID, content)
	})
}

func (m *Manager) reanalyze(ctx context.Context, storyID int32, content string) {
	rc := observability.FromContext(ctx)

	m.mu.Lock()
	st, ok := m.sessions[storyID]
	if !ok {
		m.mu.Unlock()
		return
	}
	unchanged := content == st.snapshot
	m.mu.Unlock()

	if len(content) < minAnalyzeLength || unchanged {
		return
	}

	result := m.engine.Analyze(content)

	m.mu.Lock()
	st.snapshot = content
	st.result = result
	m.mu.Unlock()

	if err := m.contexts.Save(ctx, storyID, contextFromAnalysis(result), result); err != nil {
		rc.Warn("failed to save re-analyzed context", "story_id", storyID, "error", err)
	}
	rc.Debug("content re-analyzed",
		"story_id", storyID,
		observability.LogFieldMessageLen, len(content))
}

// contextFromAnalysis seeds a conversational context from an analysis
// snapshot.
func contextFromAnalysis(result *analysis.Result) contextstore.ConversationContext {
	conv := contextstore.ConversationContext{}
	if result == nil {
		return conv
	}
	for _, el := range result.Elements[analysis.ElementPerson] {
		conv.CurrentStoryDetails.People = append(conv.CurrentStoryDetails.People, el.Value)
	}
	for _, el := range result.Elements[analysis.ElementLocation] {
		conv.CurrentStoryDetails.Locations = append(conv.CurrentStoryDetails.Locations, el.Value)
	}
	if events := result.Elements[analysis.ElementEvent]; len(events) > 0 {
		conv.CurrentStoryDetails.MainTopic = events[0].Value
	}
	if timeframes := result.Elements[analysis.ElementTimeframe]; len(timeframes) > 0 {
		conv.CurrentStoryDetails.Timeframe = timeframes[0].Value
	}
	return conv
}

func lengthDelta(a, b string) int {
	d := len(a) - len(b)
	if d < 0 {
		return -d
	}
	return d
}
