package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lifetales/lifetales/store"
)

// Message is one turn of a story conversation held in session memory.
type Message struct {
	ID           string    `json:"id"`
	StoryID      int32     `json:"storyId"`
	Sender       string    `json:"sender"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	IsGreeting   bool      `json:"isGreeting,omitempty"`
	QuickReplies []string  `json:"quickReplies,omitempty"`
}

// NewMessage builds a message with a fresh ULID. ULIDs are unique and
// lexically ordered, so message ids sort in creation order.
func NewMessage(storyID int32, sender, content string) Message {
	return Message{
		ID:        ulid.Make().String(),
		StoryID:   storyID,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ToChatMessage converts a session message to its persisted form.
func (m Message) ToChatMessage() *store.ChatMessage {
	return &store.ChatMessage{
		ID:           m.ID,
		StoryID:      m.StoryID,
		Sender:       m.Sender,
		Content:      m.Content,
		IsGreeting:   m.IsGreeting,
		QuickReplies: m.QuickReplies,
		CreatedTs:    m.Timestamp.Unix(),
	}
}

// SessionMemory holds per-story conversation windows. Thread-safe; each
// story keeps at most maxSize recent messages. Stale sessions are swept
// periodically until Close.
type SessionMemory struct {
	mu       sync.RWMutex
	sessions map[int32]*sessionData
	maxSize  int
	onEvict  func(storyID int32)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type sessionData struct {
	messages   []Message
	lastAccess time.Time
}

// NewSessionMemory creates a session memory keeping up to maxSize
// messages per story (default 20).
func NewSessionMemory(maxSize int) *SessionMemory {
	if maxSize <= 0 {
		maxSize = 20
	}
	ctx, cancel := context.WithCancel(context.Background())
	sm := &SessionMemory{
		sessions: make(map[int32]*sessionData),
		maxSize:  maxSize,
		ctx:      ctx,
		cancel:   cancel,
	}
	sm.wg.Add(1)
	go sm.cleanupLoop()
	return sm
}

// OnEvict registers a callback invoked with each story id removed by
// the stale-session sweep.
func (s *SessionMemory) OnEvict(fn func(storyID int32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Close stops the cleanup goroutine.
func (s *SessionMemory) Close() {
	s.cancel()
	s.wg.Wait()
}

// Recent returns up to limit most recent messages for a story, oldest
// first. limit <= 0 returns the whole window.
func (s *SessionMemory) Recent(storyID int32, limit int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[storyID]
	if !exists || len(session.messages) == 0 {
		return []Message{}
	}
	session.lastAccess = time.Now()

	messages := session.messages
	if limit > 0 && limit < len(messages) {
		messages = messages[len(messages)-limit:]
	}

	result := make([]Message, len(messages))
	copy(result, messages)
	return result
}

// Append adds a message to a story's window.
func (s *SessionMemory) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[msg.StoryID]
	if !exists {
		session = &sessionData{
			messages: make([]Message, 0, s.maxSize),
		}
		s.sessions[msg.StoryID] = session
	}

	session.messages = append(session.messages, msg)
	session.lastAccess = time.Now()

	if len(session.messages) > s.maxSize {
		session.messages = session.messages[len(session.messages)-s.maxSize:]
	}
}

// Reset replaces a story's window with the given messages.
func (s *SessionMemory) Reset(storyID int32, messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := make([]Message, len(messages))
	copy(window, messages)
	s.sessions[storyID] = &sessionData{
		messages:   window,
		lastAccess: time.Now(),
	}
}

// Clear removes a story's window.
func (s *SessionMemory) Clear(storyID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, storyID)
}

// SessionCount returns the number of active story sessions.
func (s *SessionMemory) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanupLoop sweeps sessions inactive for over an hour.
func (s *SessionMemory) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweepStale(time.Hour)
		}
	}
}

// sweepStale drops sessions idle longer than maxAge and reports the
// evicted ids to the OnEvict callback.
func (s *SessionMemory) sweepStale(maxAge time.Duration) {
	s.mu.Lock()
	now := time.Now()
	var evicted []int32
	for storyID, session := range s.sessions {
		if now.Sub(session.lastAccess) > maxAge {
			delete(s.sessions, storyID)
			evicted = append(evicted, storyID)
		}
	}
	fn := s.onEvict
	s.mu.Unlock()

	if fn == nil {
		return
	}
	for _, storyID := range evicted {
		fn(storyID)
	}
}
