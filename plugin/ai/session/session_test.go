package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/assistant"
	"github.com/lifetales/lifetales/plugin/ai/cache"
	"github.com/lifetales/lifetales/plugin/ai/contextstore"
	"github.com/lifetales/lifetales/plugin/ai/llm"
	"github.com/lifetales/lifetales/store"
)

type fakeProvider struct{}

func (fakeProvider) Complete(context.Context, []llm.Message) (string, error) {
	return "Tell me more about that.", nil
}

type fakeTranscript struct {
	mu       sync.Mutex
	messages []*store.ChatMessage
}

func (f *fakeTranscript) CreateChatMessage(_ context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *create
	f.messages = append(f.messages, &clone)
	return &clone, nil
}

func (f *fakeTranscript) DeleteChatMessages(_ context.Context, del *store.DeleteChatMessages) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.messages[:0]
	for _, msg := range f.messages {
		if msg.StoryID != del.StoryID {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

type fakeContextBacking struct {
	mu      sync.Mutex
	records map[int32]*store.ContextRecord
}

func (f *fakeContextBacking) UpsertContextRecord(ctx context.Context, upsert *store.ContextRecord) (*store.ContextRecord, error) {
	// Real drivers refuse canceled contexts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records == nil {
		f.records = map[int32]*store.ContextRecord{}
	}
	clone := *upsert
	f.records[upsert.StoryID] = &clone
	return &clone, nil
}

func (f *fakeContextBacking) GetContextRecord(_ context.Context, find *store.FindContextRecord) (*store.ContextRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[find.StoryID]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeContextBacking) DeleteContextRecord(_ context.Context, del *store.DeleteContextRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, del.StoryID)
	return nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	engine := analysis.NewEngine()
	contexts := contextstore.NewService(&fakeContextBacking{}, cache.NewService(cache.DefaultServiceConfig()), engine)
	assistantSvc := assistant.NewService(fakeProvider{}, contexts, engine, &fakeTranscript{})
	t.Cleanup(assistantSvc.Close)

	m := NewManager(engine, assistantSvc, contexts)
	m.debounceDelay = 10 * time.Millisecond
	t.Cleanup(m.Close)
	return m
}

func testStory(content string) *store.Story {
	return &store.Story{
		ID:      1,
		Title:   "The Hospital Visit",
		Content: content,
	}
}

const storyContent = "My mother Sarah took me to the hospital when I was 5."

func TestInitializeGreetsAndAnalyzes(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	greeting, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)
	assert.True(t, greeting.IsGreeting)
	assert.Equal(t, store.ChatSenderAI, greeting.Sender)
	assert.NotEmpty(t, greeting.QuickReplies)

	messages := m.Messages(1)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsGreeting)

	result := m.Analysis(1)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Elements[analysis.ElementPerson])
}

func TestInitializeSkipsUnchangedContent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)

	// A minor edit, well under the skip threshold.
	_, ok = m.Initialize(ctx, testStory(storyContent+" It was snowing."))
	assert.False(t, ok)
	assert.Len(t, m.Messages(1), 1, "message list must not be reset")
}

func TestInitializeResetsOnMaterialChange(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)

	grown := storyContent + " " + strings.Repeat("Then we moved again. ", 10)
	_, ok = m.Initialize(ctx, testStory(grown))
	assert.True(t, ok)
	assert.Len(t, m.Messages(1), 1, "list resets to just the new greeting")
}

func TestSendMessageRejectsMissingSender(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)
	before := len(m.Messages(1))

	msg := assistant.NewMessage(1, store.ChatSenderUser, "hello")
	msg.Sender = ""
	accepted := m.SendMessage(ctx, msg)

	assert.False(t, accepted)
	assert.Len(t, m.Messages(1), before, "malformed message must not appear in the list")
}

func TestSendMessageRejectsMissingID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	msg := assistant.NewMessage(1, store.ChatSenderUser, "hello")
	msg.ID = ""
	assert.False(t, m.SendMessage(ctx, msg))
}

func TestSendMessageAcceptsValid(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)

	accepted := m.SendMessage(ctx, assistant.NewMessage(1, store.ChatSenderUser, "It was snowing."))
	assert.True(t, accepted)
	assert.Len(t, m.Messages(1), 2)
}

func TestClearMessages(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)
	require.NoError(t, m.ClearMessages(ctx, 1))
	assert.Empty(t, m.Messages(1))
}

func TestDebouncedReanalysis(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)

	edited := "We celebrated at the lake with my grandmother every summer back in 1952."
	m.NoteContentChange(ctx, 1, edited)

	require.Eventually(t, func() bool {
		result := m.Analysis(1)
		return result != nil && len(result.Elements[analysis.ElementTimeframe]) > 0 &&
			result.Elements[analysis.ElementPerson][0].Value == "grandmother"
	}, time.Second, 5*time.Millisecond)
}

func TestDebounceOnlyLastEditFires(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)

	first := "My father built a house near the river in those days."
	second := "My grandmother played the piano at the church every winter."
	m.NoteContentChange(ctx, 1, first)
	m.NoteContentChange(ctx, 1, second)

	require.Eventually(t, func() bool {
		result := m.Analysis(1)
		if result == nil {
			return false
		}
		people := result.Elements[analysis.ElementPerson]
		return len(people) == 1 && people[0].Value == "grandmother"
	}, time.Second, 5*time.Millisecond)
}

func TestReanalysisSkipsShortContent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, ok := m.Initialize(ctx, testStory(storyContent))
	require.True(t, ok)
	before := m.Analysis(1)

	m.NoteContentChange(ctx, 1, "too short")
	time.Sleep(50 * time.Millisecond)

	assert.Same(t, before, m.Analysis(1), "short content must not trigger re-analysis")
}

func TestReanalysisPersistsAfterRequestContextEnds(t *testing.T) {
	engine := analysis.NewEngine()
	backing := &fakeContextBacking{}
	contexts := contextstore.NewService(backing, cache.NewService(cache.DefaultServiceConfig()), engine)
	assistantSvc := assistant.NewService(fakeProvider{}, contexts, engine, &fakeTranscript{})
	t.Cleanup(assistantSvc.Close)

	m := NewManager(engine, assistantSvc, contexts)
	m.debounceDelay = 10 * time.Millisecond
	t.Cleanup(m.Close)

	_, ok := m.Initialize(context.Background(), testStory(storyContent))
	require.True(t, ok)

	// The edit arrives on a request context that is gone before the quiet
	// period elapses, as when an HTTP handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	m.NoteContentChange(ctx, 1, "My grandmother played the piano at the church every winter.")
	cancel()

	require.Eventually(t, func() bool {
		backing.mu.Lock()
		defer backing.mu.Unlock()
		record, exists := backing.records[1]
		return exists && strings.Contains(string(record.Data), "grandmother")
	}, time.Second, 5*time.Millisecond, "re-analysis must persist after the request context is canceled")
}
