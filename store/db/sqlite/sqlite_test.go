package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifetales/lifetales/internal/profile"
	"github.com/lifetales/lifetales/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	prof := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "lifetales_test.db"),
	}
	driver, err := NewDB(prof)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func createTestStory(t *testing.T, driver store.Driver, uid, title string) *store.Story {
	t.Helper()
	now := time.Now().Unix()
	story, err := driver.CreateStory(context.Background(), &store.Story{
		UID:       uid,
		CreatorID: 1,
		Title:     title,
		Content:   "My mother Sarah took me to the hospital when I was 5.",
		Year:      1965,
		Tags:      []string{"childhood"},
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)
	return story
}

func TestStoryCRUD(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	story := createTestStory(t, driver, "uid-1", "The Hospital Visit")
	require.NotZero(t, story.ID)
	assert.Equal(t, []string{"childhood"}, story.Tags)

	creatorID := int32(1)
	stories, err := driver.ListStories(ctx, &store.FindStory{CreatorID: &creatorID})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "The Hospital Visit", stories[0].Title)

	newTitle := "The Broken Arm"
	newTs := time.Now().Unix() + 10
	require.NoError(t, driver.UpdateStory(ctx, &store.UpdateStory{
		ID:        story.ID,
		Title:     &newTitle,
		UpdatedTs: &newTs,
	}))

	stories, err = driver.ListStories(ctx, &store.FindStory{ID: &story.ID})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "The Broken Arm", stories[0].Title)
	assert.Equal(t, "My mother Sarah took me to the hospital when I was 5.", stories[0].Content)

	require.NoError(t, driver.DeleteStory(ctx, &store.DeleteStory{ID: story.ID}))
	stories, err = driver.ListStories(ctx, &store.FindStory{ID: &story.ID})
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestListStoriesOrdering(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	older := createTestStory(t, driver, "uid-1", "Older")
	newer := createTestStory(t, driver, "uid-2", "Newer")
	bumped := time.Now().Unix() + 100
	require.NoError(t, driver.UpdateStory(ctx, &store.UpdateStory{ID: newer.ID, UpdatedTs: &bumped}))

	creatorID := int32(1)
	limit := 1
	stories, err := driver.ListStories(ctx, &store.FindStory{
		CreatorID:        &creatorID,
		OrderByUpdatedTs: true,
		Limit:            &limit,
	})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Newer", stories[0].Title)
	_ = older
}

func TestLinkConnectionStoryIsIdempotent(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	story := createTestStory(t, driver, "uid-1", "The Hospital Visit")
	now := time.Now().Unix()
	conn, err := driver.CreateConnection(ctx, &store.Connection{
		UID:            "conn-1",
		CreatorID:      1,
		Name:           "Sarah",
		NormalizedName: "sarah",
		Relationship:   "mother",
		FirstAppearance: store.StoryRef{
			StoryID: story.ID,
			Title:   story.Title,
			Year:    story.Year,
		},
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)

	link := &store.LinkConnectionStory{
		ConnectionID: conn.ID,
		StoryID:      story.ID,
		StoryTitle:   story.Title,
		StoryYear:    story.Year,
		UpdatedTs:    now,
	}
	require.NoError(t, driver.LinkConnectionStory(ctx, link))
	require.NoError(t, driver.LinkConnectionStory(ctx, link))

	connections, err := driver.ListConnections(ctx, &store.FindConnection{ID: &conn.ID})
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Len(t, connections[0].Stories, 1, "re-linking must not duplicate the story ref")

	stories, err := driver.ListStories(ctx, &store.FindStory{ID: &story.ID})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, []int32{conn.ID}, stories[0].ConnectionIDs)
}

func TestContextRecordUpsert(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	record, err := driver.UpsertContextRecord(ctx, &store.ContextRecord{
		StoryID:   1,
		Data:      []byte(`{"version":1}`),
		Version:   1,
		UpdatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, record.Version)

	record, err = driver.UpsertContextRecord(ctx, &store.ContextRecord{
		StoryID:   1,
		Data:      []byte(`{"version":2}`),
		Version:   2,
		UpdatedTs: time.Now().Unix(),
	})
	require.NoError(t, err)

	loaded, err := driver.GetContextRecord(ctx, &store.FindContextRecord{StoryID: 1})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Version)
	assert.JSONEq(t, `{"version":2}`, string(loaded.Data))

	missing, err := driver.GetContextRecord(ctx, &store.FindContextRecord{StoryID: 99})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, driver.DeleteContextRecord(ctx, &store.DeleteContextRecord{StoryID: 1}))
	loaded, err = driver.GetContextRecord(ctx, &store.FindContextRecord{StoryID: 1})
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestChatMessages(t *testing.T) {
	driver := newTestDriver(t)
	ctx := context.Background()

	for i, content := range []string{"first", "second", "third"} {
		_, err := driver.CreateChatMessage(ctx, &store.ChatMessage{
			ID:        "01ARZ3NDEKTSV4RRFFQ69G5FA" + string(rune('A'+i)),
			StoryID:   1,
			Sender:    store.ChatSenderUser,
			Content:   content,
			CreatedTs: time.Now().Unix() + int64(i),
		})
		require.NoError(t, err)
	}

	// A colliding id must surface as an error, never a silent drop.
	_, err := driver.CreateChatMessage(ctx, &store.ChatMessage{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAA",
		StoryID:   1,
		Sender:    store.ChatSenderUser,
		Content:   "duplicate",
		CreatedTs: time.Now().Unix(),
	})
	require.Error(t, err)

	storyID := int32(1)
	messages, err := driver.ListChatMessages(ctx, &store.FindChatMessage{StoryID: &storyID})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)

	require.NoError(t, driver.DeleteChatMessages(ctx, &store.DeleteChatMessages{StoryID: 1}))
	messages, err = driver.ListChatMessages(ctx, &store.FindChatMessage{StoryID: &storyID})
	require.NoError(t, err)
	assert.Empty(t, messages)
}
