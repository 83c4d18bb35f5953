package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	base := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.SaveStory(ctx, &models.StoryRecord{
			StoryID:   id,
			ChildID:   "child-1",
			StoryText: "text " + id,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.SaveStory(ctx, &models.StoryRecord{StoryID: "other", ChildID: "child-2", Timestamp: base}))

	history, err := store.GetHistory(ctx, "child-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "s3", history[0].StoryID)
	assert.Equal(t, "s2", history[1].StoryID)

	empty, err := store.GetHistory(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestMemoryStoreGetStory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	_, err := store.GetStory(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrStoryNotFound)

	interests := []string{"rockets"}
	require.NoError(t, store.SaveStory(ctx, &models.StoryRecord{StoryID: "s1", Interests: interests}))
	interests[0] = "changed"

	got, err := store.GetStory(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rockets"}, got.Interests)
}

func TestMemoryStoreProfiles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	_, err := store.GetProfile(ctx, "c1")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	now := time.Now()
	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c2", UserEmail: "a@b.c", Age: 6, CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c1", UserEmail: "a@b.c", Age: 5, CreatedAt: now}))
	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c3", UserEmail: "x@y.z", Age: 7, CreatedAt: now}))

	// Полная замена, без частичного обновления.
	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c1", UserEmail: "a@b.c", Age: 9, CreatedAt: now}))

	profile, err := store.GetProfile(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 9, profile.Age)

	list, err := store.ListProfilesByUser(ctx, "a@b.c")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ChildID)
	assert.Equal(t, "c2", list[1].ChildID)
}

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	user := &models.User{Email: "parent@example.com", PasswordHash: "hash", Name: "Parent"}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.ErrorIs(t, store.CreateUser(ctx, user), models.ErrUserAlreadyExists)

	got, err := store.GetUserByEmail(ctx, "parent@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Parent", got.Name)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestMemoryStoreCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	_, err := store.GetCachedStory(ctx, "key")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, store.SaveCachedStory(ctx, "key", "Once upon a time", time.Hour))

	first, err := store.GetCachedStory(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time", first.Story)
	assert.Equal(t, 1, first.AccessCount)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), first.ExpiresAt, 5)

	second, err := store.GetCachedStory(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 2, second.AccessCount)
}

func TestMemoryStoreCacheExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	require.NoError(t, store.SaveCachedStory(ctx, "key", "story", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := store.GetCachedStory(ctx, "key")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClampHistoryLimit(t *testing.T) {
	assert.Equal(t, 1, ClampHistoryLimit(0))
	assert.Equal(t, 1, ClampHistoryLimit(-5))
	assert.Equal(t, 10, ClampHistoryLimit(10))
	assert.Equal(t, 50, ClampHistoryLimit(500))
}
