package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

// fakeDynamo эмулирует ровно те вызовы и выражения, которые отправляет DynamoStore.
type fakeDynamo struct {
	mu     sync.Mutex
	keys   map[string]string
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeDynamo(cfg DynamoConfig) *fakeDynamo {
	return &fakeDynamo{
		keys: map[string]string{
			cfg.ProfilesTable: "child_id",
			cfg.StoriesTable:  "story_id",
			cfg.CacheTable:    "cache_key",
			cfg.UsersTable:    "email",
		},
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberAttr(item map[string]types.AttributeValue, name string) int64 {
	if v, ok := item[name].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f.tables[name]
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	key := stringAttr(in.Item, f.keys[name])
	if in.ConditionExpression != nil {
		if _, exists := f.table(name)[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.table(name)[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	return &dynamodb.GetItemOutput{Item: f.table(name)[stringAttr(in.Key, f.keys[name])]}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	item, ok := f.table(name)[stringAttr(in.Key, f.keys[name])]
	if !ok || numberAttr(item, "expires_at") <= numberAttr(in.ExpressionAttributeValues, ":now") {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	count := numberAttr(item, "access_count") + numberAttr(in.ExpressionAttributeValues, ":inc")
	item["access_count"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(count, 10)}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	childID := stringAttr(in.ExpressionAttributeValues, ":child_id")
	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(in.TableName)) {
		if stringAttr(item, "child_id") == childID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return stringAttr(items[i], "timestamp") > stringAttr(items[j], "timestamp")
	})
	if limit := int(aws.ToInt32(in.Limit)); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := stringAttr(in.ExpressionAttributeValues, ":email")
	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(in.TableName)) {
		if stringAttr(item, "user_email") == email {
			items = append(items, item)
		}
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if _, ok := f.keys[aws.ToString(in.TableName)]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no such table")}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

var testDynamoTables = DynamoConfig{
	ProfilesTable: "StoryWeave-Profiles",
	StoriesTable:  "StoryWeave-Stories",
	CacheTable:    "StoryWeave-Cache",
	UsersTable:    "StoryWeave-Users",
}

func TestDynamoStoreStories(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoStore(newFakeDynamo(testDynamoTables), testDynamoTables, zap.NewNop())
	base := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.SaveStory(ctx, &models.StoryRecord{
			StoryID:     id,
			ChildID:     "child-1",
			StoryText:   "text " + id,
			ProfileType: models.ProfileAnxiety,
			Interests:   []string{"owls"},
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := store.GetStory(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileAnxiety, got.ProfileType)
	assert.Nil(t, got.ParentStoryID)
	assert.True(t, got.Timestamp.Equal(base.Add(time.Hour)))

	_, err = store.GetStory(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrStoryNotFound)

	history, err := store.GetHistory(ctx, "child-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "s3", history[0].StoryID)
	assert.Equal(t, "s2", history[1].StoryID)
}

func TestDynamoStoreProfilesAndUsers(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoStore(newFakeDynamo(testDynamoTables), testDynamoTables, zap.NewNop())
	now := time.Now().UTC()

	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c2", UserEmail: "a@b.c", Age: 8, CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.SaveProfile(ctx, &models.ChildProfile{ChildID: "c1", UserEmail: "a@b.c", Age: 5, CreatedAt: now}))

	_, err := store.GetProfile(ctx, "c9")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	list, err := store.ListProfilesByUser(ctx, "a@b.c")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ChildID)

	user := &models.User{Email: "a@b.c", PasswordHash: "hash", Name: "Parent", CreatedAt: now}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.ErrorIs(t, store.CreateUser(ctx, user), models.ErrUserAlreadyExists)

	gotUser, err := store.GetUserByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "hash", gotUser.PasswordHash)
}

func TestDynamoStoreCache(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoStore(newFakeDynamo(testDynamoTables), testDynamoTables, zap.NewNop())

	_, err := store.GetCachedStory(ctx, "key")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, store.SaveCachedStory(ctx, "key", "Once upon a time", time.Hour))

	first, err := store.GetCachedStory(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time", first.Story)
	assert.Equal(t, 1, first.AccessCount)

	second, err := store.GetCachedStory(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 2, second.AccessCount)

	require.NoError(t, store.SaveCachedStory(ctx, "stale", "old story", -time.Minute))
	_, err = store.GetCachedStory(ctx, "stale")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDynamoStorePing(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo(testDynamoTables)

	assert.NoError(t, NewDynamoStore(fake, testDynamoTables, zap.NewNop()).Ping(ctx))

	broken := testDynamoTables
	broken.CacheTable = "missing"
	assert.Error(t, NewDynamoStore(fake, broken, zap.NewNop()).Ping(ctx))
}
