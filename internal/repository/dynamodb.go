package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

// StoriesByChildIndex - GSI таблицы историй (child_id + timestamp).
const StoriesByChildIndex = "child_id-timestamp-index"

// DynamoAPI - подмножество клиента DynamoDB, которое использует хранилище.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoConfig - параметры подключения и имена таблиц.
type DynamoConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	ProfilesTable string
	StoriesTable  string
	CacheTable    string
	UsersTable    string
}

// NewDynamoClient загружает AWS-конфигурацию. Статические ключи используются, только если заданы оба.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

var (
	_ StoryRepository   = (*DynamoStore)(nil)
	_ ProfileRepository = (*DynamoStore)(nil)
	_ UserRepository    = (*DynamoStore)(nil)
	_ CacheRepository   = (*DynamoStore)(nil)
)

// DynamoStore хранит данные и кэш в таблицах DynamoDB.
// Срок жизни кэша задается TTL-атрибутом expires_at таблицы кэша.
type DynamoStore struct {
	client DynamoAPI
	tables DynamoConfig
	logger *zap.Logger
}

// NewDynamoStore создает хранилище поверх готового клиента.
func NewDynamoStore(client DynamoAPI, tables DynamoConfig, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client: client,
		tables: tables,
		logger: logger.Named("DynamoStore"),
	}
}

// Ping проверяет, что все таблицы существуют.
func (s *DynamoStore) Ping(ctx context.Context) error {
	for _, table := range []string{s.tables.ProfilesTable, s.tables.StoriesTable, s.tables.CacheTable, s.tables.UsersTable} {
		if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}); err != nil {
			return fmt.Errorf("dynamodb table '%s' is not available: %w", table, err)
		}
	}
	return nil
}

func (s *DynamoStore) SaveStory(ctx context.Context, story *models.StoryRecord) error {
	record := *story
	record.Timestamp = record.Timestamp.UTC()
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal story: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.StoriesTable),
		Item:      item,
	}); err != nil {
		s.logger.Error("Failed to save story", zap.String("story_id", story.StoryID), zap.Error(err))
		return fmt.Errorf("failed to save story in dynamodb: %w", err)
	}
	return nil
}

func (s *DynamoStore) GetStory(ctx context.Context, storyID string) (*models.StoryRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.StoriesTable),
		Key:       map[string]types.AttributeValue{"story_id": &types.AttributeValueMemberS{Value: storyID}},
	})
	if err != nil {
		s.logger.Error("Failed to get story", zap.String("story_id", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story from dynamodb: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrStoryNotFound
	}
	var record models.StoryRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story: %w", err)
	}
	return &record, nil
}

func (s *DynamoStore) GetHistory(ctx context.Context, childID string, limit int) ([]models.StoryRecord, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.StoriesTable),
		IndexName:              aws.String(StoriesByChildIndex),
		KeyConditionExpression: aws.String("child_id = :child_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":child_id": &types.AttributeValueMemberS{Value: childID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		s.logger.Error("Failed to query story history", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("failed to query story history from dynamodb: %w", err)
	}
	history := make([]models.StoryRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story history: %w", err)
	}
	return history, nil
}

func (s *DynamoStore) SaveProfile(ctx context.Context, profile *models.ChildProfile) error {
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.ProfilesTable),
		Item:      item,
	}); err != nil {
		s.logger.Error("Failed to save profile", zap.String("child_id", profile.ChildID), zap.Error(err))
		return fmt.Errorf("failed to save profile in dynamodb: %w", err)
	}
	return nil
}

func (s *DynamoStore) GetProfile(ctx context.Context, childID string) (*models.ChildProfile, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.ProfilesTable),
		Key:       map[string]types.AttributeValue{"child_id": &types.AttributeValueMemberS{Value: childID}},
	})
	if err != nil {
		s.logger.Error("Failed to get profile", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile from dynamodb: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrProfileNotFound
	}
	var profile models.ChildProfile
	if err := attributevalue.UnmarshalMap(out.Item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// ListProfilesByUser сканирует таблицу профилей с фильтром: отдельного индекса по email нет.
func (s *DynamoStore) ListProfilesByUser(ctx context.Context, userEmail string) ([]models.ChildProfile, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.ProfilesTable),
		FilterExpression: aws.String("user_email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: userEmail},
		},
	}

	profiles := make([]models.ChildProfile, 0)
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to scan profiles", zap.String("user_email", userEmail), zap.Error(err))
			return nil, fmt.Errorf("failed to scan profiles in dynamodb: %w", err)
		}
		var batch []models.ChildProfile
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
		}
		profiles = append(profiles, batch...)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (s *DynamoStore) CreateUser(ctx context.Context, user *models.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.UsersTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			s.logger.Warn("Attempted to create duplicate user", zap.String("email", user.Email))
			return models.ErrUserAlreadyExists
		}
		s.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user in dynamodb: %w", err)
	}
	return nil
}

func (s *DynamoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.UsersTable),
		Key:       map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: email}},
	})
	if err != nil {
		s.logger.Error("Failed to get user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user from dynamodb: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, models.ErrUserNotFound
	}
	var user models.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// GetCachedStory увеличивает access_count одним UpdateItem и возвращает новую версию записи.
// DynamoDB удаляет просроченные записи с задержкой, поэтому срок проверяется и здесь.
func (s *DynamoStore) GetCachedStory(ctx context.Context, key string) (*models.CacheEntry, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.CacheTable),
		Key:                 map[string]types.AttributeValue{"cache_key": &types.AttributeValueMemberS{Value: key}},
		UpdateExpression:    aws.String("ADD access_count :inc"),
		ConditionExpression: aws.String("attribute_exists(cache_key) AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("Failed to read cached story", zap.String("cache_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read cached story from dynamodb: %w", err)
	}
	var entry models.CacheEntry
	if err := attributevalue.UnmarshalMap(out.Attributes, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

func (s *DynamoStore) SaveCachedStory(ctx context.Context, key, story string, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(models.CacheEntry{
		CacheKey:  key,
		Story:     story,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.CacheTable),
		Item:      item,
	}); err != nil {
		s.logger.Error("Failed to save cached story", zap.String("cache_key", key), zap.Error(err))
		return fmt.Errorf("failed to save cached story in dynamodb: %w", err)
	}
	return nil
}
