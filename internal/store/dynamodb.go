package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
	"github.com/campuscare/support-chat/backend/internal/model/chat"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore writes records to two DynamoDB tables keyed by "id".
type DynamoStore struct {
	client       dynamoAPI
	chatsTable   string
	flaggedTable string
	logger       *zap.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, chatsTable, flaggedTable string, logger *zap.Logger) *DynamoStore {
	if client == nil {
		panic("store: dynamodb client cannot be nil")
	}
	if chatsTable == "" || flaggedTable == "" {
		panic("store: table names cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DynamoStore{
		client:       client,
		chatsTable:   chatsTable,
		flaggedTable: flaggedTable,
		logger:       logger,
	}
}

// NewDynamoClient loads AWS configuration and returns a DynamoDB client.
// A non-empty cfg.Endpoint points the client at DynamoDB Local or LocalStack.
func NewDynamoClient(ctx context.Context, cfg config.StoreConfig) (*dynamodb.Client, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// WriteChat inserts a chat record.
func (s *DynamoStore) WriteChat(ctx context.Context, msg chat.Message) error {
	if msg.UserID == "" {
		return ErrUserRequired
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return s.put(ctx, s.chatsTable, msg.ID, msg)
}

// WriteFlagged inserts a flagged record.
func (s *DynamoStore) WriteFlagged(ctx context.Context, msg chat.FlaggedMessage) error {
	if msg.UserID == "" {
		return ErrUserRequired
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return s.put(ctx, s.flaggedTable, msg.ID, msg)
}

func (s *DynamoStore) put(ctx context.Context, table, id string, record any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("store: failed to marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		s.logger.Error("dynamodb put failed", zap.String("table", table), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("store: failed to write %s record: %w", table, err)
	}

	s.logger.Debug("record written", zap.String("table", table), zap.String("id", id))
	return nil
}
