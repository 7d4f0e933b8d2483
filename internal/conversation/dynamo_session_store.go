package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// sessionRecord is the DynamoDB item shape. expiresAt is the table's TTL attribute.
type sessionRecord struct {
	ConversationID string        `dynamodbav:"conversationId"`
	History        []ChatMessage `dynamodbav:"history"`
	UpdatedAt      string        `dynamodbav:"updatedAt"`
	ExpiresAt      int64         `dynamodbav:"expiresAt"`
}

// DynamoSessionStore persists histories in a DynamoDB table keyed by conversationId.
// DynamoDB deletes expired items lazily, so reads also check expiresAt.
type DynamoSessionStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

func NewDynamoSessionStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoSessionStore {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("conversation: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &DynamoSessionStore{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (s *DynamoSessionStore) Save(ctx context.Context, conversationID string, history []ChatMessage) error {
	now := s.now().UTC()
	if history == nil {
		history = []ChatMessage{}
	}
	item, err := attributevalue.MarshalMap(sessionRecord{
		ConversationID: conversationID,
		History:        history,
		UpdatedAt:      now.Format(time.RFC3339Nano),
		ExpiresAt:      now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func (s *DynamoSessionStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to fetch session: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	if rec.ExpiresAt > 0 && s.now().Unix() >= rec.ExpiresAt {
		return nil, nil
	}
	return rec.History, nil
}
