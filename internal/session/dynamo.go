package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// sessionItem is the persisted row. The state snapshot is an opaque JSON blob
// so the table schema never chases the state shape.
type sessionItem struct {
	ConversationID string `dynamodbav:"conversationId"`
	Snapshot       string `dynamodbav:"snapshot"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

// DynamoStore persists session snapshots to a DynamoDB table keyed by
// conversationId.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	return &DynamoStore{client: client, tableName: tableName}
}

var _ Store = (*DynamoStore)(nil)

func (s *DynamoStore) key(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func (s *DynamoStore) Get(ctx context.Context, conversationID string) (*agent.State, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("session: failed to load state: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal item: %w", err)
	}

	var state agent.State
	if err := json.Unmarshal([]byte(item.Snapshot), &state); err != nil {
		return nil, fmt.Errorf("session: failed to decode state: %w", err)
	}
	return &state, nil
}

func (s *DynamoStore) Put(ctx context.Context, conversationID string, state *agent.State) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: failed to marshal state: %w", err)
	}

	item, err := attributevalue.MarshalMap(sessionItem{
		ConversationID: conversationID,
		Snapshot:       string(snapshot),
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("session: failed to marshal item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("session: failed to persist state: %w", err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, conversationID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(conversationID),
	}); err != nil {
		return fmt.Errorf("session: failed to delete state: %w", err)
	}
	return nil
}

func (s *DynamoStore) Exists(ctx context.Context, conversationID string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  s.key(conversationID),
		ProjectionExpression: aws.String("conversationId"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("session: failed to check state: %w", err)
	}
	return len(out.Item) > 0, nil
}
