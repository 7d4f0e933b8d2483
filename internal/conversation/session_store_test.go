package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleHistory = []ChatMessage{
	{Role: ChatRoleUser, Content: "Do you take insurance?"},
	{Role: ChatRoleAssistant, Content: "Yes, most plans."},
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	history, err := store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, store.Save(ctx, "conv-1", sampleHistory))
	assert.Equal(t, time.Hour, mr.TTL("conversation:conv-1"))

	history, err = store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, history)

	mr.FastForward(time.Hour + time.Second)
	history, err = store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisSessionStoreCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("conversation:bad", "{not json"))

	_, err := NewRedisSessionStore(client, 0).Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestMemorySessionStoreTTL(t *testing.T) {
	store := NewMemorySessionStore(10, time.Minute)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv-1", sampleHistory))
	history, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, history)

	history[0].Content = "mutated"
	again, _ := store.Load(ctx, "conv-1")
	assert.Equal(t, "Do you take insurance?", again[0].Content, "callers get a copy")

	now = now.Add(time.Minute)
	history, err = store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, store.Len())
}

func TestMemorySessionStoreCapacity(t *testing.T) {
	store := NewMemorySessionStore(2, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("conv-%d", i), sampleHistory))
	}
	assert.Equal(t, 2, store.Len())

	evicted, _ := store.Load(ctx, "conv-1")
	assert.Empty(t, evicted)
	kept, _ := store.Load(ctx, "conv-3")
	assert.NotEmpty(t, kept)
}

type mockDynamo struct {
	items map[string]map[string]types.AttributeValue
	put   *dynamodb.PutItemInput
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.put = in
	if m.items == nil {
		m.items = make(map[string]map[string]types.AttributeValue)
	}
	id := in.Item["conversationId"].(*types.AttributeValueMemberS).Value
	m.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["conversationId"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[id]}, nil
}

func TestDynamoSessionStore(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoSessionStore(mock, "clinic-conversations", time.Hour)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	history, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, store.Save(ctx, "conv-1", sampleHistory))
	assert.Equal(t, "clinic-conversations", *mock.put.TableName)

	var rec sessionRecord
	require.NoError(t, attributevalue.UnmarshalMap(mock.put.Item, &rec))
	assert.Equal(t, now.Add(time.Hour).Unix(), rec.ExpiresAt)

	history, err = store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, history)

	now = now.Add(2 * time.Hour)
	history, err = store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, history, "expired items are ignored before DynamoDB reaps them")
}
