package conversation

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultSessionTTL = 24 * time.Hour

// SessionStore keeps the trailing history of each conversation. Load returns an
// empty history, not an error, for unknown or expired conversations.
type SessionStore interface {
	Load(ctx context.Context, conversationID string) ([]ChatMessage, error)
	Save(ctx context.Context, conversationID string, history []ChatMessage) error
}

// RedisSessionStore stores each history as one JSON value with a TTL.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("clinic.internal.conversation.history"),
	}
}

func (s *RedisSessionStore) Save(ctx context.Context, conversationID string, history []ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_history",
		trace.WithAttributes(attribute.Int("history.length", len(history))))
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(conversationID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return history, nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

// MemorySessionStore is a bounded, TTL-evicting in-process store. Once capacity
// is reached the least recently saved conversation is dropped.
type MemorySessionStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List
	entries  map[string]*list.Element
}

type memorySession struct {
	id        string
	history   []ChatMessage
	expiresAt time.Time
}

func NewMemorySessionStore(capacity int, ttl time.Duration) *MemorySessionStore {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (s *MemorySessionStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[conversationID]
	if !ok {
		return nil, nil
	}
	sess := el.Value.(*memorySession)
	if !s.now().Before(sess.expiresAt) {
		s.remove(el)
		return nil, nil
	}
	return append([]ChatMessage(nil), sess.history...), nil
}

func (s *MemorySessionStore) Save(ctx context.Context, conversationID string, history []ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &memorySession{
		id:        conversationID,
		history:   append([]ChatMessage(nil), history...),
		expiresAt: s.now().Add(s.ttl),
	}
	if el, ok := s.entries[conversationID]; ok {
		el.Value = sess
		s.order.MoveToFront(el)
		return nil
	}
	s.entries[conversationID] = s.order.PushFront(sess)
	for s.order.Len() > s.capacity {
		s.remove(s.order.Back())
	}
	return nil
}

// Len reports how many conversations are held, including expired ones not yet read.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *MemorySessionStore) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.entries, el.Value.(*memorySession).id)
}
