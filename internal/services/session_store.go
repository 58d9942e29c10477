package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	sessionKeyPrefix = "conversation:"
	sessionTTL       = 30 * time.Minute
)

// ConversationSession accumulates the answers collected so far for one
// phone number. Fields stay zero until the matching step stores them.
type ConversationSession struct {
	Phone     string          `json:"phone"`
	Step      string          `json:"step"`
	Name      string          `json:"name,omitempty"`
	Condo     string          `json:"condo,omitempty"`
	Block     string          `json:"block,omitempty"`
	Apartment string          `json:"apartment,omitempty"`
	PlanCode  string          `json:"plan_code,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// SessionStore keys conversation sessions by phone number. Get returns
// nil without error when no session exists yet.
type SessionStore interface {
	Get(ctx context.Context, phone string) (*ConversationSession, error)
	Save(ctx context.Context, session *ConversationSession) error
	Reset(ctx context.Context, phone string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL so abandoned
// conversations expire on their own.
type RedisSessionStore struct {
	cache *RedisCache
}

func NewRedisSessionStore(cache *RedisCache) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

func (s *RedisSessionStore) Get(ctx context.Context, phone string) (*ConversationSession, error) {
	var session ConversationSession
	err := s.cache.Get(ctx, sessionKeyPrefix+phone, &session)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *ConversationSession) error {
	return s.cache.Set(ctx, sessionKeyPrefix+session.Phone, session, sessionTTL)
}

func (s *RedisSessionStore) Reset(ctx context.Context, phone string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+phone)
}

// MemorySessionStore is a mutex-guarded map, used when no Redis URL is
// configured and in tests. Single-instance only.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]ConversationSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]ConversationSession)}
}

func (s *MemorySessionStore) Get(_ context.Context, phone string) (*ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[phone]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Phone] = *session
	return nil
}

func (s *MemorySessionStore) Reset(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
	return nil
}
