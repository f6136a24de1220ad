package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

// Store keeps server-side sessions in Redis. A session maps an opaque id
// (handed to the client as a cookie) to the authenticated user id.
type Store struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewStore(client *redisv9.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

func (s *Store) Create(ctx context.Context, userID uint) (string, error) {
	sessionID := uuid.NewString()
	key := s.sessionKey(sessionID)
	if err := s.client.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set session failed: %w", err)
	}
	return sessionID, nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (uint, bool, error) {
	key := s.sessionKey(sessionID)
	raw, err := s.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get session failed: %w", err)
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode session user id failed: %w", err)
	}
	return uint(userID), true, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := s.sessionKey(sessionID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (s *Store) sessionKey(sessionID string) string {
	return "session:" + sessionID
}
