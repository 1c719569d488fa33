package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/makhanda-smiles/portal-api/internal/model"
)

// TokenStore keeps the signed-in session of each client.
type TokenStore interface {
	Save(ctx context.Context, clientID string, session *model.AuthSession, ttl time.Duration) error
	// Load returns nil, nil when the client has no session.
	Load(ctx context.Context, clientID string) (*model.AuthSession, error)
	Delete(ctx context.Context, clientID string) error
}

type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "smiles:session:"}
}

func (s *RedisTokenStore) key(clientID string) string {
	return s.prefix + clientID
}

func (s *RedisTokenStore) Save(ctx context.Context, clientID string, session *model.AuthSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(clientID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context, clientID string) (*model.AuthSession, error) {
	data, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session model.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, s.key(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
