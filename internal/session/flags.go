package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Flags are the two per-client demo markers.
type Flags struct {
	DemoMode bool
	DemoRole Role
}

type FlagStore interface {
	Load(ctx context.Context, clientID string) (Flags, error)
	Save(ctx context.Context, clientID string, flags Flags) error
	Clear(ctx context.Context, clientID string) error
}

const (
	fieldDemoMode = "demoMode"
	fieldDemoRole = "demoRole"
)

// RedisFlagStore keeps flags in a hash per client.
type RedisFlagStore struct {
	client *redis.Client
}

func NewRedisFlagStore(client *redis.Client) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

func flagKey(clientID string) string {
	return "smiles:client:" + clientID
}

func (s *RedisFlagStore) Load(ctx context.Context, clientID string) (Flags, error) {
	values, err := s.client.HGetAll(ctx, flagKey(clientID)).Result()
	if err != nil {
		return Flags{}, fmt.Errorf("failed to load session flags: %w", err)
	}

	flags := Flags{
		DemoMode: values[fieldDemoMode] == "true",
		DemoRole: Role(values[fieldDemoRole]),
	}
	// Both flags must be present and sane for demo mode to apply.
	if !flags.DemoMode || !flags.DemoRole.Valid() {
		return Flags{}, nil
	}
	return flags, nil
}

func (s *RedisFlagStore) Save(ctx context.Context, clientID string, flags Flags) error {
	err := s.client.HSet(ctx, flagKey(clientID),
		fieldDemoMode, fmt.Sprintf("%t", flags.DemoMode),
		fieldDemoRole, string(flags.DemoRole),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save session flags: %w", err)
	}
	return nil
}

func (s *RedisFlagStore) Clear(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, flagKey(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session flags: %w", err)
	}
	return nil
}
