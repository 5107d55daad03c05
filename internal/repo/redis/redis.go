package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

// Store keeps the snapshot as one JSON value under key.
type Store struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func New(ctx context.Context, addr, key string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &Store{client: client, key: key, log: log}, nil
}

func (s *Store) Load(ctx context.Context) (*domain.RuntimeSnapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var snap domain.RuntimeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if snap.Messages == nil {
		snap.Messages = map[domain.DestinationID]domain.MessageID{}
	}
	return &snap, nil
}

func (s *Store) Save(ctx context.Context, snap domain.RuntimeSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	s.log.Debug("state_saved", zap.String("backend", "redis"), zap.String("key", s.key))
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
