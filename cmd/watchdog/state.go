package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/repo"
	"github.com/hamed0406/watchdog/internal/repo/file"
	"github.com/hamed0406/watchdog/internal/repo/memory"
	"github.com/hamed0406/watchdog/internal/repo/postgres"
	"github.com/hamed0406/watchdog/internal/repo/redis"
)

func openStateStore(ctx context.Context, sc config.StateConfig, log *zap.Logger) (repo.StateStore, func(), error) {
	switch sc.Backend {
	case config.BackendPostgres:
		s, err := postgres.New(ctx, sc.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := redis.New(ctx, sc.RedisAddr, sc.RedisKey, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendMemory:
		log.Warn("state_backend_memory", zap.String("note", "runtime state is lost on restart"))
		return memory.New(), func() {}, nil
	default:
		return file.New(sc.Path), func() {}, nil
	}
}
