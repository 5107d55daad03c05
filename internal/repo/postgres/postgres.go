package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

const Schema = `
CREATE TABLE IF NOT EXISTS watchdog_state (
  id          SMALLINT PRIMARY KEY CHECK (id = 1),
  status      TEXT NOT NULL,
  counter     INTEGER NOT NULL DEFAULT 0,
  last_change TIMESTAMPTZ NULL,
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS watchdog_messages (
  destination_id TEXT PRIMARY KEY,
  message_id     TEXT NOT NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Load(ctx context.Context) (*domain.RuntimeSnapshot, error) {
	var (
		statusText string
		counter    int
		lastChange *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT status, counter, last_change FROM watchdog_state WHERE id = 1`,
	).Scan(&statusText, &counter, &lastChange)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	status, err := domain.ParseStatus(statusText)
	if err != nil {
		return nil, err
	}
	snap := &domain.RuntimeSnapshot{
		Status:            status,
		HysteresisCounter: counter,
		Messages:          map[domain.DestinationID]domain.MessageID{},
	}
	if lastChange != nil {
		snap.LastChange = lastChange.UTC()
	}

	msgs, err := s.loadMessages(ctx)
	if err != nil {
		return nil, err
	}
	snap.Messages = msgs
	return snap, nil
}

// Save replaces the state row and the full pointer set in one transaction.
func (s *Store) Save(ctx context.Context, snap domain.RuntimeSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var lastChange *time.Time
	if !snap.LastChange.IsZero() {
		lastChange = &snap.LastChange
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO watchdog_state (id, status, counter, last_change, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id)
		DO UPDATE SET status=EXCLUDED.status, counter=EXCLUDED.counter,
		              last_change=EXCLUDED.last_change, updated_at=now()`,
		snap.Status.String(), snap.HysteresisCounter, lastChange,
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	if err := saveMessages(ctx, tx, snap.Messages); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("state_saved", zap.String("backend", "postgres"), zap.Int("messages", len(snap.Messages)))
	return nil
}
