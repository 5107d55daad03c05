package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/watchdog/internal/domain"
)

func (s *Store) loadMessages(ctx context.Context) (map[domain.DestinationID]domain.MessageID, error) {
	rows, err := s.pool.Query(ctx, `SELECT destination_id, message_id FROM watchdog_messages`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := map[domain.DestinationID]domain.MessageID{}
	for rows.Next() {
		var dest, msg string
		if err := rows.Scan(&dest, &msg); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out[domain.DestinationID(dest)] = domain.MessageID(msg)
	}
	return out, rows.Err()
}

// saveMessages makes the pointer table match msgs exactly.
func saveMessages(ctx context.Context, tx pgx.Tx, msgs map[domain.DestinationID]domain.MessageID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM watchdog_messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	batch := &pgx.Batch{}
	for dest, msg := range msgs {
		if msg == "" {
			continue
		}
		batch.Queue(
			`INSERT INTO watchdog_messages (destination_id, message_id) VALUES ($1, $2)`,
			string(dest), string(msg),
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert messages: %w", err)
	}
	return nil
}
