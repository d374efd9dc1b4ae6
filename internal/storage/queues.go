package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// FindQueue retrieves the daily queue for a learner, deck and day. It returns nil, nil when absent.
func (db *DB) FindQueue(ctx context.Context, userID, deckID, day string) (*domain.DailyQueue, error) {
	q := domain.DailyQueue{UserID: userID, DeckID: deckID, Day: day}
	var ids string
	err := db.conn.QueryRowContext(ctx, `
		SELECT card_ids, created_at
		FROM daily_queues WHERE user_id = ? AND deck_id = ? AND day = ?
	`, userID, deckID, day).Scan(&ids, &q.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find queue %s/%s/%s: %w", userID, deckID, day, err)
	}
	if err := json.Unmarshal([]byte(ids), &q.CardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode queue %s/%s/%s: %w", userID, deckID, day, err)
	}
	return &q, nil
}

// SaveQueue inserts or replaces a daily queue. The creation time of an
// existing queue is preserved.
func (db *DB) SaveQueue(ctx context.Context, q *domain.DailyQueue) error {
	ids := q.CardIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode queue %s/%s/%s: %w", q.UserID, q.DeckID, q.Day, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO daily_queues (user_id, deck_id, day, card_ids, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, deck_id, day) DO UPDATE SET card_ids = excluded.card_ids
	`, q.UserID, q.DeckID, q.Day, string(encoded), q.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save queue %s/%s/%s: %w", q.UserID, q.DeckID, q.Day, err)
	}
	return nil
}
