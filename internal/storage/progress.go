package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

const progressColumns = `id, user_id, deck_id, item_id, interval_days, repetitions, ease_factor, state, step, due_date`

// InsertProgress inserts new progress records, skipping any the learner already has
// for the same item.
func (db *DB) InsertProgress(ctx context.Context, records []domain.Progress) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, p := range records {
		state, err := p.Schedule.State.MarshalText()
		if err != nil {
			return 0, fmt.Errorf("failed to insert progress %s: %w", p.ID, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO progress (`+progressColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.ID,
			p.UserID,
			p.DeckID,
			p.ItemID,
			p.Schedule.Interval,
			p.Schedule.Repetitions,
			p.Schedule.EaseFactor,
			string(state),
			nullStep(p.Schedule.Step),
			p.Schedule.Due.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert progress %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit progress insert: %w", err)
	}
	return inserted, nil
}

// FindProgress retrieves a learner's progress record with its history.
// It returns nil, nil when absent or owned by another learner.
func (db *DB) FindProgress(ctx context.Context, userID, id string) (*domain.Progress, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM progress WHERE id = ? AND user_id = ?
	`, id, userID)
	p, err := scanProgress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find progress %s: %w", id, err)
	}

	history, err := db.loadHistory(ctx, `progress_id = ?`, id)
	if err != nil {
		return nil, err
	}
	p.Schedule.History = history[p.ID]
	return p, nil
}

// ListProgress returns a learner's progress records with their history.
// An empty deckID lists every deck.
func (db *DB) ListProgress(ctx context.Context, userID, deckID string) ([]domain.Progress, error) {
	where, args := `user_id = ?`, []any{userID}
	if deckID != "" {
		where, args = `user_id = ? AND deck_id = ?`, []any{userID, deckID}
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+progressColumns+`
		FROM progress WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for %s: %w", userID, err)
	}
	defer rows.Close()

	var records []domain.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress row for %s: %w", userID, err)
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list progress for %s: %w", userID, err)
	}

	history, err := db.loadHistory(ctx, `progress_id IN (SELECT id FROM progress WHERE `+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Schedule.History = history[records[i].ID]
	}
	return records, nil
}

// SaveProgress writes a progress record's schedule and appends any history
// records not yet stored, in one transaction.
func (db *DB) SaveProgress(ctx context.Context, p *domain.Progress) error {
	state, err := p.Schedule.State.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to save progress %s: %w", p.ID, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE progress
		SET interval_days = ?, repetitions = ?, ease_factor = ?, state = ?, step = ?, due_date = ?
		WHERE id = ? AND user_id = ?
	`,
		p.Schedule.Interval,
		p.Schedule.Repetitions,
		p.Schedule.EaseFactor,
		string(state),
		nullStep(p.Schedule.Step),
		p.Schedule.Due.UTC(),
		p.ID,
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress %s: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update progress %s: %w", p.ID, ErrNotFound)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_history WHERE progress_id = ?`, p.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count history for progress %s: %w", p.ID, err)
	}
	for seq := stored; seq < len(p.Schedule.History); seq++ {
		r := p.Schedule.History[seq]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO review_history (progress_id, seq, reviewed_at, grade, interval_days, ease_factor)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, seq, r.Date.UTC(), int(r.Grade), r.Interval, r.EaseFactor)
		if err != nil {
			return fmt.Errorf("failed to append history %d for progress %s: %w", seq, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit progress %s: %w", p.ID, err)
	}
	return nil
}

func (db *DB) loadHistory(ctx context.Context, where string, args ...any) (map[string][]srs.ReviewRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT progress_id, reviewed_at, grade, interval_days, ease_factor
		FROM review_history WHERE `+where+`
		ORDER BY progress_id, seq
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load review history: %w", err)
	}
	defer rows.Close()

	history := make(map[string][]srs.ReviewRecord)
	for rows.Next() {
		var (
			id    string
			r     srs.ReviewRecord
			grade int
		)
		if err := rows.Scan(&id, &r.Date, &grade, &r.Interval, &r.EaseFactor); err != nil {
			return nil, fmt.Errorf("failed to scan review history row: %w", err)
		}
		r.Grade = srs.Grade(grade)
		history[id] = append(history[id], r)
	}
	return history, rows.Err()
}

func scanProgress(row scanner) (*domain.Progress, error) {
	var (
		p     domain.Progress
		state string
		step  sql.NullInt64
		due   time.Time
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.DeckID,
		&p.ItemID,
		&p.Schedule.Interval,
		&p.Schedule.Repetitions,
		&p.Schedule.EaseFactor,
		&state,
		&step,
		&due,
	)
	if err != nil {
		return nil, err
	}
	// An unknown state is kept as an invalid value so the engine rejects it
	// instead of the whole listing failing.
	p.Schedule.State = srs.State(-1)
	if s, err := srs.ParseState(state); err == nil {
		p.Schedule.State = s
	}
	if step.Valid {
		v := int(step.Int64)
		p.Schedule.Step = &v
	}
	p.Schedule.Due = due
	return &p, nil
}

func nullStep(step *int) sql.NullInt64 {
	if step == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*step), Valid: true}
}
