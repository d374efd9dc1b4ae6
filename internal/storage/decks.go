package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// CreateDeck inserts a new deck.
func (db *DB) CreateDeck(ctx context.Context, d *domain.Deck) error {
	tags, err := encodeTags(d.Tags)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO decks (id, name, kind, owner, description, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, string(d.Kind), d.Owner, d.Description, tags, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert deck %s: %w", d.Name, err)
	}
	return nil
}

// FindDeck retrieves a deck by id. It returns nil, nil when absent.
func (db *DB) FindDeck(ctx context.Context, id string) (*domain.Deck, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, kind, owner, description, tags
		FROM decks WHERE id = ?
	`, id)
	d, err := scanDeck(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find deck %s: %w", id, err)
	}
	return d, nil
}

// FindDeckByName retrieves a deck by kind, owner and name. It returns nil, nil when absent.
func (db *DB) FindDeckByName(ctx context.Context, kind domain.DeckKind, owner, name string) (*domain.Deck, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, kind, owner, description, tags
		FROM decks WHERE kind = ? AND owner = ? AND name = ?
	`, string(kind), owner, name)
	d, err := scanDeck(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find deck %s: %w", name, err)
	}
	return d, nil
}

// ListDecks returns the shared decks plus the personal decks owned by userID.
func (db *DB) ListDecks(ctx context.Context, userID string) ([]domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, kind, owner, description, tags
		FROM decks
		WHERE kind = ? OR (kind = ? AND owner = ?)
		ORDER BY name
	`, string(domain.SharedDeck), string(domain.PersonalDeck), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		decks = append(decks, *d)
	}
	return decks, rows.Err()
}

// InsertItem inserts a vocabulary item.
func (db *DB) InsertItem(ctx context.Context, item *domain.VocabItem) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO vocab_items (id, deck_id, word, part_of_speech, phonetic, meaning, example, definition, image, tags, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.DeckID,
		item.Word,
		item.PartOfSpeech,
		item.Phonetic,
		item.Meaning,
		item.Example,
		item.Definition,
		item.Image,
		tags,
		item.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.Word, err)
	}
	return nil
}

// FindItemByHash retrieves an item of a deck by its content hash. It returns nil, nil when absent.
func (db *DB) FindItemByHash(ctx context.Context, deckID, hash string) (*domain.VocabItem, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM vocab_items WHERE deck_id = ? AND hash = ?
	`, deckID, hash)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item %s in deck %s: %w", hash, deckID, err)
	}
	return item, nil
}

// ListItems returns every item of a deck.
func (db *DB) ListItems(ctx context.Context, deckID string) ([]domain.VocabItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM vocab_items WHERE deck_id = ?
		ORDER BY word
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var items []domain.VocabItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row for deck %s: %w", deckID, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItems returns the items with the given ids, keyed by id. Unknown ids are skipped.
func (db *DB) GetItems(ctx context.Context, ids []string) (map[string]domain.VocabItem, error) {
	items := make(map[string]domain.VocabItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM vocab_items WHERE id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %d items: %w", len(ids), err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items[item.ID] = *item
	}
	return items, rows.Err()
}

// CountItems counts the items of a deck, or of every shared deck when deckID is empty.
func (db *DB) CountItems(ctx context.Context, deckID string) (int, error) {
	var (
		n   int
		err error
	)
	if deckID == "" {
		err = db.conn.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM vocab_items i
			JOIN decks d ON d.id = i.deck_id
			WHERE d.kind = ?
		`, string(domain.SharedDeck)).Scan(&n)
	} else {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocab_items WHERE deck_id = ?`, deckID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

const itemColumns = `id, deck_id, word, part_of_speech, phonetic, meaning, example, definition, image, tags, hash`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeck(row scanner) (*domain.Deck, error) {
	var (
		d    domain.Deck
		kind string
		tags string
	)
	if err := row.Scan(&d.ID, &d.Name, &kind, &d.Owner, &d.Description, &tags); err != nil {
		return nil, err
	}
	d.Kind = domain.DeckKind(kind)
	if err := decodeTags(tags, &d.Tags); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanItem(row scanner) (*domain.VocabItem, error) {
	var (
		item domain.VocabItem
		tags string
	)
	err := row.Scan(
		&item.ID,
		&item.DeckID,
		&item.Word,
		&item.PartOfSpeech,
		&item.Phonetic,
		&item.Meaning,
		&item.Example,
		&item.Definition,
		&item.Image,
		&tags,
		&item.Hash,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeTags(tags, &item.Tags); err != nil {
		return nil, err
	}
	return &item, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string, dst *[]string) error {
	if s == "" || s == "[]" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("failed to decode tags %q: %w", s, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
