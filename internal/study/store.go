package study

import (
	"context"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/queue"
)

// Store is the persistence contract of the service.
//
// Every method reads or writes a single document (a deck, an item, a
// progress record together with its review history, or a daily queue) and
// does so atomically. Nothing is assumed across documents: a review that
// saves a progress record and a queue rebuild that saves the day's queue
// are independent writes. Single-record lookups return nil, nil when the
// record does not exist.
type Store interface {
	queue.Store

	FindDeck(ctx context.Context, id string) (*domain.Deck, error)
	FindDeckByName(ctx context.Context, kind domain.DeckKind, owner, name string) (*domain.Deck, error)
	ListDecks(ctx context.Context, userID string) ([]domain.Deck, error)
	ListItems(ctx context.Context, deckID string) ([]domain.VocabItem, error)
	GetItems(ctx context.Context, ids []string) (map[string]domain.VocabItem, error)
	CountItems(ctx context.Context, deckID string) (int, error)

	// InsertProgress skips records for items the learner already tracks
	// and returns how many were inserted.
	InsertProgress(ctx context.Context, records []domain.Progress) (int, error)
	FindProgress(ctx context.Context, userID, id string) (*domain.Progress, error)
	// ListProgress returns every record of the learner; an empty deckID
	// spans all decks.
	ListProgress(ctx context.Context, userID, deckID string) ([]domain.Progress, error)
	// SaveProgress replaces the schedule and appends any history records
	// not yet stored, in one write.
	SaveProgress(ctx context.Context, p *domain.Progress) error
}
