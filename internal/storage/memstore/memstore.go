// Package memstore is an in-memory implementation of the store used by the
// service and sync layers. Each method locks the store for its duration, so
// a record is always read and written whole.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
	"github.com/conorfennell/vocabdeck/internal/storage"
)

// Store holds every record in maps keyed by id.
type Store struct {
	mu       sync.Mutex
	decks    map[string]domain.Deck
	items    map[string]domain.VocabItem
	progress map[string]domain.Progress
	queues   map[string]domain.DailyQueue
	sources  map[int64]domain.Source
	nextSrc  int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		decks:    make(map[string]domain.Deck),
		items:    make(map[string]domain.VocabItem),
		progress: make(map[string]domain.Progress),
		queues:   make(map[string]domain.DailyQueue),
		sources:  make(map[int64]domain.Source),
	}
}

// CreateDeck adds a deck. Names are unique per kind and owner.
func (s *Store) CreateDeck(_ context.Context, d *domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[d.ID]; ok {
		return fmt.Errorf("failed to insert deck %s: duplicate id", d.Name)
	}
	for _, other := range s.decks {
		if other.Kind == d.Kind && other.Owner == d.Owner && other.Name == d.Name {
			return fmt.Errorf("failed to insert deck %s: duplicate name", d.Name)
		}
	}
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	s.decks[d.ID] = c
	return nil
}

// FindDeck returns the deck with the given id, or nil if there is none.
func (s *Store) FindDeck(_ context.Context, id string) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decks[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// FindDeckByName looks a deck up by kind, owner and name.
func (s *Store) FindDeckByName(_ context.Context, kind domain.DeckKind, owner, name string) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.decks {
		if d.Kind == kind && d.Owner == owner && d.Name == name {
			return &d, nil
		}
	}
	return nil, nil
}

// ListDecks returns the shared decks and the user's personal decks, sorted by name.
func (s *Store) ListDecks(_ context.Context, userID string) ([]domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var decks []domain.Deck
	for _, d := range s.decks {
		if d.Kind == domain.SharedDeck || d.Owner == userID {
			decks = append(decks, d)
		}
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })
	return decks, nil
}

// InsertItem adds a vocabulary item to an existing deck.
func (s *Store) InsertItem(_ context.Context, item *domain.VocabItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[item.DeckID]; !ok {
		return fmt.Errorf("failed to insert item %s: deck %s: %w", item.Word, item.DeckID, storage.ErrNotFound)
	}
	for _, other := range s.items {
		if other.DeckID == item.DeckID && other.Hash == item.Hash {
			return fmt.Errorf("failed to insert item %s: duplicate in deck", item.Word)
		}
	}
	c := *item
	c.Tags = append([]string(nil), item.Tags...)
	s.items[item.ID] = c
	return nil
}

// FindItemByHash returns the deck's item with the given hash, or nil.
func (s *Store) FindItemByHash(_ context.Context, deckID, hash string) (*domain.VocabItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.DeckID == deckID && item.Hash == hash {
			return &item, nil
		}
	}
	return nil, nil
}

// ListItems returns a deck's items sorted by word.
func (s *Store) ListItems(_ context.Context, deckID string) ([]domain.VocabItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []domain.VocabItem
	for _, item := range s.items {
		if item.DeckID == deckID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Word < items[j].Word })
	return items, nil
}

// GetItems loads items by id. Unknown ids are left out of the map.
func (s *Store) GetItems(_ context.Context, ids []string) (map[string]domain.VocabItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.VocabItem, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

// CountItems counts a deck's items, or every shared item when deckID is empty.
func (s *Store) CountItems(_ context.Context, deckID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		switch {
		case deckID != "" && item.DeckID == deckID:
			n++
		case deckID == "" && s.decks[item.DeckID].Kind == domain.SharedDeck:
			n++
		}
	}
	return n, nil
}

// InsertProgress stores new records, skipping items the user already tracks.
func (s *Store) InsertProgress(_ context.Context, records []domain.Progress) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracked := make(map[string]bool)
	for _, p := range s.progress {
		tracked[p.UserID+"/"+p.ItemID] = true
	}

	inserted := 0
	for _, p := range records {
		key := p.UserID + "/" + p.ItemID
		if _, dup := s.progress[p.ID]; dup || tracked[key] {
			continue
		}
		s.progress[p.ID] = cloneProgress(p)
		tracked[key] = true
		inserted++
	}
	return inserted, nil
}

// FindProgress returns a copy of the user's record, or nil.
func (s *Store) FindProgress(_ context.Context, userID, id string) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	c := cloneProgress(p)
	return &c, nil
}

// ListProgress returns the user's records, optionally limited to one deck.
func (s *Store) ListProgress(_ context.Context, userID, deckID string) ([]domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Progress
	for _, p := range s.progress {
		if p.UserID == userID && (deckID == "" || p.DeckID == deckID) {
			out = append(out, cloneProgress(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveProgress replaces a record. Its history may only grow.
func (s *Store) SaveProgress(_ context.Context, p *domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.progress[p.ID]
	if !ok || stored.UserID != p.UserID {
		return fmt.Errorf("failed to update progress %s: %w", p.ID, storage.ErrNotFound)
	}
	if len(p.Schedule.History) < len(stored.Schedule.History) {
		return fmt.Errorf("failed to update progress %s: history is append-only", p.ID)
	}
	s.progress[p.ID] = cloneProgress(*p)
	return nil
}

// FindQueue returns the queue for a user, deck and day, or nil.
func (s *Store) FindQueue(_ context.Context, userID, deckID, day string) (*domain.DailyQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queueKey(userID, deckID, day)]
	if !ok {
		return nil, nil
	}
	q.CardIDs = append([]string(nil), q.CardIDs...)
	return &q, nil
}

// SaveQueue upserts a queue, keeping the original creation time.
func (s *Store) SaveQueue(_ context.Context, q *domain.DailyQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := queueKey(q.UserID, q.DeckID, q.Day)
	c := *q
	c.CardIDs = append([]string(nil), q.CardIDs...)
	if existing, ok := s.queues[key]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	s.queues[key] = c
	return nil
}

// InsertSource registers a source path and returns its id.
func (s *Store) InsertSource(_ context.Context, path, sourceType, deckName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.Path == path {
			return 0, fmt.Errorf("failed to insert source %s: duplicate path", path)
		}
	}
	s.nextSrc++
	s.sources[s.nextSrc] = domain.Source{ID: s.nextSrc, Path: path, Type: sourceType, DeckName: deckName}
	return s.nextSrc, nil
}

// FindSourceByPath returns the source registered for path, or nil.
func (s *Store) FindSourceByPath(_ context.Context, path string) (*domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.Path == path {
			return &src, nil
		}
	}
	return nil, nil
}

// GetAllSources returns every source ordered by id.
func (s *Store) GetAllSources(_ context.Context) ([]domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Source
	for _, src := range s.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateSourceLastScanned records when a source was last synced.
func (s *Store) UpdateSourceLastScanned(_ context.Context, sourceID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[sourceID]
	if !ok {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, storage.ErrNotFound)
	}
	src.LastScanned = at
	s.sources[sourceID] = src
	return nil
}

// DeleteSource removes a source. Its imported items are kept.
func (s *Store) DeleteSource(_ context.Context, sourceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, sourceID)
	return nil
}

func queueKey(userID, deckID, day string) string {
	return userID + "/" + deckID + "/" + day
}

func cloneProgress(p domain.Progress) domain.Progress {
	c := p
	if p.Schedule.Step != nil {
		v := *p.Schedule.Step
		c.Schedule.Step = &v
	}
	c.Schedule.History = append([]srs.ReviewRecord(nil), p.Schedule.History...)
	return c
}
