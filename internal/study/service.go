// Package study is the service layer around the scheduler: it loads a
// learner's records, runs the engine or the queue builder over them and
// writes the results back.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/queue"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// ErrNotFound is returned when a deck or progress record does not exist
// for the learner.
var ErrNotFound = errors.New("study: not found")

// masteredInterval is the interval in days past which an item counts as mastered.
const masteredInterval = 21

// Service runs study operations for learners.
type Service struct {
	store    Store
	engine   *srs.Engine
	builder  *queue.Builder
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a store, an engine and a queue builder together. The
// builder must be backed by the same store.
func NewService(store Store, engine *srs.Engine, builder *queue.Builder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		engine:   engine,
		builder:  builder,
		loc:      time.Local,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type reviewRequest struct {
	UserID     string `validate:"required"`
	ProgressID string `validate:"required"`
	Grade      int    `validate:"min=0,max=5"`
}

// Review grades one card and persists the new schedule together with its
// history record. Grades outside 0..5 are rejected before the engine runs.
func (s *Service) Review(ctx context.Context, userID, progressID string, grade int) (domain.Progress, error) {
	req := reviewRequest{UserID: userID, ProgressID: progressID, Grade: grade}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Grade" {
			return domain.Progress{}, fmt.Errorf("%w: %d", srs.ErrInvalidGrade, grade)
		}
		return domain.Progress{}, fmt.Errorf("invalid review request: %w", err)
	}

	p, err := s.store.FindProgress(ctx, userID, progressID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to load progress %s: %w", progressID, err)
	}
	if p == nil {
		return domain.Progress{}, fmt.Errorf("progress %s: %w", progressID, ErrNotFound)
	}

	now := s.now()
	next, err := s.engine.ApplyGrade(p.Schedule, srs.Grade(grade), now)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to grade progress %s: %w", progressID, err)
	}
	p.Schedule = next

	if err := s.store.SaveProgress(ctx, p); err != nil {
		return domain.Progress{}, fmt.Errorf("failed to save progress %s: %w", progressID, err)
	}

	slog.Info("card reviewed",
		"user", userID,
		"progress", progressID,
		"grade", srs.Grade(grade),
		"state", next.State,
		"due", next.Due,
	)
	return *p, nil
}

// Card is a queued progress record with its vocabulary payload.
type Card struct {
	Progress domain.Progress
	Item     domain.VocabItem
}

// DueCards builds or refreshes today's queue for the deck and returns the
// cards to present, in presentation order.
func (s *Service) DueCards(ctx context.Context, userID, deckID string) ([]Card, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return nil, err
	}
	records, err := s.store.ListProgress(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for %s/%s: %w", userID, deckID, err)
	}

	now := s.now()
	day := queue.DayKey(now, s.loc)
	session, err := s.builder.BuildOrRefresh(ctx, userID, deckID, day, now, records)
	if err != nil {
		return nil, err
	}
	if session.Action != queue.Reused {
		slog.Info("daily queue updated",
			"user", userID,
			"deck", deckID,
			"day", day,
			"action", session.Action,
			"size", len(session.Queue.CardIDs),
		)
	}

	itemIDs := make([]string, len(session.Cards))
	for i, c := range session.Cards {
		itemIDs[i] = c.ItemID
	}
	items, err := s.store.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for %s/%s: %w", userID, deckID, err)
	}

	cards := make([]Card, 0, len(session.Cards))
	for _, p := range session.Cards {
		item, ok := items[p.ItemID]
		if !ok {
			slog.Warn("queued card has no item", "progress", p.ID, "item", p.ItemID)
			continue
		}
		cards = append(cards, Card{Progress: p, Item: item})
	}
	return cards, nil
}

// DeckProgress returns every card the learner tracks in the deck, due or
// not, ordered by due date.
func (s *Service) DeckProgress(ctx context.Context, userID, deckID string) ([]Card, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return nil, err
	}
	records, err := s.store.ListProgress(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for %s/%s: %w", userID, deckID, err)
	}

	itemIDs := make([]string, len(records))
	for i, p := range records {
		itemIDs[i] = p.ItemID
	}
	items, err := s.store.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for %s/%s: %w", userID, deckID, err)
	}

	cards := make([]Card, 0, len(records))
	for _, p := range records {
		item, ok := items[p.ItemID]
		if !ok {
			continue
		}
		cards = append(cards, Card{Progress: p, Item: item})
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Progress.Schedule.Due.Before(cards[j].Progress.Schedule.Due)
	})
	return cards, nil
}

// DeckWords lists the vocabulary items of a deck.
func (s *Service) DeckWords(ctx context.Context, deckID string) ([]domain.VocabItem, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of deck %s: %w", deckID, err)
	}
	return items, nil
}

// CountDue returns how many cards today's queue holds for the deck without
// creating or changing it.
func (s *Service) CountDue(ctx context.Context, userID, deckID string) (int, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return 0, err
	}
	records, err := s.store.ListProgress(ctx, userID, deckID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress for %s/%s: %w", userID, deckID, err)
	}
	now := s.now()
	return s.builder.CountDueToday(ctx, userID, deckID, queue.DayKey(now, s.loc), now, records)
}

// Enroll starts tracking every item of the deck the learner does not track
// yet. It returns the number of records created.
func (s *Service) Enroll(ctx context.Context, userID, deckID string) (int, error) {
	if err := s.requireDeck(ctx, deckID); err != nil {
		return 0, err
	}
	items, err := s.store.ListItems(ctx, deckID)
	if err != nil {
		return 0, fmt.Errorf("failed to list items of deck %s: %w", deckID, err)
	}
	existing, err := s.store.ListProgress(ctx, userID, deckID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress for %s/%s: %w", userID, deckID, err)
	}

	tracked := make(map[string]bool, len(existing))
	for _, p := range existing {
		tracked[p.ItemID] = true
	}

	now := s.now()
	var records []domain.Progress
	for _, item := range items {
		if tracked[item.ID] {
			continue
		}
		records = append(records, domain.Progress{
			ID:       uuid.NewString(),
			UserID:   userID,
			DeckID:   deckID,
			ItemID:   item.ID,
			Schedule: srs.NewSchedule(now),
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	n, err := s.store.InsertProgress(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to enroll %s in deck %s: %w", userID, deckID, err)
	}
	slog.Info("learner enrolled", "user", userID, "deck", deckID, "new_cards", n)
	return n, nil
}

// Stats summarises a learner's progress across all decks.
type Stats struct {
	Total        int // items in shared decks
	Studied      int // tracked progress records
	Mastered     int // interval above three weeks
	DueToday     int // review cards whose due date has passed
	LearnedToday int // cards graded at least once today
	Learning     int // cards in learning or lapsed drills
}

// Stats computes the learner's dashboard figures.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	total, err := s.store.CountItems(ctx, "")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count items: %w", err)
	}
	records, err := s.store.ListProgress(ctx, userID, "")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list progress for %s: %w", userID, err)
	}

	now := s.now()
	today := queue.DayKey(now, s.loc)
	st := Stats{Total: total, Studied: len(records)}
	for _, p := range records {
		sched := p.Schedule
		if sched.Interval > masteredInterval {
			st.Mastered++
		}
		if sched.State == srs.Review && sched.IsDue(now) {
			st.DueToday++
		}
		if sched.State.Drilling() {
			st.Learning++
		}
		for _, h := range sched.History {
			if queue.DayKey(h.Date, s.loc) == today {
				st.LearnedToday++
				break
			}
		}
	}
	return st, nil
}

// LearningCount returns how many of the learner's cards in the deck are
// being drilled.
func (s *Service) LearningCount(ctx context.Context, userID, deckID string) (int, error) {
	records, err := s.store.ListProgress(ctx, userID, deckID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress for %s/%s: %w", userID, deckID, err)
	}
	n := 0
	for _, p := range records {
		if p.Schedule.State.Drilling() {
			n++
		}
	}
	return n, nil
}

// DeckSummary is a deck with its item count.
type DeckSummary struct {
	Deck  domain.Deck
	Items int
}

// ListDecks returns the decks visible to the learner.
func (s *Service) ListDecks(ctx context.Context, userID string) ([]DeckSummary, error) {
	decks, err := s.store.ListDecks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	out := make([]DeckSummary, 0, len(decks))
	for _, d := range decks {
		n, err := s.store.CountItems(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count items of deck %s: %w", d.ID, err)
		}
		out = append(out, DeckSummary{Deck: d, Items: n})
	}
	return out, nil
}

// ResolveDeck finds a deck visible to the learner by id or by name.
func (s *Service) ResolveDeck(ctx context.Context, userID, ref string) (domain.Deck, error) {
	d, err := s.store.FindDeck(ctx, ref)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to find deck %s: %w", ref, err)
	}
	if d == nil {
		d, err = s.store.FindDeckByName(ctx, domain.SharedDeck, "", ref)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("failed to find deck %s: %w", ref, err)
		}
	}
	if d == nil {
		d, err = s.store.FindDeckByName(ctx, domain.PersonalDeck, userID, ref)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("failed to find deck %s: %w", ref, err)
		}
	}
	if d == nil || (d.Kind == domain.PersonalDeck && d.Owner != userID) {
		return domain.Deck{}, fmt.Errorf("deck %s: %w", ref, ErrNotFound)
	}
	return *d, nil
}

func (s *Service) requireDeck(ctx context.Context, deckID string) error {
	d, err := s.store.FindDeck(ctx, deckID)
	if err != nil {
		return fmt.Errorf("failed to find deck %s: %w", deckID, err)
	}
	if d == nil {
		return fmt.Errorf("deck %s: %w", deckID, ErrNotFound)
	}
	return nil
}
