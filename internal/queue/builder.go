// Package queue decides which cards a learner studies on a given day.
//
// Membership of a day's queue is fixed once created, apart from two rules:
// a non-empty queue is topped up with cards that have since become due, and
// an empty queue created moments ago is rebuilt, covering the race where it
// was created before the learner's deck finished importing. Only the order
// in which members are presented is randomised on every read.
package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// DefaultSelfHealWindow is how long after creation an empty queue may still
// be rebuilt.
const DefaultSelfHealWindow = 60 * time.Second

// Quota bounds how many cards a fresh queue takes.
type Quota struct {
	MaxNew    int
	MaxReview int
}

// DefaultQuota is 20 new and 100 review cards a day.
func DefaultQuota() Quota {
	return Quota{MaxNew: 20, MaxReview: 100}
}

// Store persists daily queues. Each call reads or writes one queue as a
// single atomic unit; nothing is assumed about atomicity across queues.
type Store interface {
	// FindQueue returns nil, nil when no queue exists for the key.
	FindQueue(ctx context.Context, userID, deckID, day string) (*domain.DailyQueue, error)
	// SaveQueue inserts or replaces the queue for its (user, deck, day) key.
	SaveQueue(ctx context.Context, q *domain.DailyQueue) error
}

// Action records how a queue's membership was resolved.
type Action int

const (
	Reused Action = iota
	Created
	Healed
	ToppedUp
)

func (a Action) String() string {
	switch a {
	case Created:
		return "created"
	case Healed:
		return "healed"
	case ToppedUp:
		return "topped_up"
	default:
		return "reused"
	}
}

// Session is the result of building or refreshing a day's queue.
type Session struct {
	Queue  domain.DailyQueue
	Cards  []domain.Progress // presentation order
	Action Action
}

// IDs returns the progress ids of the session in presentation order.
func (s Session) IDs() []string {
	ids := make([]string, len(s.Cards))
	for i, c := range s.Cards {
		ids[i] = c.ID
	}
	return ids
}

// Builder selects and caches daily queues.
type Builder struct {
	store    Store
	quota    Quota
	selfHeal time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Builder.
type Option func(*Builder)

// WithQuota overrides DefaultQuota.
func WithQuota(q Quota) Option {
	return func(b *Builder) { b.quota = q }
}

// WithSelfHealWindow overrides DefaultSelfHealWindow.
func WithSelfHealWindow(d time.Duration) Option {
	return func(b *Builder) { b.selfHeal = d }
}

// WithRand pins the random source used for sampling and shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(b *Builder) {
		if rng != nil {
			b.rng = rng
		}
	}
}

// NewBuilder returns a Builder backed by store.
func NewBuilder(store Store, opts ...Option) *Builder {
	b := &Builder{
		store:    store,
		quota:    DefaultQuota(),
		selfHeal: DefaultSelfHealWindow,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Quota returns the quota the builder applies to fresh queues.
func (b *Builder) Quota() Quota {
	return b.quota
}

// BuildOrRefresh resolves today's queue for the learner and deck, persists
// it if membership changed, and returns the cards to present now.
// cards must hold every Progress the learner has in the deck.
func (b *Builder) BuildOrRefresh(ctx context.Context, userID, deckID, day string, now time.Time, cards []domain.Progress) (Session, error) {
	existing, err := b.store.FindQueue(ctx, userID, deckID, day)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load queue for %s/%s on %s: %w", userID, deckID, day, err)
	}

	q, action := b.Resolve(existing, userID, deckID, day, now, cards)
	if action != Reused {
		if err := b.store.SaveQueue(ctx, &q); err != nil {
			return Session{}, fmt.Errorf("failed to save queue for %s/%s on %s: %w", userID, deckID, day, err)
		}
	}

	return Session{
		Queue:  q,
		Cards:  b.Present(q, cards, now),
		Action: action,
	}, nil
}

// Resolve works out the queue's membership without touching the store.
// existing may be nil when no queue has been created for the day.
func (b *Builder) Resolve(existing *domain.DailyQueue, userID, deckID, day string, now time.Time, cards []domain.Progress) (domain.DailyQueue, Action) {
	switch {
	case existing == nil:
		return domain.DailyQueue{
			UserID:    userID,
			DeckID:    deckID,
			Day:       day,
			CardIDs:   b.Select(cards, now),
			CreatedAt: now,
		}, Created

	case len(existing.CardIDs) == 0:
		q := *existing
		if now.Sub(q.CreatedAt) < b.selfHeal {
			q.CardIDs = b.Select(cards, now)
			return q, Healed
		}
		return q, Reused

	default:
		q := *existing
		q.CardIDs = append([]string(nil), existing.CardIDs...)
		queued := make(map[string]bool, len(q.CardIDs))
		for _, id := range q.CardIDs {
			queued[id] = true
		}
		added := false
		for _, c := range cards {
			if topUpCandidate(c.Schedule, now) && !queued[c.ID] {
				q.CardIDs = append(q.CardIDs, c.ID)
				queued[c.ID] = true
				added = true
			}
		}
		if added {
			return q, ToppedUp
		}
		return q, Reused
	}
}

// Select applies the fresh-queue rule: a uniform sample of due review cards
// up to MaxReview, then a uniform sample of new cards filling whatever is
// left of MaxNew. Reviews come first in the result.
func (b *Builder) Select(cards []domain.Progress, now time.Time) []string {
	var review, fresh []string
	for _, c := range cards {
		switch {
		case c.Schedule.State == srs.Review && c.Schedule.IsDue(now):
			review = append(review, c.ID)
		case c.Schedule.State == srs.New:
			fresh = append(fresh, c.ID)
		}
	}

	b.shuffle(review)
	review = review[:min(len(review), b.quota.MaxReview)]

	b.shuffle(fresh)
	fresh = fresh[:min(len(fresh), newQuota(b.quota, len(review)))]

	ids := make([]string, 0, len(review)+len(fresh))
	ids = append(ids, review...)
	return append(ids, fresh...)
}

// newQuota shrinks the new-card allowance to make room for reviews.
func newQuota(q Quota, reviews int) int {
	return max(0, q.MaxNew-reviews)
}

// topUpCandidate reports whether a card not yet queued should join a
// running queue.
func topUpCandidate(s srs.Schedule, now time.Time) bool {
	switch s.State {
	case srs.Learning, srs.Lapsed, srs.Review:
		return s.IsDue(now)
	}
	return false
}

// shuffle is an in-place Fisher-Yates shuffle.
func (b *Builder) shuffle(ids []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}
