package queue

import (
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// Present picks the queued cards that can be shown at now and orders them.
//
// A card is presentable when it is new, or when it is drilling or in review
// and due. If nothing qualifies but some queued cards are mid-drill, all of
// those are shown regardless of due time, so a learner in the middle of the
// learning steps never sees an empty session.
func (b *Builder) Present(q domain.DailyQueue, cards []domain.Progress, now time.Time) []domain.Progress {
	byID := make(map[string]domain.Progress, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	var queued []domain.Progress
	for _, id := range q.CardIDs {
		if c, ok := byID[id]; ok {
			queued = append(queued, c)
		}
	}

	var ready, drilling []domain.Progress
	for _, c := range queued {
		if presentable(c.Schedule, now) {
			ready = append(ready, c)
		}
		if c.Schedule.State.Drilling() {
			drilling = append(drilling, c)
		}
	}
	if len(ready) == 0 {
		ready = drilling
	}

	return b.order(ready)
}

func presentable(s srs.Schedule, now time.Time) bool {
	switch s.State {
	case srs.New:
		return true
	case srs.Learning, srs.Lapsed, srs.Review:
		return s.IsDue(now)
	}
	return false
}

// order interleaves the learning, new and review pools round-robin, then
// shuffles the whole sequence once to break up the repeating pattern.
func (b *Builder) order(cards []domain.Progress) []domain.Progress {
	if len(cards) <= 1 {
		return cards
	}

	var learning, fresh, review []domain.Progress
	for _, c := range cards {
		switch {
		case c.Schedule.State.Drilling():
			learning = append(learning, c)
		case c.Schedule.State == srs.New:
			fresh = append(fresh, c)
		default:
			review = append(review, c)
		}
	}

	mixed := Interleave(learning, fresh, review)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.rng.Shuffle(len(mixed), func(i, j int) { mixed[i], mixed[j] = mixed[j], mixed[i] })
	return mixed
}

// Interleave takes one element from each non-empty pool in turn, in the
// order given, until every pool is exhausted.
func Interleave[T any](pools ...[]T) []T {
	total, longest := 0, 0
	for _, p := range pools {
		total += len(p)
		longest = max(longest, len(p))
	}

	out := make([]T, 0, total)
	for i := 0; i < longest; i++ {
		for _, p := range pools {
			if i < len(p) {
				out = append(out, p[i])
			}
		}
	}
	return out
}
