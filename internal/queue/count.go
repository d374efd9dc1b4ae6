package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// CountDueToday returns how many cards today's queue holds, or would hold if
// it were built now. Nothing is persisted.
func (b *Builder) CountDueToday(ctx context.Context, userID, deckID, day string, now time.Time, cards []domain.Progress) (int, error) {
	existing, err := b.store.FindQueue(ctx, userID, deckID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to load queue for %s/%s on %s: %w", userID, deckID, day, err)
	}
	if existing != nil && len(existing.CardIDs) > 0 {
		return len(existing.CardIDs), nil
	}
	if existing != nil && now.Sub(existing.CreatedAt) >= b.selfHeal {
		return 0, nil
	}
	return Count(b.quota, cards, now), nil
}

// Count is the cardinality of a fresh queue under quota, using the same
// arithmetic as Select.
func Count(quota Quota, cards []domain.Progress, now time.Time) int {
	var review, fresh int
	for _, c := range cards {
		switch {
		case c.Schedule.State == srs.Review && c.Schedule.IsDue(now):
			review++
		case c.Schedule.State == srs.New:
			fresh++
		}
	}
	review = min(review, quota.MaxReview)
	return review + min(fresh, newQuota(quota, review))
}

// DayKey is the calendar day of now in loc, formatted yyyy-mm-dd.
func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(time.DateOnly)
}
