package domain

import (
	"time"

	"github.com/conorfennell/vocabdeck/internal/srs"
)

// Progress is one learner's schedule for one vocabulary item within a deck.
// It is read, mutated and written back as a single unit.
type Progress struct {
	ID       string
	UserID   string
	DeckID   string
	ItemID   string
	Schedule srs.Schedule
}

// DailyQueue is the set of cards chosen for one learner, deck and calendar day.
// CardIDs only ever grows during the day.
type DailyQueue struct {
	UserID    string
	DeckID    string
	Day       string // yyyy-mm-dd
	CardIDs   []string
	CreatedAt time.Time
}

// Source types.
const (
	LocalSource = "local"
	GitSource   = "git"
)

// Source is a directory or git repository whose vocabulary files feed a deck.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	DeckName    string
	LastScanned time.Time
}
