package srs

import "time"

const (
	// DefaultEaseFactor is the ease a card starts with and returns to on graduation.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor enforced after every ease recomputation.
	MinEaseFactor = 1.3
)

// ReviewRecord is one grading event. Records are append-only.
type ReviewRecord struct {
	Date       time.Time `json:"date"`
	Grade      Grade     `json:"grade"`
	Interval   float64   `json:"interval"`
	EaseFactor float64   `json:"ease_factor"`
}

// Schedule is the scheduling state of one card for one learner.
type Schedule struct {
	Interval    float64        `json:"interval"` // days
	Repetitions int            `json:"repetitions"`
	EaseFactor  float64        `json:"ease_factor"`
	State       State          `json:"state"`
	Step        *int           `json:"step,omitempty"` // nil unless State is Learning or Lapsed.
	Due         time.Time      `json:"due"`
	History     []ReviewRecord `json:"history"`
}

// NewSchedule returns the schedule of a card that has never been graded.
// It is due immediately.
func NewSchedule(now time.Time) Schedule {
	return Schedule{
		Interval:   1,
		EaseFactor: DefaultEaseFactor,
		State:      New,
		Due:        now,
	}
}

// IsDue reports whether the card may be shown at now.
func (s Schedule) IsDue(now time.Time) bool {
	return !now.Before(s.Due)
}

// StepIndex returns the current learning step, 0 when none is set.
func (s Schedule) StepIndex() int {
	if s.Step == nil {
		return 0
	}
	return *s.Step
}

// clone returns a copy that shares no memory with s.
func (s Schedule) clone() Schedule {
	out := s
	if s.Step != nil {
		v := *s.Step
		out.Step = &v
	}
	out.History = make([]ReviewRecord, len(s.History), len(s.History)+1)
	copy(out.History, s.History)
	return out
}

func (s *Schedule) setStep(step int) {
	s.Step = &step
}

func (s *Schedule) clearStep() {
	s.Step = nil
}
