package srs

import (
	"fmt"
	"strconv"
)

// Grade is the learner's recall score for a card, from 0 to 5.
// 0-1 mean Again, 2 Hard, 3 Good, 4-5 Easy.
type Grade int

const (
	Blackout Grade = 0
	Again    Grade = 1
	Hard     Grade = 2
	Good     Grade = 3
	Easy     Grade = 4
	Perfect  Grade = 5
)

// IsValid reports whether g lies in 0..5.
func (g Grade) IsValid() bool {
	return g >= Blackout && g <= Perfect
}

// Passed reports a successful recall (Good or better).
func (g Grade) Passed() bool {
	return g >= Good
}

// IsEasy reports an effortless recall.
func (g Grade) IsEasy() bool {
	return g >= Easy
}

func (g Grade) String() string {
	switch {
	case !g.IsValid():
		return fmt.Sprintf("Grade(%d)", int(g))
	case g.IsEasy():
		return "easy"
	case g == Good:
		return "good"
	case g == Hard:
		return "hard"
	default:
		return "again"
	}
}

// ParseGrade parses a decimal grade and rejects anything outside 0..5.
func ParseGrade(s string) (Grade, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	g := Grade(n)
	if !g.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
	}
	return g, nil
}
