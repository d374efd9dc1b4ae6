package srs

import (
	"encoding"
	"fmt"
)

// State is the scheduling phase of a card.
type State int

const (
	New      State = iota // Never graded.
	Learning              // Working through the sub-day learning steps.
	Review                // In the day-interval review cycle.
	Lapsed                // Failed a review; drilling the learning steps again.
)

var (
	stateNames  = [...]string{New: "new", Learning: "learning", Review: "review", Lapsed: "lapsed"}
	stateByName = map[string]State{
		"new":      New,
		"learning": Learning,
		"review":   Review,
		"lapsed":   Lapsed,
	}
)

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is one of the four known states.
func (s State) IsValid() bool {
	return s >= New && s <= Lapsed
}

// Drilling reports whether the card is working through learning steps.
func (s State) Drilling() bool {
	return s == Learning || s == Lapsed
}

func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseState converts a stored state name back into a State.
func ParseState(name string) (State, error) {
	v, ok := stateByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
	return v, nil
}
