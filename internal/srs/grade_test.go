package srs

import (
	"errors"
	"testing"
)

func TestParseGrade(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Grade
		wantErr bool
	}{
		{"zero", "0", Blackout, false},
		{"good", "3", Good, false},
		{"perfect", "5", Perfect, false},
		{"negative", "-1", 0, true},
		{"too high", "6", 0, true},
		{"not a number", "good", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrade(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGrade) {
					t.Errorf("ParseGrade(%q) error = %v, want ErrInvalidGrade", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseGrade(%q) = %v, %v, want %v", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestStateText(t *testing.T) {
	for _, s := range []State{New, Learning, Review, Lapsed} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) returned an unexpected error: %v", s, err)
		}
		var back State
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %v, %v, want %v", text, back, err, s)
		}
	}

	if _, err := ParseState("graduated"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for an unknown name, but got %v", err)
	}
	if _, err := State(7).MarshalText(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for an out-of-range value, but got %v", err)
	}
}
