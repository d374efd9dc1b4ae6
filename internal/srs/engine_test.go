package srs

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestEngine(seed int64) *Engine {
	return NewEngine(WithRand(rand.New(rand.NewSource(seed))))
}

func reviewSchedule(interval float64, repetitions int, ease float64) Schedule {
	return Schedule{
		Interval:    interval,
		Repetitions: repetitions,
		EaseFactor:  ease,
		State:       Review,
		Due:         testNow,
	}
}

func mustApply(t *testing.T, e *Engine, s Schedule, g Grade, now time.Time) Schedule {
	t.Helper()
	next, err := e.ApplyGrade(s, g, now)
	if err != nil {
		t.Fatalf("ApplyGrade() returned an unexpected error: %v", err)
	}
	return next
}

func TestGraduationWithGood(t *testing.T) {
	e := newTestEngine(1)
	s := NewSchedule(testNow)

	s = mustApply(t, e, s, Good, testNow)
	if s.State != Learning || s.StepIndex() != 1 {
		t.Fatalf("Expected learning at step 1 after first Good, but got %s at step %d", s.State, s.StepIndex())
	}
	if want := testNow.Add(10 * time.Minute); !s.Due.Equal(want) {
		t.Errorf("Expected due %v, but got %v", want, s.Due)
	}

	s = mustApply(t, e, s, Good, testNow)
	if s.State != Review {
		t.Fatalf("Expected review after second Good, but got %s", s.State)
	}
	if s.Interval != 1 {
		t.Errorf("Expected interval 1 on graduation, but got %.2f", s.Interval)
	}
	if s.Step != nil {
		t.Errorf("Expected step to be cleared on graduation, but got %d", *s.Step)
	}
	if want := testNow.AddDate(0, 0, 1); !s.Due.Equal(want) {
		t.Errorf("Expected due %v, but got %v", want, s.Due)
	}
	if len(s.History) != 2 {
		t.Errorf("Expected 2 history records, but got %d", len(s.History))
	}
}

func TestEasyShortcut(t *testing.T) {
	for _, start := range []State{New, Learning, Lapsed} {
		t.Run(start.String(), func(t *testing.T) {
			e := newTestEngine(7)
			for i := 0; i < 200; i++ {
				s := NewSchedule(testNow)
				s.State = start
				if start.Drilling() {
					s.setStep(1)
				}
				next := mustApply(t, e, s, Perfect, testNow)
				if next.State != Review {
					t.Fatalf("Expected review, but got %s", next.State)
				}
				if next.Interval < 3 || next.Interval > 5 {
					t.Fatalf("Expected interval in [3, 5], but got %.0f", next.Interval)
				}
				if want := testNow.AddDate(0, 0, int(next.Interval)); !next.Due.Equal(want) {
					t.Fatalf("Expected due %v, but got %v", want, next.Due)
				}
				if next.EaseFactor != DefaultEaseFactor || next.Repetitions != 0 {
					t.Fatalf("Expected reset ease and repetitions, but got %.2f and %d", next.EaseFactor, next.Repetitions)
				}
			}
		})
	}
}

func TestLearningHardAndAgain(t *testing.T) {
	e := newTestEngine(1)
	s := NewSchedule(testNow)
	s.State = Learning
	s.setStep(1)

	t.Run("Hard keeps the step", func(t *testing.T) {
		next := mustApply(t, e, s, Hard, testNow)
		if next.State != Learning || next.StepIndex() != 1 {
			t.Errorf("Expected learning at step 1, but got %s at step %d", next.State, next.StepIndex())
		}
		if want := testNow.Add(2 * time.Minute); !next.Due.Equal(want) {
			t.Errorf("Expected due %v, but got %v", want, next.Due)
		}
	})

	t.Run("Hard on a new card enters learning", func(t *testing.T) {
		next := mustApply(t, e, NewSchedule(testNow), Hard, testNow)
		if next.State != Learning || next.StepIndex() != 0 {
			t.Errorf("Expected learning at step 0, but got %s at step %d", next.State, next.StepIndex())
		}
	})

	t.Run("Again resets the step", func(t *testing.T) {
		for _, g := range []Grade{Blackout, Again} {
			next := mustApply(t, e, s, g, testNow)
			if next.State != Learning || next.StepIndex() != 0 {
				t.Errorf("Expected learning at step 0, but got %s at step %d", next.State, next.StepIndex())
			}
			if want := testNow.Add(time.Minute); !next.Due.Equal(want) {
				t.Errorf("Expected due %v, but got %v", want, next.Due)
			}
		}
	})

	t.Run("input is not mutated", func(t *testing.T) {
		_ = mustApply(t, e, s, Again, testNow)
		if s.StepIndex() != 1 || len(s.History) != 0 {
			t.Errorf("Expected input schedule untouched, but got step %d and %d records", s.StepIndex(), len(s.History))
		}
	})
}

func TestReviewPass(t *testing.T) {
	testCases := []struct {
		name         string
		interval     float64
		repetitions  int
		grade        Grade
		wantInterval float64
		wantEase     float64
	}{
		{"first success", 1, 0, Good, 1, 2.36},
		{"second success", 1, 1, Easy, 6, 2.5},
		{"growth", 6, 2, Perfect, 15, 2.6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(3)
			next := mustApply(t, e, reviewSchedule(tc.interval, tc.repetitions, 2.5), tc.grade, testNow)
			if next.Interval != tc.wantInterval {
				t.Errorf("Expected interval %.0f, but got %.0f", tc.wantInterval, next.Interval)
			}
			if next.Repetitions != tc.repetitions+1 {
				t.Errorf("Expected repetitions %d, but got %d", tc.repetitions+1, next.Repetitions)
			}
			if diff := next.EaseFactor - tc.wantEase; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Expected ease %.2f, but got %.4f", tc.wantEase, next.EaseFactor)
			}
		})
	}
}

func TestReviewUnitIntervalIsNotFuzzed(t *testing.T) {
	e := newTestEngine(5)
	next := mustApply(t, e, reviewSchedule(1, 0, 2.5), Good, testNow)
	if want := testNow.AddDate(0, 0, 1); !next.Due.Equal(want) {
		t.Errorf("Expected due exactly one day later, but got %v", next.Due)
	}
	if got := next.History[len(next.History)-1].Interval; got != 1 {
		t.Errorf("Expected recorded interval 1, but got %.0f", got)
	}
}

func TestFuzzDoesNotCompound(t *testing.T) {
	e := newTestEngine(11)
	next := mustApply(t, e, reviewSchedule(10, 2, 2.5), Good, testNow)
	if next.Interval != 25 {
		t.Fatalf("Expected stored interval 25, but got %.0f", next.Interval)
	}
	recorded := next.History[len(next.History)-1].Interval
	lo, hi := fuzzBounds(25)
	if recorded < float64(lo) || recorded > float64(hi) {
		t.Errorf("Expected recorded interval in [%d, %d], but got %.0f", lo, hi, recorded)
	}
	if want := testNow.AddDate(0, 0, int(recorded)); !next.Due.Equal(want) {
		t.Errorf("Expected due to follow the fuzzed interval, but got %v", next.Due)
	}
}

func TestLapse(t *testing.T) {
	e := newTestEngine(1)
	next := mustApply(t, e, reviewSchedule(10, 4, 2.2), Again, testNow)

	if next.State != Lapsed {
		t.Errorf("Expected lapsed, but got %s", next.State)
	}
	if next.Interval != 5 {
		t.Errorf("Expected halved interval 5, but got %.0f", next.Interval)
	}
	if next.Repetitions != 0 || next.StepIndex() != 0 {
		t.Errorf("Expected repetitions and step reset, but got %d and %d", next.Repetitions, next.StepIndex())
	}
	if next.Due.Sub(testNow) > 10*time.Minute {
		t.Errorf("Expected a short-term re-drill, but due is %v away", next.Due.Sub(testNow))
	}

	t.Run("interval never drops below one day", func(t *testing.T) {
		next := mustApply(t, e, reviewSchedule(1, 0, 2.5), Blackout, testNow)
		if next.Interval != 1 {
			t.Errorf("Expected interval 1, but got %.2f", next.Interval)
		}
	})

	t.Run("Hard keeps a lapsed card lapsed", func(t *testing.T) {
		s := mustApply(t, e, next, Hard, testNow)
		if s.State != Lapsed || s.StepIndex() != 0 {
			t.Errorf("Expected lapsed at step 0, but got %s at step %d", s.State, s.StepIndex())
		}
		if s.Interval != next.Interval {
			t.Errorf("Expected interval %.0f to be kept, but got %.0f", next.Interval, s.Interval)
		}
		if want := testNow.Add(2 * time.Minute); !s.Due.Equal(want) {
			t.Errorf("Expected due %v, but got %v", want, s.Due)
		}

		s = mustApply(t, e, s, Again, testNow)
		if s.State != Learning || s.StepIndex() != 0 {
			t.Errorf("Expected Again to move it to learning at step 0, but got %s at step %d", s.State, s.StepIndex())
		}
	})

	t.Run("lapsed card graduates back", func(t *testing.T) {
		s := mustApply(t, e, next, Good, testNow)
		if s.State != Learning || s.StepIndex() != 1 {
			t.Fatalf("Expected learning at step 1, but got %s at step %d", s.State, s.StepIndex())
		}
		s = mustApply(t, e, s, Good, testNow)
		if s.State != Review || s.Interval != 1 {
			t.Errorf("Expected review with interval 1, but got %s with %.0f", s.State, s.Interval)
		}
	})
}

func TestEaseFloor(t *testing.T) {
	e := newTestEngine(1)
	s := reviewSchedule(6, 2, MinEaseFactor)
	for i := 0; i < 5; i++ {
		s = mustApply(t, e, s, Good, testNow)
		if s.EaseFactor < MinEaseFactor {
			t.Fatalf("Expected ease factor >= %.1f, but got %.4f", MinEaseFactor, s.EaseFactor)
		}
	}
}

func TestInvariantsOverRandomWalk(t *testing.T) {
	e := newTestEngine(99)
	rng := rand.New(rand.NewSource(42))
	s := NewSchedule(testNow)
	now := testNow

	for i := 0; i < 500; i++ {
		g := Grade(rng.Intn(6))
		before := len(s.History)
		s = mustApply(t, e, s, g, now)

		if len(s.History) != before+1 {
			t.Fatalf("Expected exactly one new history record, but got %d", len(s.History)-before)
		}
		if s.EaseFactor < MinEaseFactor {
			t.Fatalf("Expected ease factor >= %.1f, but got %.4f", MinEaseFactor, s.EaseFactor)
		}
		if (s.State == Review || s.State == Lapsed) && s.Interval < 1 {
			t.Fatalf("Expected interval >= 1 in %s, but got %.2f", s.State, s.Interval)
		}
		if s.State.Drilling() && (s.Step == nil || *s.Step >= len(DefaultLearningSteps)) {
			t.Fatalf("Expected an in-range step while %s", s.State)
		}
		if !s.State.Drilling() && s.Step != nil {
			t.Fatalf("Expected no step while %s", s.State)
		}
		now = s.Due
	}
}

func TestInvalidState(t *testing.T) {
	e := newTestEngine(1)

	t.Run("unknown state", func(t *testing.T) {
		s := NewSchedule(testNow)
		s.State = State(9)
		if _, err := e.ApplyGrade(s, Good, testNow); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Expected ErrInvalidState, but got %v", err)
		}
	})

	t.Run("step out of range", func(t *testing.T) {
		s := NewSchedule(testNow)
		s.State = Learning
		s.setStep(5)
		if _, err := e.ApplyGrade(s, Good, testNow); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Expected ErrInvalidState, but got %v", err)
		}
	})
}
