package srs

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// hardDelay is how long a Hard answer waits during learning.
	hardDelay = 2 * time.Minute
	// easyInterval is the centre of the interval an Easy answer graduates to.
	easyInterval = 4
	// lapseFactor shrinks the interval of a failed review card.
	lapseFactor = 0.5
)

// DefaultLearningSteps are the sub-day delays a card walks through before
// it graduates into review.
var DefaultLearningSteps = []time.Duration{time.Minute, 10 * time.Minute}

// Engine applies grades to schedules. It holds no per-card state; the only
// thing it owns is the random source used for interval fuzzing.
type Engine struct {
	steps []time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithLearningSteps replaces the learning step table. An empty table is ignored.
func WithLearningSteps(steps []time.Duration) Option {
	return func(e *Engine) {
		if len(steps) > 0 {
			e.steps = append([]time.Duration(nil), steps...)
		}
	}
}

// WithRand pins the random source, so tests can fix fuzz outcomes.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// NewEngine returns an Engine using DefaultLearningSteps and a time-seeded
// random source unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		steps: DefaultLearningSteps,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LearningSteps returns a copy of the step table.
func (e *Engine) LearningSteps() []time.Duration {
	return append([]time.Duration(nil), e.steps...)
}

// ApplyGrade returns the schedule that results from grading s at now.
// The input is not mutated and exactly one history record is appended.
// Grades outside 0..5 must be rejected by the caller.
func (e *Engine) ApplyGrade(s Schedule, grade Grade, now time.Time) (Schedule, error) {
	if err := e.check(s); err != nil {
		return Schedule{}, err
	}

	c := s.clone()
	switch c.State {
	case New, Learning, Lapsed:
		e.drill(&c, grade, now)
	case Review:
		e.review(&c, grade, now)
	}
	return c, nil
}

// check rejects schedules the transition table has no row for.
func (e *Engine) check(s Schedule) error {
	if !s.State.IsValid() {
		return fmt.Errorf("%w: state %d", ErrInvalidState, int(s.State))
	}
	if s.State.Drilling() {
		if step := s.StepIndex(); step < 0 || step >= len(e.steps) {
			return fmt.Errorf("%w: learning step %d out of range", ErrInvalidState, step)
		}
	}
	return nil
}

// drill handles new, learning and lapsed cards.
func (e *Engine) drill(c *Schedule, grade Grade, now time.Time) {
	step := c.StepIndex()

	switch {
	case grade.IsEasy():
		days := easyInterval + e.intn(3) - 1
		e.graduate(c, float64(days))
		c.Due = now.AddDate(0, 0, days)

	case grade == Good:
		if step < len(e.steps)-1 {
			step++
			c.State = Learning
			c.setStep(step)
			c.Due = now.Add(e.steps[step])
		} else {
			e.graduate(c, 1)
			c.Due = now.AddDate(0, 0, 1)
		}

	case grade == Hard:
		// Same step and state; a lapsed card stays lapsed. A card never
		// graded before still enters learning.
		if c.State == New {
			c.State = Learning
			c.setStep(0)
		}
		c.Due = now.Add(hardDelay)

	default:
		c.State = Learning
		c.setStep(0)
		c.Due = now.Add(e.steps[0])
	}

	c.History = append(c.History, ReviewRecord{
		Date:       now,
		Grade:      grade,
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
	})
}

func (e *Engine) graduate(c *Schedule, interval float64) {
	c.State = Review
	c.Repetitions = 0
	c.EaseFactor = DefaultEaseFactor
	c.Interval = interval
	c.clearStep()
}

// review handles cards in the day-interval cycle.
func (e *Engine) review(c *Schedule, grade Grade, now time.Time) {
	if !grade.Passed() {
		c.State = Lapsed
		c.Repetitions = 0
		c.setStep(0)
		c.Interval = math.Max(1, math.Round(c.Interval*lapseFactor))
		c.Due = now.Add(e.steps[0])
		c.History = append(c.History, ReviewRecord{
			Date:       now,
			Grade:      grade,
			Interval:   c.Interval,
			EaseFactor: c.EaseFactor,
		})
		return
	}

	switch c.Repetitions {
	case 0:
		c.Interval = 1
	case 1:
		c.Interval = 6
	default:
		c.Interval = math.Round(c.Interval * c.EaseFactor)
	}
	c.Repetitions++
	c.EaseFactor = nextEase(c.EaseFactor, grade)

	// The stored interval stays unfuzzed so fuzz never compounds.
	effective := 1
	if c.Interval > 1 {
		effective = e.fuzz(c.Interval)
	}
	c.Due = now.AddDate(0, 0, effective)
	c.History = append(c.History, ReviewRecord{
		Date:       now,
		Grade:      grade,
		Interval:   float64(effective),
		EaseFactor: c.EaseFactor,
	})
}

// nextEase is the SM-2 ease update, floored at MinEaseFactor.
func nextEase(ease float64, grade Grade) float64 {
	q := float64(5 - grade)
	return math.Max(MinEaseFactor, ease+(0.1-q*(0.08+q*0.02)))
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}
