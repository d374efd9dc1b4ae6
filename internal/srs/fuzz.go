package srs

import "math"

const (
	fuzzPercent = 0.05
	// Above this many days the fuzz window is at least one day either side.
	wideFuzzThreshold = 20
)

// fuzzBounds returns the inclusive range an interval may be fuzzed into.
// It is recomputed from the current interval on every call.
func fuzzBounds(interval float64) (lo, hi int) {
	lo = int(math.Floor(interval * (1 - fuzzPercent)))
	hi = int(math.Ceil(interval * (1 + fuzzPercent)))
	if interval > wideFuzzThreshold {
		lo = min(lo, int(interval)-1)
		hi = max(hi, int(math.Ceil(interval))+1)
	}
	return lo, hi
}

// fuzz draws a day count uniformly from fuzzBounds(interval), spreading
// reviews that would otherwise cluster on the same day.
func (e *Engine) fuzz(interval float64) int {
	lo, hi := fuzzBounds(interval)
	return lo + e.intn(hi-lo+1)
}
