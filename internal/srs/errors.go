package srs

import "errors"

var (
	// ErrInvalidState is returned when a schedule carries a state outside the
	// known set, or a learning step that does not exist. Continuing would
	// corrupt scheduling data, so the engine refuses to transition it.
	ErrInvalidState = errors.New("srs: invalid schedule state")

	// ErrInvalidGrade marks a grade outside 0..5. The engine does not check
	// grades itself; callers use it when rejecting input.
	ErrInvalidGrade = errors.New("srs: invalid grade")
)
