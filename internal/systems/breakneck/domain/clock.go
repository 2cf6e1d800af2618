package domain

import (
	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

// ClockType distinguishes what a segmented counter tracks.
type ClockType string

// Clock types.
const (
	ClockTypeHarm      ClockType = "harm"
	ClockTypeAddiction ClockType = "addiction"
	ClockTypeProgress  ClockType = "progress"
)

// Default clock sizes.
const (
	HarmClockSegments      = 6
	AddictionClockSegments = 8
)

// IsValid reports whether the clock type is known.
func (t ClockType) IsValid() bool {
	switch t {
	case ClockTypeHarm, ClockTypeAddiction, ClockTypeProgress:
		return true
	}
	return false
}

// DefaultMaxSegments returns the default size for a clock type, or zero
// when the type carries no default and callers must size it explicitly.
func (t ClockType) DefaultMaxSegments() int {
	switch t {
	case ClockTypeHarm:
		return HarmClockSegments
	case ClockTypeAddiction:
		return AddictionClockSegments
	default:
		return 0
	}
}

var (
	// ErrClockInvalidType indicates an unknown clock type.
	ErrClockInvalidType = apperrors.New(apperrors.CodeClockInvalidType, "unknown clock type")
	// ErrClockEmptyOwner indicates a clock without an owning entity.
	ErrClockEmptyOwner = apperrors.New(apperrors.CodeClockEmptyOwner, "clock owner is required")
	// ErrClockInvalidMax indicates a non-positive max segment count.
	ErrClockInvalidMax = apperrors.New(apperrors.CodeClockInvalidMax, "max segments must be positive")
)

// Clock is a segmented counter owned by a character or crew. Segments stay
// within [0, MaxSegments]; what happens when a clock fills is the caller's
// responsibility, never a side effect of mutation.
type Clock struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Type        ClockType `json:"type"`
	Subtype     string    `json:"subtype,omitempty"`
	Segments    int       `json:"segments"`
	MaxSegments int       `json:"max_segments"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
}

// NewClock creates a zero-filled clock. A non-positive maxSegments falls
// back to the type default; types without a default reject it.
func NewClock(id, ownerID string, clockType ClockType, subtype string, maxSegments int) (Clock, error) {
	if ownerID == "" {
		return Clock{}, ErrClockEmptyOwner
	}
	if !clockType.IsValid() {
		return Clock{}, ErrClockInvalidType
	}
	if maxSegments <= 0 {
		maxSegments = clockType.DefaultMaxSegments()
	}
	if maxSegments <= 0 {
		return Clock{}, ErrClockInvalidMax
	}
	return Clock{
		ID:          id,
		OwnerID:     ownerID,
		Type:        clockType,
		Subtype:     subtype,
		MaxSegments: maxSegments,
	}, nil
}

// AddSegments increases segments, clamped at MaxSegments. Excess above the
// remaining capacity is discarded, never carried over. Negative amounts
// reduce, clamped at zero.
func (c Clock) AddSegments(amount int) Clock {
	return c.SetSegments(c.Segments + amount)
}

// SetSegments sets segments directly, clamped to [0, MaxSegments].
func (c Clock) SetSegments(segments int) Clock {
	c.Segments = min(max(segments, 0), c.MaxSegments)
	return c
}

// ClearSegments resets segments to zero.
func (c Clock) ClearSegments() Clock {
	c.Segments = 0
	return c
}

// IsFull reports whether the clock has reached its maximum.
func (c Clock) IsFull() bool {
	return c.Segments >= c.MaxSegments
}
