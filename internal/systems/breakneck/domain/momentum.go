package domain

import (
	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

// Momentum economy constants.
const (
	MomentumMin   = 0
	MomentumMax   = 10
	MomentumStart = 5

	// RallyThreshold is the highest momentum at which a rally is allowed.
	RallyThreshold = 3

	// LeanMomentumGain is granted for leaning into a trait.
	LeanMomentumGain = 2
)

var (
	// ErrInsufficientMomentum indicates a spend larger than the pool.
	ErrInsufficientMomentum = apperrors.New(apperrors.CodeCrewInsufficientMomentum, "insufficient momentum")
	// ErrRallyUnavailable indicates rally preconditions are not met.
	ErrRallyUnavailable = apperrors.New(apperrors.CodeCrewRallyUnavailable, "rally unavailable")
)

// ClampMomentum clamps a momentum value to [MomentumMin, MomentumMax].
func ClampMomentum(value int) int {
	return min(max(value, MomentumMin), MomentumMax)
}

// AddMomentum adds to the pool, clamped at the cap. Amount above the cap
// is lost, never carried.
func AddMomentum(current, amount int) int {
	return ClampMomentum(current + amount)
}

// SpendMomentum removes from the pool. Spending more than is available
// fails with ErrInsufficientMomentum and leaves the pool unchanged.
func SpendMomentum(current, amount int) (int, error) {
	if amount > current {
		return current, ErrInsufficientMomentum
	}
	return ClampMomentum(current - amount), nil
}

// MomentumGain is the momentum granted for taking a consequence at the
// given position. The table is shared with ConsequenceSeverity: the worse
// the position, the harsher the consequence and the larger the payout.
func MomentumGain(p Position) int {
	return severityByPosition(p)
}

// CanRally reports whether a character may rally: momentum at or below the
// threshold and the character's rally flag still available.
func CanRally(currentMomentum int, rallyAvailable bool) error {
	if !rallyAvailable || currentMomentum > RallyThreshold {
		return ErrRallyUnavailable
	}
	return nil
}
