package domain

// RollMode selects how many approaches feed the dice pool.
type RollMode string

// Roll modes.
const (
	// RollModeStandard builds the pool from a single approach rating.
	RollModeStandard RollMode = "standard"
	// RollModeSynergy builds the pool from two approach ratings combined.
	RollModeSynergy RollMode = "synergy"
)

// IsValid reports whether the roll mode is known.
func (m RollMode) IsValid() bool {
	return m == RollModeStandard || m == RollModeSynergy
}

// PoolRequest describes the inputs to dice-pool sizing.
type PoolRequest struct {
	// ApproachRatings are the ratings of the selected approach(es): one
	// entry in standard mode, two in synergy mode.
	ApproachRatings []int
	// EquipmentBonus is the accumulated modifier from active and passive
	// equipment. Callers accumulate per item, so an item used twice still
	// counts once.
	EquipmentBonus int
	// Pushed grants one extra die for pushing.
	Pushed bool
	// FlashbackTrait grants one extra die for an accepted flashback use.
	FlashbackTrait bool
}

// PoolSize computes the dice-pool size for a roll. The result is clamped
// at zero: a pool can never go negative, it becomes a desperate roll.
func PoolSize(request PoolRequest) int {
	size := 0
	for _, rating := range request.ApproachRatings {
		size += rating
	}
	size += request.EquipmentBonus
	if request.Pushed {
		size++
	}
	if request.FlashbackTrait {
		size++
	}
	return max(size, 0)
}
