package domain

// Position is the risk level of an action, ordered from worst to best.
type Position string

// Position values, worst to best.
const (
	PositionImpossible Position = "impossible"
	PositionDesperate  Position = "desperate"
	PositionRisky      Position = "risky"
	PositionControlled Position = "controlled"
)

// Effect is the magnitude of benefit on success, ordered from worst to best.
type Effect string

// Effect values, worst to best.
const (
	EffectLimited     Effect = "limited"
	EffectStandard    Effect = "standard"
	EffectGreat       Effect = "great"
	EffectSpectacular Effect = "spectacular"
)

var positionLadder = []Position{
	PositionImpossible,
	PositionDesperate,
	PositionRisky,
	PositionControlled,
}

var effectLadder = []Effect{
	EffectLimited,
	EffectStandard,
	EffectGreat,
	EffectSpectacular,
}

// IsValid reports whether the position is one of the four ladder values.
func (p Position) IsValid() bool {
	return positionIndex(p) >= 0
}

// IsValid reports whether the effect is one of the four ladder values.
func (e Effect) IsValid() bool {
	return effectIndex(e) >= 0
}

func positionIndex(p Position) int {
	for i, candidate := range positionLadder {
		if candidate == p {
			return i
		}
	}
	return -1
}

func effectIndex(e Effect) int {
	for i, candidate := range effectLadder {
		if candidate == e {
			return i
		}
	}
	return -1
}

// ImprovePosition moves one step toward controlled, clamped at the top.
// Unknown values are returned unchanged.
func ImprovePosition(p Position) Position {
	index := positionIndex(p)
	if index < 0 || index == len(positionLadder)-1 {
		return p
	}
	return positionLadder[index+1]
}

// WorsenPosition moves one step toward impossible, clamped at the bottom.
// Unknown values are returned unchanged.
func WorsenPosition(p Position) Position {
	index := positionIndex(p)
	if index <= 0 {
		return p
	}
	return positionLadder[index-1]
}

// ImproveEffect moves one step toward spectacular, clamped at the top.
// Unknown values are returned unchanged.
func ImproveEffect(e Effect) Effect {
	index := effectIndex(e)
	if index < 0 || index == len(effectLadder)-1 {
		return e
	}
	return effectLadder[index+1]
}

// WorsenEffect moves one step toward limited, clamped at the bottom.
// Unknown values are returned unchanged.
func WorsenEffect(e Effect) Effect {
	index := effectIndex(e)
	if index <= 0 {
		return e
	}
	return effectLadder[index-1]
}
