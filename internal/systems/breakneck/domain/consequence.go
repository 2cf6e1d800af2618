package domain

import (
	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

// ConsequenceType discriminates what a consequence transaction targets.
type ConsequenceType string

// Consequence transaction types.
const (
	ConsequenceHarm         ConsequenceType = "harm"
	ConsequenceCrewClock    ConsequenceType = "crew_clock"
	ConsequenceSuccessClock ConsequenceType = "success_clock"
)

// IsValid reports whether the consequence type is known.
func (t ConsequenceType) IsValid() bool {
	switch t {
	case ConsequenceHarm, ConsequenceCrewClock, ConsequenceSuccessClock:
		return true
	}
	return false
}

// Validation reason identifiers for consequence transactions.
const (
	ReasonConsequenceInvalidType  = "consequence_invalid_type"
	ReasonHarmTargetRequired      = "harm_target_character_required"
	ReasonHarmClockRequired       = "harm_clock_required"
	ReasonCrewClockRequired       = "crew_clock_required"
	ReasonSuccessClockRequired    = "success_clock_required"
	ReasonDefensePositionAtTop    = "defense_position_already_controlled"
	ReasonDefenseEffectAtFloor    = "defense_effect_already_limited"
	ReasonDefenseRequiresPartial  = "defense_requires_partial_outcome"
	ReasonInsufficientMomentum    = "insufficient_momentum"
	ReasonRallyUnavailable        = "rally_unavailable"
	ReasonApproachRequired        = "approach_required"
	ReasonTraitTargetRequired     = "trait_target_required"
	ReasonTraitConsolidateCount   = "trait_consolidate_requires_three"
	ReasonTraitConsolidateDupes   = "trait_consolidate_requires_distinct"
	ReasonTraitNameRequired       = "trait_name_required"
	ReasonTraitTransactionInvalid = "trait_transaction_invalid_mode"
)

// Validation is the result of checking preconditions before a mutating
// call. Failures are returned as values so callers can branch without
// unwinding; only mutation with unmet preconditions is an error.
type Validation struct {
	Valid  bool
	Reason string
}

// ValidationOK returns a passing validation.
func ValidationOK() Validation {
	return Validation{Valid: true}
}

// Invalid returns a failing validation with a stable reason identifier.
func Invalid(reason string) Validation {
	return Validation{Reason: reason}
}

// ConsequenceTransaction is the GM's pending consequence for a turn. It is
// built up incrementally and committed only once it validates.
type ConsequenceTransaction struct {
	Type ConsequenceType `json:"type"`

	// Harm targets.
	HarmTargetCharacterID string `json:"harm_target_character_id,omitempty"`
	HarmClockID           string `json:"harm_clock_id,omitempty"`

	// Crew and success clock targets.
	CrewClockID    string `json:"crew_clock_id,omitempty"`
	SuccessClockID string `json:"success_clock_id,omitempty"`

	// Defensive marks the partial-outcome trade of effect for a softened
	// consequence.
	Defensive bool `json:"defensive,omitempty"`
}

// Validate checks the transaction names every target its type requires.
func (t ConsequenceTransaction) Validate() Validation {
	switch t.Type {
	case ConsequenceHarm:
		if t.HarmTargetCharacterID == "" {
			return Invalid(ReasonHarmTargetRequired)
		}
		if t.HarmClockID == "" {
			return Invalid(ReasonHarmClockRequired)
		}
	case ConsequenceCrewClock:
		if t.CrewClockID == "" {
			return Invalid(ReasonCrewClockRequired)
		}
	case ConsequenceSuccessClock:
		if t.SuccessClockID == "" {
			return Invalid(ReasonSuccessClockRequired)
		}
	default:
		return Invalid(ReasonConsequenceInvalidType)
	}
	return ValidationOK()
}

// ClockID returns the clock the transaction advances.
func (t ConsequenceTransaction) ClockID() string {
	switch t.Type {
	case ConsequenceHarm:
		return t.HarmClockID
	case ConsequenceCrewClock:
		return t.CrewClockID
	case ConsequenceSuccessClock:
		return t.SuccessClockID
	}
	return ""
}

// severityByPosition is the single source of truth for both consequence
// severity (segments applied) and momentum gain. Effect never enters it.
func severityByPosition(p Position) int {
	switch p {
	case PositionControlled:
		return 1
	case PositionRisky:
		return 2
	case PositionDesperate:
		return 4
	case PositionImpossible:
		return 6
	}
	return 0
}

// ConsequenceSeverity is the segments applied for a consequence taken at
// the given position.
func ConsequenceSeverity(p Position) int {
	return severityByPosition(p)
}

// ErrDefenseUnavailable indicates the defensive success option does not
// apply to the current outcome and effect.
var ErrDefenseUnavailable = apperrors.New(apperrors.CodeConsequenceDefenseBlocked, "defensive success unavailable")

// DefensivePlan is the computed defensive success trade-off.
type DefensivePlan struct {
	// Position is the softened position. Empty when the original position
	// was already controlled, in which case no consequence applies at all.
	Position Position
	// Effect is the reduced effect the action resolves at.
	Effect Effect
	// Segments is the severity at the softened position (0 when Position
	// is empty).
	Segments int
	// OriginalSegments is the severity the player avoided.
	OriginalSegments int
	// MomentumGain is computed from the original, pre-reduction position:
	// the player still banks what the full consequence would have paid.
	MomentumGain int
}

// PlanDefense computes the defensive success option for a partial outcome.
// It is available only when the outcome is partial and the effect has room
// to trade away (not already limited).
func PlanDefense(position Position, effect Effect, outcome Outcome) (DefensivePlan, error) {
	if outcome != OutcomePartial {
		return DefensivePlan{}, apperrors.WithMetadata(apperrors.CodeConsequenceDefenseBlocked, "defensive success requires a partial outcome", map[string]string{"Reason": ReasonDefenseRequiresPartial})
	}
	if effect == EffectLimited {
		return DefensivePlan{}, apperrors.WithMetadata(apperrors.CodeConsequenceDefenseBlocked, "effect is already limited", map[string]string{"Reason": ReasonDefenseEffectAtFloor})
	}

	plan := DefensivePlan{
		Effect:           WorsenEffect(effect),
		OriginalSegments: severityByPosition(position),
		MomentumGain:     MomentumGain(position),
	}
	if position != PositionControlled {
		plan.Position = ImprovePosition(position)
		plan.Segments = severityByPosition(plan.Position)
	}
	return plan, nil
}
