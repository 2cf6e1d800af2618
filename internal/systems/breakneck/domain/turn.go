package domain

import (
	"fmt"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

// TurnState is a state of the per-character turn machine.
type TurnState string

// Turn states.
const (
	// StateIdleWaiting is the rest state between turns.
	StateIdleWaiting TurnState = "IDLE_WAITING"
	// StateDecisionPhase is the initial state of an active turn: the
	// player is choosing approach, position, effect and improvements.
	StateDecisionPhase TurnState = "DECISION_PHASE"
	// StateRolling means the pool is locked and dice are in the air.
	StateRolling TurnState = "ROLLING"
	// StateSuccessComplete means the roll succeeded outright.
	StateSuccessComplete TurnState = "SUCCESS_COMPLETE"
	// StateGMResolvingConsequence means the GM is building a consequence
	// transaction for a partial or failed roll.
	StateGMResolvingConsequence TurnState = "GM_RESOLVING_CONSEQUENCE"
	// StateStimsRolling is the stims interrupt in flight.
	StateStimsRolling TurnState = "STIMS_ROLLING"
	// StateStimsLocked means the addiction clock filled mid-interrupt; no
	// reroll happens and play returns to the pending consequence.
	StateStimsLocked TurnState = "STIMS_LOCKED"
	// StateApplyingEffects means a validated consequence (or success) is
	// being committed.
	StateApplyingEffects TurnState = "APPLYING_EFFECTS"
	// StateTurnComplete is the bookkeeping state before reset.
	StateTurnComplete TurnState = "TURN_COMPLETE"
)

// IsValid reports whether the state is part of the machine.
func (s TurnState) IsValid() bool {
	_, ok := turnTransitions[s]
	return ok
}

// turnTransitions is the full transition table. Anything not listed is a
// state error, never silently ignored.
var turnTransitions = map[TurnState][]TurnState{
	StateIdleWaiting:            {StateDecisionPhase},
	StateDecisionPhase:          {StateRolling},
	StateRolling:                {StateSuccessComplete, StateGMResolvingConsequence},
	StateSuccessComplete:        {StateApplyingEffects},
	StateGMResolvingConsequence: {StateApplyingEffects, StateStimsRolling},
	StateStimsRolling:           {StateRolling, StateStimsLocked},
	StateStimsLocked:            {StateGMResolvingConsequence},
	StateApplyingEffects:        {StateTurnComplete},
	StateTurnComplete:           {StateIdleWaiting},
}

// ErrInvalidTransition indicates a transition the table does not permit.
var ErrInvalidTransition = apperrors.New(apperrors.CodeTurnInvalidTransition, "invalid turn transition")

// CanTransition reports whether the machine permits from -> to.
func CanTransition(from, to TurnState) bool {
	for _, allowed := range turnTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition checks from -> to against the table and returns the new
// state. Reaching here with a disallowed pair is a sequencing bug in the
// caller, so the failure is an error rather than a validation value.
func Transition(from, to TurnState) (TurnState, error) {
	if !CanTransition(from, to) {
		return from, apperrors.WithMetadata(
			apperrors.CodeTurnInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", from, to),
			map[string]string{"From": string(from), "To": string(to)},
		)
	}
	return to, nil
}

// CanCancel reports whether a turn in the given state may be abandoned.
// Anything before effects apply can be dropped with no side effects; once
// committing starts the turn must run to completion.
func CanCancel(state TurnState) bool {
	switch state {
	case StateApplyingEffects, StateTurnComplete, StateIdleWaiting:
		return false
	}
	return state.IsValid()
}

// StateForOutcome returns the state a finished roll moves to.
func StateForOutcome(outcome Outcome) TurnState {
	if outcome.IsSuccess() {
		return StateSuccessComplete
	}
	return StateGMResolvingConsequence
}
