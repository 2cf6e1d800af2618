package domain

import (
	"errors"
	"testing"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
)

func TestTurnHappyPathWithConsequence(t *testing.T) {
	path := []TurnState{
		StateDecisionPhase,
		StateRolling,
		StateGMResolvingConsequence,
		StateApplyingEffects,
		StateTurnComplete,
		StateIdleWaiting,
	}
	state := StateIdleWaiting
	for _, next := range path {
		got, err := Transition(state, next)
		if err != nil {
			t.Fatalf("transition %s -> %s: %v", state, next, err)
		}
		state = got
	}
}

func TestTurnSuccessPath(t *testing.T) {
	state := StateRolling
	state, err := Transition(state, StateSuccessComplete)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := Transition(state, StateApplyingEffects); err != nil {
		t.Fatalf("transition: %v", err)
	}
}

func TestTurnStimsBranch(t *testing.T) {
	// Reroll path loops back to rolling.
	state, err := Transition(StateGMResolvingConsequence, StateStimsRolling)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := Transition(state, StateRolling); err != nil {
		t.Fatalf("transition: %v", err)
	}

	// Lockout path returns to the pending consequence.
	state, err = Transition(StateStimsRolling, StateStimsLocked)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := Transition(state, StateGMResolvingConsequence); err != nil {
		t.Fatalf("transition: %v", err)
	}
}

func TestTurnInvalidTransitions(t *testing.T) {
	tests := []struct {
		from TurnState
		to   TurnState
	}{
		{StateDecisionPhase, StateSuccessComplete},
		{StateRolling, StateApplyingEffects},
		{StateSuccessComplete, StateGMResolvingConsequence},
		{StateSuccessComplete, StateStimsRolling},
		{StateApplyingEffects, StateRolling},
		{StateTurnComplete, StateDecisionPhase},
		{StateIdleWaiting, StateRolling},
	}
	for _, tc := range tests {
		got, err := Transition(tc.from, tc.to)
		if !errors.Is(err, apperrors.New(apperrors.CodeTurnInvalidTransition, "")) {
			t.Fatalf("transition %s -> %s: expected invalid transition error, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Fatalf("failed transition moved state to %s", got)
		}
	}
}

func TestCanCancel(t *testing.T) {
	cancellable := []TurnState{
		StateDecisionPhase,
		StateRolling,
		StateSuccessComplete,
		StateGMResolvingConsequence,
		StateStimsRolling,
		StateStimsLocked,
	}
	for _, state := range cancellable {
		if !CanCancel(state) {
			t.Fatalf("%s should be cancellable", state)
		}
	}
	for _, state := range []TurnState{StateApplyingEffects, StateTurnComplete, StateIdleWaiting} {
		if CanCancel(state) {
			t.Fatalf("%s should not be cancellable", state)
		}
	}
}

func TestStateForOutcome(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    TurnState
	}{
		{OutcomeCritical, StateSuccessComplete},
		{OutcomeSuccess, StateSuccessComplete},
		{OutcomePartial, StateGMResolvingConsequence},
		{OutcomeFailure, StateGMResolvingConsequence},
	}
	for _, tc := range tests {
		if got := StateForOutcome(tc.outcome); got != tc.want {
			t.Fatalf("state for %s = %s, want %s", tc.outcome, got, tc.want)
		}
	}
}
