package breakneck

import (
	"encoding/json"
	"fmt"

	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// Projector folds events into State. It is pure bookkeeping: every value
// it writes was computed by the decider and recorded on the event, so
// replaying a journal reproduces live state exactly.
type Projector struct{}

// Apply folds one event into state, mutating it in place. Unknown event
// types are ignored so journals can carry other systems' events.
func (Projector) Apply(state *State, evt event.Event) error {
	switch evt.Type {
	case EventCrewCreated:
		return applyPayload(state, evt, applyCrewCreated)
	case EventCharacterCreated:
		return applyPayload(state, evt, applyCharacterCreated)
	case EventApproachSet:
		return applyPayload(state, evt, applyApproachSet)
	case EventEquipmentAdded:
		return applyPayload(state, evt, applyEquipmentAdded)
	case EventTurnStarted:
		return applyPayload(state, evt, applyTurnStarted)
	case EventTurnTransitioned:
		return applyPayload(state, evt, applyTurnTransitioned)
	case EventTurnCancelled:
		return applyPayload(state, evt, applyTurnCancelled)
	case EventRollResolved:
		return applyPayload(state, evt, applyRollResolved)
	case EventConsequenceSet:
		return applyPayload(state, evt, applyConsequenceSet)
	case EventConsequenceCommit:
		return applyPayload(state, evt, applyConsequenceCommitted)
	case EventClockCreated:
		return applyPayload(state, evt, applyClockCreated)
	case EventClockUpdated:
		return applyPayload(state, evt, applyClockUpdated)
	case EventMomentumChanged:
		return applyPayload(state, evt, applyMomentumChanged)
	case EventRallySpent:
		return applyPayload(state, evt, applyRallySpent)
	case EventCrewReset:
		return applyPayload(state, evt, applyCrewReset)
	case EventTraitAdded:
		return applyPayload(state, evt, applyTraitAdded)
	case EventTraitDisabled:
		return applyPayload(state, evt, applyTraitDisabled)
	case EventTraitEnabled:
		return applyPayload(state, evt, applyTraitEnabled)
	case EventTraitsConsolidated:
		return applyPayload(state, evt, applyTraitsConsolidated)
	case EventTraitTransacted:
		return applyPayload(state, evt, applyTraitTransacted)
	case EventStimsResolved:
		return applyPayload(state, evt, applyStimsResolved)
	case EventAddictAcquired:
		// Derived bookkeeping only; the trait grant arrives as trait_added.
		return nil
	default:
		return nil
	}
}

func applyPayload[T any](state *State, evt event.Event, apply func(*State, T) error) error {
	var payload T
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return apply(state, payload)
}

func applyCrewCreated(state *State, payload CrewCreatedPayload) error {
	state.Crews[payload.CrewID] = &Crew{
		ID:       payload.CrewID,
		Name:     payload.Name,
		Momentum: payload.Momentum,
	}
	return nil
}

func applyCharacterCreated(state *State, payload CharacterCreatedPayload) error {
	state.Characters[payload.CharacterID] = &Character{
		ID:             payload.CharacterID,
		Name:           payload.Name,
		CrewID:         payload.CrewID,
		Approaches:     make(map[string]int),
		RallyAvailable: true,
	}
	if payload.CrewID != "" {
		if crew, ok := state.Crews[payload.CrewID]; ok {
			crew.MemberIDs = append(crew.MemberIDs, payload.CharacterID)
		}
	}
	return nil
}

func applyApproachSet(state *State, payload ApproachSetPayload) error {
	character, ok := state.Characters[payload.CharacterID]
	if !ok {
		return fmt.Errorf("approach_set: character %s not found", payload.CharacterID)
	}
	if character.Approaches == nil {
		character.Approaches = make(map[string]int)
	}
	character.Approaches[payload.Approach] = payload.Rating
	return nil
}

func applyEquipmentAdded(state *State, payload EquipmentAddedPayload) error {
	character, ok := state.Characters[payload.CharacterID]
	if !ok {
		return fmt.Errorf("equipment_added: character %s not found", payload.CharacterID)
	}
	character.Equipment = append(character.Equipment, payload.Equipment)
	return nil
}

func applyTurnStarted(state *State, payload TurnStartedPayload) error {
	state.Turns[payload.CharacterID] = &Turn{
		CharacterID: payload.CharacterID,
		State:       domain.StateDecisionPhase,
		Approaches:  payload.Approaches,
		RollMode:    payload.RollMode,
		Position:    payload.Position,
		Effect:      payload.Effect,
		Pushed:      payload.Pushed,
		PushType:    payload.PushType,
	}
	return nil
}

func applyTurnTransitioned(state *State, payload TurnTransitionedPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("turn_transitioned: no turn for character %s", payload.CharacterID)
	}
	turn.State = payload.To
	if payload.MomentumSpent > 0 {
		turn.MomentumSpent += payload.MomentumSpent
	}
	if payload.To == domain.StateIdleWaiting {
		// Turn complete: the per-character state is destroyed, momentum
		// and clocks persist.
		delete(state.Turns, payload.CharacterID)
	}
	return nil
}

func applyTurnCancelled(state *State, payload TurnCancelledPayload) error {
	delete(state.Turns, payload.CharacterID)
	return nil
}

func applyRollResolved(state *State, payload RollResolvedPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("roll_resolved: no turn for character %s", payload.CharacterID)
	}
	turn.LastRoll = &domain.ActionRollResult{
		Pool:     payload.Pool,
		Results:  payload.Results,
		ZeroPool: payload.ZeroPool,
		Outcome:  payload.Outcome,
	}
	turn.Outcome = payload.Outcome
	return nil
}

func applyConsequenceSet(state *State, payload ConsequenceSetPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("consequence_set: no turn for character %s", payload.CharacterID)
	}
	tx := payload.Transaction
	turn.Consequence = &tx
	return nil
}

func applyConsequenceCommitted(state *State, payload ConsequenceCommittedPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("consequence_committed: no turn for character %s", payload.CharacterID)
	}
	// Clock and momentum changes ride in as their own events; committing
	// records the GM's approval and clears the transaction.
	turn.GMApproved = true
	turn.Consequence = nil
	return nil
}

func applyClockCreated(state *State, payload ClockCreatedPayload) error {
	state.Clocks[payload.Clock.ID] = payload.Clock
	return nil
}

func applyClockUpdated(state *State, payload ClockUpdatedPayload) error {
	clock, ok := state.Clocks[payload.ClockID]
	if !ok {
		return fmt.Errorf("clock_updated: clock %s not found", payload.ClockID)
	}
	state.Clocks[payload.ClockID] = clock.SetSegments(payload.Segments)
	return nil
}

func applyMomentumChanged(state *State, payload MomentumChangedPayload) error {
	crew, ok := state.Crews[payload.CrewID]
	if !ok {
		return fmt.Errorf("momentum_changed: crew %s not found", payload.CrewID)
	}
	crew.Momentum = domain.ClampMomentum(payload.Momentum)
	return nil
}

func applyRallySpent(state *State, payload RallySpentPayload) error {
	crew, ok := state.Crews[payload.CrewID]
	if !ok {
		return fmt.Errorf("rally_spent: crew %s not found", payload.CrewID)
	}
	character, ok := state.Characters[payload.CharacterID]
	if !ok {
		return fmt.Errorf("rally_spent: character %s not found", payload.CharacterID)
	}
	crew.Momentum = domain.ClampMomentum(payload.Momentum)
	character.RallyAvailable = false
	return nil
}

func applyCrewReset(state *State, payload CrewResetPayload) error {
	crew, ok := state.Crews[payload.CrewID]
	if !ok {
		return fmt.Errorf("crew_reset: crew %s not found", payload.CrewID)
	}
	crew.Momentum = payload.Momentum
	for _, memberID := range crew.MemberIDs {
		if character, ok := state.Characters[memberID]; ok {
			character.RallyAvailable = true
		}
	}
	return nil
}

func applyTraitAdded(state *State, payload TraitAddedPayload) error {
	character, ok := state.Characters[payload.CharacterID]
	if !ok {
		return fmt.Errorf("trait_added: character %s not found", payload.CharacterID)
	}
	character.Traits = append(character.Traits, payload.Trait)
	return nil
}

func applyTraitDisabled(state *State, payload TraitDisabledPayload) error {
	return setTraitDisabled(state, payload.CharacterID, payload.TraitID, true)
}

func applyTraitEnabled(state *State, payload TraitEnabledPayload) error {
	return setTraitDisabled(state, payload.CharacterID, payload.TraitID, false)
}

func setTraitDisabled(state *State, characterID, traitID string, disabled bool) error {
	character, ok := state.Characters[characterID]
	if !ok {
		return fmt.Errorf("trait toggle: character %s not found", characterID)
	}
	for i := range character.Traits {
		if character.Traits[i].ID == traitID {
			character.Traits[i].Disabled = disabled
			return nil
		}
	}
	return fmt.Errorf("trait toggle: trait %s not found", traitID)
}

func applyTraitsConsolidated(state *State, payload TraitsConsolidatedPayload) error {
	character, ok := state.Characters[payload.CharacterID]
	if !ok {
		return fmt.Errorf("traits_consolidated: character %s not found", payload.CharacterID)
	}
	removed := make(map[string]bool, len(payload.RemovedIDs))
	for _, traitID := range payload.RemovedIDs {
		removed[traitID] = true
	}
	kept := character.Traits[:0:0]
	for _, trait := range character.Traits {
		if !removed[trait.ID] {
			kept = append(kept, trait)
		}
	}
	character.Traits = append(kept, payload.Trait)
	return nil
}

func applyTraitTransacted(state *State, payload TraitTransactedPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("trait_transacted: no turn for character %s", payload.CharacterID)
	}
	tx := payload.Transaction
	turn.TraitTx = &tx
	return nil
}

func applyStimsResolved(state *State, payload StimsResolvedPayload) error {
	turn, ok := state.Turns[payload.CharacterID]
	if !ok {
		return fmt.Errorf("stims_resolved: no turn for character %s", payload.CharacterID)
	}
	turn.StimsUsed = true
	return nil
}
