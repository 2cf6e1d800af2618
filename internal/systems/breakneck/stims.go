package breakneck

import (
	"github.com/harrowgate/momentum-engine/internal/core/dice"
	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// decideStimsUse runs the stims interrupt as one atomic decision. The
// sequence is strict: enter STIMS_ROLLING, find or create the addiction
// clock, roll 1d6 and advance the clock, mark stims used, then either lock
// (clock full: Addict scar, STIMS_LOCKED, no reroll, then back to the
// pending consequence) or reroll the action with the same pool computation
// as the original roll.
func (d *Decider) decideStimsUse(state *State, cmd command.Command) (command.Decision, error) {
	var input StimsUseInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	turn, ok := state.Turns[input.CharacterID]
	if !ok {
		return reject(RejectTurnNotFound, "no active turn"), nil
	}
	if turn.State != domain.StateGMResolvingConsequence {
		return command.Decision{}, stateError(cmd.Type, turn.State)
	}
	if turn.StimsUsed {
		return reject(RejectStimsAlreadyUsed, "stims already used this turn"), nil
	}
	character, ok := state.Characters[input.CharacterID]
	if !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	if character.CrewID == "" {
		return command.Decision{}, apperrors.New(apperrors.CodeStimsNoCrew, "stims require a crew")
	}
	// Team-wide lock: one full addiction clock anywhere in the crew
	// blocks everyone.
	if state.StimsLocked(character.CrewID) {
		return reject(RejectStimsLocked, "a crew member's addiction clock is full"), nil
	}

	now := d.Now()
	var events []event.Event

	enterEvt, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, input.CharacterID, TurnTransitionedPayload{
		CharacterID: input.CharacterID,
		From:        domain.StateGMResolvingConsequence,
		To:          domain.StateStimsRolling,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, enterEvt)

	clock, hasClock := state.AddictionClock(input.CharacterID)
	if !hasClock {
		created, err := domain.NewClock(d.NewID(), input.CharacterID, domain.ClockTypeAddiction, "stims", 0)
		if err != nil {
			return command.Decision{}, err
		}
		clock = created
		clockEvt, err := newEvent(cmd, EventClockCreated, EntityClock, clock.ID, ClockCreatedPayload{Clock: clock}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, clockEvt)
	}

	rolled, err := dice.RollSorted(input.Seed, 6, 1)
	if err != nil {
		return command.Decision{}, err
	}
	die := clampDie(rolled[0])

	before := clock.Segments
	advanced := clock.AddSegments(die)
	locked := advanced.IsFull()

	advanceEvt, err := newEvent(cmd, EventClockUpdated, EntityClock, clock.ID, ClockUpdatedPayload{
		ClockID:  clock.ID,
		Segments: advanced.Segments,
		Full:     locked,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, advanceEvt)

	stimsEvt, err := newEvent(cmd, EventStimsResolved, EntityTurn, input.CharacterID, StimsResolvedPayload{
		CharacterID:    input.CharacterID,
		ClockID:        clock.ID,
		Die:            die,
		SegmentsBefore: before,
		SegmentsAfter:  advanced.Segments,
		Locked:         locked,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, stimsEvt)

	if locked {
		traitID := d.NewID()
		addictEvt, err := newEvent(cmd, EventTraitAdded, EntityCharacter, input.CharacterID, TraitAddedPayload{
			CharacterID: input.CharacterID,
			Trait: domain.Trait{
				ID:         traitID,
				Name:       domain.AddictTraitName,
				Category:   domain.TraitCategoryScar,
				AcquiredAt: now.UTC(),
			},
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		acquiredEvt, err := newEvent(cmd, EventAddictAcquired, EntityCharacter, input.CharacterID, AddictAcquiredPayload{
			CharacterID: input.CharacterID,
			TraitID:     traitID,
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		lockEvt, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, input.CharacterID, TurnTransitionedPayload{
			CharacterID: input.CharacterID,
			From:        domain.StateStimsRolling,
			To:          domain.StateStimsLocked,
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		// The interrupt ends with no reroll; the original consequence is
		// still pending, so play returns to the GM in the same batch.
		resumeEvt, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, input.CharacterID, TurnTransitionedPayload{
			CharacterID: input.CharacterID,
			From:        domain.StateStimsLocked,
			To:          domain.StateGMResolvingConsequence,
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, addictEvt, acquiredEvt, lockEvt, resumeEvt)
		return command.Accept(events...).WithNotes(noteStimsLocked(state, input.CharacterID)), nil
	}

	rerollEvt, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, input.CharacterID, TurnTransitionedPayload{
		CharacterID: input.CharacterID,
		From:        domain.StateStimsRolling,
		To:          domain.StateRolling,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, rerollEvt)

	rerolled, reroll, err := rollEvents(state, cmd, turn, input.RerollSeed, true, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, rerolled...)
	return command.Accept(events...).WithNotes(
		noteStimsReroll(state, input.CharacterID, die),
		noteRoll(state, input.CharacterID, reroll),
	), nil
}

// clampDie clamps a die result to [1, 6], defaulting invalid input to 1.
func clampDie(value int) int {
	if value < 1 {
		return 1
	}
	if value > 6 {
		return 6
	}
	return value
}
