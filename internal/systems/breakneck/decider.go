package breakneck

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/platform/id"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// Rejection reason identifiers. These are stable codes the host maps to
// user-facing text; the engine never formats beyond them.
const (
	RejectCrewNotFound       = "crew_not_found"
	RejectCrewNameRequired   = "crew_name_required"
	RejectCharNotFound       = "character_not_found"
	RejectCharNameRequired   = "character_name_required"
	RejectApproachInvalid    = "approach_rating_out_of_range"
	RejectApproachName       = "approach_name_required"
	RejectApproachCount      = "approach_count_mismatch"
	RejectRollModeInvalid    = "roll_mode_invalid"
	RejectPositionInvalid    = "position_invalid"
	RejectEffectInvalid      = "effect_invalid"
	RejectTurnAlreadyActive  = "turn_already_active"
	RejectTurnNotFound       = "turn_not_found"
	RejectConsequenceMissing = "consequence_not_staged"
	RejectClockNotFound      = "clock_not_found"
	RejectClockOwnerNotFound = "clock_owner_not_found"
	RejectClockInvalid       = "clock_invalid"
	RejectTraitNotFound      = "trait_not_found"
	RejectTraitDisabled      = "trait_already_disabled"
	RejectTraitEnabled       = "trait_already_enabled"
	RejectTraitCategory      = "trait_category_invalid"
	RejectAmountNotPositive  = "amount_must_be_positive"
	RejectEquipNameRequired  = "equipment_name_required"
	RejectStimsAlreadyUsed   = "stims_already_used"
	RejectStimsLocked        = "stims_locked"
	RejectPushTypeInvalid    = "push_type_invalid"
)

// Decider turns (state, command) into a Decision. It is pure except for
// the injected id and clock functions, which exist for testability.
type Decider struct {
	NewID func() string
	Now   func() time.Time
}

// NewDecider creates a decider with production id and time sources.
func NewDecider() *Decider {
	return &Decider{NewID: mustNewID, Now: time.Now}
}

// mustNewID panics when the system entropy source fails, which matches how
// uuid.New behaves and keeps decider handlers free of impossible error paths.
func mustNewID() string {
	generated, err := id.NewID()
	if err != nil {
		panic(err)
	}
	return generated
}

// Decide routes a validated command to its handler. Validation failures
// come back as rejections inside the Decision; state and configuration
// errors come back as errors.
func (d *Decider) Decide(state *State, cmd command.Command) (command.Decision, error) {
	switch cmd.Type {
	case CmdCrewCreate:
		return d.decideCrewCreate(state, cmd)
	case CmdCrewReset:
		return d.decideCrewReset(state, cmd)
	case CmdCrewRally:
		return d.decideCrewRally(state, cmd)
	case CmdCharCreate:
		return d.decideCharCreate(state, cmd)
	case CmdCharSetAppr:
		return d.decideCharSetApproach(state, cmd)
	case CmdCharAddGear:
		return d.decideCharAddEquipment(state, cmd)
	case CmdCharAddTrait:
		return d.decideCharAddTrait(state, cmd)
	case CmdTurnBegin:
		return d.decideTurnBegin(state, cmd)
	case CmdTurnCommitRoll:
		return d.decideTurnCommitRoll(state, cmd)
	case CmdTurnCancel:
		return d.decideTurnCancel(state, cmd)
	case CmdRollResolve:
		return d.decideRollResolve(state, cmd)
	case CmdConsequenceSet:
		return d.decideConsequenceSet(state, cmd)
	case CmdConsequenceGo:
		return d.decideConsequenceCommit(state, cmd)
	case CmdDefenseInvoke:
		return d.decideDefenseInvoke(state, cmd)
	case CmdTraitTransact:
		return d.decideTraitTransact(state, cmd)
	case CmdTraitLean:
		return d.decideTraitLean(state, cmd)
	case CmdMomentumAdd:
		return d.decideMomentumAdd(state, cmd)
	case CmdMomentumSpend:
		return d.decideMomentumSpend(state, cmd)
	case CmdMomentumSet:
		return d.decideMomentumSet(state, cmd)
	case CmdClockCreate:
		return d.decideClockCreate(state, cmd)
	case CmdClockUpdate:
		return d.decideClockUpdate(state, cmd)
	case CmdStimsUse:
		return d.decideStimsUse(state, cmd)
	default:
		return command.Decision{}, apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("unhandled command type %s", cmd.Type))
	}
}

func reject(code, message string) command.Decision {
	return command.Reject(command.Rejection{Code: code, Message: message})
}

// newEvent marshals a payload and builds the event envelope from the
// command. Payload structs here always marshal; a failure is a defect.
func newEvent(cmd command.Command, eventType event.Type, entityType, entityID string, payload any, now time.Time) (event.Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return command.NewEvent(cmd, eventType, entityType, entityID, payloadJSON, now), nil
}

func decode[T any](payload []byte, into *T) error {
	if err := json.Unmarshal(payload, into); err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "decode command payload", err)
	}
	return nil
}

// stateError reports a command arriving in a turn state that does not
// permit it. This is a sequencing bug at the caller, not user input.
func stateError(cmdType command.Type, state domain.TurnState) error {
	return apperrors.WithMetadata(
		apperrors.CodeTurnInvalidState,
		fmt.Sprintf("%s is not allowed in state %s", cmdType, state),
		map[string]string{"Command": string(cmdType), "State": string(state)},
	)
}

func (d *Decider) decideCrewCreate(state *State, cmd command.Command) (command.Decision, error) {
	var input CrewCreateInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if input.Name == "" {
		return reject(RejectCrewNameRequired, "crew name is required"), nil
	}

	crewID := d.NewID()
	evt, err := newEvent(cmd, EventCrewCreated, EntityCrew, crewID, CrewCreatedPayload{
		CrewID:   crewID,
		Name:     input.Name,
		Momentum: domain.MomentumStart,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt).WithNotes(noteCrewCreated(input.Name)), nil
}

func (d *Decider) decideCharCreate(state *State, cmd command.Command) (command.Decision, error) {
	var input CharCreateInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if input.Name == "" {
		return reject(RejectCharNameRequired, "character name is required"), nil
	}
	if input.CrewID != "" {
		if _, ok := state.Crews[input.CrewID]; !ok {
			return reject(RejectCrewNotFound, "crew does not exist"), nil
		}
	}

	characterID := d.NewID()
	evt, err := newEvent(cmd, EventCharacterCreated, EntityCharacter, characterID, CharacterCreatedPayload{
		CharacterID: characterID,
		Name:        input.Name,
		CrewID:      input.CrewID,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideCharSetApproach(state *State, cmd command.Command) (command.Decision, error) {
	var input CharSetApproachInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if _, ok := state.Characters[input.CharacterID]; !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	if input.Approach == "" {
		return reject(RejectApproachName, "approach name is required"), nil
	}
	if input.Rating < ApproachRatingMin || input.Rating > ApproachRatingMax {
		return reject(RejectApproachInvalid, "approach rating must be 0..4"), nil
	}

	evt, err := newEvent(cmd, EventApproachSet, EntityCharacter, input.CharacterID, ApproachSetPayload(input), d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideCharAddEquipment(state *State, cmd command.Command) (command.Decision, error) {
	var input CharAddEquipmentInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if _, ok := state.Characters[input.CharacterID]; !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	if input.Name == "" {
		return reject(RejectEquipNameRequired, "equipment name is required"), nil
	}

	evt, err := newEvent(cmd, EventEquipmentAdded, EntityCharacter, input.CharacterID, EquipmentAddedPayload{
		CharacterID: input.CharacterID,
		Equipment: Equipment{
			ID:      d.NewID(),
			Name:    input.Name,
			Bonus:   input.Bonus,
			Passive: input.Passive,
		},
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideCharAddTrait(state *State, cmd command.Command) (command.Decision, error) {
	var input CharAddTraitInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if _, ok := state.Characters[input.CharacterID]; !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	if input.Name == "" {
		return reject(domain.ReasonTraitNameRequired, "trait name is required"), nil
	}
	if !input.Category.IsValid() {
		return reject(RejectTraitCategory, "unknown trait category"), nil
	}

	evt, err := newEvent(cmd, EventTraitAdded, EntityCharacter, input.CharacterID, TraitAddedPayload{
		CharacterID: input.CharacterID,
		Trait: domain.Trait{
			ID:         d.NewID(),
			Name:       input.Name,
			Category:   input.Category,
			AcquiredAt: d.Now().UTC(),
		},
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideTurnBegin(state *State, cmd command.Command) (command.Decision, error) {
	var input TurnBeginInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if _, ok := state.Characters[input.CharacterID]; !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	if _, active := state.Turns[input.CharacterID]; active {
		return reject(RejectTurnAlreadyActive, "character already has an active turn"), nil
	}
	if !input.RollMode.IsValid() {
		return reject(RejectRollModeInvalid, "roll mode must be standard or synergy"), nil
	}
	want := 1
	if input.RollMode == domain.RollModeSynergy {
		want = 2
	}
	if len(input.Approaches) != want {
		return reject(RejectApproachCount, fmt.Sprintf("%s mode requires %d approach(es)", input.RollMode, want)), nil
	}
	for _, approach := range input.Approaches {
		if approach == "" {
			return reject(RejectApproachName, "approach name is required"), nil
		}
	}
	if !input.Position.IsValid() {
		return reject(RejectPositionInvalid, "unknown position"), nil
	}
	if !input.Effect.IsValid() {
		return reject(RejectEffectInvalid, "unknown effect"), nil
	}
	if !validPushType(input.PushType) {
		return reject(RejectPushTypeInvalid, "unknown push type"), nil
	}
	if input.PushType != "" && !input.Pushed {
		return reject(RejectPushTypeInvalid, "push type requires pushing"), nil
	}

	evt, err := newEvent(cmd, EventTurnStarted, EntityTurn, input.CharacterID, TurnStartedPayload{
		CharacterID: input.CharacterID,
		Approaches:  input.Approaches,
		RollMode:    input.RollMode,
		Position:    input.Position,
		Effect:      input.Effect,
		Pushed:      input.Pushed,
		PushType:    input.PushType,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt).WithNotes(noteTurnStarted(state, input.CharacterID, input.Position, input.Effect)), nil
}

func (d *Decider) decideTurnCommitRoll(state *State, cmd command.Command) (command.Decision, error) {
	var input TurnCommitRollInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	turn, ok := state.Turns[input.CharacterID]
	if !ok {
		return reject(RejectTurnNotFound, "no active turn"), nil
	}
	if turn.State != domain.StateDecisionPhase {
		return command.Decision{}, stateError(cmd.Type, turn.State)
	}

	now := d.Now()
	var events []event.Event

	cost := turn.ImpliedMomentumCost()
	if cost > 0 {
		crew, ok := state.CrewOf(input.CharacterID)
		if !ok {
			return command.Decision{}, apperrors.New(apperrors.CodeCrewRequired, "turn improvements cost momentum but the character has no crew")
		}
		remaining, err := domain.SpendMomentum(crew.Momentum, cost)
		if err != nil {
			return reject(domain.ReasonInsufficientMomentum, "not enough momentum for the chosen improvements"), nil
		}
		evt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
			CrewID:   crew.ID,
			Delta:    -cost,
			Momentum: remaining,
			Reason:   "turn_improvements",
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, evt)
	}

	transition, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, input.CharacterID, TurnTransitionedPayload{
		CharacterID:   input.CharacterID,
		From:          domain.StateDecisionPhase,
		To:            domain.StateRolling,
		MomentumSpent: cost,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, transition)
	return command.Accept(events...), nil
}

func (d *Decider) decideTurnCancel(state *State, cmd command.Command) (command.Decision, error) {
	var input TurnCancelInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	turn, ok := state.Turns[input.CharacterID]
	if !ok {
		return reject(RejectTurnNotFound, "no active turn"), nil
	}
	if !domain.CanCancel(turn.State) {
		return command.Decision{}, stateError(cmd.Type, turn.State)
	}

	evt, err := newEvent(cmd, EventTurnCancelled, EntityTurn, input.CharacterID, TurnCancelledPayload{
		CharacterID: input.CharacterID,
		From:        turn.State,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

// completionChain emits the bookkeeping transitions that close a turn:
// APPLYING_EFFECTS, TURN_COMPLETE, then the reset to IDLE_WAITING.
func completionChain(cmd command.Command, characterID string, from domain.TurnState, now time.Time) ([]event.Event, error) {
	states := []domain.TurnState{domain.StateApplyingEffects, domain.StateTurnComplete, domain.StateIdleWaiting}
	events := make([]event.Event, 0, len(states))
	current := from
	for _, next := range states {
		evt, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, characterID, TurnTransitionedPayload{
			CharacterID: characterID,
			From:        current,
			To:          next,
		}, now)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
		current = next
	}
	return events, nil
}

// rollEvents produces the roll-resolved event plus the transition(s) the
// outcome dictates. Successful outcomes close the turn in the same batch.
func rollEvents(state *State, cmd command.Command, turn *Turn, seed int64, reroll bool, now time.Time) ([]event.Event, domain.ActionRollResult, error) {
	pool := domain.PoolSize(state.PoolRequest(turn))
	roll, err := domain.RollAction(domain.ActionRollRequest{Pool: pool, Seed: seed})
	if err != nil {
		return nil, domain.ActionRollResult{}, err
	}

	position := turn.EffectivePosition()
	rollEvt, err := newEvent(cmd, EventRollResolved, EntityTurn, turn.CharacterID, RollResolvedPayload{
		CharacterID: turn.CharacterID,
		Pool:        roll.Pool,
		Results:     roll.Results,
		ZeroPool:    roll.ZeroPool,
		Outcome:     roll.Outcome,
		Position:    position,
		Effect:      turn.EffectiveEffect(),
		Reroll:      reroll,
	}, now)
	if err != nil {
		return nil, domain.ActionRollResult{}, err
	}
	events := []event.Event{rollEvt}

	next := domain.StateForOutcome(roll.Outcome)
	transition, err := newEvent(cmd, EventTurnTransitioned, EntityTurn, turn.CharacterID, TurnTransitionedPayload{
		CharacterID: turn.CharacterID,
		From:        domain.StateRolling,
		To:          next,
	}, now)
	if err != nil {
		return nil, domain.ActionRollResult{}, err
	}
	events = append(events, transition)

	if roll.Outcome.IsSuccess() {
		chain, err := completionChain(cmd, turn.CharacterID, next, now)
		if err != nil {
			return nil, domain.ActionRollResult{}, err
		}
		events = append(events, chain...)
	}
	return events, roll, nil
}

func (d *Decider) decideRollResolve(state *State, cmd command.Command) (command.Decision, error) {
	var input RollResolveInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	turn, ok := state.Turns[input.CharacterID]
	if !ok {
		return reject(RejectTurnNotFound, "no active turn"), nil
	}
	if turn.State != domain.StateRolling {
		return command.Decision{}, stateError(cmd.Type, turn.State)
	}

	events, roll, err := rollEvents(state, cmd, turn, input.Seed, false, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(events...).WithNotes(noteRoll(state, turn.CharacterID, roll)), nil
}

func (d *Decider) decideConsequenceSet(state *State, cmd command.Command) (command.Decision, error) {
	var input ConsequenceSetInput
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
	if !input.Transaction.Type.IsValid() {
		return reject(domain.ReasonConsequenceInvalidType, "unknown consequence type"), nil
	}
	if clockID := input.Transaction.ClockID(); clockID != "" {
		if _, ok := state.Clocks[clockID]; !ok {
			return reject(RejectClockNotFound, "target clock does not exist"), nil
		}
	}
	if target := input.Transaction.HarmTargetCharacterID; target != "" {
		if _, ok := state.Characters[target]; !ok {
			return reject(RejectCharNotFound, "harm target does not exist"), nil
		}
	}

	evt, err := newEvent(cmd, EventConsequenceSet, EntityTurn, input.CharacterID, ConsequenceSetPayload(input), d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

// commitConsequence builds the atomic batch for applying a consequence:
// advance clock, grant momentum, record the commit, close the turn.
func (d *Decider) commitConsequence(state *State, cmd command.Command, turn *Turn, segments, momentumGain int, defensive bool, position domain.Position, effect domain.Effect) (command.Decision, error) {
	now := d.Now()
	var events []event.Event

	clockID := ""
	if segments > 0 {
		tx := turn.Consequence
		if tx == nil {
			return reject(RejectConsequenceMissing, "no consequence staged"), nil
		}
		if validation := tx.Validate(); !validation.Valid {
			return reject(validation.Reason, "consequence transaction incomplete"), nil
		}
		clockID = tx.ClockID()
		clock, ok := state.Clocks[clockID]
		if !ok {
			return reject(RejectClockNotFound, "target clock does not exist"), nil
		}
		updated := clock.AddSegments(segments)
		clockEvt, err := newEvent(cmd, EventClockUpdated, EntityClock, clockID, ClockUpdatedPayload{
			ClockID:  clockID,
			Segments: updated.Segments,
			Full:     updated.IsFull(),
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, clockEvt)
	}

	crew, ok := state.CrewOf(turn.CharacterID)
	if !ok {
		return command.Decision{}, apperrors.New(apperrors.CodeCrewRequired, "consequence momentum requires a crew")
	}
	momentumEvt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
		CrewID:   crew.ID,
		Delta:    momentumGain,
		Momentum: domain.AddMomentum(crew.Momentum, momentumGain),
		Reason:   "consequence",
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, momentumEvt)

	consequenceType := domain.ConsequenceType("")
	if turn.Consequence != nil {
		consequenceType = turn.Consequence.Type
	}
	commitEvt, err := newEvent(cmd, EventConsequenceCommit, EntityTurn, turn.CharacterID, ConsequenceCommittedPayload{
		CharacterID:  turn.CharacterID,
		Type:         consequenceType,
		ClockID:      clockID,
		Segments:     segments,
		MomentumGain: momentumGain,
		Defensive:    defensive,
		Position:     position,
		Effect:       effect,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, commitEvt)

	chain, err := completionChain(cmd, turn.CharacterID, turn.State, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, chain...)

	return command.Accept(events...).WithNotes(noteConsequence(state, turn.CharacterID, segments, momentumGain, defensive)), nil
}

func (d *Decider) decideConsequenceCommit(state *State, cmd command.Command) (command.Decision, error) {
	var input ConsequenceCommitInput
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
	if turn.Consequence == nil {
		return reject(RejectConsequenceMissing, "no consequence staged"), nil
	}
	if validation := turn.Consequence.Validate(); !validation.Valid {
		return reject(validation.Reason, "consequence transaction incomplete"), nil
	}

	position := turn.EffectivePosition()
	return d.commitConsequence(state, cmd, turn,
		domain.ConsequenceSeverity(position),
		domain.MomentumGain(position),
		false, position, turn.EffectiveEffect())
}

func (d *Decider) decideDefenseInvoke(state *State, cmd command.Command) (command.Decision, error) {
	var input DefenseInvokeInput
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

	position := turn.EffectivePosition()
	plan, err := domain.PlanDefense(position, turn.EffectiveEffect(), turn.Outcome)
	if err != nil {
		reason := domain.ReasonDefenseRequiresPartial
		var blocked *apperrors.Error
		if errors.As(err, &blocked) && blocked.Metadata["Reason"] != "" {
			reason = blocked.Metadata["Reason"]
		}
		return reject(reason, "defensive success unavailable"), nil
	}

	return d.commitConsequence(state, cmd, turn,
		plan.Segments, plan.MomentumGain, true, position, plan.Effect)
}

func (d *Decider) decideTraitTransact(state *State, cmd command.Command) (command.Decision, error) {
	var input TraitTransactInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	turn, ok := state.Turns[input.CharacterID]
	if !ok {
		return reject(RejectTurnNotFound, "no active turn"), nil
	}
	if turn.State != domain.StateDecisionPhase {
		return command.Decision{}, stateError(cmd.Type, turn.State)
	}
	if validation := input.Transaction.Validate(); !validation.Valid {
		return reject(validation.Reason, "trait transaction incomplete"), nil
	}
	character, ok := state.Characters[input.CharacterID]
	if !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}

	now := d.Now()
	tx := input.Transaction
	var events []event.Event

	switch tx.Mode {
	case domain.TraitModeExisting:
		trait, found := character.Trait(tx.TraitID)
		if !found {
			return reject(RejectTraitNotFound, "trait does not exist"), nil
		}
		if trait.Disabled {
			return reject(RejectTraitDisabled, "trait is disabled"), nil
		}
	case domain.TraitModeNew:
		evt, err := newEvent(cmd, EventTraitAdded, EntityCharacter, input.CharacterID, TraitAddedPayload{
			CharacterID: input.CharacterID,
			Trait: domain.Trait{
				ID:         d.NewID(),
				Name:       tx.Name,
				Category:   tx.CreatedCategory(),
				AcquiredAt: now.UTC(),
			},
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, evt)
	case domain.TraitModeConsolidate:
		for _, traitID := range tx.ConsolidateIDs {
			if _, found := character.Trait(traitID); !found {
				return reject(RejectTraitNotFound, "consolidated trait does not exist"), nil
			}
		}
		evt, err := newEvent(cmd, EventTraitsConsolidated, EntityCharacter, input.CharacterID, TraitsConsolidatedPayload{
			CharacterID: input.CharacterID,
			RemovedIDs:  tx.ConsolidateIDs,
			Trait: domain.Trait{
				ID:         d.NewID(),
				Name:       tx.Name,
				Category:   tx.CreatedCategory(),
				AcquiredAt: now.UTC(),
			},
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, evt)
	}

	transactedEvt, err := newEvent(cmd, EventTraitTransacted, EntityTurn, input.CharacterID, TraitTransactedPayload{
		CharacterID: input.CharacterID,
		Transaction: tx,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, transactedEvt)
	return command.Accept(events...), nil
}

func (d *Decider) decideTraitLean(state *State, cmd command.Command) (command.Decision, error) {
	var input TraitLeanInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	character, ok := state.Characters[input.CharacterID]
	if !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	trait, found := character.Trait(input.TraitID)
	if !found {
		return reject(RejectTraitNotFound, "trait does not exist"), nil
	}
	if trait.Disabled {
		return reject(RejectTraitDisabled, "trait is already disabled"), nil
	}
	crew, ok := state.CrewOf(input.CharacterID)
	if !ok {
		return command.Decision{}, apperrors.New(apperrors.CodeCrewRequired, "leaning into a trait grants crew momentum")
	}

	now := d.Now()
	disableEvt, err := newEvent(cmd, EventTraitDisabled, EntityCharacter, input.CharacterID, TraitDisabledPayload{
		CharacterID: input.CharacterID,
		TraitID:     input.TraitID,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	momentumEvt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
		CrewID:   crew.ID,
		Delta:    domain.LeanMomentumGain,
		Momentum: domain.AddMomentum(crew.Momentum, domain.LeanMomentumGain),
		Reason:   "lean_into_trait",
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(disableEvt, momentumEvt), nil
}

func (d *Decider) decideCrewRally(state *State, cmd command.Command) (command.Decision, error) {
	var input CrewRallyInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	character, ok := state.Characters[input.CharacterID]
	if !ok {
		return reject(RejectCharNotFound, "character does not exist"), nil
	}
	crew, ok := state.CrewOf(input.CharacterID)
	if !ok {
		return command.Decision{}, apperrors.New(apperrors.CodeCrewRequired, "rally requires a crew")
	}
	if err := domain.CanRally(crew.Momentum, character.RallyAvailable); err != nil {
		return reject(domain.ReasonRallyUnavailable, "rally unavailable"), nil
	}

	// Spend is caller-chosen, bounded by what the crew has.
	spend := min(max(input.Spend, 0), crew.Momentum)
	now := d.Now()
	var events []event.Event

	if input.EnableTraitID != "" {
		trait, found := character.Trait(input.EnableTraitID)
		if !found {
			return reject(RejectTraitNotFound, "trait does not exist"), nil
		}
		if !trait.Disabled {
			return reject(RejectTraitEnabled, "trait is already enabled"), nil
		}
		evt, err := newEvent(cmd, EventTraitEnabled, EntityCharacter, input.CharacterID, TraitEnabledPayload{
			CharacterID: input.CharacterID,
			TraitID:     input.EnableTraitID,
		}, now)
		if err != nil {
			return command.Decision{}, err
		}
		events = append(events, evt)
	}

	rallyEvt, err := newEvent(cmd, EventRallySpent, EntityCrew, crew.ID, RallySpentPayload{
		CharacterID:    input.CharacterID,
		CrewID:         crew.ID,
		Spent:          spend,
		Momentum:       crew.Momentum - spend,
		EnabledTraitID: input.EnableTraitID,
	}, now)
	if err != nil {
		return command.Decision{}, err
	}
	events = append(events, rallyEvt)
	return command.Accept(events...), nil
}

func (d *Decider) decideCrewReset(state *State, cmd command.Command) (command.Decision, error) {
	var input CrewResetInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	if _, ok := state.Crews[input.CrewID]; !ok {
		return reject(RejectCrewNotFound, "crew does not exist"), nil
	}

	evt, err := newEvent(cmd, EventCrewReset, EntityCrew, input.CrewID, CrewResetPayload{
		CrewID:   input.CrewID,
		Momentum: domain.MomentumStart,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideMomentumAdd(state *State, cmd command.Command) (command.Decision, error) {
	var input MomentumAddInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	crew, ok := state.Crews[input.CrewID]
	if !ok {
		return reject(RejectCrewNotFound, "crew does not exist"), nil
	}
	if input.Amount <= 0 {
		return reject(RejectAmountNotPositive, "amount must be positive"), nil
	}

	evt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
		CrewID:   crew.ID,
		Delta:    input.Amount,
		Momentum: domain.AddMomentum(crew.Momentum, input.Amount),
		Reason:   input.Reason,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideMomentumSpend(state *State, cmd command.Command) (command.Decision, error) {
	var input MomentumSpendInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	crew, ok := state.Crews[input.CrewID]
	if !ok {
		return reject(RejectCrewNotFound, "crew does not exist"), nil
	}
	if input.Amount <= 0 {
		return reject(RejectAmountNotPositive, "amount must be positive"), nil
	}
	remaining, err := domain.SpendMomentum(crew.Momentum, input.Amount)
	if err != nil {
		return reject(domain.ReasonInsufficientMomentum, "not enough momentum"), nil
	}

	evt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
		CrewID:   crew.ID,
		Delta:    -input.Amount,
		Momentum: remaining,
		Reason:   input.Reason,
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideMomentumSet(state *State, cmd command.Command) (command.Decision, error) {
	var input MomentumSetInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	crew, ok := state.Crews[input.CrewID]
	if !ok {
		return reject(RejectCrewNotFound, "crew does not exist"), nil
	}

	value := domain.ClampMomentum(input.Value)
	evt, err := newEvent(cmd, EventMomentumChanged, EntityCrew, crew.ID, MomentumChangedPayload{
		CrewID:   crew.ID,
		Delta:    value - crew.Momentum,
		Momentum: value,
		Reason:   "gm_override",
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideClockCreate(state *State, cmd command.Command) (command.Decision, error) {
	var input ClockCreateInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	_, isCharacter := state.Characters[input.OwnerID]
	_, isCrew := state.Crews[input.OwnerID]
	if !isCharacter && !isCrew {
		return reject(RejectClockOwnerNotFound, "clock owner does not exist"), nil
	}
	clock, err := domain.NewClock(d.NewID(), input.OwnerID, input.Type, input.Subtype, input.MaxSegments)
	if err != nil {
		return reject(RejectClockInvalid, err.Error()), nil
	}

	evt, err := newEvent(cmd, EventClockCreated, EntityClock, clock.ID, ClockCreatedPayload{Clock: clock}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}

func (d *Decider) decideClockUpdate(state *State, cmd command.Command) (command.Decision, error) {
	var input ClockUpdateInput
	if err := decode(cmd.PayloadJSON, &input); err != nil {
		return command.Decision{}, err
	}
	clock, ok := state.Clocks[input.ClockID]
	if !ok {
		return reject(RejectClockNotFound, "clock does not exist"), nil
	}

	updated := clock.AddSegments(input.Delta)
	evt, err := newEvent(cmd, EventClockUpdated, EntityClock, clock.ID, ClockUpdatedPayload{
		ClockID:  clock.ID,
		Segments: updated.Segments,
		Full:     updated.IsFull(),
	}, d.Now())
	if err != nil {
		return command.Decision{}, err
	}
	return command.Accept(evt), nil
}
