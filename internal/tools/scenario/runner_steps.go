package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/game/engine"
	"github.com/harrowgate/momentum-engine/internal/platform/random"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

func (r *Runner) runStep(ctx context.Context, step Step) error {
	switch step.Kind {
	case "crew":
		return r.stepCrew(ctx, step)
	case "character":
		return r.stepCharacter(ctx, step)
	case "equipment":
		return r.stepEquipment(ctx, step)
	case "trait":
		return r.stepTrait(ctx, step)
	case "clock":
		return r.stepClock(ctx, step)
	case "clock_tick":
		return r.stepClockTick(ctx, step)
	case "turn":
		return r.stepTurn(ctx, step)
	case "commit_roll":
		return r.stepCommitRoll(ctx, step)
	case "roll":
		return r.stepRoll(ctx, step)
	case "consequence":
		return r.stepConsequence(ctx, step)
	case "commit_consequence":
		return r.stepCommitConsequence(ctx, step)
	case "defense":
		return r.stepDefense(ctx, step)
	case "trait_use":
		return r.stepTraitUse(ctx, step)
	case "stims":
		return r.stepStims(ctx, step)
	case "rally":
		return r.stepRally(ctx, step)
	case "lean":
		return r.stepLean(ctx, step)
	case "reset":
		return r.stepReset(ctx, step)
	case "momentum_add":
		return r.stepMomentum(ctx, step, breakneck.CmdMomentumAdd)
	case "momentum_spend":
		return r.stepMomentum(ctx, step, breakneck.CmdMomentumSpend)
	case "momentum_set":
		return r.stepMomentumSet(ctx, step)
	case "cancel":
		return r.stepCancel(ctx, step)
	case "expect_momentum":
		return r.stepExpectMomentum(ctx, step)
	case "expect_turn_state":
		return r.stepExpectTurnState(ctx, step)
	case "expect_no_turn":
		return r.stepExpectNoTurn(ctx, step)
	case "expect_clock":
		return r.stepExpectClock(ctx, step)
	case "expect_dying":
		return r.stepExpectDying(ctx, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// send dispatches one command. A step carrying expect_reject succeeds only
// when the command is rejected with that reason code.
func (r *Runner) send(ctx context.Context, step Step, cmdType command.Type, input any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	result, err := r.engine.Dispatch(ctx, command.Command{
		CampaignID:  r.campaignID,
		Type:        cmdType,
		ActorType:   command.ActorTypeGM,
		ActorID:     "scenario",
		PayloadJSON: raw,
	})
	if err != nil {
		return err
	}

	expectReject, _ := stringArg(step.Args, "expect_reject")
	if expectReject != "" {
		if result.Accepted() {
			return fmt.Errorf("expected rejection %q, command was accepted", expectReject)
		}
		if code := result.Rejections[0].Code; code != expectReject {
			return fmt.Errorf("expected rejection %q, got %q", expectReject, code)
		}
		return nil
	}
	if !result.Accepted() {
		rejection := result.Rejections[0]
		return fmt.Errorf("command rejected: %s (%s)", rejection.Code, rejection.Message)
	}

	for _, note := range result.Notes {
		r.logf("  %s", note.Text)
	}
	return r.harvest(result)
}

// harvest records created entities so later steps can reference them by the
// names the script used.
func (r *Runner) harvest(result engine.Result) error {
	for _, evt := range result.Events {
		switch evt.Type {
		case breakneck.EventCrewCreated:
			var payload breakneck.CrewCreatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode crew payload: %w", err)
			}
			r.crews[payload.Name] = payload.CrewID
		case breakneck.EventCharacterCreated:
			var payload breakneck.CharacterCreatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode character payload: %w", err)
			}
			r.characters[payload.Name] = payload.CharacterID
			r.characterNames[payload.CharacterID] = payload.Name
		case breakneck.EventClockCreated:
			var payload breakneck.ClockCreatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode clock payload: %w", err)
			}
			r.lastClockID = payload.Clock.ID
		case breakneck.EventTraitAdded:
			var payload breakneck.TraitAddedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode trait payload: %w", err)
			}
			r.traits[r.traitKey(payload.CharacterID, payload.Trait.Name)] = payload.Trait.ID
		case breakneck.EventTraitsConsolidated:
			var payload breakneck.TraitsConsolidatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode consolidation payload: %w", err)
			}
			r.traits[r.traitKey(payload.CharacterID, payload.Trait.Name)] = payload.Trait.ID
		}
	}
	return nil
}

func (r *Runner) traitKey(characterID, traitName string) string {
	return r.characterNames[characterID] + "/" + traitName
}

func (r *Runner) state(ctx context.Context) (*breakneck.State, error) {
	raw, err := r.engine.State(ctx, r.campaignID)
	if err != nil {
		return nil, err
	}
	state, ok := raw.(*breakneck.State)
	if !ok {
		return nil, fmt.Errorf("unexpected state type %T", raw)
	}
	return state, nil
}

func (r *Runner) crewID(args map[string]any, key string) (string, error) {
	name, ok := stringArg(args, key)
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	id, found := r.crews[name]
	if !found {
		return "", fmt.Errorf("unknown crew %q", name)
	}
	return id, nil
}

func (r *Runner) characterID(args map[string]any, key string) (string, error) {
	name, ok := stringArg(args, key)
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	id, found := r.characters[name]
	if !found {
		return "", fmt.Errorf("unknown character %q", name)
	}
	return id, nil
}

func (r *Runner) clockID(args map[string]any, key string) (string, error) {
	alias, ok := stringArg(args, key)
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	id, found := r.clocks[alias]
	if !found {
		return "", fmt.Errorf("unknown clock %q", alias)
	}
	return id, nil
}

func (r *Runner) traitID(args map[string]any, characterName, key string) (string, error) {
	name, ok := stringArg(args, key)
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	id, found := r.traits[characterName+"/"+name]
	if !found {
		return "", fmt.Errorf("unknown trait %q for %q", name, characterName)
	}
	return id, nil
}

func (r *Runner) stepCrew(ctx context.Context, step Step) error {
	name, _ := stringArg(step.Args, "name")
	return r.send(ctx, step, breakneck.CmdCrewCreate, breakneck.CrewCreateInput{Name: name})
}

func (r *Runner) stepCharacter(ctx context.Context, step Step) error {
	name, _ := stringArg(step.Args, "name")
	input := breakneck.CharCreateInput{Name: name}
	if crewName, ok := stringArg(step.Args, "crew"); ok {
		crewID, found := r.crews[crewName]
		if !found {
			return fmt.Errorf("unknown crew %q", crewName)
		}
		input.CrewID = crewID
	}
	if err := r.send(ctx, step, breakneck.CmdCharCreate, input); err != nil {
		return err
	}

	approaches, _ := step.Args["approaches"].(map[string]any)
	names := make([]string, 0, len(approaches))
	for approach := range approaches {
		names = append(names, approach)
	}
	sort.Strings(names)
	for _, approach := range names {
		rating, _ := intArg(approaches, approach)
		err := r.send(ctx, Step{Kind: step.Kind}, breakneck.CmdCharSetAppr, breakneck.CharSetApproachInput{
			CharacterID: r.characters[name],
			Approach:    approach,
			Rating:      rating,
		})
		if err != nil {
			return fmt.Errorf("set approach %s: %w", approach, err)
		}
	}
	return nil
}

func (r *Runner) stepEquipment(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	name, _ := stringArg(step.Args, "name")
	bonus, _ := intArg(step.Args, "bonus")
	passive, _ := boolArg(step.Args, "passive")
	return r.send(ctx, step, breakneck.CmdCharAddGear, breakneck.CharAddEquipmentInput{
		CharacterID: characterID,
		Name:        name,
		Bonus:       bonus,
		Passive:     passive,
	})
}

func (r *Runner) stepTrait(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	name, _ := stringArg(step.Args, "name")
	category, ok := stringArg(step.Args, "category")
	if !ok {
		category = string(domain.TraitCategoryBackground)
	}
	return r.send(ctx, step, breakneck.CmdCharAddTrait, breakneck.CharAddTraitInput{
		CharacterID: characterID,
		Name:        name,
		Category:    domain.TraitCategory(category),
	})
}

func (r *Runner) stepClock(ctx context.Context, step Step) error {
	ownerName, _ := stringArg(step.Args, "owner")
	ownerID, found := r.characters[ownerName]
	if !found {
		ownerID, found = r.crews[ownerName]
	}
	if !found {
		return fmt.Errorf("unknown clock owner %q", ownerName)
	}
	clockType, _ := stringArg(step.Args, "type")
	subtype, _ := stringArg(step.Args, "subtype")
	maxSegments, _ := intArg(step.Args, "max")

	err := r.send(ctx, step, breakneck.CmdClockCreate, breakneck.ClockCreateInput{
		OwnerID:     ownerID,
		Type:        domain.ClockType(clockType),
		Subtype:     subtype,
		MaxSegments: maxSegments,
	})
	if err != nil {
		return err
	}

	alias, ok := stringArg(step.Args, "as")
	if !ok {
		alias = ownerName + "/" + clockType
	}
	if r.lastClockID != "" {
		r.clocks[alias] = r.lastClockID
	}
	return nil
}

func (r *Runner) stepClockTick(ctx context.Context, step Step) error {
	clockID, err := r.clockID(step.Args, "clock")
	if err != nil {
		return err
	}
	delta, _ := intArg(step.Args, "delta")
	return r.send(ctx, step, breakneck.CmdClockUpdate, breakneck.ClockUpdateInput{
		ClockID: clockID,
		Delta:   delta,
	})
}

func (r *Runner) stepTurn(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	mode, ok := stringArg(step.Args, "mode")
	if !ok {
		mode = string(domain.RollModeStandard)
	}
	position, _ := stringArg(step.Args, "position")
	effect, _ := stringArg(step.Args, "effect")
	pushed, _ := boolArg(step.Args, "push")
	pushType, _ := stringArg(step.Args, "push_type")

	var approaches []string
	if listed, isList := step.Args["approaches"].([]any); isList {
		for _, item := range listed {
			if name, isString := item.(string); isString {
				approaches = append(approaches, name)
			}
		}
	}

	return r.send(ctx, step, breakneck.CmdTurnBegin, breakneck.TurnBeginInput{
		CharacterID: characterID,
		Approaches:  approaches,
		RollMode:    domain.RollMode(mode),
		Position:    domain.Position(position),
		Effect:      domain.Effect(effect),
		Pushed:      pushed,
		PushType:    pushType,
	})
}

func (r *Runner) stepCommitRoll(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdTurnCommitRoll, breakneck.TurnCommitRollInput{CharacterID: characterID})
}

func (r *Runner) stepRoll(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	seed, err := r.seedArg(step.Args, "seed")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdRollResolve, breakneck.RollResolveInput{
		CharacterID: characterID,
		Seed:        seed,
	})
}

func (r *Runner) stepConsequence(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	consequenceType, _ := stringArg(step.Args, "type")
	tx := domain.ConsequenceTransaction{Type: domain.ConsequenceType(consequenceType)}

	switch tx.Type {
	case domain.ConsequenceHarm:
		targetID, err := r.characterID(step.Args, "target")
		if err != nil {
			return err
		}
		clockID, err := r.clockID(step.Args, "clock")
		if err != nil {
			return err
		}
		tx.HarmTargetCharacterID = targetID
		tx.HarmClockID = clockID
	case domain.ConsequenceCrewClock:
		clockID, err := r.clockID(step.Args, "clock")
		if err != nil {
			return err
		}
		tx.CrewClockID = clockID
	case domain.ConsequenceSuccessClock:
		clockID, err := r.clockID(step.Args, "clock")
		if err != nil {
			return err
		}
		tx.SuccessClockID = clockID
	}

	return r.send(ctx, step, breakneck.CmdConsequenceSet, breakneck.ConsequenceSetInput{
		CharacterID: characterID,
		Transaction: tx,
	})
}

func (r *Runner) stepCommitConsequence(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdConsequenceGo, breakneck.ConsequenceCommitInput{CharacterID: characterID})
}

func (r *Runner) stepDefense(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdDefenseInvoke, breakneck.DefenseInvokeInput{CharacterID: characterID})
}

func (r *Runner) stepTraitUse(ctx context.Context, step Step) error {
	characterName, _ := stringArg(step.Args, "character")
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	mode, _ := stringArg(step.Args, "mode")
	tx := domain.TraitTransaction{Mode: domain.TraitTransactionMode(mode)}

	switch tx.Mode {
	case domain.TraitModeExisting:
		traitID, err := r.traitID(step.Args, characterName, "trait")
		if err != nil {
			return err
		}
		tx.TraitID = traitID
	case domain.TraitModeNew:
		tx.Name, _ = stringArg(step.Args, "name")
	case domain.TraitModeConsolidate:
		tx.Name, _ = stringArg(step.Args, "name")
		listed, _ := step.Args["consolidate"].([]any)
		for _, item := range listed {
			traitName, isString := item.(string)
			if !isString {
				continue
			}
			traitID, found := r.traits[characterName+"/"+traitName]
			if !found {
				return fmt.Errorf("unknown trait %q for %q", traitName, characterName)
			}
			tx.ConsolidateIDs = append(tx.ConsolidateIDs, traitID)
		}
	}

	return r.send(ctx, step, breakneck.CmdTraitTransact, breakneck.TraitTransactInput{
		CharacterID: characterID,
		Transaction: tx,
	})
}

func (r *Runner) stepStims(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	seed, err := r.seedArg(step.Args, "seed")
	if err != nil {
		return err
	}
	rerollSeed, err := r.seedArg(step.Args, "reroll_seed")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdStimsUse, breakneck.StimsUseInput{
		CharacterID: characterID,
		Seed:        seed,
		RerollSeed:  rerollSeed,
	})
}

func (r *Runner) stepRally(ctx context.Context, step Step) error {
	characterName, _ := stringArg(step.Args, "character")
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	spend, _ := intArg(step.Args, "spend")
	input := breakneck.CrewRallyInput{CharacterID: characterID, Spend: spend}
	if _, ok := stringArg(step.Args, "enable_trait"); ok {
		traitID, err := r.traitID(step.Args, characterName, "enable_trait")
		if err != nil {
			return err
		}
		input.EnableTraitID = traitID
	}
	return r.send(ctx, step, breakneck.CmdCrewRally, input)
}

func (r *Runner) stepLean(ctx context.Context, step Step) error {
	characterName, _ := stringArg(step.Args, "character")
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	traitID, err := r.traitID(step.Args, characterName, "trait")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdTraitLean, breakneck.TraitLeanInput{
		CharacterID: characterID,
		TraitID:     traitID,
	})
}

func (r *Runner) stepReset(ctx context.Context, step Step) error {
	crewID, err := r.crewID(step.Args, "crew")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdCrewReset, breakneck.CrewResetInput{CrewID: crewID})
}

func (r *Runner) stepMomentum(ctx context.Context, step Step, cmdType command.Type) error {
	crewID, err := r.crewID(step.Args, "crew")
	if err != nil {
		return err
	}
	amount, _ := intArg(step.Args, "amount")
	reason, _ := stringArg(step.Args, "reason")
	if cmdType == breakneck.CmdMomentumSpend {
		return r.send(ctx, step, cmdType, breakneck.MomentumSpendInput{CrewID: crewID, Amount: amount, Reason: reason})
	}
	return r.send(ctx, step, cmdType, breakneck.MomentumAddInput{CrewID: crewID, Amount: amount, Reason: reason})
}

func (r *Runner) stepMomentumSet(ctx context.Context, step Step) error {
	crewID, err := r.crewID(step.Args, "crew")
	if err != nil {
		return err
	}
	value, _ := intArg(step.Args, "value")
	return r.send(ctx, step, breakneck.CmdMomentumSet, breakneck.MomentumSetInput{CrewID: crewID, Value: value})
}

func (r *Runner) stepCancel(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	return r.send(ctx, step, breakneck.CmdTurnCancel, breakneck.TurnCancelInput{CharacterID: characterID})
}

func (r *Runner) stepExpectMomentum(ctx context.Context, step Step) error {
	crewID, err := r.crewID(step.Args, "crew")
	if err != nil {
		return err
	}
	want, _ := intArg(step.Args, "value")
	state, err := r.state(ctx)
	if err != nil {
		return err
	}
	crew := state.Crews[crewID]
	if crew == nil {
		return fmt.Errorf("crew %s missing from state", crewID)
	}
	return r.expect(crew.Momentum == want, "momentum = %d, want %d", crew.Momentum, want)
}

func (r *Runner) stepExpectTurnState(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	want, _ := stringArg(step.Args, "state")
	state, err := r.state(ctx)
	if err != nil {
		return err
	}
	turn, active := state.Turns[characterID]
	if !active {
		return r.expect(false, "no active turn, want state %s", want)
	}
	return r.expect(string(turn.State) == want, "turn state = %s, want %s", turn.State, want)
}

func (r *Runner) stepExpectNoTurn(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	state, err := r.state(ctx)
	if err != nil {
		return err
	}
	_, active := state.Turns[characterID]
	return r.expect(!active, "turn still active for %s", characterID)
}

func (r *Runner) stepExpectClock(ctx context.Context, step Step) error {
	clockID, err := r.clockID(step.Args, "clock")
	if err != nil {
		return err
	}
	state, err := r.state(ctx)
	if err != nil {
		return err
	}
	clock, found := state.Clocks[clockID]
	if !found {
		return fmt.Errorf("clock %s missing from state", clockID)
	}
	if want, ok := intArg(step.Args, "segments"); ok {
		if err := r.expect(clock.Segments == want, "clock segments = %d, want %d", clock.Segments, want); err != nil {
			return err
		}
	}
	if wantFull, ok := boolArg(step.Args, "full"); ok {
		if err := r.expect(clock.IsFull() == wantFull, "clock full = %t, want %t", clock.IsFull(), wantFull); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stepExpectDying(ctx context.Context, step Step) error {
	characterID, err := r.characterID(step.Args, "character")
	if err != nil {
		return err
	}
	state, err := r.state(ctx)
	if err != nil {
		return err
	}
	return r.expect(state.Dying(characterID), "character %s is not dying", characterID)
}

// seedArg returns the configured seed or a fresh crypto seed when absent.
func (r *Runner) seedArg(args map[string]any, key string) (int64, error) {
	if value, ok := intArg(args, key); ok {
		return int64(value), nil
	}
	seed, err := random.NewSeed()
	if err != nil {
		return 0, fmt.Errorf("generate %s: %w", key, err)
	}
	return seed, nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	return value, ok
}

func intArg(args map[string]any, key string) (int, bool) {
	switch value := args[key].(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}

func boolArg(args map[string]any, key string) (bool, bool) {
	value, ok := args[key].(bool)
	return value, ok
}
