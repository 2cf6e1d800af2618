package breakneck

import (
	"encoding/json"
	"fmt"

	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// Command types handled by the Breakneck decider.
const (
	CmdCrewCreate     command.Type = "sys.breakneck.crew.create"
	CmdCrewReset      command.Type = "sys.breakneck.crew.reset"
	CmdCrewRally      command.Type = "sys.breakneck.crew.rally"
	CmdCharCreate     command.Type = "sys.breakneck.character.create"
	CmdCharSetAppr    command.Type = "sys.breakneck.character.set_approach"
	CmdCharAddGear    command.Type = "sys.breakneck.character.add_equipment"
	CmdCharAddTrait   command.Type = "sys.breakneck.character.add_trait"
	CmdTurnBegin      command.Type = "sys.breakneck.turn.begin"
	CmdTurnCommitRoll command.Type = "sys.breakneck.turn.commit_roll"
	CmdTurnCancel     command.Type = "sys.breakneck.turn.cancel"
	CmdRollResolve    command.Type = "sys.breakneck.roll.resolve"
	CmdConsequenceSet command.Type = "sys.breakneck.consequence.set"
	CmdConsequenceGo  command.Type = "sys.breakneck.consequence.commit"
	CmdDefenseInvoke  command.Type = "sys.breakneck.defense.invoke"
	CmdTraitTransact  command.Type = "sys.breakneck.trait.transact"
	CmdTraitLean      command.Type = "sys.breakneck.trait.lean"
	CmdMomentumAdd    command.Type = "sys.breakneck.momentum.add"
	CmdMomentumSpend  command.Type = "sys.breakneck.momentum.spend"
	CmdMomentumSet    command.Type = "sys.breakneck.momentum.set"
	CmdClockCreate    command.Type = "sys.breakneck.clock.create"
	CmdClockUpdate    command.Type = "sys.breakneck.clock.update"
	CmdStimsUse       command.Type = "sys.breakneck.stims.use"
)

// CrewCreateInput creates a crew with the starting momentum pool.
type CrewCreateInput struct {
	Name string `json:"name"`
}

// CrewResetInput restores momentum and every member's rally flag.
type CrewResetInput struct {
	CrewID string `json:"crew_id"`
}

// CrewRallyInput spends momentum at low tide to recover.
type CrewRallyInput struct {
	CharacterID   string `json:"character_id"`
	Spend         int    `json:"spend"`
	EnableTraitID string `json:"enable_trait_id,omitempty"`
}

// CharCreateInput creates a character, optionally joining a crew.
type CharCreateInput struct {
	Name   string `json:"name"`
	CrewID string `json:"crew_id,omitempty"`
}

// CharSetApproachInput sets one approach rating.
type CharSetApproachInput struct {
	CharacterID string `json:"character_id"`
	Approach    string `json:"approach"`
	Rating      int    `json:"rating"`
}

// CharAddEquipmentInput adds gear to a sheet.
type CharAddEquipmentInput struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Bonus       int    `json:"bonus"`
	Passive     bool   `json:"passive,omitempty"`
}

// CharAddTraitInput grants a trait directly (setup, GM rulings).
type CharAddTraitInput struct {
	CharacterID string               `json:"character_id"`
	Name        string               `json:"name"`
	Category    domain.TraitCategory `json:"category"`
}

// TurnBeginInput opens a turn in the decision phase.
type TurnBeginInput struct {
	CharacterID string          `json:"character_id"`
	Approaches  []string        `json:"approaches"`
	RollMode    domain.RollMode `json:"roll_mode"`
	Position    domain.Position `json:"position"`
	Effect      domain.Effect   `json:"effect"`
	Pushed      bool            `json:"pushed,omitempty"`
	PushType    string          `json:"push_type,omitempty"`
}

// TurnCommitRollInput locks the pool and moves to rolling, spending any
// implied momentum cost atomically.
type TurnCommitRollInput struct {
	CharacterID string `json:"character_id"`
}

// TurnCancelInput abandons a turn before effects apply.
type TurnCancelInput struct {
	CharacterID string `json:"character_id"`
}

// RollResolveInput rolls the committed pool with the given seed.
type RollResolveInput struct {
	CharacterID string `json:"character_id"`
	Seed        int64  `json:"seed"`
}

// ConsequenceSetInput stages the GM's pending consequence.
type ConsequenceSetInput struct {
	CharacterID string                        `json:"character_id"`
	Transaction domain.ConsequenceTransaction `json:"transaction"`
}

// ConsequenceCommitInput applies the staged consequence atomically.
type ConsequenceCommitInput struct {
	CharacterID string `json:"character_id"`
}

// DefenseInvokeInput takes the defensive success trade on a partial.
type DefenseInvokeInput struct {
	CharacterID string `json:"character_id"`
}

// TraitTransactInput attaches a trait transaction to the active turn.
type TraitTransactInput struct {
	CharacterID string                  `json:"character_id"`
	Transaction domain.TraitTransaction `json:"transaction"`
}

// TraitLeanInput disables a trait for an unconditional +2 momentum.
type TraitLeanInput struct {
	CharacterID string `json:"character_id"`
	TraitID     string `json:"trait_id"`
}

// MomentumAddInput grants momentum to a crew.
type MomentumAddInput struct {
	CrewID string `json:"crew_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// MomentumSpendInput spends crew momentum.
type MomentumSpendInput struct {
	CrewID string `json:"crew_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// MomentumSetInput sets momentum directly (GM override), clamped.
type MomentumSetInput struct {
	CrewID string `json:"crew_id"`
	Value  int    `json:"value"`
}

// ClockCreateInput creates a clock for a character or crew.
type ClockCreateInput struct {
	OwnerID     string           `json:"owner_id"`
	Type        domain.ClockType `json:"type"`
	Subtype     string           `json:"subtype,omitempty"`
	MaxSegments int              `json:"max_segments,omitempty"`
}

// ClockUpdateInput adds (or removes, negative) segments on a clock.
type ClockUpdateInput struct {
	ClockID string `json:"clock_id"`
	Delta   int    `json:"delta"`
}

// StimsUseInput triggers the stims interrupt from the consequence state.
// Seed drives the addiction die, RerollSeed the replacement action roll.
type StimsUseInput struct {
	CharacterID string `json:"character_id"`
	Seed        int64  `json:"seed"`
	RerollSeed  int64  `json:"reroll_seed"`
}

// RegisterCommands registers every Breakneck command type with its payload
// validator.
func RegisterCommands(registry *command.Registry) error {
	definitions := []command.Definition{
		{Type: CmdCrewCreate, ValidatePayload: decodeCmd[CrewCreateInput]},
		{Type: CmdCrewReset, ValidatePayload: decodeCmd[CrewResetInput]},
		{Type: CmdCrewRally, ValidatePayload: decodeCmd[CrewRallyInput]},
		{Type: CmdCharCreate, ValidatePayload: decodeCmd[CharCreateInput]},
		{Type: CmdCharSetAppr, ValidatePayload: decodeCmd[CharSetApproachInput]},
		{Type: CmdCharAddGear, ValidatePayload: decodeCmd[CharAddEquipmentInput]},
		{Type: CmdCharAddTrait, ValidatePayload: decodeCmd[CharAddTraitInput]},
		{Type: CmdTurnBegin, ValidatePayload: decodeCmd[TurnBeginInput]},
		{Type: CmdTurnCommitRoll, ValidatePayload: decodeCmd[TurnCommitRollInput]},
		{Type: CmdTurnCancel, ValidatePayload: decodeCmd[TurnCancelInput]},
		{Type: CmdRollResolve, ValidatePayload: decodeCmd[RollResolveInput]},
		{Type: CmdConsequenceSet, ValidatePayload: decodeCmd[ConsequenceSetInput]},
		{Type: CmdConsequenceGo, ValidatePayload: decodeCmd[ConsequenceCommitInput]},
		{Type: CmdDefenseInvoke, ValidatePayload: decodeCmd[DefenseInvokeInput]},
		{Type: CmdTraitTransact, ValidatePayload: decodeCmd[TraitTransactInput]},
		{Type: CmdTraitLean, ValidatePayload: decodeCmd[TraitLeanInput]},
		{Type: CmdMomentumAdd, ValidatePayload: decodeCmd[MomentumAddInput]},
		{Type: CmdMomentumSpend, ValidatePayload: decodeCmd[MomentumSpendInput]},
		{Type: CmdMomentumSet, ValidatePayload: decodeCmd[MomentumSetInput]},
		{Type: CmdClockCreate, ValidatePayload: decodeCmd[ClockCreateInput]},
		{Type: CmdClockUpdate, ValidatePayload: decodeCmd[ClockUpdateInput]},
		{Type: CmdStimsUse, ValidatePayload: decodeCmd[StimsUseInput]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Type, err)
		}
	}
	return nil
}

func decodeCmd[T any](payload json.RawMessage) error {
	var value T
	return json.Unmarshal(payload, &value)
}
