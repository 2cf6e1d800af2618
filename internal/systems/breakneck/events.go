package breakneck

import (
	"encoding/json"
	"fmt"

	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// Event types emitted by the Breakneck system.
const (
	EventCrewCreated        event.Type = "sys.breakneck.crew_created"
	EventCharacterCreated   event.Type = "sys.breakneck.character_created"
	EventApproachSet        event.Type = "sys.breakneck.approach_set"
	EventEquipmentAdded     event.Type = "sys.breakneck.equipment_added"
	EventTurnStarted        event.Type = "sys.breakneck.turn_started"
	EventTurnTransitioned   event.Type = "sys.breakneck.turn_transitioned"
	EventTurnCancelled      event.Type = "sys.breakneck.turn_cancelled"
	EventRollResolved       event.Type = "sys.breakneck.roll_resolved"
	EventConsequenceSet     event.Type = "sys.breakneck.consequence_set"
	EventConsequenceCommit  event.Type = "sys.breakneck.consequence_committed"
	EventClockCreated       event.Type = "sys.breakneck.clock_created"
	EventClockUpdated       event.Type = "sys.breakneck.clock_updated"
	EventMomentumChanged    event.Type = "sys.breakneck.momentum_changed"
	EventRallySpent         event.Type = "sys.breakneck.rally_spent"
	EventCrewReset          event.Type = "sys.breakneck.crew_reset"
	EventTraitAdded         event.Type = "sys.breakneck.trait_added"
	EventTraitDisabled      event.Type = "sys.breakneck.trait_disabled"
	EventTraitEnabled       event.Type = "sys.breakneck.trait_enabled"
	EventTraitsConsolidated event.Type = "sys.breakneck.traits_consolidated"
	EventTraitTransacted    event.Type = "sys.breakneck.trait_transacted"
	EventStimsResolved      event.Type = "sys.breakneck.stims_resolved"
	EventAddictAcquired     event.Type = "sys.breakneck.addict_acquired"
)

// CrewCreatedPayload carries a new crew.
type CrewCreatedPayload struct {
	CrewID   string `json:"crew_id"`
	Name     string `json:"name"`
	Momentum int    `json:"momentum"`
}

// CharacterCreatedPayload carries a new character sheet.
type CharacterCreatedPayload struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	CrewID      string `json:"crew_id,omitempty"`
}

// ApproachSetPayload sets one approach rating.
type ApproachSetPayload struct {
	CharacterID string `json:"character_id"`
	Approach    string `json:"approach"`
	Rating      int    `json:"rating"`
}

// EquipmentAddedPayload adds gear to a sheet.
type EquipmentAddedPayload struct {
	CharacterID string    `json:"character_id"`
	Equipment   Equipment `json:"equipment"`
}

// TurnStartedPayload opens a turn in the decision phase.
type TurnStartedPayload struct {
	CharacterID string          `json:"character_id"`
	Approaches  []string        `json:"approaches,omitempty"`
	RollMode    domain.RollMode `json:"roll_mode,omitempty"`
	Position    domain.Position `json:"position"`
	Effect      domain.Effect   `json:"effect"`
	Pushed      bool            `json:"pushed,omitempty"`
	PushType    string          `json:"push_type,omitempty"`
}

// TurnTransitionedPayload moves a turn between states. MomentumSpent is
// set on the decision-to-rolling transition when improvements carried an
// implied cost.
type TurnTransitionedPayload struct {
	CharacterID   string           `json:"character_id"`
	From          domain.TurnState `json:"from"`
	To            domain.TurnState `json:"to"`
	MomentumSpent int              `json:"momentum_spent,omitempty"`
}

// TurnCancelledPayload abandons a turn before effects apply.
type TurnCancelledPayload struct {
	CharacterID string           `json:"character_id"`
	From        domain.TurnState `json:"from"`
}

// RollResolvedPayload records a completed dice roll. Events carry the
// concrete results so replays never touch a random source.
type RollResolvedPayload struct {
	CharacterID string          `json:"character_id"`
	Pool        int             `json:"pool"`
	Results     []int           `json:"results"`
	ZeroPool    bool            `json:"zero_pool,omitempty"`
	Outcome     domain.Outcome  `json:"outcome"`
	Position    domain.Position `json:"position"`
	Effect      domain.Effect   `json:"effect"`
	Reroll      bool            `json:"reroll,omitempty"`
}

// ConsequenceSetPayload stages the GM's pending consequence transaction.
type ConsequenceSetPayload struct {
	CharacterID string                        `json:"character_id"`
	Transaction domain.ConsequenceTransaction `json:"transaction"`
}

// ConsequenceCommittedPayload records an applied consequence.
type ConsequenceCommittedPayload struct {
	CharacterID  string                 `json:"character_id"`
	Type         domain.ConsequenceType `json:"type"`
	ClockID      string                 `json:"clock_id,omitempty"`
	Segments     int                    `json:"segments"`
	MomentumGain int                    `json:"momentum_gain"`
	Defensive    bool                   `json:"defensive,omitempty"`
	Position     domain.Position        `json:"position"`
	Effect       domain.Effect          `json:"effect,omitempty"`
}

// ClockCreatedPayload carries a new clock.
type ClockCreatedPayload struct {
	Clock domain.Clock `json:"clock"`
}

// ClockUpdatedPayload records a clock segment change.
type ClockUpdatedPayload struct {
	ClockID  string `json:"clock_id"`
	Segments int    `json:"segments"`
	Full     bool   `json:"full"`
}

// MomentumChangedPayload records a crew momentum change.
type MomentumChangedPayload struct {
	CrewID   string `json:"crew_id"`
	Delta    int    `json:"delta"`
	Momentum int    `json:"momentum"`
	Reason   string `json:"reason,omitempty"`
}

// RallySpentPayload records a rally: momentum spent, flag burned, and
// optionally one trait re-enabled.
type RallySpentPayload struct {
	CharacterID    string `json:"character_id"`
	CrewID         string `json:"crew_id"`
	Spent          int    `json:"spent"`
	Momentum       int    `json:"momentum"`
	EnabledTraitID string `json:"enabled_trait_id,omitempty"`
}

// CrewResetPayload restores momentum to start and every rally flag.
type CrewResetPayload struct {
	CrewID   string `json:"crew_id"`
	Momentum int    `json:"momentum"`
}

// TraitAddedPayload grants a trait to a character.
type TraitAddedPayload struct {
	CharacterID string       `json:"character_id"`
	Trait       domain.Trait `json:"trait"`
}

// TraitDisabledPayload disables a trait (lean-into-trait, consolidation).
type TraitDisabledPayload struct {
	CharacterID string `json:"character_id"`
	TraitID     string `json:"trait_id"`
}

// TraitEnabledPayload re-enables a previously disabled trait.
type TraitEnabledPayload struct {
	CharacterID string `json:"character_id"`
	TraitID     string `json:"trait_id"`
}

// TraitsConsolidatedPayload folds three traits into one grouped trait.
type TraitsConsolidatedPayload struct {
	CharacterID string       `json:"character_id"`
	RemovedIDs  []string     `json:"removed_ids"`
	Trait       domain.Trait `json:"trait"`
}

// TraitTransactedPayload records a trait transaction on the active turn.
type TraitTransactedPayload struct {
	CharacterID string                  `json:"character_id"`
	Transaction domain.TraitTransaction `json:"transaction"`
}

// StimsResolvedPayload records the stims die and the addiction advance.
type StimsResolvedPayload struct {
	CharacterID    string `json:"character_id"`
	ClockID        string `json:"clock_id"`
	Die            int    `json:"die"`
	SegmentsBefore int    `json:"segments_before"`
	SegmentsAfter  int    `json:"segments_after"`
	Locked         bool   `json:"locked"`
}

// AddictAcquiredPayload records the scar granted by a filled addiction
// clock.
type AddictAcquiredPayload struct {
	CharacterID string `json:"character_id"`
	TraitID     string `json:"trait_id"`
}

// RegisterEvents registers every Breakneck event type with its payload
// validator.
func RegisterEvents(registry *event.Registry) error {
	definitions := []event.Definition{
		{Type: EventCrewCreated, ValidatePayload: decodeInto[CrewCreatedPayload]},
		{Type: EventCharacterCreated, ValidatePayload: decodeInto[CharacterCreatedPayload]},
		{Type: EventApproachSet, ValidatePayload: decodeInto[ApproachSetPayload]},
		{Type: EventEquipmentAdded, ValidatePayload: decodeInto[EquipmentAddedPayload]},
		{Type: EventTurnStarted, ValidatePayload: decodeInto[TurnStartedPayload]},
		{Type: EventTurnTransitioned, ValidatePayload: decodeInto[TurnTransitionedPayload]},
		{Type: EventTurnCancelled, ValidatePayload: decodeInto[TurnCancelledPayload]},
		{Type: EventRollResolved, ValidatePayload: decodeInto[RollResolvedPayload]},
		{Type: EventConsequenceSet, ValidatePayload: decodeInto[ConsequenceSetPayload]},
		{Type: EventConsequenceCommit, ValidatePayload: decodeInto[ConsequenceCommittedPayload]},
		{Type: EventClockCreated, ValidatePayload: decodeInto[ClockCreatedPayload]},
		{Type: EventClockUpdated, ValidatePayload: decodeInto[ClockUpdatedPayload]},
		{Type: EventMomentumChanged, ValidatePayload: decodeInto[MomentumChangedPayload]},
		{Type: EventRallySpent, ValidatePayload: decodeInto[RallySpentPayload]},
		{Type: EventCrewReset, ValidatePayload: decodeInto[CrewResetPayload]},
		{Type: EventTraitAdded, ValidatePayload: decodeInto[TraitAddedPayload]},
		{Type: EventTraitDisabled, ValidatePayload: decodeInto[TraitDisabledPayload]},
		{Type: EventTraitEnabled, ValidatePayload: decodeInto[TraitEnabledPayload]},
		{Type: EventTraitsConsolidated, ValidatePayload: decodeInto[TraitsConsolidatedPayload]},
		{Type: EventTraitTransacted, ValidatePayload: decodeInto[TraitTransactedPayload]},
		{Type: EventStimsResolved, ValidatePayload: decodeInto[StimsResolvedPayload]},
		{Type: EventAddictAcquired, ValidatePayload: decodeInto[AddictAcquiredPayload]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Type, err)
		}
	}
	return nil
}

// decodeInto validates payload JSON decodes into the given payload type.
func decodeInto[T any](payload json.RawMessage) error {
	var value T
	return json.Unmarshal(payload, &value)
}
