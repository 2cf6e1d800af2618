// Package breakneck implements the Breakneck game system module: state
// containers, command and event catalogs, the pure decider, and the
// projector that folds events into state.
package breakneck

import (
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// SystemID identifies the game system.
const SystemID = "breakneck"

// Entity types used in command and event addressing.
const (
	EntityCrew      = "crew"
	EntityCharacter = "character"
	EntityClock     = "clock"
	EntityTurn      = "turn"
)

// Approach rating bounds.
const (
	ApproachRatingMin = 0
	ApproachRatingMax = 4
)

// Momentum costs implied by turn improvements. Spending happens atomically
// with the decision-to-rolling transition.
const (
	PushMomentumCost     = 2
	TraitUseMomentumCost = 1
)

// Push types. Pushing costs the same momentum either way; the type selects
// what it buys: one extra die or one step of effect for this roll. An
// empty type defaults to the extra die.
const (
	PushTypeExtraDie       = "extra_die"
	PushTypeImprovedEffect = "improved_effect"
)

func validPushType(pushType string) bool {
	switch pushType {
	case "", PushTypeExtraDie, PushTypeImprovedEffect:
		return true
	}
	return false
}

// Equipment is a piece of gear contributing dice-pool modifiers.
type Equipment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bonus   int    `json:"bonus"`
	Passive bool   `json:"passive,omitempty"`
}

// Character holds a crew member's sheet as the turn engine consumes it.
type Character struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	CrewID         string         `json:"crew_id,omitempty"`
	Approaches     map[string]int `json:"approaches,omitempty"`
	Traits         []domain.Trait `json:"traits,omitempty"`
	Equipment      []Equipment    `json:"equipment,omitempty"`
	RallyAvailable bool           `json:"rally_available"`
}

// Trait returns the character's trait by id.
func (c *Character) Trait(traitID string) (domain.Trait, bool) {
	for _, trait := range c.Traits {
		if trait.ID == traitID {
			return trait, true
		}
	}
	return domain.Trait{}, false
}

// Crew holds the shared momentum pool and its membership.
type Crew struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids,omitempty"`
	Momentum  int      `json:"momentum"`
}

// Turn is the per-character turn state. It exists only between turn start
// and reset; everything durable lives on the character, crew, or clocks.
type Turn struct {
	CharacterID string           `json:"character_id"`
	State       domain.TurnState `json:"state"`

	Approaches []string        `json:"approaches,omitempty"`
	RollMode   domain.RollMode `json:"roll_mode,omitempty"`
	Position   domain.Position `json:"position,omitempty"`
	Effect     domain.Effect   `json:"effect,omitempty"`

	Pushed        bool                     `json:"pushed,omitempty"`
	PushType      string                   `json:"push_type,omitempty"`
	TraitTx       *domain.TraitTransaction `json:"trait_tx,omitempty"`
	StimsUsed     bool                     `json:"stims_used,omitempty"`
	MomentumSpent int                      `json:"momentum_spent,omitempty"`

	LastRoll *domain.ActionRollResult `json:"last_roll,omitempty"`
	Outcome  domain.Outcome           `json:"outcome,omitempty"`

	Consequence *domain.ConsequenceTransaction `json:"consequence,omitempty"`
	GMApproved  bool                           `json:"gm_approved,omitempty"`
}

// EffectivePosition derives the position the roll happens at. The trait
// transaction's one-step improvement is read-time only.
func (t *Turn) EffectivePosition() domain.Position {
	return domain.EffectivePosition(t.Position, t.TraitTx != nil)
}

// EffectiveEffect returns the effect the action currently resolves at. An
// improved-effect push raises it one step for this roll only; the base
// effect never changes.
func (t *Turn) EffectiveEffect() domain.Effect {
	if t.Pushed && t.PushType == PushTypeImprovedEffect {
		return domain.ImproveEffect(t.Effect)
	}
	return t.Effect
}

// State is the full projected campaign state for the Breakneck system.
type State struct {
	CampaignID string                  `json:"campaign_id"`
	Crews      map[string]*Crew        `json:"crews,omitempty"`
	Characters map[string]*Character   `json:"characters,omitempty"`
	Clocks     map[string]domain.Clock `json:"clocks,omitempty"`
	// Turns is keyed by character id: at most one turn per character.
	Turns map[string]*Turn `json:"turns,omitempty"`
}

// NewState creates an empty campaign state.
func NewState(campaignID string) *State {
	return &State{
		CampaignID: campaignID,
		Crews:      make(map[string]*Crew),
		Characters: make(map[string]*Character),
		Clocks:     make(map[string]domain.Clock),
		Turns:      make(map[string]*Turn),
	}
}

// CrewOf returns the crew a character belongs to.
func (s *State) CrewOf(characterID string) (*Crew, bool) {
	character, ok := s.Characters[characterID]
	if !ok || character.CrewID == "" {
		return nil, false
	}
	crew, ok := s.Crews[character.CrewID]
	return crew, ok
}

// Dying derives whether a character is dying: any of their harm clocks is
// full. This is never stored, always recomputed from clock data.
func (s *State) Dying(characterID string) bool {
	for _, clock := range s.Clocks {
		if clock.OwnerID == characterID && clock.Type == domain.ClockTypeHarm && clock.IsFull() {
			return true
		}
	}
	return false
}

// AddictionClock returns a character's addiction clock, if one exists.
func (s *State) AddictionClock(characterID string) (domain.Clock, bool) {
	for _, clock := range s.Clocks {
		if clock.OwnerID == characterID && clock.Type == domain.ClockTypeAddiction {
			return clock, true
		}
	}
	return domain.Clock{}, false
}

// StimsLocked derives the crew-wide stims lockout: true when any member's
// addiction clock is full. The scan covers the whole crew, not just the
// acting character.
func (s *State) StimsLocked(crewID string) bool {
	crew, ok := s.Crews[crewID]
	if !ok {
		return false
	}
	for _, memberID := range crew.MemberIDs {
		if clock, ok := s.AddictionClock(memberID); ok && clock.IsFull() {
			return true
		}
	}
	return false
}

// ImpliedMomentumCost computes the momentum a turn's improvements cost:
// pushing and trait use each carry a fixed price, consolidations are free.
func (t *Turn) ImpliedMomentumCost() int {
	cost := 0
	if t.Pushed {
		cost += PushMomentumCost
	}
	if t.TraitTx != nil && t.TraitTx.Mode != domain.TraitModeConsolidate {
		cost += TraitUseMomentumCost
	}
	return cost
}

// PoolRequest assembles the dice-pool inputs for a turn from the sheet.
// Equipment bonuses accumulate per item, so an item referenced twice still
// counts once.
func (s *State) PoolRequest(t *Turn) domain.PoolRequest {
	request := domain.PoolRequest{
		Pushed:         t.Pushed && t.PushType != PushTypeImprovedEffect,
		FlashbackTrait: t.TraitTx != nil && t.TraitTx.Mode == domain.TraitModeNew,
	}
	character, ok := s.Characters[t.CharacterID]
	if !ok {
		return request
	}
	for _, approach := range t.Approaches {
		request.ApproachRatings = append(request.ApproachRatings, character.Approaches[approach])
	}
	seen := make(map[string]bool)
	for _, item := range character.Equipment {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		request.EquipmentBonus += item.Bonus
	}
	return request
}
