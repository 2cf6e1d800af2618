package breakneck

import (
	"encoding/json"
	"fmt"

	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/systems/breakneck/domain"
)

// Module packages the Breakneck system for the engine: registries, state
// factory, decider, and projector behind one value.
type Module struct {
	decider   *Decider
	projector Projector
}

// NewModule creates the Breakneck module with production defaults.
func NewModule() *Module {
	return &Module{decider: NewDecider()}
}

// NewModuleWithDecider creates the module with an injected decider, used
// by tests that pin ids and time.
func NewModuleWithDecider(decider *Decider) *Module {
	return &Module{decider: decider}
}

// ID returns the system identifier.
func (m *Module) ID() string {
	return SystemID
}

// RegisterCommands registers the system's command catalog.
func (m *Module) RegisterCommands(registry *command.Registry) error {
	return RegisterCommands(registry)
}

// RegisterEvents registers the system's event catalog.
func (m *Module) RegisterEvents(registry *event.Registry) error {
	return RegisterEvents(registry)
}

// NewState creates empty projection state for a campaign.
func (m *Module) NewState(campaignID string) any {
	return NewState(campaignID)
}

// UnmarshalState restores state from a snapshot's JSON document.
func (m *Module) UnmarshalState(campaignID string, data []byte) (any, error) {
	state := NewState(campaignID)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("breakneck: unmarshal state: %w", err)
	}
	if state.CampaignID == "" {
		state.CampaignID = campaignID
	}
	// omitempty drops empty maps on marshal; restore them so appliers can
	// write without nil checks.
	if state.Crews == nil {
		state.Crews = make(map[string]*Crew)
	}
	if state.Characters == nil {
		state.Characters = make(map[string]*Character)
	}
	if state.Clocks == nil {
		state.Clocks = make(map[string]domain.Clock)
	}
	if state.Turns == nil {
		state.Turns = make(map[string]*Turn)
	}
	return state, nil
}

// Decide runs the pure decider against typed state.
func (m *Module) Decide(state any, cmd command.Command) (command.Decision, error) {
	typed, ok := state.(*State)
	if !ok {
		return command.Decision{}, fmt.Errorf("breakneck: unexpected state type %T", state)
	}
	return m.decider.Decide(typed, cmd)
}

// Apply folds one event into typed state.
func (m *Module) Apply(state any, evt event.Event) (any, error) {
	typed, ok := state.(*State)
	if !ok {
		return nil, fmt.Errorf("breakneck: unexpected state type %T", state)
	}
	if err := m.projector.Apply(typed, evt); err != nil {
		return nil, err
	}
	return typed, nil
}
