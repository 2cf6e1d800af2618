// Package command defines the command envelope and validation entry points.
//
// Commands describe requested mutations. A pure decider turns (state,
// command) into a Decision: either an ordered, atomic batch of events or a
// list of rejections. Rejections are values, not errors: they carry stable
// reason codes the host can surface to users.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harrowgate/momentum-engine/internal/game/event"
)

var (
	// ErrCampaignIDRequired indicates a missing campaign id.
	ErrCampaignIDRequired = errors.New("campaign id is required")
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrTypeDuplicate indicates a type registered twice.
	ErrTypeDuplicate = errors.New("command type is already registered")
	// ErrActorTypeInvalid indicates an unknown actor type.
	ErrActorTypeInvalid = errors.New("actor type is invalid")
	// ErrActorIDRequired indicates a missing actor id for player/gm actors.
	ErrActorIDRequired = errors.New("actor id is required for player or gm")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string.
type Type string

// ActorType identifies the actor who initiated the command.
type ActorType string

const (
	// ActorTypeSystem indicates an engine-originated command.
	ActorTypeSystem ActorType = "system"
	// ActorTypePlayer indicates a player-originated command.
	ActorTypePlayer ActorType = "player"
	// ActorTypeGM indicates a GM-originated command.
	ActorTypeGM ActorType = "gm"
)

// Command captures the canonical command envelope.
type Command struct {
	CampaignID  string
	Type        Type
	ActorType   ActorType
	ActorID     string
	RequestID   string
	EntityType  string
	EntityID    string
	PayloadJSON []byte
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new command type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	if strings.TrimSpace(string(def.Type)) == "" {
		return ErrTypeRequired
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("%w: %s", ErrTypeDuplicate, def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Validate checks a command envelope and payload against the registry.
func (r *Registry) Validate(cmd Command) error {
	if r == nil {
		return errors.New("registry is required")
	}
	if strings.TrimSpace(cmd.CampaignID) == "" {
		return ErrCampaignIDRequired
	}
	if strings.TrimSpace(string(cmd.Type)) == "" {
		return ErrTypeRequired
	}
	def, ok := r.definitions[cmd.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTypeUnknown, cmd.Type)
	}
	switch cmd.ActorType {
	case ActorTypeSystem:
	case ActorTypePlayer, ActorTypeGM:
		if strings.TrimSpace(cmd.ActorID) == "" {
			return ErrActorIDRequired
		}
	default:
		return ErrActorTypeInvalid
	}
	if len(cmd.PayloadJSON) > 0 && !json.Valid(cmd.PayloadJSON) {
		return ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(cmd.PayloadJSON); err != nil {
			return fmt.Errorf("validate %s payload: %w", cmd.Type, err)
		}
	}
	return nil
}

// Types returns the registered command types in sorted order.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	types := make([]Type, 0, len(r.definitions))
	for t := range r.definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NewEvent builds an event.Event by copying the shared envelope fields from
// a command. Callers supply the event-specific type, entity addressing,
// payload, and timestamp. This eliminates per-decider boilerplate and
// ensures that new envelope fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		CampaignID:  cmd.CampaignID,
		Version:     event.SchemaVersion,
		Type:        eventType,
		Timestamp:   now,
		ActorType:   event.ActorType(cmd.ActorType),
		ActorID:     cmd.ActorID,
		RequestID:   cmd.RequestID,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: payloadJSON,
	}
}
