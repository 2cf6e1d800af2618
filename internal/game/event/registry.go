package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrTypeDuplicate indicates a type registered twice.
	ErrTypeDuplicate = errors.New("event type is already registered")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new event type definition to the registry.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	if !def.Type.IsValid() {
		return ErrTypeRequired
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("%w: %s", ErrTypeDuplicate, def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Validate checks an event envelope and payload against the registry.
func (r *Registry) Validate(evt Event) error {
	if r == nil {
		return errors.New("registry is required")
	}
	if strings.TrimSpace(evt.CampaignID) == "" {
		return errors.New("campaign id is required")
	}
	if !evt.Type.IsValid() {
		return ErrTypeRequired
	}
	def, ok := r.definitions[evt.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}
	if len(evt.PayloadJSON) > 0 && !json.Valid(evt.PayloadJSON) {
		return ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(evt.PayloadJSON); err != nil {
			return fmt.Errorf("validate %s payload: %w", evt.Type, err)
		}
	}
	return nil
}

// Types returns the registered event types in sorted order.
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
