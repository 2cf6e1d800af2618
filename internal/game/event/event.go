// Package event defines the immutable event envelope and type registry.
//
// Events are facts that have occurred, not commands or requests. Replaying a
// campaign's ordered event stream from empty state must reproduce live state
// exactly; deciders therefore record every dice result in event payloads so
// the projector never needs randomness.
package event

import (
	"strings"
	"time"
)

// SchemaVersion is the envelope version stamped on every appended event.
const SchemaVersion = 1

// Type identifies the type of an engine event.
type Type string

// ActorType identifies who or what triggered an event.
type ActorType string

const (
	// ActorTypeSystem indicates the event was triggered by the engine itself.
	ActorTypeSystem ActorType = "system"
	// ActorTypePlayer indicates the event was triggered by a player.
	ActorTypePlayer ActorType = "player"
	// ActorTypeGM indicates the event was triggered by the game master.
	ActorTypeGM ActorType = "gm"
)

// Event represents an immutable entry in the campaign journal.
type Event struct {
	// CampaignID is the campaign this event belongs to.
	CampaignID string
	// Seq is the event sequence number within the campaign (starts at 1).
	// Assigned by the journal on append.
	Seq uint64
	// Version is the envelope schema version.
	Version int
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// RequestID correlates related events (e.g., a stims interrupt to the
	// reroll it produced).
	RequestID string
	// ActorType identifies who triggered the event.
	ActorType ActorType
	// ActorID is the player or GM id when the actor is not the system.
	ActorID string
	// EntityType is the type of entity affected (character, crew, clock, turn).
	EntityType string
	// EntityID is the id of the entity affected.
	EntityID string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "crew", "turn").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
