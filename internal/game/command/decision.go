package command

import "github.com/harrowgate/momentum-engine/internal/game/event"

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
	// Notes carries descriptive text payloads for the host's chat layer.
	// The engine emits stable identifiers and plain descriptions; rendering
	// and localization belong to the host.
	Notes []Note
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

// Note is a descriptive text payload produced alongside accepted events.
type Note struct {
	Kind string
	Text string
}

// Accepted reports whether the decision emits events.
func (d Decision) Accepted() bool {
	return len(d.Rejections) == 0
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// WithNotes attaches notes to a decision.
func (d Decision) WithNotes(notes ...Note) Decision {
	d.Notes = append(d.Notes, notes...)
	return d
}
