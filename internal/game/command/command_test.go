package command

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/harrowgate/momentum-engine/internal/game/event"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	err := registry.Register(Definition{
		Type: Type("turn.begin"),
		ValidatePayload: func(raw json.RawMessage) error {
			var payload struct {
				CharacterID string `json:"character_id"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.CharacterID == "" {
				return errors.New("character_id is required")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func TestValidateAcceptsWellFormedCommand(t *testing.T) {
	registry := testRegistry(t)
	cmd := Command{
		CampaignID:  "camp-1",
		Type:        Type("turn.begin"),
		ActorType:   ActorTypePlayer,
		ActorID:     "user-1",
		PayloadJSON: []byte(`{"character_id":"char-1"}`),
	}
	if err := registry.Validate(cmd); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateEnvelopeErrors(t *testing.T) {
	registry := testRegistry(t)
	base := Command{
		CampaignID:  "camp-1",
		Type:        Type("turn.begin"),
		ActorType:   ActorTypePlayer,
		ActorID:     "user-1",
		PayloadJSON: []byte(`{"character_id":"char-1"}`),
	}

	tests := []struct {
		name   string
		mutate func(*Command)
		want   error
	}{
		{"missing campaign", func(c *Command) { c.CampaignID = "" }, ErrCampaignIDRequired},
		{"missing type", func(c *Command) { c.Type = "" }, ErrTypeRequired},
		{"unknown type", func(c *Command) { c.Type = "turn.explode" }, ErrTypeUnknown},
		{"bad actor type", func(c *Command) { c.ActorType = "robot" }, ErrActorTypeInvalid},
		{"missing actor id", func(c *Command) { c.ActorID = "" }, ErrActorIDRequired},
		{"malformed payload", func(c *Command) { c.PayloadJSON = []byte(`{`) }, ErrPayloadInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := base
			tt.mutate(&cmd)
			if err := registry.Validate(cmd); !errors.Is(err, tt.want) {
				t.Fatalf("validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateSystemActorNeedsNoID(t *testing.T) {
	registry := testRegistry(t)
	cmd := Command{
		CampaignID:  "camp-1",
		Type:        Type("turn.begin"),
		ActorType:   ActorTypeSystem,
		PayloadJSON: []byte(`{"character_id":"char-1"}`),
	}
	if err := registry.Validate(cmd); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRunsPayloadValidator(t *testing.T) {
	registry := testRegistry(t)
	cmd := Command{
		CampaignID:  "camp-1",
		Type:        Type("turn.begin"),
		ActorType:   ActorTypeGM,
		ActorID:     "gm-1",
		PayloadJSON: []byte(`{}`),
	}
	if err := registry.Validate(cmd); err == nil {
		t.Fatal("expected payload validation error")
	}
}

func TestNewEventCopiesEnvelope(t *testing.T) {
	cmd := Command{
		CampaignID: "camp-1",
		Type:       Type("turn.begin"),
		ActorType:  ActorTypePlayer,
		ActorID:    "user-1",
		RequestID:  "req-1",
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	evt := NewEvent(cmd, event.Type("turn.started"), "turn", "char-1", []byte(`{}`), now)

	if evt.CampaignID != "camp-1" || evt.RequestID != "req-1" || evt.ActorID != "user-1" {
		t.Fatalf("envelope not copied: %+v", evt)
	}
	if evt.ActorType != event.ActorTypePlayer {
		t.Fatalf("actor type = %q", evt.ActorType)
	}
	if evt.EntityType != "turn" || evt.EntityID != "char-1" {
		t.Fatalf("entity addressing = %q/%q", evt.EntityType, evt.EntityID)
	}
	if !evt.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v", evt.Timestamp)
	}
	if evt.Version != event.SchemaVersion {
		t.Fatalf("version = %d", evt.Version)
	}
}

func TestDecisionAcceptReject(t *testing.T) {
	accepted := Accept(event.Event{Type: "turn.started"})
	if !accepted.Accepted() || len(accepted.Events) != 1 {
		t.Fatalf("accept: %+v", accepted)
	}

	rejected := Reject(Rejection{Code: "X", Message: "nope"})
	if rejected.Accepted() || len(rejected.Rejections) != 1 {
		t.Fatalf("reject: %+v", rejected)
	}

	noted := accepted.WithNotes(Note{Kind: "roll", Text: "rolled 3 dice"})
	if len(noted.Notes) != 1 {
		t.Fatalf("notes: %+v", noted.Notes)
	}
}
