// Package journal defines the append-only event journal the engine writes to.
package journal

import (
	"context"
	"errors"

	"github.com/harrowgate/momentum-engine/internal/game/event"
)

var (
	// ErrCampaignIDRequired indicates a missing campaign id.
	ErrCampaignIDRequired = errors.New("campaign id is required")
	// ErrEmptyBatch indicates an append with no events.
	ErrEmptyBatch = errors.New("at least one event is required")
	// ErrMixedCampaigns indicates a batch spanning campaigns.
	ErrMixedCampaigns = errors.New("all events in a batch must share a campaign id")
)

// EventStore persists ordered events per campaign.
//
// AppendEvents assigns contiguous sequence numbers starting at 1 and must
// apply the whole batch atomically: either every event in the batch is
// visible with its assigned seq, or none are. Multi-step operations rely on
// this to never expose partially applied state.
type EventStore interface {
	// AppendEvents appends a batch atomically and returns the stored
	// events with sequence numbers assigned.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	// ListEvents returns up to limit events with seq > afterSeq in order.
	ListEvents(ctx context.Context, campaignID string, afterSeq uint64, limit int) ([]event.Event, error)
	// LastSeq returns the highest assigned sequence for a campaign (0 when
	// the journal is empty).
	LastSeq(ctx context.Context, campaignID string) (uint64, error)
	// PruneEvents removes events with seq <= beforeSeq. Pruning is
	// idempotent: repeating a prune is a no-op.
	PruneEvents(ctx context.Context, campaignID string, beforeSeq uint64) (int, error)
}
