package journal

import (
	"context"
	"strings"
	"sync"

	"github.com/harrowgate/momentum-engine/internal/game/event"
)

// Memory is an in-memory event journal, used by tests and scenario runs.
type Memory struct {
	mu      sync.Mutex
	streams map[string][]event.Event
	// lastSeq survives pruning so sequence numbers are never reused.
	lastSeq map[string]uint64
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{
		streams: make(map[string][]event.Event),
		lastSeq: make(map[string]uint64),
	}
}

// AppendEvents appends a batch atomically, assigning sequence numbers.
func (m *Memory) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrEmptyBatch
	}
	campaignID := strings.TrimSpace(events[0].CampaignID)
	if campaignID == "" {
		return nil, ErrCampaignIDRequired
	}
	for _, evt := range events[1:] {
		if strings.TrimSpace(evt.CampaignID) != campaignID {
			return nil, ErrMixedCampaigns
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.streams[campaignID]
	next := m.lastSeq[campaignID]
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		next++
		evt.CampaignID = campaignID
		evt.Seq = next
		if evt.Version == 0 {
			evt.Version = event.SchemaVersion
		}
		stored = append(stored, evt)
	}
	m.streams[campaignID] = append(stream, stored...)
	m.lastSeq[campaignID] = next
	return stored, nil
}

// ListEvents returns up to limit events with seq > afterSeq in order.
func (m *Memory) ListEvents(ctx context.Context, campaignID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result []event.Event
	for _, evt := range m.streams[campaignID] {
		if evt.Seq <= afterSeq {
			continue
		}
		result = append(result, evt)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// LastSeq returns the highest assigned sequence for a campaign.
func (m *Memory) LastSeq(ctx context.Context, campaignID string) (uint64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return 0, ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSeq[campaignID], nil
}

// PruneEvents removes events with seq <= beforeSeq.
//
// Sequence numbers are never reused: later events keep their original seqs,
// so replay after a prune continues from a snapshot, not empty state.
func (m *Memory) PruneEvents(ctx context.Context, campaignID string, beforeSeq uint64) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return 0, ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stream := m.streams[campaignID]
	kept := stream[:0:0]
	removed := 0
	for _, evt := range stream {
		if evt.Seq <= beforeSeq {
			removed++
			continue
		}
		kept = append(kept, evt)
	}
	m.streams[campaignID] = kept
	return removed, nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

var _ EventStore = (*Memory)(nil)
