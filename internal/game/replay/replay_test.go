package replay

import (
	"context"
	"strings"
	"testing"

	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/game/journal"
)

type countingApplier struct {
	types []string
}

func (a *countingApplier) Apply(state any, evt event.Event) (any, error) {
	a.types = append(a.types, string(evt.Type))
	count, _ := state.(int)
	return count + 1, nil
}

type memoryCheckpoints struct {
	saved map[string]Checkpoint
}

func newMemoryCheckpoints() *memoryCheckpoints {
	return &memoryCheckpoints{saved: make(map[string]Checkpoint)}
}

func (m *memoryCheckpoints) Get(ctx context.Context, campaignID string) (Checkpoint, error) {
	checkpoint, ok := m.saved[campaignID]
	if !ok {
		return Checkpoint{}, ErrCheckpointNotFound
	}
	return checkpoint, nil
}

func (m *memoryCheckpoints) Save(ctx context.Context, checkpoint Checkpoint) error {
	m.saved[checkpoint.CampaignID] = checkpoint
	return nil
}

func TestReplayAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemory()
	if _, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "turn.started"},
		{CampaignID: "camp-1", Type: "roll.resolved"},
		{CampaignID: "camp-1", Type: "turn.completed"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	applier := &countingApplier{}
	checkpoints := newMemoryCheckpoints()
	result, err := Replay(ctx, store, checkpoints, applier, "camp-1", 0, Options{PageSize: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 3 || result.LastSeq != 3 {
		t.Fatalf("result = %+v", result)
	}
	if got := strings.Join(applier.types, ","); got != "turn.started,roll.resolved,turn.completed" {
		t.Fatalf("apply order = %s", got)
	}
	if checkpoints.saved["camp-1"].LastSeq != 3 {
		t.Fatalf("checkpoint = %+v", checkpoints.saved["camp-1"])
	}
}

func TestReplayResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemory()
	if _, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "turn.started"},
		{CampaignID: "camp-1", Type: "roll.resolved"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	checkpoints := newMemoryCheckpoints()
	checkpoints.saved["camp-1"] = Checkpoint{CampaignID: "camp-1", LastSeq: 1}

	applier := &countingApplier{}
	result, err := Replay(ctx, store, checkpoints, applier, "camp-1", 0, Options{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 1 || result.LastSeq != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(applier.types) != 1 || applier.types[0] != "roll.resolved" {
		t.Fatalf("applied = %v", applier.types)
	}
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemory()
	if _, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "turn.started"},
		{CampaignID: "camp-1", Type: "roll.resolved"},
		{CampaignID: "camp-1", Type: "turn.completed"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Pruning the head leaves a gap relative to an empty checkpoint.
	if _, err := store.PruneEvents(ctx, "camp-1", 1); err != nil {
		t.Fatalf("prune: %v", err)
	}

	_, err := Replay(ctx, store, newMemoryCheckpoints(), &countingApplier{}, "camp-1", 0, Options{})
	if err == nil || !strings.Contains(err.Error(), "sequence gap") {
		t.Fatalf("expected sequence gap error, got %v", err)
	}
}

func TestReplayUntilSeq(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemory()
	if _, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "turn.started"},
		{CampaignID: "camp-1", Type: "roll.resolved"},
		{CampaignID: "camp-1", Type: "turn.completed"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	applier := &countingApplier{}
	result, err := Replay(ctx, store, newMemoryCheckpoints(), applier, "camp-1", 0, Options{UntilSeq: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 2 || result.LastSeq != 2 {
		t.Fatalf("result = %+v", result)
	}
}
