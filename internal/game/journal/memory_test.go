package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/harrowgate/momentum-engine/internal/game/event"
)

func TestAppendAssignsContiguousSeqs(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "turn.started"},
		{CampaignID: "camp-1", Type: "turn.transitioned"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first[0].Seq != 1 || first[1].Seq != 2 {
		t.Fatalf("seqs = %d, %d", first[0].Seq, first[1].Seq)
	}

	second, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "clock.updated"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second[0].Seq != 3 {
		t.Fatalf("seq = %d, want 3", second[0].Seq)
	}

	last, err := store.LastSeq(ctx, "camp-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 3 {
		t.Fatalf("last seq = %d, want 3", last)
	}
}

func TestAppendValidatesBatch(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.AppendEvents(ctx, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := store.AppendEvents(ctx, []event.Event{{Type: "x"}}); !errors.Is(err, ErrCampaignIDRequired) {
		t.Fatalf("expected ErrCampaignIDRequired, got %v", err)
	}
	_, err := store.AppendEvents(ctx, []event.Event{
		{CampaignID: "camp-1", Type: "x"},
		{CampaignID: "camp-2", Type: "y"},
	})
	if !errors.Is(err, ErrMixedCampaigns) {
		t.Fatalf("expected ErrMixedCampaigns, got %v", err)
	}
}

func TestListEventsPagination(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	var batch []event.Event
	for i := 0; i < 5; i++ {
		batch = append(batch, event.Event{CampaignID: "camp-1", Type: "clock.updated"})
	}
	if _, err := store.AppendEvents(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	page, err := store.ListEvents(ctx, "camp-1", 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 3 || page[1].Seq != 4 {
		t.Fatalf("page = %+v", page)
	}

	rest, err := store.ListEvents(ctx, "camp-1", 4, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rest) != 1 || rest[0].Seq != 5 {
		t.Fatalf("rest = %+v", rest)
	}
}

func TestPruneIsIdempotent(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	var batch []event.Event
	for i := 0; i < 4; i++ {
		batch = append(batch, event.Event{CampaignID: "camp-1", Type: "clock.updated"})
	}
	if _, err := store.AppendEvents(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	removed, err := store.PruneEvents(ctx, "camp-1", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	// Second prune at the same watermark removes nothing.
	removed, err = store.PruneEvents(ctx, "camp-1", 2)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second prune removed = %d, want 0", removed)
	}

	// Surviving events keep their original sequence numbers.
	events, err := store.ListEvents(ctx, "camp-1", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 3 || events[1].Seq != 4 {
		t.Fatalf("events = %+v", events)
	}

	// Appends after a prune continue the sequence.
	appended, err := store.AppendEvents(ctx, []event.Event{{CampaignID: "camp-1", Type: "clock.updated"}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if appended[0].Seq != 5 {
		t.Fatalf("seq after prune = %d, want 5", appended[0].Seq)
	}
}
