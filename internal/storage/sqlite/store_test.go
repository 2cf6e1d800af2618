package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrowgate/momentum-engine/internal/game/checkpoint"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/game/journal"
	"github.com/harrowgate/momentum-engine/internal/game/replay"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store, path
}

func testEvent(campaignID string, eventType event.Type) event.Event {
	return event.Event{
		CampaignID:  campaignID,
		Type:        eventType,
		ActorType:   event.ActorTypeGM,
		ActorID:     "gm-1",
		EntityType:  "turn",
		EntityID:    "char-1",
		PayloadJSON: []byte(`{"ok":true}`),
	}
}

func TestAppendAssignsContiguousSeqs(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	first, err := store.AppendEvents(ctx, []event.Event{
		testEvent("camp-1", "turn.started"),
		testEvent("camp-1", "roll.resolved"),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first[0].Seq != 1 || first[1].Seq != 2 {
		t.Fatalf("seqs = %d, %d, want 1, 2", first[0].Seq, first[1].Seq)
	}

	second, err := store.AppendEvents(ctx, []event.Event{testEvent("camp-1", "turn.completed")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second[0].Seq != 3 {
		t.Fatalf("seq = %d, want 3", second[0].Seq)
	}

	listed, err := store.ListEvents(ctx, "camp-1", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("listed %d events, want 3", len(listed))
	}
	if listed[1].Type != "roll.resolved" || string(listed[1].PayloadJSON) != `{"ok":true}` {
		t.Fatalf("round trip: %+v", listed[1])
	}
	if listed[0].Version != event.SchemaVersion {
		t.Fatalf("version = %d, want %d", listed[0].Version, event.SchemaVersion)
	}
	if listed[0].ActorType != event.ActorTypeGM || listed[0].ActorID != "gm-1" {
		t.Fatalf("actor round trip: %+v", listed[0])
	}
}

func TestAppendRejectsBadBatches(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendEvents(ctx, nil); !errors.Is(err, journal.ErrEmptyBatch) {
		t.Fatalf("empty batch err = %v", err)
	}
	if _, err := store.AppendEvents(ctx, []event.Event{testEvent("", "x")}); !errors.Is(err, journal.ErrCampaignIDRequired) {
		t.Fatalf("missing campaign err = %v", err)
	}
	_, err := store.AppendEvents(ctx, []event.Event{
		testEvent("camp-1", "x"),
		testEvent("camp-2", "x"),
	})
	if !errors.Is(err, journal.ErrMixedCampaigns) {
		t.Fatalf("mixed campaigns err = %v", err)
	}
}

func TestListEventsPagination(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	var batch []event.Event
	for i := 0; i < 5; i++ {
		batch = append(batch, testEvent("camp-1", "tick"))
	}
	if _, err := store.AppendEvents(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	page, err := store.ListEvents(ctx, "camp-1", 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 3 || page[1].Seq != 4 {
		t.Fatalf("page = %+v, want seqs 3, 4", page)
	}

	rest, err := store.ListEvents(ctx, "camp-1", 4, 0)
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest) != 1 || rest[0].Seq != 5 {
		t.Fatalf("rest = %+v, want seq 5", rest)
	}
}

func TestPruneKeepsSeqCounter(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendEvents(ctx, []event.Event{
		testEvent("camp-1", "a"), testEvent("camp-1", "b"), testEvent("camp-1", "c"),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	removed, err := store.PruneEvents(ctx, "camp-1", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	again, err := store.PruneEvents(ctx, "camp-1", 2)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if again != 0 {
		t.Fatalf("second prune removed %d, want 0", again)
	}

	lastSeq, err := store.LastSeq(ctx, "camp-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if lastSeq != 3 {
		t.Fatalf("last seq = %d, want 3", lastSeq)
	}

	// New appends continue the counter instead of reusing pruned seqs.
	appended, err := store.AppendEvents(ctx, []event.Event{testEvent("camp-1", "d")})
	if err != nil {
		t.Fatalf("append after prune: %v", err)
	}
	if appended[0].Seq != 4 {
		t.Fatalf("seq after prune = %d, want 4", appended[0].Seq)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "camp-1"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("missing checkpoint err = %v", err)
	}

	saved := replay.Checkpoint{CampaignID: "camp-1", LastSeq: 7, UpdatedAt: time.Now().UTC()}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastSeq != 7 {
		t.Fatalf("last seq = %d, want 7", got.LastSeq)
	}

	saved.LastSeq = 9
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, err = store.Get(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get after resave: %v", err)
	}
	if got.LastSeq != 9 {
		t.Fatalf("last seq = %d, want 9", got.LastSeq)
	}
}

func TestSnapshotAdvancesCheckpoint(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetSnapshot(ctx, "camp-1"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("missing snapshot err = %v", err)
	}

	if err := store.SaveSnapshot(ctx, checkpoint.Snapshot{
		CampaignID: "camp-1",
		Version:    event.SchemaVersion,
		LastSeq:    12,
		StateJSON:  []byte(`{"campaign_id":"camp-1"}`),
	}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	snapshot, err := store.GetSnapshot(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snapshot.LastSeq != 12 || string(snapshot.StateJSON) != `{"campaign_id":"camp-1"}` {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	cp, err := store.Get(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if cp.LastSeq != 12 {
		t.Fatalf("checkpoint seq = %d, want 12", cp.LastSeq)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.AppendEvents(ctx, []event.Event{testEvent("camp-1", "a")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	listed, err := reopened.ListEvents(ctx, "camp-1", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Type != "a" {
		t.Fatalf("listed = %+v", listed)
	}
}
