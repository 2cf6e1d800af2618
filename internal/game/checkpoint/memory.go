// Package checkpoint stores replay checkpoints and state snapshots.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/harrowgate/momentum-engine/internal/game/replay"
)

// ErrCampaignIDRequired indicates a missing campaign id.
var ErrCampaignIDRequired = errors.New("campaign id is required")

// Snapshot captures fully-serialized projection state at a journal position.
type Snapshot struct {
	CampaignID string          `json:"campaign_id"`
	Version    int             `json:"version"`
	LastSeq    uint64          `json:"last_seq"`
	Timestamp  time.Time       `json:"timestamp"`
	StateJSON  json.RawMessage `json:"state"`
}

// SnapshotStore persists snapshots for cold-start loading.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, campaignID string) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}

// Memory stores checkpoints and snapshots in memory.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]replay.Checkpoint
	snapshots   map[string]Snapshot
}

// NewMemory creates a new in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{
		checkpoints: make(map[string]replay.Checkpoint),
		snapshots:   make(map[string]Snapshot),
	}
}

// Get retrieves a checkpoint by campaign id.
func (m *Memory) Get(ctx context.Context, campaignID string) (replay.Checkpoint, error) {
	if err := ctxErr(ctx); err != nil {
		return replay.Checkpoint{}, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return replay.Checkpoint{}, ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint, ok := m.checkpoints[campaignID]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	campaignID := strings.TrimSpace(checkpoint.CampaignID)
	if campaignID == "" {
		return ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.CampaignID = campaignID
	m.checkpoints[campaignID] = checkpoint
	return nil
}

// GetSnapshot retrieves the latest snapshot for a campaign.
func (m *Memory) GetSnapshot(ctx context.Context, campaignID string) (Snapshot, error) {
	if err := ctxErr(ctx); err != nil {
		return Snapshot{}, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return Snapshot{}, ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.snapshots[campaignID]
	if !ok {
		return Snapshot{}, replay.ErrCheckpointNotFound
	}
	return snapshot, nil
}

// SaveSnapshot persists a snapshot and advances the checkpoint to match.
func (m *Memory) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	campaignID := strings.TrimSpace(snapshot.CampaignID)
	if campaignID == "" {
		return ErrCampaignIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot.CampaignID = campaignID
	// Detach the raw state from the caller's buffer.
	snapshot.StateJSON = append(json.RawMessage(nil), snapshot.StateJSON...)
	m.snapshots[campaignID] = snapshot
	m.checkpoints[campaignID] = replay.Checkpoint{
		CampaignID: campaignID,
		LastSeq:    snapshot.LastSeq,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

var _ replay.CheckpointStore = (*Memory)(nil)
var _ SnapshotStore = (*Memory)(nil)
