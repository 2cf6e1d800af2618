// Package sqlite persists the event journal, checkpoints, and snapshots in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harrowgate/momentum-engine/internal/game/checkpoint"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/game/journal"
	"github.com/harrowgate/momentum-engine/internal/game/replay"
	"github.com/harrowgate/momentum-engine/internal/platform/storage/sqlitemigrate"
	"github.com/harrowgate/momentum-engine/internal/storage/sqlite/migrations"
)

// Store is a SQLite-backed journal, checkpoint store, and snapshot store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) a SQLite store at the provided path and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer it in
// all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// AppendEvents appends a batch atomically, assigning contiguous sequence
// numbers from the campaign's durable counter.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, journal.ErrEmptyBatch
	}
	campaignID := strings.TrimSpace(events[0].CampaignID)
	if campaignID == "" {
		return nil, journal.ErrCampaignIDRequired
	}
	for _, evt := range events[1:] {
		if strings.TrimSpace(evt.CampaignID) != campaignID {
			return nil, journal.ErrMixedCampaigns
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_seqs (campaign_id, last_seq) VALUES (?, 0)", campaignID,
	); err != nil {
		return nil, fmt.Errorf("init event seq: %w", err)
	}
	var lastSeq uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT last_seq FROM event_seqs WHERE campaign_id = ?", campaignID,
	).Scan(&lastSeq); err != nil {
		return nil, fmt.Errorf("get event seq: %w", err)
	}

	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		lastSeq++
		evt.CampaignID = campaignID
		evt.Seq = lastSeq
		if evt.Version == 0 {
			evt.Version = event.SchemaVersion
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

		if _, err := tx.ExecContext(ctx, `
INSERT INTO events (
    campaign_id, seq, version, timestamp, event_type,
    request_id, actor_type, actor_id, entity_type, entity_id, payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.CampaignID, int64(evt.Seq), evt.Version, toMillis(evt.Timestamp), string(evt.Type),
			evt.RequestID, string(evt.ActorType), evt.ActorID, evt.EntityType, evt.EntityID, evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("append event seq %d: %w", evt.Seq, err)
		}
		stored = append(stored, evt)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE event_seqs SET last_seq = ? WHERE campaign_id = ?", int64(lastSeq), campaignID,
	); err != nil {
		return nil, fmt.Errorf("advance event seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ListEvents returns up to limit events with seq > afterSeq in order.
func (s *Store) ListEvents(ctx context.Context, campaignID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, journal.ErrCampaignIDRequired
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT campaign_id, seq, version, timestamp, event_type,
       request_id, actor_type, actor_id, entity_type, entity_id, payload_json
FROM events
WHERE campaign_id = ? AND seq > ?
ORDER BY seq
LIMIT ?`, campaignID, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var result []event.Event
	for rows.Next() {
		var evt event.Event
		var seq, timestamp int64
		var eventType, actorType string
		if err := rows.Scan(
			&evt.CampaignID, &seq, &evt.Version, &timestamp, &eventType,
			&evt.RequestID, &actorType, &evt.ActorID, &evt.EntityType, &evt.EntityID, &evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(timestamp)
		evt.Type = event.Type(eventType)
		evt.ActorType = event.ActorType(actorType)
		result = append(result, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return result, nil
}

// LastSeq returns the highest assigned sequence for a campaign. The counter
// survives pruning.
func (s *Store) LastSeq(ctx context.Context, campaignID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return 0, journal.ErrCampaignIDRequired
	}

	var lastSeq int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq FROM event_seqs WHERE campaign_id = ?", campaignID,
	).Scan(&lastSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return uint64(lastSeq), nil
}

// PruneEvents removes events with seq <= beforeSeq. Repeating a prune is a
// no-op.
func (s *Store) PruneEvents(ctx context.Context, campaignID string, beforeSeq uint64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return 0, journal.ErrCampaignIDRequired
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM events WHERE campaign_id = ? AND seq <= ?", campaignID, int64(beforeSeq),
	)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return int(removed), nil
}

// Get retrieves the replay checkpoint for a campaign.
func (s *Store) Get(ctx context.Context, campaignID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return replay.Checkpoint{}, journal.ErrCampaignIDRequired
	}

	var lastSeq, updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq, updated_at FROM checkpoints WHERE campaign_id = ?", campaignID,
	).Scan(&lastSeq, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return replay.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	return replay.Checkpoint{
		CampaignID: campaignID,
		LastSeq:    uint64(lastSeq),
		UpdatedAt:  fromMillis(updatedAt),
	}, nil
}

// Save upserts the replay checkpoint for a campaign.
func (s *Store) Save(ctx context.Context, cp replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	campaignID := strings.TrimSpace(cp.CampaignID)
	if campaignID == "" {
		return journal.ErrCampaignIDRequired
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO checkpoints (campaign_id, last_seq, updated_at) VALUES (?, ?, ?)
ON CONFLICT (campaign_id) DO UPDATE SET last_seq = excluded.last_seq, updated_at = excluded.updated_at`,
		campaignID, int64(cp.LastSeq), toMillis(cp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the latest snapshot for a campaign.
func (s *Store) GetSnapshot(ctx context.Context, campaignID string) (checkpoint.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return checkpoint.Snapshot{}, err
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return checkpoint.Snapshot{}, journal.ErrCampaignIDRequired
	}

	var snapshot checkpoint.Snapshot
	var lastSeq, timestamp int64
	var stateJSON []byte
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT version, last_seq, timestamp, state_json FROM snapshots WHERE campaign_id = ?", campaignID,
	).Scan(&snapshot.Version, &lastSeq, &timestamp, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return checkpoint.Snapshot{}, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snapshot.CampaignID = campaignID
	snapshot.LastSeq = uint64(lastSeq)
	snapshot.Timestamp = fromMillis(timestamp)
	snapshot.StateJSON = json.RawMessage(stateJSON)
	return snapshot, nil
}

// SaveSnapshot upserts a snapshot and advances the checkpoint to match, in
// one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot checkpoint.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	campaignID := strings.TrimSpace(snapshot.CampaignID)
	if campaignID == "" {
		return journal.ErrCampaignIDRequired
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshots (campaign_id, version, last_seq, timestamp, state_json) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (campaign_id) DO UPDATE SET
    version = excluded.version,
    last_seq = excluded.last_seq,
    timestamp = excluded.timestamp,
    state_json = excluded.state_json`,
		campaignID, snapshot.Version, int64(snapshot.LastSeq), toMillis(snapshot.Timestamp), []byte(snapshot.StateJSON),
	); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO checkpoints (campaign_id, last_seq, updated_at) VALUES (?, ?, ?)
ON CONFLICT (campaign_id) DO UPDATE SET last_seq = excluded.last_seq, updated_at = excluded.updated_at`,
		campaignID, int64(snapshot.LastSeq), toMillis(snapshot.Timestamp),
	); err != nil {
		return fmt.Errorf("advance checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var _ journal.EventStore = (*Store)(nil)
var _ replay.CheckpointStore = (*Store)(nil)
var _ checkpoint.SnapshotStore = (*Store)(nil)
