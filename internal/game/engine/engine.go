// Package engine dispatches commands through a game system module:
// validate, decide, append, project, checkpoint, atomically per command.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/harrowgate/momentum-engine/internal/errors"
	"github.com/harrowgate/momentum-engine/internal/game/checkpoint"
	"github.com/harrowgate/momentum-engine/internal/game/command"
	"github.com/harrowgate/momentum-engine/internal/game/event"
	"github.com/harrowgate/momentum-engine/internal/game/journal"
	"github.com/harrowgate/momentum-engine/internal/game/replay"
)

const tracerName = "github.com/harrowgate/momentum-engine/internal/game/engine"

// Module is a pluggable game system: it owns the command and event
// catalogs, the state shape, the pure decider, and the projector.
type Module interface {
	ID() string
	RegisterCommands(registry *command.Registry) error
	RegisterEvents(registry *event.Registry) error
	NewState(campaignID string) any
	UnmarshalState(campaignID string, data []byte) (any, error)
	Decide(state any, cmd command.Command) (command.Decision, error)
	Apply(state any, evt event.Event) (any, error)
}

// Config assembles an engine.
type Config struct {
	Module      Module
	Journal     journal.EventStore
	Checkpoints replay.CheckpointStore
	Snapshots   checkpoint.SnapshotStore
	Logger      *logrus.Logger
}

// Engine serializes command dispatch for its campaigns. Commands for a
// given entity apply in arrival order; every accepted decision's event
// batch is appended and projected as one unit.
type Engine struct {
	module      Module
	commands    *command.Registry
	events      *event.Registry
	journal     journal.EventStore
	checkpoints replay.CheckpointStore
	snapshots   checkpoint.SnapshotStore
	log         *logrus.Logger
	tracer      trace.Tracer

	mu     sync.Mutex
	states map[string]any
	seqs   map[string]uint64
}

// Result is the outcome of one dispatched command.
type Result struct {
	// Events are the stored events with sequence numbers assigned. Empty
	// when the command was rejected.
	Events []event.Event
	// Rejections carry validation failures as values.
	Rejections []command.Rejection
	// Notes are host-facing notifications produced by the decider.
	Notes []command.Note
}

// Accepted reports whether the command produced events.
func (r Result) Accepted() bool {
	return len(r.Rejections) == 0
}

// New creates an engine and registers the module's catalogs.
func New(cfg Config) (*Engine, error) {
	if cfg.Module == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "module is required")
	}
	if cfg.Journal == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "journal is required")
	}
	if cfg.Checkpoints == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "checkpoint store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	commands := command.NewRegistry()
	if err := cfg.Module.RegisterCommands(commands); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	events := event.NewRegistry()
	if err := cfg.Module.RegisterEvents(events); err != nil {
		return nil, fmt.Errorf("register events: %w", err)
	}

	return &Engine{
		module:      cfg.Module,
		commands:    commands,
		events:      events,
		journal:     cfg.Journal,
		checkpoints: cfg.Checkpoints,
		snapshots:   cfg.Snapshots,
		log:         cfg.Logger,
		tracer:      otel.Tracer(tracerName),
		states:      make(map[string]any),
		seqs:        make(map[string]uint64),
	}, nil
}

// Dispatch runs one command end to end: envelope validation, decide,
// append, project, checkpoint. Rejections come back inside the Result;
// errors mean the command could not be processed at all.
func (e *Engine) Dispatch(ctx context.Context, cmd command.Command) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.dispatch", trace.WithAttributes(
		attribute.String("campaign.id", cmd.CampaignID),
		attribute.String("command.type", string(cmd.Type)),
	))
	defer span.End()

	if err := e.commands.Validate(cmd); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadStateLocked(ctx, cmd.CampaignID)
	if err != nil {
		return Result{}, err
	}

	decision, err := e.module.Decide(state, cmd)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"campaign_id": cmd.CampaignID,
			"command":     cmd.Type,
		}).WithError(err).Warn("command failed")
		return Result{}, err
	}
	if !decision.Accepted() {
		e.log.WithFields(logrus.Fields{
			"campaign_id": cmd.CampaignID,
			"command":     cmd.Type,
			"reason":      decision.Rejections[0].Code,
		}).Info("command rejected")
		return Result{Rejections: decision.Rejections, Notes: decision.Notes}, nil
	}

	for i := range decision.Events {
		if err := e.events.Validate(decision.Events[i]); err != nil {
			return Result{}, fmt.Errorf("validate event %s: %w", decision.Events[i].Type, err)
		}
	}

	stored, err := e.journal.AppendEvents(ctx, decision.Events)
	if err != nil {
		return Result{}, fmt.Errorf("append events: %w", err)
	}

	for _, evt := range stored {
		next, err := e.module.Apply(state, evt)
		if err != nil {
			// Projection must never fail on events the decider just
			// produced; a failure here leaves the cache poisoned, so
			// drop it and force a rebuild on next access.
			delete(e.states, cmd.CampaignID)
			delete(e.seqs, cmd.CampaignID)
			return Result{}, fmt.Errorf("project %s: %w", evt.Type, err)
		}
		state = next
		e.seqs[cmd.CampaignID] = evt.Seq
	}
	e.states[cmd.CampaignID] = state

	lastSeq := e.seqs[cmd.CampaignID]
	if err := e.checkpoints.Save(ctx, replay.Checkpoint{
		CampaignID: cmd.CampaignID,
		LastSeq:    lastSeq,
		UpdatedAt:  time.Now().UTC(),
	}); err != nil {
		return Result{}, fmt.Errorf("save checkpoint: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"campaign_id": cmd.CampaignID,
		"command":     cmd.Type,
		"events":      len(stored),
		"last_seq":    lastSeq,
	}).Info("command applied")

	return Result{Events: stored, Notes: decision.Notes}, nil
}

// State returns the projected state for a campaign, loading it from
// snapshot and journal if it is not cached.
func (e *Engine) State(ctx context.Context, campaignID string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadStateLocked(ctx, campaignID)
}

// loadStateLocked returns the cached state or rebuilds it: restore the
// latest snapshot when one exists, then replay newer journal events.
func (e *Engine) loadStateLocked(ctx context.Context, campaignID string) (any, error) {
	if state, ok := e.states[campaignID]; ok {
		return state, nil
	}

	state := e.module.NewState(campaignID)
	afterSeq := uint64(0)
	if e.snapshots != nil {
		snapshot, err := e.snapshots.GetSnapshot(ctx, campaignID)
		switch {
		case err == nil:
			restored, err := e.module.UnmarshalState(campaignID, snapshot.StateJSON)
			if err != nil {
				return nil, fmt.Errorf("restore snapshot: %w", err)
			}
			state = restored
			afterSeq = snapshot.LastSeq
		case errors.Is(err, replay.ErrCheckpointNotFound):
			// No snapshot yet, replay from empty state.
		default:
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}

	events, lastSeq, err := e.listAllEvents(ctx, campaignID, afterSeq)
	if err != nil {
		return nil, err
	}
	for _, evt := range events {
		next, err := e.module.Apply(state, evt)
		if err != nil {
			return nil, fmt.Errorf("replay %s seq %d: %w", evt.Type, evt.Seq, err)
		}
		state = next
	}

	e.states[campaignID] = state
	e.seqs[campaignID] = lastSeq
	return state, nil
}

func (e *Engine) listAllEvents(ctx context.Context, campaignID string, afterSeq uint64) ([]event.Event, uint64, error) {
	const pageSize = 200
	var all []event.Event
	lastSeq := afterSeq
	for {
		page, err := e.journal.ListEvents(ctx, campaignID, lastSeq, pageSize)
		if err != nil {
			return nil, 0, fmt.Errorf("list events: %w", err)
		}
		if len(page) == 0 {
			return all, lastSeq, nil
		}
		for _, evt := range page {
			if evt.Seq != lastSeq+1 {
				return nil, 0, fmt.Errorf("event sequence gap: expected %d got %d", lastSeq+1, evt.Seq)
			}
			all = append(all, evt)
			lastSeq = evt.Seq
		}
	}
}

// Rebuild drops the cached state and reconstructs it from storage. With
// no snapshot configured this replays the entire journal from empty
// state, which must reproduce live state exactly.
func (e *Engine) Rebuild(ctx context.Context, campaignID string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, campaignID)
	delete(e.seqs, campaignID)
	return e.loadStateLocked(ctx, campaignID)
}

// Snapshot serializes the current state and saves it with its journal
// position.
func (e *Engine) Snapshot(ctx context.Context, campaignID string) error {
	if e.snapshots == nil {
		return apperrors.New(apperrors.CodeUnknown, "snapshot store is not configured")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadStateLocked(ctx, campaignID)
	if err != nil {
		return err
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return e.snapshots.SaveSnapshot(ctx, checkpoint.Snapshot{
		CampaignID: campaignID,
		Version:    event.SchemaVersion,
		LastSeq:    e.seqs[campaignID],
		Timestamp:  time.Now().UTC(),
		StateJSON:  stateJSON,
	})
}

// Prune snapshots the campaign and removes journal events at or below the
// snapshot position. Pruning twice at the same watermark is a no-op.
func (e *Engine) Prune(ctx context.Context, campaignID string) (int, error) {
	if err := e.Snapshot(ctx, campaignID); err != nil {
		return 0, err
	}

	e.mu.Lock()
	beforeSeq := e.seqs[campaignID]
	e.mu.Unlock()

	removed, err := e.journal.PruneEvents(ctx, campaignID, beforeSeq)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	e.log.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"before_seq":  beforeSeq,
		"removed":     removed,
	}).Info("journal pruned")
	return removed, nil
}
