// Package replication keeps a session's engine state in step across
// clients. Every accepted action produces a full state snapshot tagged
// with a monotonically increasing version; the highest version wins and
// lower-numbered snapshots are discarded on arrival.
package replication

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/04jhbickford/tactical-risk/pkg/tactical"
)

var (
	// ErrNotActivePlayer rejects pushes from anyone but the faction
	// whose turn it is. Spectators and waiting players only receive.
	ErrNotActivePlayer = errors.New("only the active player may publish state")
	// ErrStaleVersion means a newer snapshot was already published; the
	// caller's state has been replaced by it.
	ErrStaleVersion = errors.New("a newer state version is already published")
)

// Cache is the slice of the state cache the replicator needs.
type Cache interface {
	PutSnapshot(ctx context.Context, sessionID string, version uint64, snapshot json.RawMessage) (bool, error)
	GetSnapshot(ctx context.Context, sessionID string) (json.RawMessage, uint64, error)
	WaitForSnapshot(ctx context.Context, sessionID string, timeout time.Duration) (json.RawMessage, uint64, error)
}

// Broadcaster fans an accepted snapshot out to subscribed clients.
type Broadcaster interface {
	BroadcastSessionEvent(sessionID, eventType string, data any)
}

// StateSyncEvent is the payload broadcast with every accepted snapshot.
const StateSyncEvent = "state_sync"

// SyncPayload is what subscribers receive on a state_sync event.
type SyncPayload struct {
	Version uint64          `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Replicator synchronizes one session's game state. It holds the
// server's shadow copy of the engine, used to decide whose turn it is
// and to recover state for late joiners.
type Replicator struct {
	mu        sync.Mutex
	sessionID string
	game      *tactical.GameState
	version   uint64
	cache     Cache
	bc        Broadcaster
}

// New creates a Replicator around an existing engine state.
func New(sessionID string, game *tactical.GameState, cache Cache, bc Broadcaster) *Replicator {
	return &Replicator{
		sessionID: sessionID,
		game:      game,
		cache:     cache,
		bc:        bc,
	}
}

// Version returns the highest state version seen so far.
func (r *Replicator) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Game returns the shadow engine state. Callers must not mutate it
// outside the replicator's own methods.
func (r *Replicator) Game() *tactical.GameState {
	return r.game
}

// Publish snapshots the shadow state and pushes it at the next version.
// Used by the server itself after it mutates the engine (session start,
// load from save).
func (r *Replicator) Publish(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, err := r.game.Snapshot()
	if err != nil {
		return err
	}
	return r.publishLocked(ctx, r.version+1, snapshot)
}

// Push accepts a client-produced snapshot from the given faction. Only
// the active player's pushes land; everyone else gets
// ErrNotActivePlayer. A push that loses the version race returns
// ErrStaleVersion after the newer remote state has been adopted.
func (r *Replicator) Push(ctx context.Context, faction string, version uint64, snapshot json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if faction != r.game.CurrentPlayer() {
		return ErrNotActivePlayer
	}
	if version <= r.version {
		return ErrStaleVersion
	}
	if err := r.game.RestoreSnapshot(snapshot); err != nil {
		return err
	}
	return r.publishLocked(ctx, version, snapshot)
}

// publishLocked writes the snapshot through the cache's version gate
// and broadcasts it. On a lost race the newer remote state is adopted
// into the shadow engine. Callers hold r.mu.
func (r *Replicator) publishLocked(ctx context.Context, version uint64, snapshot json.RawMessage) error {
	ok, err := r.cache.PutSnapshot(ctx, r.sessionID, version, snapshot)
	if err != nil {
		return err
	}
	if !ok {
		remote, remoteVersion, err := r.cache.GetSnapshot(ctx, r.sessionID)
		if err != nil {
			return err
		}
		if remote != nil && remoteVersion > r.version {
			if err := r.game.RestoreSnapshot(remote); err != nil {
				return err
			}
			r.version = remoteVersion
		}
		return ErrStaleVersion
	}

	r.version = version
	if r.bc != nil {
		r.bc.BroadcastSessionEvent(r.sessionID, StateSyncEvent, SyncPayload{
			Version: version,
			State:   snapshot,
		})
	}
	return nil
}

// Apply adopts an incoming snapshot if its version is newer than the
// local one. Older or equal versions are discarded; the report says
// whether the snapshot was applied.
func (r *Replicator) Apply(snapshot json.RawMessage, version uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if version <= r.version {
		log.Debug().
			Str("sessionId", r.sessionID).
			Uint64("incoming", version).
			Uint64("local", r.version).
			Msg("Discarding stale state snapshot")
		return false, nil
	}
	if err := r.game.RestoreSnapshot(snapshot); err != nil {
		return false, err
	}
	r.version = version
	return true, nil
}

// WaitForState blocks a joining client until the session has a
// published snapshot, adopts it, and returns it. Gives up after the
// timeout.
func (r *Replicator) WaitForState(ctx context.Context, timeout time.Duration) (json.RawMessage, uint64, error) {
	snapshot, version, err := r.cache.WaitForSnapshot(ctx, r.sessionID, timeout)
	if err != nil {
		return nil, 0, err
	}
	if _, err := r.Apply(snapshot, version); err != nil {
		return nil, 0, err
	}
	return snapshot, version, nil
}
