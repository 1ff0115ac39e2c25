package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/04jhbickford/tactical-risk/internal/model"
	"github.com/04jhbickford/tactical-risk/internal/replication"
	"github.com/04jhbickford/tactical-risk/internal/repository"
	"github.com/04jhbickford/tactical-risk/pkg/tactical"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotWaiting = errors.New("session is not in waiting status")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrSessionFull       = errors.New("session is full")
	ErrNotEnoughPlayers  = errors.New("need at least 2 players to start")
	ErrNotCreator        = errors.New("only the creator can do this")
	ErrAlreadyJoined     = errors.New("already joined this session")
	ErrNotInSession      = errors.New("you are not in this session")
	ErrNoState           = errors.New("session has no published state")
	ErrSaveNotFound      = errors.New("save not found")
)

// Session lifecycle events broadcast over WebSocket.
const (
	eventPlayerJoined   = "player_joined"
	eventSessionStarted = "session_started"
	eventSessionEnded   = "session_ended"
	eventPlayerPresence = "player_presence"
	eventSaveCreated    = "save_created"
)

// SessionService handles session lifecycle, state replication, and saves.
type SessionService struct {
	sessions repository.SessionRepository
	saves    repository.SaveRepository
	users    repository.UserRepository
	cache    repository.StateCache
	bc       Broadcaster
	joinWait time.Duration

	mu   sync.Mutex
	live map[string]*replication.Replicator // sessionID -> replicator
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions repository.SessionRepository, saves repository.SaveRepository, users repository.UserRepository, cache repository.StateCache, bc Broadcaster, joinWait time.Duration) *SessionService {
	return &SessionService{
		sessions: sessions,
		saves:    saves,
		users:    users,
		cache:    cache,
		bc:       bc,
		joinWait: joinWait,
		live:     make(map[string]*replication.Replicator),
	}
}

// CreateSession creates a session in "waiting" status. The creator
// auto-joins. A zero seed is replaced with a time-derived one so every
// participant deals the same card deck.
func (s *SessionService) CreateSession(ctx context.Context, name, creatorID, victoryMode string, seed int64) (*model.Session, error) {
	if victoryMode != tactical.VictoryCapitals && victoryMode != tactical.VictoryElimination {
		victoryMode = tactical.VictoryCapitals
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	session, err := s.sessions.Create(ctx, name, creatorID, victoryMode, seed)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Join(ctx, session.ID, creatorID); err != nil {
		return nil, err
	}
	return s.sessions.FindByID(ctx, session.ID)
}

// JoinSession adds a player to a waiting session.
func (s *SessionService) JoinSession(ctx context.Context, sessionID, userID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != "waiting" {
		return ErrSessionNotWaiting
	}
	for _, p := range session.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}

	count, err := s.sessions.PlayerCount(ctx, sessionID)
	if err != nil {
		return err
	}
	if count >= len(tactical.StandardScenario().Factions) {
		return ErrSessionFull
	}

	if err := s.sessions.Join(ctx, sessionID, userID); err != nil {
		return err
	}
	s.bc.BroadcastSessionEvent(sessionID, eventPlayerJoined, map[string]string{"user_id": userID})
	return nil
}

// StartSession assigns factions, initializes the engine, and publishes
// the first state snapshot. Only the creator can start.
func (s *SessionService) StartSession(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != "waiting" {
		return nil, ErrSessionNotWaiting
	}
	if session.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(session.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	scenario := tactical.StandardScenario()
	factionIDs := make([]string, 0, len(scenario.Factions))
	for _, f := range scenario.Factions {
		factionIDs = append(factionIDs, f.ID)
	}
	rng := rand.New(rand.NewSource(session.Seed))
	rng.Shuffle(len(factionIDs), func(i, j int) { factionIDs[i], factionIDs[j] = factionIDs[j], factionIDs[i] })

	assignments := make(map[string]string, len(session.Players))
	playing := make([]string, 0, len(session.Players))
	for i, p := range session.Players {
		assignments[p.UserID] = factionIDs[i]
		playing = append(playing, factionIDs[i])
	}
	if err := s.sessions.AssignFactions(ctx, sessionID, assignments); err != nil {
		return nil, err
	}

	game := tactical.NewGameState(nil, tactical.NewRoller(session.Seed))
	if err := game.InitGame(playing, session.VictoryMode, session.Seed); err != nil {
		return nil, err
	}

	r := replication.New(sessionID, game, s.cache, s.bc)
	if err := r.Publish(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.live[sessionID] = r
	s.mu.Unlock()

	if err := s.sessions.SetStarted(ctx, sessionID); err != nil {
		return nil, err
	}
	s.bc.BroadcastSessionEvent(sessionID, eventSessionStarted, map[string]any{"factions": assignments})

	return s.sessions.FindByID(ctx, sessionID)
}

// GetSession returns a session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns open sessions or the user's sessions.
func (s *SessionService) ListSessions(ctx context.Context, userID, filter string) ([]model.Session, error) {
	if filter == "my" {
		return s.sessions.ListByUser(ctx, userID)
	}
	return s.sessions.ListOpen(ctx)
}

// DeleteSession removes a waiting session. Creator only.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, userID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != "waiting" {
		return ErrSessionNotWaiting
	}
	if session.CreatorID != userID {
		return ErrNotCreator
	}
	return s.sessions.Delete(ctx, sessionID)
}

// PushState accepts a state snapshot from a client, validates that the
// pusher controls the active faction, and fans the accepted snapshot
// out. Closes out the session when the pushed state ends the game.
func (s *SessionService) PushState(ctx context.Context, sessionID, userID string, version uint64, state json.RawMessage) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != "active" {
		return ErrSessionNotActive
	}

	faction := ""
	for _, p := range session.Players {
		if p.UserID == userID {
			faction = p.Faction
			break
		}
	}
	if faction == "" {
		return ErrNotInSession
	}

	r, err := s.replicator(ctx, session)
	if err != nil {
		return err
	}
	if err := r.Push(ctx, faction, version, state); err != nil {
		return err
	}

	if game := r.Game(); game.Phase == tactical.PhaseGameOver {
		if err := s.sessions.SetFinished(ctx, sessionID, game.Winner); err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to mark session finished")
		}
		s.bc.BroadcastSessionEvent(sessionID, eventSessionEnded, map[string]string{"winner": game.Winner})
	}
	return nil
}

// CurrentState returns the latest snapshot and its version, blocking
// briefly for sessions whose host has not published yet.
func (s *SessionService) CurrentState(ctx context.Context, sessionID string) (json.RawMessage, uint64, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if session == nil {
		return nil, 0, ErrSessionNotFound
	}

	snapshot, version, err := s.cache.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if snapshot != nil {
		return snapshot, version, nil
	}

	// Cache miss: recover from the latest durable save, republish, then
	// fall back to waiting on the host.
	if r, rerr := s.replicator(ctx, session); rerr == nil {
		snap, serr := r.Game().Snapshot()
		if serr == nil {
			return snap, r.Version(), nil
		}
	}
	return s.cache.WaitForSnapshot(ctx, sessionID, s.joinWait)
}

// SaveGame writes the current state as a named durable save.
func (s *SessionService) SaveGame(ctx context.Context, sessionID, userID, name string) (*model.Save, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !s.isMember(session, userID) {
		return nil, ErrNotInSession
	}

	snapshot, version, err := s.cache.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNoState
	}
	if name == "" {
		name = "autosave " + time.Now().UTC().Format("2006-01-02 15:04")
	}

	save, err := s.saves.Create(ctx, sessionID, name, version, snapshot)
	if err != nil {
		return nil, err
	}
	s.bc.BroadcastSessionEvent(sessionID, eventSaveCreated, map[string]any{"id": save.ID, "name": save.Name, "version": save.Version})
	return save, nil
}

// ListSaves returns a session's saves without snapshot bodies.
func (s *SessionService) ListSaves(ctx context.Context, sessionID string) ([]model.Save, error) {
	return s.saves.ListBySession(ctx, sessionID)
}

// LoadSave restores a durable save into the live session and publishes
// it at a fresh version so every client adopts it. Creator only.
func (s *SessionService) LoadSave(ctx context.Context, sessionID, userID, saveID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.CreatorID != userID {
		return ErrNotCreator
	}

	save, err := s.saves.FindByID(ctx, saveID)
	if err != nil {
		return err
	}
	if save == nil || save.SessionID != sessionID {
		return ErrSaveNotFound
	}

	r, err := s.replicator(ctx, session)
	if err != nil {
		return err
	}
	if err := r.Game().RestoreSnapshot(save.Snapshot); err != nil {
		return err
	}
	return r.Publish(ctx)
}

// WaitForState blocks until the session publishes its first snapshot,
// bounded by the configured join wait.
func (s *SessionService) WaitForState(ctx context.Context, sessionID string) (json.RawMessage, uint64, error) {
	return s.cache.WaitForSnapshot(ctx, sessionID, s.joinWait)
}

// MarkPresent records a user's live connection to a session.
func (s *SessionService) MarkPresent(ctx context.Context, sessionID, userID string) error {
	if err := s.cache.MarkPresent(ctx, sessionID, userID); err != nil {
		return err
	}
	s.broadcastPresence(ctx, sessionID)
	return nil
}

// MarkAbsent records a user's disconnection from a session.
func (s *SessionService) MarkAbsent(ctx context.Context, sessionID, userID string) error {
	if err := s.cache.MarkAbsent(ctx, sessionID, userID); err != nil {
		return err
	}
	s.broadcastPresence(ctx, sessionID)
	return nil
}

func (s *SessionService) broadcastPresence(ctx context.Context, sessionID string) {
	present, err := s.cache.Present(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to read presence set")
		return
	}
	s.bc.BroadcastSessionEvent(sessionID, eventPlayerPresence, map[string]any{"present": present})
}

// replicator returns the live replicator for a session, rehydrating the
// shadow engine from the cache or the latest durable save after a
// server restart.
func (s *SessionService) replicator(ctx context.Context, session *model.Session) (*replication.Replicator, error) {
	s.mu.Lock()
	if r, ok := s.live[session.ID]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	snapshot, version, err := s.cache.GetSnapshot(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		save, err := s.saves.Latest(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if save == nil {
			return nil, ErrNoState
		}
		snapshot, version = save.Snapshot, save.Version
	}

	game := tactical.NewGameState(nil, tactical.NewRoller(session.Seed))
	if err := game.RestoreSnapshot(snapshot); err != nil {
		return nil, err
	}
	r := replication.New(session.ID, game, s.cache, s.bc)
	if _, err := r.Apply(snapshot, version); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[session.ID]; ok {
		return existing, nil
	}
	s.live[session.ID] = r
	log.Info().Str("sessionId", session.ID).Uint64("version", version).Msg("Rehydrated session state")
	return r, nil
}

func (s *SessionService) isMember(session *model.Session, userID string) bool {
	for _, p := range session.Players {
		if p.UserID == userID {
			return true
		}
	}
	return session.CreatorID == userID
}
