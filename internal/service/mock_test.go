package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/04jhbickford/tactical-risk/internal/model"
)

type mockSessionRepo struct {
	sessions map[string]*model.Session
	players  map[string][]model.SessionPlayer
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*model.Session),
		players:  make(map[string][]model.SessionPlayer),
	}
}

func (m *mockSessionRepo) Create(_ context.Context, name, creatorID, victoryMode string, seed int64) (*model.Session, error) {
	s := &model.Session{
		ID:          fmt.Sprintf("session-%d", len(m.sessions)+1),
		Name:        name,
		CreatorID:   creatorID,
		Status:      "waiting",
		VictoryMode: victoryMode,
		Seed:        seed,
		CreatedAt:   time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockSessionRepo) ListOpen(_ context.Context) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if s.Status == "waiting" {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID string) ([]model.Session, error) {
	seen := make(map[string]bool)
	var result []model.Session
	for sessionID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID && !seen[sessionID] {
				if s, ok := m.sessions[sessionID]; ok {
					result = append(result, *s)
					seen[sessionID] = true
				}
			}
		}
	}
	for _, s := range m.sessions {
		if s.CreatorID == userID && !seen[s.ID] {
			result = append(result, *s)
			seen[s.ID] = true
		}
	}
	return result, nil
}

func (m *mockSessionRepo) Join(_ context.Context, sessionID, userID string) error {
	for _, p := range m.players[sessionID] {
		if p.UserID == userID {
			return nil
		}
	}
	m.players[sessionID] = append(m.players[sessionID], model.SessionPlayer{
		SessionID: sessionID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	})
	return nil
}

func (m *mockSessionRepo) PlayerCount(_ context.Context, sessionID string) (int, error) {
	return len(m.players[sessionID]), nil
}

func (m *mockSessionRepo) ListPlayers(_ context.Context, sessionID string) ([]model.SessionPlayer, error) {
	return m.players[sessionID], nil
}

func (m *mockSessionRepo) AssignFactions(_ context.Context, sessionID string, assignments map[string]string) error {
	players := m.players[sessionID]
	for i := range players {
		if faction, ok := assignments[players[i].UserID]; ok {
			players[i].Faction = faction
		}
	}
	m.players[sessionID] = players
	return nil
}

func (m *mockSessionRepo) SetStarted(_ context.Context, sessionID string) error {
	if s, ok := m.sessions[sessionID]; ok {
		s.Status = "active"
		now := time.Now()
		s.StartedAt = &now
	}
	return nil
}

func (m *mockSessionRepo) SetFinished(_ context.Context, sessionID, winner string) error {
	if s, ok := m.sessions[sessionID]; ok {
		s.Status = "finished"
		s.Winner = winner
		now := time.Now()
		s.FinishedAt = &now
	}
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	delete(m.players, sessionID)
	return nil
}

// mockUserRepo implements repository.UserRepository for testing.
type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) CreateGuest(_ context.Context, displayName string) (*model.User, error) {
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.seq),
		DisplayName: displayName,
		Guest:       true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

type mockSaveRepo struct {
	saves map[string]*model.Save
	seq   int
}

func newMockSaveRepo() *mockSaveRepo {
	return &mockSaveRepo{saves: make(map[string]*model.Save)}
}

func (m *mockSaveRepo) Create(_ context.Context, sessionID, name string, version uint64, snapshot json.RawMessage) (*model.Save, error) {
	m.seq++
	s := &model.Save{
		ID:        fmt.Sprintf("save-%d", m.seq),
		SessionID: sessionID,
		Name:      name,
		Version:   version,
		Snapshot:  snapshot,
		CreatedAt: time.Now(),
	}
	m.saves[s.ID] = s
	return s, nil
}

func (m *mockSaveRepo) FindByID(_ context.Context, id string) (*model.Save, error) {
	s, ok := m.saves[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (m *mockSaveRepo) ListBySession(_ context.Context, sessionID string) ([]model.Save, error) {
	var result []model.Save
	for _, s := range m.saves {
		if s.SessionID == sessionID {
			cp := *s
			cp.Snapshot = nil
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockSaveRepo) Latest(_ context.Context, sessionID string) (*model.Save, error) {
	var latest *model.Save
	for _, s := range m.saves {
		if s.SessionID == sessionID && (latest == nil || s.Version > latest.Version) {
			latest = s
		}
	}
	return latest, nil
}

func (m *mockSaveRepo) Delete(_ context.Context, id string) error {
	delete(m.saves, id)
	return nil
}

// mockStateCache implements repository.StateCache with the same
// version-gated write semantics as the Redis implementation.
type mockStateCache struct {
	mu       sync.Mutex
	states   map[string]json.RawMessage
	versions map[string]uint64
	present  map[string]map[string]bool
}

func newMockStateCache() *mockStateCache {
	return &mockStateCache{
		states:   make(map[string]json.RawMessage),
		versions: make(map[string]uint64),
		present:  make(map[string]map[string]bool),
	}
}

func (c *mockStateCache) PutSnapshot(_ context.Context, sessionID string, version uint64, snapshot json.RawMessage) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version <= c.versions[sessionID] {
		return false, nil
	}
	c.states[sessionID] = append(json.RawMessage(nil), snapshot...)
	c.versions[sessionID] = version
	return true, nil
}

func (c *mockStateCache) GetSnapshot(_ context.Context, sessionID string) (json.RawMessage, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[sessionID], c.versions[sessionID], nil
}

func (c *mockStateCache) WaitForSnapshot(ctx context.Context, sessionID string, timeout time.Duration) (json.RawMessage, uint64, error) {
	deadline := time.Now().Add(timeout)
	for {
		snap, ver, _ := c.GetSnapshot(ctx, sessionID)
		if snap != nil {
			return snap, ver, nil
		}
		if time.Now().After(deadline) {
			return nil, 0, fmt.Errorf("no state for session %s after %s", sessionID, timeout)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (c *mockStateCache) MarkPresent(_ context.Context, sessionID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.present[sessionID] == nil {
		c.present[sessionID] = make(map[string]bool)
	}
	c.present[sessionID][userID] = true
	return nil
}

func (c *mockStateCache) MarkAbsent(_ context.Context, sessionID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.present[sessionID] != nil {
		delete(c.present[sessionID], userID)
	}
	return nil
}

func (c *mockStateCache) Present(_ context.Context, sessionID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []string
	for userID := range c.present[sessionID] {
		result = append(result, userID)
	}
	return result, nil
}

func (c *mockStateCache) DeleteSessionData(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, sessionID)
	delete(c.versions, sessionID)
	delete(c.present, sessionID)
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) BroadcastSessionEvent(_, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *recordingBroadcaster) has(eventType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e == eventType {
			return true
		}
	}
	return false
}
