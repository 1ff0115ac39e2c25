package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/04jhbickford/tactical-risk/internal/auth"
	"github.com/04jhbickford/tactical-risk/internal/model"
	"github.com/04jhbickford/tactical-risk/internal/service"
	"github.com/04jhbickford/tactical-risk/pkg/tactical"
)

// --- Mock Repositories ---

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
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
	return nil
}

type mockSessionRepo struct {
	sessions map[string]*model.Session
	players  map[string][]model.SessionPlayer
	seq      int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*model.Session),
		players:  make(map[string][]model.SessionPlayer),
	}
}

func (m *mockSessionRepo) Create(_ context.Context, name, creatorID, victoryMode string, seed int64) (*model.Session, error) {
	m.seq++
	s := &model.Session{
		ID:          fmt.Sprintf("session-%d", m.seq),
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
	snap, ver, _ := c.GetSnapshot(ctx, sessionID)
	if snap != nil {
		return snap, ver, nil
	}
	return nil, 0, fmt.Errorf("no state for session %s", sessionID)
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

// --- Helpers ---

func newTestSessionService() *service.SessionService {
	return service.NewSessionService(
		newMockSessionRepo(),
		newMockSaveRepo(),
		newMockUserRepo(),
		newMockStateCache(),
		service.NoopBroadcaster{},
		100*time.Millisecond,
	)
}

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret")
}

func reqWithUserID(method, path string, body string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := auth.SetUserIDForTest(req.Context(), userID)
	return req.WithContext(ctx)
}

// --- User Handler Tests ---

func TestGetMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
		Guest:       true,
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "user-1")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Alice" {
		t.Errorf("expected Alice, got %s", user.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
	}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":"Bob"}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Bob" {
		t.Errorf("expected Bob, got %s", user.DisplayName)
	}
}

func TestUpdateMeEmptyName(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{ID: "user-1"}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":""}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateMeInvalidJSON(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", "not json", "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Session Handler Tests ---

func TestCreateSession(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"Friday Night"}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)
	if session.Name != "Friday Night" {
		t.Errorf("expected 'Friday Night', got %s", session.Name)
	}
	if session.VictoryMode != tactical.VictoryCapitals {
		t.Errorf("expected default victory mode, got %s", session.VictoryMode)
	}
}

func TestCreateSessionMissingName(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":""}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodGet, "/sessions", "", "user-1")
	rec := httptest.NewRecorder()
	h.ListSessions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodGet, "/sessions/nonexistent", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJoinSessionNotFound(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions/nonexistent/join", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.JoinSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStartSessionNotCreator(t *testing.T) {
	svc := newTestSessionService()
	h := NewSessionHandler(svc, NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"g"}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/join", "", "user-2")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.JoinSession(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/start", "", "user-2")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.StartSession(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStartSessionPublishesState(t *testing.T) {
	svc := newTestSessionService()
	h := NewSessionHandler(svc, NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"g","seed":11}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/join", "", "user-2")
	req.SetPathValue("id", session.ID)
	h.JoinSession(httptest.NewRecorder(), req)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/start", "", "user-1")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.StartSession(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = reqWithUserID(http.MethodGet, "/sessions/"+session.ID+"/state", "", "user-1")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.GetState(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Version uint64          `json:"version"`
		State   json.RawMessage `json:"state"`
	}
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload.Version != 1 || len(payload.State) == 0 {
		t.Errorf("unexpected state payload: v%d, %d bytes", payload.Version, len(payload.State))
	}
}

func TestRejoinTokenBindsSeat(t *testing.T) {
	svc := newTestSessionService()
	jwtMgr := testJWTManager()
	h := NewSessionHandler(svc, NewHub(), jwtMgr)

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"g","seed":11}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/join", "", "user-2")
	req.SetPathValue("id", session.ID)
	h.JoinSession(httptest.NewRecorder(), req)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/start", "", "user-1")
	req.SetPathValue("id", session.ID)
	h.StartSession(httptest.NewRecorder(), req)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/rejoin", "", "user-2")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.RejoinToken(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rejoin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionToken string `json:"session_token"`
		Faction      string `json:"faction"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.SessionToken == "" || resp.Faction == "" {
		t.Fatalf("incomplete rejoin response: %s", rec.Body.String())
	}
	claims, err := jwtMgr.ValidateToken(resp.SessionToken)
	if err != nil {
		t.Fatalf("validate session token: %v", err)
	}
	if claims.UserID != "user-2" || claims.SessionID != session.ID || claims.Faction != resp.Faction {
		t.Errorf("claims = %+v, want user-2 in %s as %s", claims, session.ID, resp.Faction)
	}
}

func TestRejoinTokenNonMemberForbidden(t *testing.T) {
	svc := newTestSessionService()
	h := NewSessionHandler(svc, NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"g"}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/rejoin", "", "user-9")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.RejoinToken(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRejoinTokenSessionNotFound(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions/nonexistent/rejoin", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.RejoinToken(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetStateSessionNotFound(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodGet, "/sessions/nonexistent/state", "", "user-1")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateSaveNoState(t *testing.T) {
	svc := newTestSessionService()
	h := NewSessionHandler(svc, NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodPost, "/sessions", `{"name":"g"}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	var session model.Session
	json.Unmarshal(rec.Body.Bytes(), &session)

	req = reqWithUserID(http.MethodPost, "/sessions/"+session.ID+"/saves", `{}`, "user-1")
	req.SetPathValue("id", session.ID)
	rec = httptest.NewRecorder()
	h.CreateSave(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListSavesEmpty(t *testing.T) {
	h := NewSessionHandler(newTestSessionService(), NewHub(), testJWTManager())

	req := reqWithUserID(http.MethodGet, "/sessions/session-1/saves", "", "user-1")
	req.SetPathValue("id", "session-1")
	rec := httptest.NewRecorder()
	h.ListSaves(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

// --- Auth Handler Tests ---

func TestGuestLogin(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, newMockUserRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", strings.NewReader(`{"display_name":"Alice"}`))
	rec := httptest.NewRecorder()
	h.GuestLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User   model.User     `json:"user"`
		Tokens auth.TokenPair `json:"tokens"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.User.DisplayName != "Alice" || !resp.User.Guest {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("expected a full token pair")
	}
}

func TestGuestLoginMissingName(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, newMockUserRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", strings.NewReader(`{"display_name":""}`))
	rec := httptest.NewRecorder()
	h.GuestLogin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, newMockUserRepo())

	refresh, _ := jwtMgr.GenerateRefreshToken("user-1")
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, refresh)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, newMockUserRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"invalid"}`))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshTokenBadBody(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(jwtMgr, newMockUserRepo())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
