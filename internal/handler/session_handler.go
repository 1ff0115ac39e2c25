package handler

import (
	"errors"
	"net/http"

	"github.com/04jhbickford/tactical-risk/internal/auth"
	"github.com/04jhbickford/tactical-risk/internal/service"
)

// SessionHandler handles session lifecycle and state endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
	wsHub      *Hub
	jwtMgr     *auth.JWTManager
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessionSvc *service.SessionService, wsHub *Hub, jwtMgr *auth.JWTManager) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, wsHub: wsHub, jwtMgr: jwtMgr}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name        string `json:"name"`
		VictoryMode string `json:"victory_mode,omitempty"`
		Seed        int64  `json:"seed,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), req.Name, userID, req.VictoryMode, req.Seed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	sessions, err := h.sessionSvc.ListSessions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// JoinSession handles POST /api/v1/sessions/{id}/join
func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.sessionSvc.JoinSession(r.Context(), sessionID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrSessionFull) || errors.Is(err, service.ErrSessionNotWaiting) || errors.Is(err, service.ErrAlreadyJoined) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// StartSession handles POST /api/v1/sessions/{id}/start
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	session, err := h.sessionSvc.StartSession(r.Context(), sessionID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotCreator) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrNotEnoughPlayers) || errors.Is(err, service.ErrSessionNotWaiting) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// RejoinToken handles POST /api/v1/sessions/{id}/rejoin — issues a
// session token binding the caller to their seat, so a dropped client
// can reconnect and reclaim its faction without going through the
// lobby again.
func (h *SessionHandler) RejoinToken(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	faction := ""
	member := false
	for _, p := range session.Players {
		if p.UserID == userID {
			member = true
			faction = p.Faction
			break
		}
	}
	if !member {
		writeError(w, http.StatusForbidden, "not a player in this session")
		return
	}

	token, err := h.jwtMgr.GenerateSessionToken(userID, sessionID, faction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_token": token,
		"faction":       faction,
	})
}

// GetState handles GET /api/v1/sessions/{id}/state — returns the
// latest replicated snapshot and its version. Blocks briefly when the
// host has not published yet, so a joining client can long-poll it.
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	snapshot, version, err := h.sessionSvc.CurrentState(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": version,
		"state":   snapshot,
	})
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.sessionSvc.DeleteSession(r.Context(), sessionID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrSessionNotWaiting) {
			status = http.StatusBadRequest
		} else if errors.Is(err, service.ErrNotCreator) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateSave handles POST /api/v1/sessions/{id}/saves
func (h *SessionHandler) CreateSave(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Name string `json:"name,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	save, err := h.sessionSvc.SaveGame(r.Context(), sessionID, userID, req.Name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrSessionNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInSession) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrNoState) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, save)
}

// ListSaves handles GET /api/v1/sessions/{id}/saves
func (h *SessionHandler) ListSaves(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	saves, err := h.sessionSvc.ListSaves(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if saves == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, saves)
}

// LoadSave handles POST /api/v1/sessions/{id}/saves/{saveId}/load
func (h *SessionHandler) LoadSave(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	saveID := r.PathValue("saveId")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.sessionSvc.LoadSave(r.Context(), sessionID, userID, saveID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSaveNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotCreator) {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}
