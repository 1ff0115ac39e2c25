package model

import (
	"encoding/json"
	"time"
)

// User represents a registered player account.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Guest       bool      `json:"guest"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session represents one multiplayer game session.
type Session struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatorID   string          `json:"creator_id"`
	Status      string          `json:"status"` // waiting, active, finished
	VictoryMode string          `json:"victory_mode"`
	Seed        int64           `json:"seed"`
	Winner      string          `json:"winner,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	Players     []SessionPlayer `json:"players,omitempty"`
}

// SessionPlayer represents a user's seat in a session.
type SessionPlayer struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Faction   string    `json:"faction,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Save is a named, durable snapshot of a session's engine state.
// Version carries the replication counter the snapshot was taken at.
type Save struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Name      string          `json:"name"`
	Version   uint64          `json:"version"`
	Snapshot  json.RawMessage `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
}
