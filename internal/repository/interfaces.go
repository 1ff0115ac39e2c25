package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/04jhbickford/tactical-risk/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	CreateGuest(ctx context.Context, displayName string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// SessionRepository defines session and seat data operations.
type SessionRepository interface {
	Create(ctx context.Context, name, creatorID, victoryMode string, seed int64) (*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	ListOpen(ctx context.Context) ([]model.Session, error)
	ListByUser(ctx context.Context, userID string) ([]model.Session, error)
	Join(ctx context.Context, sessionID, userID string) error
	PlayerCount(ctx context.Context, sessionID string) (int, error)
	ListPlayers(ctx context.Context, sessionID string) ([]model.SessionPlayer, error)
	AssignFactions(ctx context.Context, sessionID string, assignments map[string]string) error
	SetStarted(ctx context.Context, sessionID string) error
	SetFinished(ctx context.Context, sessionID, winner string) error
	Delete(ctx context.Context, sessionID string) error
}

// SaveRepository defines durable snapshot operations.
type SaveRepository interface {
	Create(ctx context.Context, sessionID, name string, version uint64, snapshot json.RawMessage) (*model.Save, error)
	FindByID(ctx context.Context, id string) (*model.Save, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.Save, error)
	Latest(ctx context.Context, sessionID string) (*model.Save, error)
	Delete(ctx context.Context, id string) error
}

// StateCache defines live session state operations (Redis). Snapshots
// are versioned; a write only lands if its version is higher than the
// cached one, which is the whole conflict story: last writer with the
// highest number wins.
type StateCache interface {
	PutSnapshot(ctx context.Context, sessionID string, version uint64, snapshot json.RawMessage) (bool, error)
	GetSnapshot(ctx context.Context, sessionID string) (json.RawMessage, uint64, error)
	WaitForSnapshot(ctx context.Context, sessionID string, timeout time.Duration) (json.RawMessage, uint64, error)
	MarkPresent(ctx context.Context, sessionID, userID string) error
	MarkAbsent(ctx context.Context, sessionID, userID string) error
	Present(ctx context.Context, sessionID string) ([]string, error)
	DeleteSessionData(ctx context.Context, sessionID string) error
}
