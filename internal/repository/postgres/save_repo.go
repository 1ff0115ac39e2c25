package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/04jhbickford/tactical-risk/internal/model"
)

// SaveRepo handles durable snapshot database operations.
type SaveRepo struct {
	db *sql.DB
}

// NewSaveRepo creates a SaveRepo.
func NewSaveRepo(db *sql.DB) *SaveRepo {
	return &SaveRepo{db: db}
}

// Create inserts a named snapshot for a session.
func (r *SaveRepo) Create(ctx context.Context, sessionID, name string, version uint64, snapshot json.RawMessage) (*model.Save, error) {
	var s model.Save
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO saves (session_id, name, version, snapshot)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, session_id, name, version, snapshot, created_at`,
		sessionID, name, version, snapshot,
	).Scan(&s.ID, &s.SessionID, &s.Name, &s.Version, &s.Snapshot, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create save: %w", err)
	}
	return &s, nil
}

// FindByID returns a save by ID, snapshot included.
func (r *SaveRepo) FindByID(ctx context.Context, id string) (*model.Save, error) {
	var s model.Save
	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, name, version, snapshot, created_at FROM saves WHERE id = $1`, id,
	).Scan(&s.ID, &s.SessionID, &s.Name, &s.Version, &s.Snapshot, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find save: %w", err)
	}
	return &s, nil
}

// ListBySession returns a session's saves, most recent first, without
// the snapshot bodies.
func (r *SaveRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Save, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, name, version, created_at
		 FROM saves WHERE session_id = $1 ORDER BY created_at DESC LIMIT 100`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var saves []model.Save
	for rows.Next() {
		var s model.Save
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Name, &s.Version, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		saves = append(saves, s)
	}
	return saves, rows.Err()
}

// Latest returns the newest save for a session, or nil when none exist.
// Used to recover live state after a cache eviction.
func (r *SaveRepo) Latest(ctx context.Context, sessionID string) (*model.Save, error) {
	var s model.Save
	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, name, version, snapshot, created_at
		 FROM saves WHERE session_id = $1 ORDER BY version DESC, created_at DESC LIMIT 1`, sessionID,
	).Scan(&s.ID, &s.SessionID, &s.Name, &s.Version, &s.Snapshot, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest save: %w", err)
	}
	return &s, nil
}

// Delete removes a save.
func (r *SaveRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}
