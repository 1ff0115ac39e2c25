package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/04jhbickford/tactical-risk/internal/model"
)

// SessionRepo handles session and session_player database operations.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session in waiting status.
func (r *SessionRepo) Create(ctx context.Context, name, creatorID, victoryMode string, seed int64) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (name, creator_id, victory_mode, seed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, creator_id, status, victory_mode, seed, created_at`,
		name, creatorID, victoryMode, seed,
	).Scan(&s.ID, &s.Name, &s.CreatorID, &s.Status, &s.VictoryMode, &s.Seed, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// FindByID returns a session by ID with its players.
func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, creator_id, status, victory_mode, seed, winner, created_at, started_at, finished_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.CreatorID, &s.Status, &s.VictoryMode, &s.Seed, &winner, &s.CreatedAt, &s.StartedAt, &s.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	s.Winner = winner.String

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Players = players
	return &s, nil
}

// ListOpen returns sessions in "waiting" status.
func (r *SessionRepo) ListOpen(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, creator_id, status, victory_mode, seed, created_at
		 FROM sessions WHERE status = 'waiting' ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatorID, &s.Status, &s.VictoryMode, &s.Seed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListByUser returns all sessions a user is part of (as player or creator).
func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT s.id, s.name, s.creator_id, s.status, s.victory_mode, s.seed, s.winner, s.created_at, s.started_at, s.finished_at
		 FROM sessions s LEFT JOIN session_players sp ON s.id = sp.session_id AND sp.user_id = $1
		 WHERE sp.user_id = $1 OR s.creator_id = $1
		 ORDER BY s.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		var winner sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatorID, &s.Status, &s.VictoryMode, &s.Seed, &winner, &s.CreatedAt, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Winner = winner.String
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Join adds a player seat to a session.
func (r *SessionRepo) Join(ctx context.Context, sessionID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_players (session_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("join session: %w", err)
	}
	return nil
}

// PlayerCount returns the number of seated players.
func (r *SessionRepo) PlayerCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_players WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("player count: %w", err)
	}
	return count, nil
}

// ListPlayers returns all players in a session in join order.
func (r *SessionRepo) ListPlayers(ctx context.Context, sessionID string) ([]model.SessionPlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, user_id, faction, joined_at FROM session_players WHERE session_id = $1 ORDER BY joined_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.SessionPlayer
	for rows.Next() {
		var p model.SessionPlayer
		var faction sql.NullString
		if err := rows.Scan(&p.SessionID, &p.UserID, &faction, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Faction = faction.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// AssignFactions records each player's faction. Runs in one transaction
// so a half-assigned session never becomes visible.
func (r *SessionRepo) AssignFactions(ctx context.Context, sessionID string, assignments map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for userID, faction := range assignments {
		_, err := tx.ExecContext(ctx,
			`UPDATE session_players SET faction = $1 WHERE session_id = $2 AND user_id = $3`,
			faction, sessionID, userID,
		)
		if err != nil {
			return fmt.Errorf("assign faction: %w", err)
		}
	}
	return tx.Commit()
}

// SetStarted marks a session as active.
func (r *SessionRepo) SetStarted(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'active', started_at = now() WHERE id = $1`, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set started: %w", err)
	}
	return nil
}

// SetFinished marks a session as finished with a winner label.
func (r *SessionRepo) SetFinished(ctx context.Context, sessionID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		winner, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a session and all associated data (cascades to players and saves).
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
