package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/model"
)

const sessionColumns = `id, user_id, session_token, ip_address, user_agent,
	       created_at, expires_at, is_active`

// SessionRepository handles login session persistence
type SessionRepository struct {
	db Querier
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *database.Postgres) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO user_sessions (id, user_id, session_token, ip_address, user_agent, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.ExpiresAt,
		session.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapConstraintError(err))
	}
	return nil
}

// GetUsableByTokenHash retrieves a session only if it is still usable.
// Both the active flag and the expiry are required in the predicate;
// relying on either alone would resurrect dead sessions.
func (r *SessionRepository) GetUsableByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE session_token = $1 AND is_active = TRUE AND expires_at > NOW()
	`
	return scanSession(r.db.QueryRowContext(ctx, query, tokenHash))
}

// GetByID retrieves a session regardless of usability
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

// ListByUserID returns all sessions for a user, newest first
func (r *SessionRepository) ListByUserID(ctx context.Context, userID string) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.TokenHash,
			&s.IPAddress,
			&s.UserAgent,
			&s.CreatedAt,
			&s.ExpiresAt,
			&s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Deactivate marks a session inactive by ID. Deactivation is terminal;
// there is no path back to active.
func (r *SessionRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateByTokenHash marks a session inactive by its token hash
func (r *SessionRepository) DeactivateByTokenHash(ctx context.Context, tokenHash string) error {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE session_token = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAllForUser marks every active session for a user inactive
// and returns how many were affected
func (r *SessionRepository) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes sessions past their expiry. Expiry is enforced
// at read time; this only reclaims storage.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func scanSession(row *sql.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &s, nil
}
