package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/model"
)

// ResetTokenRepository handles password reset token persistence
type ResetTokenRepository struct {
	db Querier
}

// NewResetTokenRepository creates a new ResetTokenRepository
func NewResetTokenRepository(db *database.Postgres) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Create stores a new reset token
func (r *ResetTokenRepository) Create(ctx context.Context, token *model.ResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", mapConstraintError(err))
	}
	return nil
}

// Consume atomically marks a token used if and only if it is still
// unused and unexpired. Exactly one of N concurrent attempts on the
// same token succeeds; the rest receive ErrTokenUsed or
// ErrTokenExpired. The check and the write are a single statement, so
// there is no window for two consumers to both pass the check.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (*model.ResetToken, error) {
	query := `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > NOW()
		RETURNING id, user_id, token, expires_at, used, created_at
	`
	token, err := scanResetToken(r.db.QueryRowContext(ctx, query, tokenHash))
	if err == nil {
		return token, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	// The conditional update matched nothing. Look the row up to tell
	// the caller why.
	existing, lookupErr := r.GetByTokenHash(ctx, tokenHash)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.Used {
		return nil, ErrTokenUsed
	}
	return nil, ErrTokenExpired
}

// GetByTokenHash retrieves a reset token by its stored hash
func (r *ResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*model.ResetToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`
	return scanResetToken(r.db.QueryRowContext(ctx, query, tokenHash))
}

// InvalidateAllForUser marks all unused tokens for a user as used
func (r *ResetTokenRepository) InvalidateAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE user_id = $1 AND used = FALSE`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to invalidate reset tokens: %w", err)
	}
	return nil
}

// CountRecentByUserID counts recent reset tokens for rate limiting
func (r *ResetTokenRepository) CountRecentByUserID(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM password_reset_tokens WHERE user_id = $1 AND created_at > $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent reset tokens: %w", err)
	}
	return count, nil
}

// DeleteExpired removes expired reset tokens
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}

func scanResetToken(row *sql.Row) (*model.ResetToken, error) {
	var t model.ResetToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Used,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reset token: %w", err)
	}
	return &t, nil
}
