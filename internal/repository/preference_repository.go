package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/model"
)

// PreferenceRepository handles user preference persistence
type PreferenceRepository struct {
	db Querier
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *database.Postgres) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction
func (r *PreferenceRepository) WithTx(tx *sql.Tx) *PreferenceRepository {
	return &PreferenceRepository{db: tx}
}

// Upsert creates preferences for a new identity. Conflict on the user
// key is a no-op, matching the provisioning idempotency contract.
func (r *PreferenceRepository) Upsert(ctx context.Context, prefs *model.Preferences) error {
	notificationsJSON, err := json.Marshal(prefs.Notifications)
	if err != nil {
		notificationsJSON = []byte("{}")
	}
	privacyJSON, err := json.Marshal(prefs.Privacy)
	if err != nil {
		privacyJSON = []byte("{}")
	}

	query := `
		INSERT INTO user_preferences (id, user_id, theme, language, timezone, notifications, privacy_settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		prefs.ID,
		prefs.UserID,
		prefs.Theme,
		prefs.Language,
		prefs.Timezone,
		notificationsJSON,
		privacyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", mapConstraintError(err))
	}
	return nil
}

// GetByUserID retrieves preferences for a user
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	query := `
		SELECT id, user_id, theme, language, timezone, notifications, privacy_settings, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	var (
		p                 model.Preferences
		notificationsJSON []byte
		privacyJSON       []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Theme,
		&p.Language,
		&p.Timezone,
		&notificationsJSON,
		&privacyJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if len(notificationsJSON) > 0 {
		json.Unmarshal(notificationsJSON, &p.Notifications)
	}
	if len(privacyJSON) > 0 {
		json.Unmarshal(privacyJSON, &p.Privacy)
	}
	return &p, nil
}

// Update replaces the mutable preference fields and stamps updated_at
// server-side
func (r *PreferenceRepository) Update(ctx context.Context, userID string, prefs *model.Preferences) error {
	notificationsJSON, err := json.Marshal(prefs.Notifications)
	if err != nil {
		notificationsJSON = []byte("{}")
	}
	privacyJSON, err := json.Marshal(prefs.Privacy)
	if err != nil {
		privacyJSON = []byte("{}")
	}

	query := `
		UPDATE user_preferences SET
		    theme = $2,
		    language = $3,
		    timezone = $4,
		    notifications = $5,
		    privacy_settings = $6,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		userID,
		prefs.Theme,
		prefs.Language,
		prefs.Timezone,
		notificationsJSON,
		privacyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", mapConstraintError(err))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
