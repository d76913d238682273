package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/model"
)

const profileColumns = `id, email, full_name, avatar_url, phone, department, job_title,
	       bio, location, website, role, status, email_notifications,
	       last_login, created_at, updated_at`

// ProfileRepository handles profile persistence
type ProfileRepository struct {
	db Querier
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *database.Postgres) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction
func (r *ProfileRepository) WithTx(tx *sql.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Upsert materializes a profile for a new identity. A conflict on the
// identity key is a no-op so provisioning stays idempotent under retry
// and concurrent duplicate creation. Returns whether a row was created.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *model.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (id, email, full_name, role, status, email_notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.Status,
		profile.EmailNotifications,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert profile: %w", mapConstraintError(err))
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetByID retrieves a profile by identity key
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a profile by email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, email))
}

// RoleOf resolves the current role of an identity. Queried fresh on
// every authorization check; never cached.
func (r *ProfileRepository) RoleOf(ctx context.Context, id string) (model.Role, error) {
	query := `SELECT role FROM profiles WHERE id = $1`
	var role model.Role
	err := r.db.QueryRowContext(ctx, query, id).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return role, nil
}

// ListFilter narrows profile listings. Zero values mean no filter.
type ListFilter struct {
	Role   model.Role
	Status model.ProfileStatus
	Search string
	Limit  int
	Offset int
}

// List returns profiles matching the filter, newest first. Search
// matches email, full name and department.
func (r *ProfileRepository) List(ctx context.Context, filter ListFilter) ([]*model.Profile, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR full_name ILIKE $%d OR department ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + profileColumns + ` FROM profiles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfileRows(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Update applies the self-serviceable display fields and stamps
// updated_at server-side, overriding any caller-supplied value. Role
// and status are untouchable here; see UpdateRoleStatus.
func (r *ProfileRepository) Update(ctx context.Context, id string, update *model.ProfileUpdate) (*model.Profile, error) {
	query := `
		UPDATE profiles SET
		    full_name = COALESCE($2, full_name),
		    avatar_url = COALESCE($3, avatar_url),
		    phone = COALESCE($4, phone),
		    department = COALESCE($5, department),
		    job_title = COALESCE($6, job_title),
		    bio = COALESCE($7, bio),
		    location = COALESCE($8, location),
		    website = COALESCE($9, website),
		    email_notifications = COALESCE($10, email_notifications),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	row := r.db.QueryRowContext(ctx, query,
		id,
		update.FullName,
		update.AvatarURL,
		update.Phone,
		update.Department,
		update.JobTitle,
		update.Bio,
		update.Location,
		update.Website,
		update.EmailNotifications,
	)
	return scanProfile(row)
}

// UpdateRoleStatus changes the privileged columns. Callers must hold
// the role-assignment predicate; ownership of the row is not enough.
func (r *ProfileRepository) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status *model.ProfileStatus) (*model.Profile, error) {
	query := `
		UPDATE profiles SET
		    role = COALESCE($2, role),
		    status = COALESCE($3, status),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	row := r.db.QueryRowContext(ctx, query, id, role, status)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapConstraintError(err)
	}
	return p, nil
}

// UpdateLastLogin records a successful login
func (r *ProfileRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE profiles SET last_login = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile. Dependent sessions, reset tokens and
// preferences cascade; audit references null out.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM profiles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type profileScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfileFrom(s profileScanner) (*model.Profile, error) {
	var p model.Profile
	err := s.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.AvatarURL,
		&p.Phone,
		&p.Department,
		&p.JobTitle,
		&p.Bio,
		&p.Location,
		&p.Website,
		&p.Role,
		&p.Status,
		&p.EmailNotifications,
		&p.LastLogin,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p, err := scanProfileFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}

func scanProfileRows(rows *sql.Rows) (*model.Profile, error) {
	p, err := scanProfileFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}
