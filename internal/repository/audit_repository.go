package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/model"
)

// AuditRepository handles audit log persistence. The table is
// append-only: there is deliberately no update or delete method here.
type AuditRepository struct {
	db Querier
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *database.Postgres) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	query := `
		INSERT INTO audit_logs (id, admin_id, action, target_user_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.AdminID,
		entry.Action,
		entry.TargetUserID,
		detailsJSON,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// List returns audit entries matching the filter, newest first
func (r *AuditRepository) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Action != "" {
		args = append(args, filter.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.AdminID != "" {
		args = append(args, filter.AdminID)
		conds = append(conds, fmt.Sprintf("admin_id = $%d", len(args)))
	}
	if filter.TargetUserID != "" {
		args = append(args, filter.TargetUserID)
		conds = append(conds, fmt.Sprintf("target_user_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `
		SELECT id, admin_id, action, target_user_id, details, ip_address, created_at
		FROM audit_logs`
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
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		var (
			e           model.AuditEntry
			detailsJSON []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.AdminID,
			&e.Action,
			&e.TargetUserID,
			&detailsJSON,
			&e.IPAddress,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &e.Details)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
