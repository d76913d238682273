package model

import "time"

// AuditEntry is an append-only record of an administrative action.
// Actor and target references are nullable so the history outlives the
// identities it mentions.
type AuditEntry struct {
	ID           string                 `json:"id"`
	AdminID      *string                `json:"adminId,omitempty"`
	Action       string                 `json:"action"`
	TargetUserID *string                `json:"targetUserId,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	IPAddress    *string                `json:"ipAddress,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Audit action constants
const (
	AuditActionUserCreate         = "user.create"
	AuditActionUserUpdate         = "user.update"
	AuditActionUserDelete         = "user.delete"
	AuditActionUserBulkUpdate     = "user.bulk_update"
	AuditActionRoleChange         = "user.role_change"
	AuditActionStatusChange       = "user.status_change"
	AuditActionProfileProvisioned = "user.provisioned"
	AuditActionLogin              = "session.login"
	AuditActionSessionRevoked     = "session.revoked"
	AuditActionSessionRevokedAll  = "session.revoked_all"
	AuditActionResetRequested     = "password_reset.requested"
	AuditActionResetConsumed      = "password_reset.consumed"
)

// AuditFilter narrows audit log listings. Zero values mean no filter.
type AuditFilter struct {
	Action       string
	AdminID      string
	TargetUserID string
	Since        time.Time
	Until        time.Time
	Limit        int
	Offset       int
}
