package service

import (
	"context"
	"fmt"
	"time"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
)

// AuditStore is the persistence surface the audit service needs
type AuditStore interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error)
}

// AuditService emits and lists append-only audit entries
type AuditService struct {
	store  AuditStore
	engine *authz.Engine
	log    *logger.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(store AuditStore, engine *authz.Engine, log *logger.Logger) *AuditService {
	return &AuditService{
		store:  store,
		engine: engine,
		log:    log.WithComponent("audit_service"),
	}
}

// Record emits an audit entry from a trusted code path. Emission is
// best-effort: a failed write is logged but never fails the operation
// being audited.
func (s *AuditService) Record(ctx context.Context, adminID *string, action string, targetUserID *string, details map[string]interface{}, ipAddress *string) {
	if err := s.engine.Can(ctx, authz.SystemActor(), authz.OpInsert, authz.ResourceAudit, ""); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("audit insert denied")
		return
	}

	entry := &model.AuditEntry{
		ID:           generateID("aud"),
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Details:      details,
		IPAddress:    ipAddress,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}

// List returns audit entries for an admin caller
func (s *AuditService) List(ctx context.Context, actor authz.Actor, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	if err := s.engine.Can(ctx, actor, authz.OpSelect, authz.ResourceAudit, ""); err != nil {
		s.log.PermissionDenied(actor.ID, "list", "audit_logs")
		return nil, err
	}
	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
