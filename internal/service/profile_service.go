package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

// ProfileStore is the persistence surface the profile service needs
type ProfileStore interface {
	Upsert(ctx context.Context, profile *model.Profile) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*model.Profile, error)
	Update(ctx context.Context, id string, update *model.ProfileUpdate) (*model.Profile, error)
	UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status *model.ProfileStatus) (*model.Profile, error)
	Delete(ctx context.Context, id string) error
}

// ProfileService implements the guarded profile operations. Every call
// passes through the authorization engine before touching storage.
type ProfileService struct {
	store  ProfileStore
	engine *authz.Engine
	audit  *AuditService
	log    *logger.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(store ProfileStore, engine *authz.Engine, audit *AuditService, log *logger.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		engine: engine,
		audit:  audit,
		log:    log.WithComponent("profile_service"),
	}
}

// Get returns a single profile: own row, or any row for admins
func (s *ProfileService) Get(ctx context.Context, actor authz.Actor, id string) (*model.Profile, error) {
	if err := s.engine.Can(ctx, actor, authz.OpSelect, authz.ResourceProfile, id); err != nil {
		s.log.PermissionDenied(actor.ID, "get", "profiles")
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// List returns profiles matching the filter. Listing crosses row
// boundaries, so it is admin-only.
func (s *ProfileService) List(ctx context.Context, actor authz.Actor, filter repository.ListFilter) ([]*model.Profile, error) {
	if err := s.engine.Can(ctx, actor, authz.OpSelect, authz.ResourceProfile, ""); err != nil {
		s.log.PermissionDenied(actor.ID, "list", "profiles")
		return nil, err
	}
	return s.store.List(ctx, filter)
}

// Update applies display-field changes to a profile: own row, or any
// row for admins. Role and status never travel through here.
func (s *ProfileService) Update(ctx context.Context, actor authz.Actor, id string, update *model.ProfileUpdate) (*model.Profile, error) {
	if err := s.engine.Can(ctx, actor, authz.OpUpdate, authz.ResourceProfile, id); err != nil {
		s.log.PermissionDenied(actor.ID, "update", "profiles")
		return nil, err
	}

	profile, err := s.store.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	// Self-service edits are not admin actions; only cross-row updates
	// land in the audit log.
	if actor.ID != id {
		s.audit.Record(ctx, adminRef(actor), model.AuditActionUserUpdate, &id, nil, nil)
	}
	return profile, nil
}

// SetRoleStatus changes the privileged columns of a profile. This is a
// distinct predicate from Update: row ownership is never sufficient.
func (s *ProfileService) SetRoleStatus(ctx context.Context, actor authz.Actor, id string, role *model.Role, status *model.ProfileStatus) (*model.Profile, error) {
	if role == nil && status == nil {
		return nil, fmt.Errorf("%w: no changes", ErrInvalidRole)
	}
	if role != nil && !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, *role)
	}
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}
	if err := s.engine.CanAssignRole(ctx, actor); err != nil {
		s.log.PermissionDenied(actor.ID, "set_role_status", "profiles")
		return nil, err
	}

	profile, err := s.store.UpdateRoleStatus(ctx, id, role, status)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{}
	action := model.AuditActionStatusChange
	if role != nil {
		action = model.AuditActionRoleChange
		details["role"] = string(*role)
	}
	if status != nil {
		details["status"] = string(*status)
	}
	s.audit.Record(ctx, adminRef(actor), action, &id, details, nil)
	return profile, nil
}

// Create inserts a profile directly, bypassing provisioning. Admin
// only; the regular signup path goes through the provisioning hook.
func (s *ProfileService) Create(ctx context.Context, actor authz.Actor, profile *model.Profile) (*model.Profile, error) {
	if profile.ID == "" {
		return nil, ErrMissingID
	}
	if !strings.Contains(profile.Email, "@") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, profile.Email)
	}
	if profile.Role == "" {
		profile.Role = model.RoleUser
	}
	if profile.Status == "" {
		profile.Status = model.StatusActive
	}
	if !profile.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, profile.Role)
	}
	if !profile.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, profile.Status)
	}
	if err := s.engine.Can(ctx, actor, authz.OpInsert, authz.ResourceProfile, profile.ID); err != nil {
		s.log.PermissionDenied(actor.ID, "create", "profiles")
		return nil, err
	}

	created, err := s.store.Upsert(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, repository.ErrDuplicate
	}

	s.audit.Record(ctx, adminRef(actor), model.AuditActionUserCreate, &profile.ID, map[string]interface{}{
		"email": profile.Email,
		"role":  string(profile.Role),
	}, nil)
	return s.store.GetByID(ctx, profile.ID)
}

// Delete removes a profile. Admin only. Sessions, reset tokens and
// preferences cascade away; audit references survive as nulls.
func (s *ProfileService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if err := s.engine.Can(ctx, actor, authz.OpDelete, authz.ResourceProfile, id); err != nil {
		s.log.PermissionDenied(actor.ID, "delete", "profiles")
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, adminRef(actor), model.AuditActionUserDelete, &id, nil, nil)
	return nil
}

// BulkSetStatus applies a status change across many profiles. Status is
// a privileged column, so the role-assignment predicate applies.
func (s *ProfileService) BulkSetStatus(ctx context.Context, actor authz.Actor, ids []string, status model.ProfileStatus) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.engine.CanAssignRole(ctx, actor); err != nil {
		s.log.PermissionDenied(actor.ID, "bulk_set_status", "profiles")
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if _, err := s.store.UpdateRoleStatus(ctx, id, nil, &status); err != nil {
			s.log.Warn().Err(err).Str("profile_id", id).Msg("bulk status update skipped row")
			continue
		}
		updated++
	}

	s.audit.Record(ctx, adminRef(actor), model.AuditActionUserBulkUpdate, nil, map[string]interface{}{
		"status":  string(status),
		"total":   len(ids),
		"updated": updated,
	}, nil)
	return updated, nil
}

// adminRef converts an actor into a nullable audit reference. System
// actors have no identity and record as null.
func adminRef(actor authz.Actor) *string {
	if actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}
