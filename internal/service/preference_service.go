package service

import (
	"context"
	"fmt"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
)

// PreferenceStore is the persistence surface the preference service needs
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.Preferences, error)
	Update(ctx context.Context, userID string, prefs *model.Preferences) error
}

// PreferenceService implements guarded access to per-user settings
type PreferenceService struct {
	store  PreferenceStore
	engine *authz.Engine
	log    *logger.Logger
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(store PreferenceStore, engine *authz.Engine, log *logger.Logger) *PreferenceService {
	return &PreferenceService{
		store:  store,
		engine: engine,
		log:    log.WithComponent("preference_service"),
	}
}

// Get returns a user's preferences: own row, or any row for admins
func (s *PreferenceService) Get(ctx context.Context, actor authz.Actor, userID string) (*model.Preferences, error) {
	if err := s.engine.Can(ctx, actor, authz.OpSelect, authz.ResourcePreferences, userID); err != nil {
		s.log.PermissionDenied(actor.ID, "get", "user_preferences")
		return nil, err
	}
	return s.store.GetByUserID(ctx, userID)
}

// Update replaces a user's preferences. Owner only.
func (s *PreferenceService) Update(ctx context.Context, actor authz.Actor, userID string, prefs *model.Preferences) error {
	if prefs.Theme != "" && !prefs.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, prefs.Theme)
	}
	if err := s.engine.Can(ctx, actor, authz.OpUpdate, authz.ResourcePreferences, userID); err != nil {
		s.log.PermissionDenied(actor.ID, "update", "user_preferences")
		return err
	}
	return s.store.Update(ctx, userID, prefs)
}
