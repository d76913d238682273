package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

// ProvisioningService reacts to new-identity creation by materializing
// the dependent rows. It is the explicit, transactional equivalent of a
// database trigger: the profile and preferences inserts share one
// transaction, so an identity is never left half-provisioned.
type ProvisioningService struct {
	db       *database.Postgres
	profiles *repository.ProfileRepository
	prefs    *repository.PreferenceRepository
	audit    *AuditService
	log      *logger.Logger
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(db *database.Postgres, profiles *repository.ProfileRepository, prefs *repository.PreferenceRepository, audit *AuditService, log *logger.Logger) *ProvisioningService {
	return &ProvisioningService{
		db:       db,
		profiles: profiles,
		prefs:    prefs,
		audit:    audit,
		log:      log.WithComponent("provisioning_service"),
	}
}

// IdentityCreated materializes exactly one Profile and one Preferences
// row for a freshly created identity. Safe under retries and under
// concurrent duplicate deliveries: the inserts are conflict-tolerant
// upserts on the identity key. Returns whether a profile was created.
func (s *ProvisioningService) IdentityCreated(ctx context.Context, identity model.Identity) (bool, error) {
	if identity.ID == "" {
		return false, ErrMissingID
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if !strings.Contains(email, "@") {
		return false, fmt.Errorf("%w: %q", ErrInvalidEmail, identity.Email)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin provisioning transaction: %w", err)
	}
	defer tx.Rollback()

	profile := &model.Profile{
		ID:                 identity.ID,
		Email:              email,
		FullName:           identity.FullName(),
		Role:               model.RoleUser,
		Status:             model.StatusActive,
		EmailNotifications: true,
	}
	created, err := s.profiles.WithTx(tx).Upsert(ctx, profile)
	if err != nil {
		return false, fmt.Errorf("provisioning failed: %w", err)
	}

	prefs := model.DefaultPreferences(identity.ID)
	prefs.ID = generateID("prf")
	if err := s.prefs.WithTx(tx).Upsert(ctx, prefs); err != nil {
		return false, fmt.Errorf("provisioning failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit provisioning transaction: %w", err)
	}

	if created {
		s.audit.Record(ctx, nil, model.AuditActionProfileProvisioned, &identity.ID, map[string]interface{}{
			"email": email,
		}, nil)
		s.log.Info().Str("user_id", identity.ID).Msg("profile provisioned")
	}
	return created, nil
}
