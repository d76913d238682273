package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

// ResetTokenStore is the persistence surface the reset service needs
type ResetTokenStore interface {
	Create(ctx context.Context, token *model.ResetToken) error
	Consume(ctx context.Context, tokenHash string) (*model.ResetToken, error)
	InvalidateAllForUser(ctx context.Context, userID string) error
	CountRecentByUserID(ctx context.Context, userID string, since time.Time) (int, error)
}

// ProfileLookup resolves identities by email for reset requests
type ProfileLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
}

// SessionRevoker deactivates sessions after a completed reset
type SessionRevoker interface {
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)
}

// ResetService manages the single-use password reset token lifecycle.
// It runs as the trusted reset workflow: the row-security layer
// delegates token validation (ownership, expiry, single-use) here.
type ResetService struct {
	store    ResetTokenStore
	profiles ProfileLookup
	sessions SessionRevoker
	engine   *authz.Engine
	audit    *AuditService
	cfg      *config.Config
	log      *logger.Logger
}

// NewResetService creates a new ResetService
func NewResetService(store ResetTokenStore, profiles ProfileLookup, sessions SessionRevoker, engine *authz.Engine, audit *AuditService, cfg *config.Config, log *logger.Logger) *ResetService {
	return &ResetService{
		store:    store,
		profiles: profiles,
		sessions: sessions,
		engine:   engine,
		audit:    audit,
		cfg:      cfg,
		log:      log.WithComponent("reset_service"),
	}
}

// Request creates a reset token for the identity behind the email and
// returns the raw token for delivery by the caller. Unknown emails
// return an empty token with no error, so callers cannot probe which
// emails exist.
func (s *ResetService) Request(ctx context.Context, email string, ipAddress *string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	profile, err := s.profiles.GetByEmail(ctx, normalized)
	if err != nil {
		s.log.Debug().Str("email", normalized).Msg("reset requested for unknown email")
		return "", nil
	}

	recent, err := s.store.CountRecentByUserID(ctx, profile.ID, time.Now().Add(-time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to check reset rate: %w", err)
	}
	if recent >= s.cfg.Security.ResetMaxPerHour {
		s.log.Warn().Str("user_id", profile.ID).Int("count", recent).Msg("too many reset requests")
		return "", nil
	}

	if err := s.engine.Can(ctx, authz.SystemActor(), authz.OpInsert, authz.ResourceResetToken, profile.ID); err != nil {
		return "", err
	}

	// A new request supersedes anything outstanding.
	if err := s.store.InvalidateAllForUser(ctx, profile.ID); err != nil {
		s.log.Error().Err(err).Msg("failed to invalidate prior reset tokens")
	}

	tokenRaw, err := generateSecureToken(32)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := &model.ResetToken{
		ID:        generateID("prt"),
		UserID:    profile.ID,
		TokenHash: hashToken(tokenRaw),
		ExpiresAt: now.Add(s.cfg.Security.ResetTokenTTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	s.audit.Record(ctx, nil, model.AuditActionResetRequested, &profile.ID, map[string]interface{}{
		"token_id": token.ID,
	}, ipAddress)

	return tokenRaw, nil
}

// Consume redeems a reset token. The check-and-set is a single atomic
// statement in the store, so exactly one of N concurrent attempts on
// the same token succeeds. A consumed token also ends every session of
// the user. Returns the identity the token belonged to.
func (s *ResetService) Consume(ctx context.Context, tokenRaw string, ipAddress *string) (string, error) {
	if err := s.engine.Can(ctx, authz.SystemActor(), authz.OpUpdate, authz.ResourceResetToken, ""); err != nil {
		return "", err
	}

	token, err := s.store.Consume(ctx, hashToken(tokenRaw))
	if err != nil {
		return "", err
	}

	if _, err := s.sessions.DeactivateAllForUser(ctx, token.UserID); err != nil {
		s.log.Error().Err(err).Str("user_id", token.UserID).Msg("failed to end sessions after reset")
	}

	s.audit.Record(ctx, nil, model.AuditActionResetConsumed, &token.UserID, map[string]interface{}{
		"token_id": token.ID,
	}, ipAddress)

	return token.UserID, nil
}

// IsTokenError reports whether the error is a terminal token outcome
// rather than an infrastructure failure
func IsTokenError(err error) bool {
	return errors.Is(err, repository.ErrTokenUsed) ||
		errors.Is(err, repository.ErrTokenExpired) ||
		errors.Is(err, repository.ErrNotFound)
}
