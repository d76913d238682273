package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/model"
)

// RevokedChannel carries session revocation events for interested
// listeners (cache purgers, websocket closers)
const RevokedChannel = "userflow:session:revoked"

// RevocationEvent is published when a session is deactivated
type RevocationEvent struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// SessionStore is the persistence surface the session service needs
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetUsableByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListByUserID(ctx context.Context, userID string) ([]*model.Session, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateByTokenHash(ctx context.Context, tokenHash string) error
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)
}

// LoginRecorder stamps the profile's last login
type LoginRecorder interface {
	UpdateLastLogin(ctx context.Context, id string) error
}

// Publisher sends revocation events. Satisfied by database.Redis.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// SessionService manages the login session lifecycle. Session writes
// arrive only from the authentication flow (system actor) or admins;
// all writes still pass through the authorization engine.
type SessionService struct {
	store    SessionStore
	profiles LoginRecorder
	engine   *authz.Engine
	audit    *AuditService
	pub      Publisher
	cfg      *config.Config
	log      *logger.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(store SessionStore, profiles LoginRecorder, engine *authz.Engine, audit *AuditService, pub Publisher, cfg *config.Config, log *logger.Logger) *SessionService {
	return &SessionService{
		store:    store,
		profiles: profiles,
		engine:   engine,
		audit:    audit,
		pub:      pub,
		cfg:      cfg,
		log:      log.WithComponent("session_service"),
	}
}

// Establish creates a session for an authenticated identity and returns
// it with the raw token. The raw token is not recoverable afterwards.
func (s *SessionService) Establish(ctx context.Context, userID string, ipAddress, userAgent *string) (*model.Session, string, error) {
	if err := s.engine.Can(ctx, authz.SystemActor(), authz.OpInsert, authz.ResourceSession, userID); err != nil {
		return nil, "", err
	}

	tokenRaw, err := generateSecureToken(32)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	session := &model.Session{
		ID:        generateID("ses"),
		UserID:    userID,
		TokenHash: hashToken(tokenRaw),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Security.SessionTTL),
		IsActive:  true,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to establish session: %w", err)
	}

	if err := s.profiles.UpdateLastLogin(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to record last login")
	}
	s.audit.Record(ctx, nil, model.AuditActionLogin, &userID, nil, ipAddress)

	return session, tokenRaw, nil
}

// Resolve validates a raw session token and returns the session if it
// is still usable. The query enforces both the active flag and expiry.
func (s *SessionService) Resolve(ctx context.Context, tokenRaw string) (*model.Session, error) {
	return s.store.GetUsableByTokenHash(ctx, hashToken(tokenRaw))
}

// List returns a user's sessions: own sessions, or any user's for admins
func (s *SessionService) List(ctx context.Context, actor authz.Actor, userID string) ([]*model.Session, error) {
	if err := s.engine.Can(ctx, actor, authz.OpSelect, authz.ResourceSession, userID); err != nil {
		s.log.PermissionDenied(actor.ID, "list", "user_sessions")
		return nil, err
	}
	return s.store.ListByUserID(ctx, userID)
}

// Revoke deactivates a single session. Deactivation is terminal.
func (s *SessionService) Revoke(ctx context.Context, actor authz.Actor, sessionID string) error {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.engine.Can(ctx, actor, authz.OpUpdate, authz.ResourceSession, session.UserID); err != nil {
		s.log.PermissionDenied(actor.ID, "revoke", "user_sessions")
		return err
	}
	if err := s.store.Deactivate(ctx, sessionID); err != nil {
		return err
	}

	s.publishRevocation(ctx, sessionID, session.UserID, "revoked")
	s.audit.Record(ctx, adminRef(actor), model.AuditActionSessionRevoked, &session.UserID, map[string]interface{}{
		"session_id": sessionID,
	}, nil)
	return nil
}

// RevokeAllForUser deactivates every active session of a user
func (s *SessionService) RevokeAllForUser(ctx context.Context, actor authz.Actor, userID string) (int64, error) {
	if err := s.engine.Can(ctx, actor, authz.OpUpdate, authz.ResourceSession, userID); err != nil {
		s.log.PermissionDenied(actor.ID, "revoke_all", "user_sessions")
		return 0, err
	}
	n, err := s.store.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.publishRevocation(ctx, "", userID, "revoked_all")
	s.audit.Record(ctx, adminRef(actor), model.AuditActionSessionRevokedAll, &userID, map[string]interface{}{
		"count": n,
	}, nil)
	return n, nil
}

// Logout deactivates the session identified by its raw token. Called by
// the authentication flow on sign-out.
func (s *SessionService) Logout(ctx context.Context, tokenRaw string) error {
	if err := s.engine.Can(ctx, authz.SystemActor(), authz.OpUpdate, authz.ResourceSession, ""); err != nil {
		return err
	}
	return s.store.DeactivateByTokenHash(ctx, hashToken(tokenRaw))
}

func (s *SessionService) publishRevocation(ctx context.Context, sessionID, userID, reason string) {
	if s.pub == nil {
		return
	}
	event := RevocationEvent{
		SessionID: sessionID,
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, RevokedChannel, string(payload)); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish revocation event")
	}
}
