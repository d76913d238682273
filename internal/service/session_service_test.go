package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

func newSessionService(h *testHarness) *SessionService {
	return NewSessionService(h.sessions, h.profiles, h.engine, h.audit, h.pub, testConfig(), testLogger())
}

func TestSessionService_EstablishAndResolve(t *testing.T) {
	h := newTestHarness()
	svc := newSessionService(h)
	ctx := context.Background()
	ip := "203.0.113.7"

	session, tokenRaw, err := svc.Establish(ctx, "userX", &ip, nil)
	require.NoError(t, err)
	require.NotEmpty(t, tokenRaw)
	assert.True(t, session.IsActive)
	assert.NotEqual(t, tokenRaw, session.TokenHash, "stored hash must not be the raw token")

	resolved, err := svc.Resolve(ctx, tokenRaw)
	require.NoError(t, err)
	assert.Equal(t, session.ID, resolved.ID)
	assert.Equal(t, "userX", resolved.UserID)

	// Last login is stamped as part of establishment.
	p, err := h.profiles.GetByID(ctx, "userX")
	require.NoError(t, err)
	assert.NotNil(t, p.LastLogin)
	assert.Equal(t, []string{model.AuditActionLogin}, h.audits.actions())
}

func TestSessionService_ResolveUnknownToken(t *testing.T) {
	h := newTestHarness()
	svc := newSessionService(h)

	_, err := svc.Resolve(context.Background(), "never-issued")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionService_List(t *testing.T) {
	h := newTestHarness()
	svc := newSessionService(h)
	ctx := context.Background()

	_, _, err := svc.Establish(ctx, "userX", nil, nil)
	require.NoError(t, err)
	_, _, err = svc.Establish(ctx, "userX", nil, nil)
	require.NoError(t, err)

	t.Run("owner lists own sessions", func(t *testing.T) {
		sessions, err := svc.List(ctx, authz.Actor{ID: "userX"}, "userX")
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("admin lists any user's sessions", func(t *testing.T) {
		sessions, err := svc.List(ctx, authz.Actor{ID: "admin1"}, "userX")
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("user cannot list another user's sessions", func(t *testing.T) {
		_, err := svc.List(ctx, authz.Actor{ID: "userY"}, "userX")
		assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	})
}

func TestSessionService_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("admin revokes and the event is published", func(t *testing.T) {
		h := newTestHarness()
		svc := newSessionService(h)

		session, tokenRaw, err := svc.Establish(ctx, "userX", nil, nil)
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(ctx, authz.Actor{ID: "admin1"}, session.ID))

		_, err = svc.Resolve(ctx, tokenRaw)
		assert.ErrorIs(t, err, repository.ErrNotFound, "revoked session must not resolve")

		require.Len(t, h.pub.messages, 1)
		var event RevocationEvent
		require.NoError(t, json.Unmarshal([]byte(h.pub.messages[0]), &event))
		assert.Equal(t, session.ID, event.SessionID)
		assert.Equal(t, "userX", event.UserID)
		assert.Contains(t, h.audits.actions(), model.AuditActionSessionRevoked)
	})

	t.Run("user cannot revoke another user's session", func(t *testing.T) {
		h := newTestHarness()
		svc := newSessionService(h)

		session, _, err := svc.Establish(ctx, "userX", nil, nil)
		require.NoError(t, err)

		err = svc.Revoke(ctx, authz.Actor{ID: "userY"}, session.ID)
		assert.ErrorIs(t, err, authz.ErrPermissionDenied)
	})

	t.Run("revocation is terminal", func(t *testing.T) {
		h := newTestHarness()
		svc := newSessionService(h)

		session, _, err := svc.Establish(ctx, "userX", nil, nil)
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(ctx, authz.Actor{ID: "userX"}, session.ID))
		err = svc.Revoke(ctx, authz.Actor{ID: "userX"}, session.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSessionService_RevokeAllForUser(t *testing.T) {
	h := newTestHarness()
	svc := newSessionService(h)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.Establish(ctx, "userX", nil, nil)
		require.NoError(t, err)
	}

	n, err := svc.RevokeAllForUser(ctx, authz.Actor{ID: "userX"}, "userX")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Contains(t, h.audits.actions(), model.AuditActionSessionRevokedAll)

	// Idempotent on a user with nothing left active.
	n, err = svc.RevokeAllForUser(ctx, authz.Actor{ID: "userX"}, "userX")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionService_Logout(t *testing.T) {
	h := newTestHarness()
	svc := newSessionService(h)
	ctx := context.Background()

	_, tokenRaw, err := svc.Establish(ctx, "userX", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokenRaw))
	_, err = svc.Resolve(ctx, tokenRaw)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, svc.Logout(ctx, tokenRaw), repository.ErrNotFound)
}
