package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userflow/userflow/internal/model"
)

type fakeResolver struct {
	roles map[string]model.Role
	err   error
	calls int
}

func (f *fakeResolver) RoleOf(ctx context.Context, id string) (model.Role, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[id]
	if !ok {
		return "", errors.New("no such profile")
	}
	return role, nil
}

func newTestEngine(roles map[string]model.Role) (*Engine, *fakeResolver) {
	r := &fakeResolver{roles: roles}
	return NewEngine(r), r
}

func TestProfilePredicates(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
		"mod1":   model.RoleModerator,
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   Actor
		op      Operation
		ownerID string
		allowed bool
	}{
		{"owner reads own profile", Actor{ID: "userX"}, OpSelect, "userX", true},
		{"owner updates own profile", Actor{ID: "userX"}, OpUpdate, "userX", true},
		{"user reads another profile", Actor{ID: "userX"}, OpSelect, "userY", false},
		{"user updates another profile", Actor{ID: "userX"}, OpUpdate, "userY", false},
		{"admin reads any profile", Actor{ID: "admin1"}, OpSelect, "userX", true},
		{"admin updates any profile", Actor{ID: "admin1"}, OpUpdate, "userX", true},
		{"admin inserts profile", Actor{ID: "admin1"}, OpInsert, "userY", true},
		{"user inserts profile", Actor{ID: "userX"}, OpInsert, "userX", false},
		{"admin deletes profile", Actor{ID: "admin1"}, OpDelete, "userX", true},
		{"user deletes own profile", Actor{ID: "userX"}, OpDelete, "userX", false},
		{"moderator reads another profile", Actor{ID: "mod1"}, OpSelect, "userX", false},
		{"provisioning inserts profile", SystemActor(), OpInsert, "userX", true},
		{"anonymous reads profile", Actor{}, OpSelect, "userX", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Can(ctx, tt.actor, tt.op, ResourceProfile, tt.ownerID)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSessionPredicates(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
	})
	ctx := context.Background()

	assert.NoError(t, engine.Can(ctx, Actor{ID: "userX"}, OpSelect, ResourceSession, "userX"))
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpSelect, ResourceSession, "userY"))
	assert.NoError(t, engine.Can(ctx, Actor{ID: "admin1"}, OpSelect, ResourceSession, "userX"))

	// Owners do not mutate their sessions directly; the auth flow and
	// admins do.
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpUpdate, ResourceSession, "userX"))
	assert.NoError(t, engine.Can(ctx, SystemActor(), OpInsert, ResourceSession, "userX"))
	assert.NoError(t, engine.Can(ctx, SystemActor(), OpUpdate, ResourceSession, "userX"))
	assert.NoError(t, engine.Can(ctx, Actor{ID: "admin1"}, OpUpdate, ResourceSession, "userX"))
}

func TestAuditPredicates(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
	})
	ctx := context.Background()

	assert.NoError(t, engine.Can(ctx, Actor{ID: "admin1"}, OpSelect, ResourceAudit, ""))
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpSelect, ResourceAudit, ""))
	assert.NoError(t, engine.Can(ctx, SystemActor(), OpInsert, ResourceAudit, ""))
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpInsert, ResourceAudit, ""))

	// Append-only: nobody updates or deletes audit rows, not even admins.
	assert.Error(t, engine.Can(ctx, Actor{ID: "admin1"}, OpUpdate, ResourceAudit, ""))
	assert.Error(t, engine.Can(ctx, Actor{ID: "admin1"}, OpDelete, ResourceAudit, ""))
	assert.Error(t, engine.Can(ctx, SystemActor(), OpUpdate, ResourceAudit, ""))
	assert.Error(t, engine.Can(ctx, SystemActor(), OpDelete, ResourceAudit, ""))
}

func TestResetTokenPredicates(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
	})
	ctx := context.Background()

	for _, op := range []Operation{OpSelect, OpInsert, OpUpdate, OpDelete} {
		assert.NoError(t, engine.Can(ctx, SystemActor(), op, ResourceResetToken, "userX"), string(op))
		assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, op, ResourceResetToken, "userX"), string(op))
		assert.Error(t, engine.Can(ctx, Actor{ID: "admin1"}, op, ResourceResetToken, "userX"), string(op))
	}
}

func TestPreferencesPredicates(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
	})
	ctx := context.Background()

	assert.NoError(t, engine.Can(ctx, Actor{ID: "userX"}, OpSelect, ResourcePreferences, "userX"))
	assert.NoError(t, engine.Can(ctx, Actor{ID: "userX"}, OpUpdate, ResourcePreferences, "userX"))
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpSelect, ResourcePreferences, "userY"))
	assert.Error(t, engine.Can(ctx, Actor{ID: "userX"}, OpUpdate, ResourcePreferences, "userY"))
	assert.NoError(t, engine.Can(ctx, Actor{ID: "admin1"}, OpSelect, ResourcePreferences, "userX"))
	assert.NoError(t, engine.Can(ctx, SystemActor(), OpInsert, ResourcePreferences, "userX"))
}

func TestRoleAssignmentIsDistinctFromProfileUpdate(t *testing.T) {
	engine, _ := newTestEngine(map[string]model.Role{
		"admin1": model.RoleAdmin,
		"userX":  model.RoleUser,
	})
	ctx := context.Background()

	// A user may update their own profile row...
	require.NoError(t, engine.Can(ctx, Actor{ID: "userX"}, OpUpdate, ResourceProfile, "userX"))
	// ...but never their own role or status.
	assert.ErrorIs(t, engine.CanAssignRole(ctx, Actor{ID: "userX"}), ErrPermissionDenied)
	assert.NoError(t, engine.CanAssignRole(ctx, Actor{ID: "admin1"}))
	assert.NoError(t, engine.CanAssignRole(ctx, SystemActor()))
}

func TestRoleResolutionIsLive(t *testing.T) {
	engine, resolver := newTestEngine(map[string]model.Role{
		"u1": model.RoleAdmin,
	})
	ctx := context.Background()

	require.NoError(t, engine.Can(ctx, Actor{ID: "u1"}, OpSelect, ResourceProfile, "other"))
	before := resolver.calls

	// Demote between requests; the next check must see the new role.
	resolver.roles["u1"] = model.RoleUser
	assert.Error(t, engine.Can(ctx, Actor{ID: "u1"}, OpSelect, ResourceProfile, "other"))
	assert.Greater(t, resolver.calls, before)
}

func TestResolverFailureFailsClosed(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("database down")}
	engine := NewEngine(resolver)
	ctx := context.Background()

	err := engine.Can(ctx, Actor{ID: "u1"}, OpSelect, ResourceProfile, "other")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestActorContextRoundTrip(t *testing.T) {
	ctx := ContextWithActor(context.Background(), Actor{ID: "u1"})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", actor.ID)

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)
}
