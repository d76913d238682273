// Package authz implements the row-level authorization engine. Every
// read or write against the stores is decided here, per operation and
// per row, using the caller identity and a live role lookup. The same
// predicates exist as Postgres RLS policies in migrations/ for defense
// in depth; this engine is the authoritative check on the service path.
package authz

import (
	"context"
	"fmt"

	"github.com/userflow/userflow/internal/model"
)

// Operation is a row-level access verb
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Resource names a guarded table
type Resource string

const (
	ResourceProfile     Resource = "profiles"
	ResourceSession     Resource = "user_sessions"
	ResourceAudit       Resource = "audit_logs"
	ResourceResetToken  Resource = "password_reset_tokens"
	ResourcePreferences Resource = "user_preferences"
)

// RoleResolver resolves the current role of an identity. The engine
// calls it on every admin check; results must never be cached across
// requests because roles can change between them.
type RoleResolver interface {
	RoleOf(ctx context.Context, id string) (model.Role, error)
}

// Engine evaluates row-level access predicates
type Engine struct {
	roles RoleResolver
}

// NewEngine creates an Engine backed by the given role resolver
func NewEngine(roles RoleResolver) *Engine {
	return &Engine{roles: roles}
}

// Can decides whether the actor may perform op against a row of the
// given resource owned by ownerID. A nil return grants the operation;
// everything else denies it. Unknown resources and verbs deny.
func (e *Engine) Can(ctx context.Context, actor Actor, op Operation, res Resource, ownerID string) error {
	switch res {
	case ResourceProfile:
		switch op {
		case OpSelect, OpUpdate:
			if actor.ID != "" && actor.ID == ownerID {
				return nil
			}
			return e.requireAdmin(ctx, actor)
		case OpInsert, OpDelete:
			// Regular signup goes through the provisioning hook, which
			// runs as the system actor.
			if actor.System {
				return nil
			}
			return e.requireAdmin(ctx, actor)
		}

	case ResourceSession:
		switch op {
		case OpSelect:
			if actor.ID != "" && actor.ID == ownerID {
				return nil
			}
			return e.requireAdmin(ctx, actor)
		case OpInsert, OpUpdate:
			// The authentication flow validates before writing; admins
			// may deactivate sessions. Owners do not mutate sessions
			// directly.
			if actor.System {
				return nil
			}
			return e.requireAdmin(ctx, actor)
		}

	case ResourceAudit:
		switch op {
		case OpSelect:
			return e.requireAdmin(ctx, actor)
		case OpInsert:
			if actor.System {
				return nil
			}
		}
		// The audit log is append-only: no update or delete path.

	case ResourceResetToken:
		// The reset workflow validates ownership, expiry and single-use
		// itself; nothing else touches these rows.
		if actor.System {
			return nil
		}

	case ResourcePreferences:
		switch op {
		case OpSelect:
			if actor.ID != "" && actor.ID == ownerID {
				return nil
			}
			return e.requireAdmin(ctx, actor)
		case OpInsert, OpUpdate:
			if actor.System {
				return nil
			}
			if actor.ID != "" && actor.ID == ownerID {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s on %s", ErrPermissionDenied, op, res)
}

// CanAssignRole decides whether the actor may change a profile's role
// or status. This is deliberately distinct from the generic profile
// update predicate: row ownership alone must never be enough to touch
// the role column, or a user could promote themselves to admin.
func (e *Engine) CanAssignRole(ctx context.Context, actor Actor) error {
	if actor.System {
		return nil
	}
	return e.requireAdmin(ctx, actor)
}

// requireAdmin resolves the actor's current role and grants only if it
// is admin. Resolution failures deny.
func (e *Engine) requireAdmin(ctx context.Context, actor Actor) error {
	if actor.ID == "" {
		return ErrNoActor
	}
	role, err := e.roles.RoleOf(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("%w: role lookup failed", ErrPermissionDenied)
	}
	if role != model.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return nil
}
