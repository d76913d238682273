package authz

import "context"

// Actor identifies the caller of a guarded operation. It is attached to
// the request context by the authentication middleware and passed
// explicitly into the engine; there is no ambient global identity.
type Actor struct {
	// ID is the external identity key of the caller. Empty for
	// unauthenticated callers.
	ID string
	// System marks the trusted authentication/audit code paths that run
	// with elevated trust and perform their own validation before
	// issuing writes.
	System bool
}

// SystemActor returns the actor used by trusted internal flows
func SystemActor() Actor {
	return Actor{System: true}
}

type actorContextKey struct{}

// ContextWithActor attaches the caller identity to the context
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the caller identity from the context
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	v, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok {
		return Actor{}, false
	}
	return v, true
}
