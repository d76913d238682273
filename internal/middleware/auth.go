package middleware

import (
	"net/http"
	"strings"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/identity"
	"github.com/userflow/userflow/internal/service"
)

// Auth creates an authentication middleware. It accepts either a
// provider-issued JWT or an opaque session token in the Authorization
// header and attaches the resulting actor to the request context. No
// role is resolved here: the engine looks roles up live, per check.
func (m *Middleware) Auth(verifier *identity.Verifier, sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			// 1. Try Authorization header first
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					tokenString = parts[1]
				}
			}

			// 2. Fall back to cookie
			if tokenString == "" {
				if cookie, err := r.Cookie("userflow_session"); err == nil && cookie.Value != "" {
					tokenString = cookie.Value
				}
			}

			if tokenString == "" {
				http.Error(w, `{"error":{"code":"unauthorized","message":"Authentication required"}}`, http.StatusUnauthorized)
				return
			}

			actor, ok := m.resolveActor(r, verifier, sessions, tokenString)
			if !ok {
				http.Error(w, `{"error":{"code":"unauthorized","message":"The credential is invalid or expired"}}`, http.StatusUnauthorized)
				return
			}

			ctx := authz.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveActor tries the credential as a provider JWT, then as an
// opaque session token
func (m *Middleware) resolveActor(r *http.Request, verifier *identity.Verifier, sessions *service.SessionService, tokenString string) (authz.Actor, bool) {
	if verifier != nil && strings.Count(tokenString, ".") == 2 {
		claims, err := verifier.Verify(tokenString)
		if err == nil {
			return authz.Actor{ID: claims.Subject}, true
		}
		m.log.Debug().Err(err).Msg("access token verification failed")
	}

	if sessions != nil {
		session, err := sessions.Resolve(r.Context(), tokenString)
		if err == nil {
			return authz.Actor{ID: session.UserID}, true
		}
		m.log.Debug().Err(err).Msg("session token resolution failed")
	}

	return authz.Actor{}, false
}

// ProvisioningAuth guards the identity-provider webhook with the shared
// provisioning secret. Webhook calls run as the system actor.
func (m *Middleware) ProvisioningAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := m.cfg.Identity.ProvisioningSecret
		if secret == "" || r.Header.Get("X-Provisioning-Secret") != secret {
			http.Error(w, `{"error":{"code":"unauthorized","message":"Authentication required"}}`, http.StatusUnauthorized)
			return
		}

		ctx := authz.ContextWithActor(r.Context(), authz.SystemActor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
