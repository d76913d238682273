package router

import (
	"net/http"
	"time"

	"github.com/userflow/userflow/internal/handler"
	"github.com/userflow/userflow/internal/identity"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/middleware"
	"github.com/userflow/userflow/internal/service"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, log *logger.Logger, verifier *identity.Verifier, sessionSvc *service.SessionService) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// API v1 routes
	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"UserFlow API v1","version":"0.1.0"}`))
	})

	authMw := mw.Auth(verifier, sessionSvc)

	// Session routes. Establishing requires a provider access token;
	// logout names the session by its own bearer token.
	sessionRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  10,
		Window: 1 * time.Minute,
		KeyFn:  middleware.IPKey,
	})
	mux.Handle("POST /api/v1/auth/sessions", sessionRateLimit(authMw(http.HandlerFunc(h.EstablishSession))))
	mux.Handle("POST /api/v1/auth/logout", http.HandlerFunc(h.Logout))

	// Self-service routes (authenticated)
	mux.Handle("GET /api/v1/me", authMw(http.HandlerFunc(h.Me)))
	mux.Handle("PUT /api/v1/me", authMw(http.HandlerFunc(h.UpdateMe)))
	mux.Handle("GET /api/v1/me/preferences", authMw(http.HandlerFunc(h.MyPreferences)))
	mux.Handle("PUT /api/v1/me/preferences", authMw(http.HandlerFunc(h.UpdateMyPreferences)))
	mux.Handle("GET /api/v1/me/sessions", authMw(http.HandlerFunc(h.MySessions)))
	mux.Handle("DELETE /api/v1/me/sessions/{id}", authMw(http.HandlerFunc(h.RevokeMySession)))

	// Admin routes (authenticated; the authorization engine enforces the
	// admin role per operation with a live role lookup)
	adminRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  60,
		Window: 1 * time.Minute,
		KeyFn:  middleware.ActorKey,
	})
	admin := func(next http.HandlerFunc) http.Handler {
		return authMw(adminRateLimit(next))
	}
	mux.Handle("GET /api/v1/admin/users", admin(h.AdminListUsers))
	mux.Handle("POST /api/v1/admin/users", admin(h.AdminCreateUser))
	mux.Handle("POST /api/v1/admin/users/bulk-status", admin(h.AdminBulkSetStatus))
	mux.Handle("GET /api/v1/admin/users/{id}", admin(h.AdminGetUser))
	mux.Handle("PUT /api/v1/admin/users/{id}", admin(h.AdminUpdateUser))
	mux.Handle("PATCH /api/v1/admin/users/{id}/access", admin(h.AdminSetRoleStatus))
	mux.Handle("DELETE /api/v1/admin/users/{id}", admin(h.AdminDeleteUser))
	mux.Handle("GET /api/v1/admin/users/{id}/sessions", admin(h.AdminListUserSessions))
	mux.Handle("DELETE /api/v1/admin/users/{id}/sessions", admin(h.AdminRevokeUserSessions))
	mux.Handle("DELETE /api/v1/admin/sessions/{id}", admin(h.AdminRevokeSession))
	mux.Handle("GET /api/v1/admin/audit", admin(h.AdminListAudit))

	// Provider hooks (shared-secret auth, rate limited per source)
	hookRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  120,
		Window: 1 * time.Minute,
		KeyFn:  middleware.IPKey,
	})
	hook := func(next http.HandlerFunc) http.Handler {
		return hookRateLimit(mw.ProvisioningAuth(next))
	}
	mux.Handle("POST /api/v1/hooks/identity-created", hook(h.IdentityCreated))
	mux.Handle("POST /api/v1/hooks/password-reset", hook(h.RequestPasswordReset))
	mux.Handle("POST /api/v1/hooks/password-reset/consume", hook(h.ConsumePasswordReset))

	// Apply middleware stack
	var root http.Handler = mux

	// CORS (configure allowed origins based on environment)
	root = mw.CORS([]string{"http://localhost:3000", "http://localhost:5173"})(root)

	// Security headers
	root = mw.SecurityHeaders(root)

	// Request logging
	root = mw.Logger(root)

	// Timing
	root = mw.Timing(root)

	// Request ID
	root = mw.RequestID(root)

	// Panic recovery (outermost)
	root = mw.Recover(root)

	return root
}
