package handler

import (
	"net/http"
	"strings"
	"time"
)

// SessionResponse carries a freshly established session and its raw
// token. The token appears exactly once, here.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// EstablishSession handles POST /api/v1/auth/sessions. The caller
// authenticates with a provider-issued access token; the response is an
// opaque session token for subsequent requests.
func (h *Handler) EstablishSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	ipAddress := clientIP(r)
	userAgent := r.UserAgent()
	var uaRef *string
	if userAgent != "" {
		uaRef = &userAgent
	}

	session, tokenRaw, err := h.sessionSvc.Establish(r.Context(), actor.ID, &ipAddress, uaRef)
	if err != nil {
		h.writeServiceError(w, err, "ESTABLISH_SESSION_FAILED", "Failed to establish session")
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: session.ID,
		Token:     tokenRaw,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /api/v1/auth/logout. The bearer token names the
// session to end.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenRaw := bearerToken(r)
	if tokenRaw == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.sessionSvc.Logout(r.Context(), tokenRaw); err != nil {
		h.writeServiceError(w, err, "LOGOUT_FAILED", "Failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logged out successfully",
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
