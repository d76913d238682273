package handler

import (
	"net/http"

	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/service"
)

// IdentityCreated handles POST /api/v1/hooks/identity-created. The
// identity provider calls it after creating an identity; the hook
// materializes the profile and default preferences atomically. Safe to
// retry: redelivery is a no-op.
func (h *Handler) IdentityCreated(w http.ResponseWriter, r *http.Request) {
	var identity model.Identity
	if err := readJSON(r, &identity); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	created, err := h.provisioningSvc.IdentityCreated(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, err, "PROVISIONING_FAILED", "Failed to provision identity")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"user_id": identity.ID,
		"created": created,
	})
}

// PasswordResetRequest is the body for reset token issuance
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /api/v1/hooks/password-reset. The
// trusted caller delivers the returned token to the user; an unknown
// email yields an empty token, never an error.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMAIL", "Email is required")
		return
	}

	ipAddress := clientIP(r)
	tokenRaw, err := h.resetSvc.Request(r.Context(), req.Email, &ipAddress)
	if err != nil {
		h.writeServiceError(w, err, "RESET_REQUEST_FAILED", "Failed to create reset token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":  tokenRaw,
		"issued": tokenRaw != "",
	})
}

// PasswordResetConsume is the body for reset token redemption
type PasswordResetConsume struct {
	Token string `json:"token"`
}

// ConsumePasswordReset handles POST /api/v1/hooks/password-reset/consume.
// The trusted caller redeems the token after the user proved possession;
// redemption is single-use and ends every session of the user.
func (h *Handler) ConsumePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConsume
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Token is required")
		return
	}

	ipAddress := clientIP(r)
	userID, err := h.resetSvc.Consume(r.Context(), req.Token, &ipAddress)
	if err != nil {
		if service.IsTokenError(err) {
			writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "The reset token is invalid, expired, or already used")
			return
		}
		h.writeServiceError(w, err, "RESET_CONSUME_FAILED", "Failed to redeem reset token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
	})
}
