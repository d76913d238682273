package handler

import (
	"net/http"

	"github.com/userflow/userflow/internal/model"
)

// Me handles GET /api/v1/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profile, err := h.profileSvc.Get(r.Context(), actor, actor.ID)
	if err != nil {
		h.writeServiceError(w, err, "GET_PROFILE_FAILED", "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/v1/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var update model.ProfileUpdate
	if err := readJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	profile, err := h.profileSvc.Update(r.Context(), actor, actor.ID, &update)
	if err != nil {
		h.writeServiceError(w, err, "UPDATE_PROFILE_FAILED", "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// MyPreferences handles GET /api/v1/me/preferences
func (h *Handler) MyPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	prefs, err := h.preferenceSvc.Get(r.Context(), actor, actor.ID)
	if err != nil {
		h.writeServiceError(w, err, "GET_PREFERENCES_FAILED", "Failed to get preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdateMyPreferences handles PUT /api/v1/me/preferences
func (h *Handler) UpdateMyPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var prefs model.Preferences
	if err := readJSON(r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	if err := h.preferenceSvc.Update(r.Context(), actor, actor.ID, &prefs); err != nil {
		h.writeServiceError(w, err, "UPDATE_PREFERENCES_FAILED", "Failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Preferences updated successfully",
	})
}

// MySessions handles GET /api/v1/me/sessions
func (h *Handler) MySessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	sessions, err := h.sessionSvc.List(r.Context(), actor, actor.ID)
	if err != nil {
		h.writeServiceError(w, err, "LIST_SESSIONS_FAILED", "Failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// RevokeMySession handles DELETE /api/v1/me/sessions/{id}
func (h *Handler) RevokeMySession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "Session ID is required")
		return
	}

	if err := h.sessionSvc.Revoke(r.Context(), actor, sessionID); err != nil {
		h.writeServiceError(w, err, "REVOKE_SESSION_FAILED", "Failed to revoke session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Session revoked successfully",
		"session_id": sessionID,
	})
}
