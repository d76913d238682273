package handler

import (
	"net/http"
	"strconv"

	"github.com/userflow/userflow/internal/model"
	"github.com/userflow/userflow/internal/repository"
)

// AdminListUsers handles GET /api/v1/admin/users
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	q := r.URL.Query()
	filter := repository.ListFilter{
		Role:   model.Role(q.Get("role")),
		Status: model.ProfileStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}

	profiles, err := h.profileSvc.List(r.Context(), actor, filter)
	if err != nil {
		h.writeServiceError(w, err, "LIST_USERS_FAILED", "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": profiles,
		"count": len(profiles),
	})
}

// AdminGetUser handles GET /api/v1/admin/users/{id}
func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	profile, err := h.profileSvc.Get(r.Context(), actor, targetUserID)
	if err != nil {
		h.writeServiceError(w, err, "GET_USER_FAILED", "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AdminCreateUserRequest is the body for direct user creation
type AdminCreateUserRequest struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"fullName,omitempty"`
	Role     string  `json:"role,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// AdminCreateUser handles POST /api/v1/admin/users
func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req AdminCreateUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	profile := &model.Profile{
		ID:                 req.ID,
		Email:              req.Email,
		FullName:           req.FullName,
		Role:               model.Role(req.Role),
		Status:             model.ProfileStatus(req.Status),
		EmailNotifications: true,
	}
	created, err := h.profileSvc.Create(r.Context(), actor, profile)
	if err != nil {
		h.writeServiceError(w, err, "CREATE_USER_FAILED", "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AdminUpdateUser handles PUT /api/v1/admin/users/{id}
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	var update model.ProfileUpdate
	if err := readJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	profile, err := h.profileSvc.Update(r.Context(), actor, targetUserID, &update)
	if err != nil {
		h.writeServiceError(w, err, "UPDATE_USER_FAILED", "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AdminSetRoleStatusRequest is the body for privileged column changes
type AdminSetRoleStatusRequest struct {
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

// AdminSetRoleStatus handles PATCH /api/v1/admin/users/{id}/access
func (h *Handler) AdminSetRoleStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	var req AdminSetRoleStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	var role *model.Role
	if req.Role != nil {
		r := model.Role(*req.Role)
		role = &r
	}
	var status *model.ProfileStatus
	if req.Status != nil {
		s := model.ProfileStatus(*req.Status)
		status = &s
	}

	profile, err := h.profileSvc.SetRoleStatus(r.Context(), actor, targetUserID, role, status)
	if err != nil {
		h.writeServiceError(w, err, "SET_ACCESS_FAILED", "Failed to change user access")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AdminDeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	if err := h.profileSvc.Delete(r.Context(), actor, targetUserID); err != nil {
		h.writeServiceError(w, err, "DELETE_USER_FAILED", "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
		"user_id": targetUserID,
	})
}

// AdminBulkStatusRequest is the body for bulk status changes
type AdminBulkStatusRequest struct {
	UserIDs []string `json:"userIds"`
	Status  string   `json:"status"`
}

// AdminBulkSetStatus handles POST /api/v1/admin/users/bulk-status
func (h *Handler) AdminBulkSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req AdminBulkStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_USER_IDS", "At least one user ID is required")
		return
	}

	updated, err := h.profileSvc.BulkSetStatus(r.Context(), actor, req.UserIDs, model.ProfileStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err, "BULK_STATUS_FAILED", "Failed to update user statuses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requested": len(req.UserIDs),
		"updated":   updated,
	})
}

// AdminListUserSessions handles GET /api/v1/admin/users/{id}/sessions
func (h *Handler) AdminListUserSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	sessions, err := h.sessionSvc.List(r.Context(), actor, targetUserID)
	if err != nil {
		h.writeServiceError(w, err, "LIST_SESSIONS_FAILED", "Failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// AdminRevokeSession handles DELETE /api/v1/admin/sessions/{id}
func (h *Handler) AdminRevokeSession(w http.ResponseWriter, r *http.Request) {
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

// AdminRevokeUserSessions handles DELETE /api/v1/admin/users/{id}/sessions
func (h *Handler) AdminRevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	targetUserID := r.PathValue("id")
	if targetUserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	n, err := h.sessionSvc.RevokeAllForUser(r.Context(), actor, targetUserID)
	if err != nil {
		h.writeServiceError(w, err, "REVOKE_SESSIONS_FAILED", "Failed to revoke sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Sessions revoked successfully",
		"revoked": n,
	})
}
