package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/userflow/userflow/internal/model"
)

// AdminListAudit handles GET /api/v1/admin/audit
func (h *Handler) AdminListAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	q := r.URL.Query()
	filter := model.AuditFilter{
		Action:       q.Get("action"),
		AdminID:      q.Get("admin_id"),
		TargetUserID: q.Get("target_user_id"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SINCE", "since must be RFC3339")
			return
		}
		filter.Since = t
	}
	if until := q.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_UNTIL", "until must be RFC3339")
			return
		}
		filter.Until = t
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}

	entries, err := h.auditSvc.List(r.Context(), actor, filter)
	if err != nil {
		h.writeServiceError(w, err, "LIST_AUDIT_FAILED", "Failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
