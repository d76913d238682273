package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/repository"
	"github.com/userflow/userflow/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	db              *database.Postgres
	rdb             *database.Redis
	log             *logger.Logger
	cfg             *config.Config
	profileSvc      *service.ProfileService
	sessionSvc      *service.SessionService
	resetSvc        *service.ResetService
	auditSvc        *service.AuditService
	preferenceSvc   *service.PreferenceService
	provisioningSvc *service.ProvisioningService
}

// New creates a new Handler instance
func New(db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config, profileSvc *service.ProfileService, sessionSvc *service.SessionService, resetSvc *service.ResetService, auditSvc *service.AuditService, preferenceSvc *service.PreferenceService, provisioningSvc *service.ProvisioningService) *Handler {
	return &Handler{
		db:              db,
		rdb:             rdb,
		log:             log,
		cfg:             cfg,
		profileSvc:      profileSvc,
		sessionSvc:      sessionSvc,
		resetSvc:        resetSvc,
		auditSvc:        auditSvc,
		preferenceSvc:   preferenceSvc,
		provisioningSvc: provisioningSvc,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// actorFrom extracts the authenticated caller set by the auth middleware
func actorFrom(r *http.Request) (authz.Actor, bool) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok || (actor.ID == "" && !actor.System) {
		return authz.Actor{}, false
	}
	return actor, true
}

// writeServiceError maps service errors onto HTTP statuses. Authorization
// denials become 403 rather than 404 so callers can tell a denied row
// from a missing one; the engine already refused before any lookup.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, authz.ErrNoActor):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, authz.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "ALREADY_EXISTS", "The resource already exists")
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrMissingID),
		errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		h.log.Error().Err(err).Msg(fallbackMessage)
		writeError(w, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
