package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"glasspro-backend/repositories"
	"glasspro-backend/services"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

// Handler serves the HTTP API. Every request gets its own session bound to
// the tenant id that AuthMiddleware put into the context.
type Handler struct {
	store         store.SyncedStore
	accounts      *repositories.AccountRepository
	notifications *services.NotificationService
	jwtSecret     string
	jwtExpiry     time.Duration
	now           func() time.Time
}

func NewHandler(st store.SyncedStore, notifications *services.NotificationService, jwtSecret string, jwtExpiry time.Duration) *Handler {
	return &Handler{
		store:         st,
		accounts:      repositories.NewAccountRepository(st),
		notifications: notifications,
		jwtSecret:     jwtSecret,
		jwtExpiry:     jwtExpiry,
		now:           time.Now,
	}
}

func (h *Handler) session(c *gin.Context) *store.Session {
	return store.NewSession(c.GetString(utils.ContextTenantID), h.store)
}

func (h *Handler) jobService(c *gin.Context) *services.JobService {
	return services.NewJobService(h.session(c))
}

// bindJSON decodes the body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return false
	}
	return true
}

// respondError maps repository, store and service errors to a status code
// and a single JSON error message.
func respondError(c *gin.Context, err error) {
	var verr *repositories.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, repositories.ErrOptionNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Workflow option not found")
	case errors.Is(err, repositories.ErrUnknownList), errors.Is(err, store.ErrUnknownCollection):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNoTenant), errors.Is(err, store.ErrPermissionDenied):
		utils.RespondWithError(c, http.StatusForbidden, "Permission denied")
	case errors.Is(err, repositories.ErrAccountExists), errors.Is(err, store.ErrAlreadyExists):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, repositories.ErrInvalidCredentials):
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, store.ErrStoreUnavailable), errors.Is(err, services.ErrSMSDisabled):
		utils.Logger.WithError(err).Warnf("%s %s unavailable", c.Request.Method, c.FullPath())
		utils.RespondWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		utils.Logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
