package handlers

import (
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/movienight-api/internal/domain/presence"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/middleware"
	"github.com/gravadigital/movienight-api/internal/response"
)

// PresenceHandler tracks who currently has the app open.
type PresenceHandler struct {
	presence presence.Repository
	now      func() time.Time
	log      *charmlog.Logger
}

// NewPresenceHandler wires the presence endpoints.
func NewPresenceHandler(repo presence.Repository) *PresenceHandler {
	return &PresenceHandler{
		presence: repo,
		now:      time.Now,
		log:      logger.Handler("presence_handler"),
	}
}

// Heartbeat handles POST /api/users/heartbeat. Clients call it
// periodically while the app is open.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.UnauthorizedError(c, "authentication required")
		return
	}

	if err := h.presence.Heartbeat(identity.UserID, identity.DisplayName, h.now()); err != nil {
		h.log.Error("Failed to record heartbeat", "user_id", identity.UserID, "error", err)
		response.InternalServerError(c, "Failed to record presence")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", nil)
}

// ActiveUsers handles GET /api/users/active.
func (h *PresenceHandler) ActiveUsers(c *gin.Context) {
	users, err := h.presence.ActiveSince(h.now().Add(-presence.ActiveWindow))
	if err != nil {
		h.log.Error("Failed to load active users", "error", err)
		response.InternalServerError(c, "Failed to load active users")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", users)
}
