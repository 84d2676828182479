package handlers

import (
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/metrics"
	"github.com/gravadigital/movienight-api/internal/middleware"
	"github.com/gravadigital/movienight-api/internal/response"
	"github.com/gravadigital/movienight-api/internal/validation"
)

// AdminHandler serves the admin overrides: skipping the wait for stragglers,
// resetting a broken day and tuning the group settings.
type AdminHandler struct {
	cycles   cycle.Repository
	settings cycle.SettingsRepository
	bus      bus.Bus
	loc      *time.Location
	now      func() time.Time
	log      *charmlog.Logger
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(cycles cycle.Repository, settings cycle.SettingsRepository, changeBus bus.Bus, loc *time.Location) *AdminHandler {
	return &AdminHandler{
		cycles:   cycles,
		settings: settings,
		bus:      changeBus,
		loc:      loc,
		now:      time.Now,
		log:      logger.Handler("admin_handler"),
	}
}

func (a *AdminHandler) activeCycleID() string {
	return cycle.ActiveCycleID(a.now().In(a.loc))
}

// ForceAdvance handles POST /api/admin/cycle/advance. The only supported
// override is closing nominations early: voting completion already has a
// deterministic winner requirement, and the reveal hold is cosmetic.
func (a *AdminHandler) ForceAdvance(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	cycleID := a.activeCycleID()

	current, err := a.cycles.Get(cycleID)
	if err != nil {
		response.NotFoundError(c, "No cycle is active today")
		return
	}

	if current.CurrentStatus != cycle.PhaseGatheringNominations {
		response.ConflictError(c, "Only the nomination phase can be skipped, current phase: "+current.CurrentStatus.String())
		return
	}
	if len(current.NominatedMovieIDs()) == 0 {
		response.ConflictError(c, "Cannot open voting with no nominated movies")
		return
	}

	applied, err := a.cycles.AdvanceStatus(cycleID, cycle.PhaseGatheringNominations, cycle.PhaseGatheringVotes)
	if err != nil {
		a.log.Error("Failed to force-advance cycle", "cycle_id", cycleID, "error", err)
		response.InternalServerError(c, "Failed to advance the cycle")
		return
	}
	if !applied {
		response.ConflictError(c, "The cycle already moved on")
		return
	}

	a.log.Info("Nomination phase skipped by admin", "cycle_id", cycleID, "admin_id", identity.UserID)
	metrics.PhaseTransitions.WithLabelValues(
		cycle.PhaseGatheringNominations.String(), cycle.PhaseGatheringVotes.String()).Inc()
	a.publish(c, bus.ChangeEvent{CycleID: cycleID, Kind: bus.KindStatus, UserID: identity.UserID})

	updated, err := a.cycles.Get(cycleID)
	if err != nil {
		response.InternalServerError(c, "Failed to reload the cycle")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Voting is now open", updated)
}

// ResetCycle handles POST /api/admin/cycle/reset. The day starts over with
// empty maps; the shared pool is untouched.
func (a *AdminHandler) ResetCycle(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	cycleID := a.activeCycleID()

	fresh, err := a.cycles.Reset(cycleID)
	if err != nil {
		a.log.Error("Failed to reset cycle", "cycle_id", cycleID, "error", err)
		response.InternalServerError(c, "Failed to reset the cycle")
		return
	}

	a.log.Info("Cycle reset by admin", "cycle_id", cycleID, "admin_id", identity.UserID)
	a.publish(c, bus.ChangeEvent{CycleID: cycleID, Kind: bus.KindReset, UserID: identity.UserID})
	response.SuccessResponse(c, http.StatusOK, "Cycle reset", fresh)
}

// GetSettings handles GET /api/admin/settings.
func (a *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := a.settings.Get()
	if err != nil {
		a.log.Error("Failed to load settings", "error", err)
		response.InternalServerError(c, "Failed to load settings")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", settings)
}

// UpdateSettingsRequest carries the tunable group settings. Zero values
// keep the stored value.
type UpdateSettingsRequest struct {
	DefaultFinishTime      string `json:"default_finish_time"`
	UnderdogBoostThreshold int    `json:"underdog_boost_threshold"`
	BreakIntervalMinutes   int    `json:"break_interval_minutes"`
	BreakDurationMinutes   int    `json:"break_duration_minutes"`
	MaxNominationsPerUser  int    `json:"max_nominations_per_user"`
}

// UpdateSettings handles PUT /api/admin/settings.
func (a *AdminHandler) UpdateSettings(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.DefaultFinishTime != "" {
		if err := validation.ValidateFinishTime(req.DefaultFinishTime); err != nil {
			response.BadRequestError(c, err.Error())
			return
		}
	}

	settings, err := a.settings.Get()
	if err != nil {
		a.log.Error("Failed to load settings", "error", err)
		response.InternalServerError(c, "Failed to load settings")
		return
	}

	if req.DefaultFinishTime != "" {
		settings.DefaultFinishTime = req.DefaultFinishTime
	}
	if req.UnderdogBoostThreshold > 0 {
		settings.UnderdogBoostThreshold = req.UnderdogBoostThreshold
	}
	if req.BreakIntervalMinutes > 0 {
		settings.BreakIntervalMinutes = req.BreakIntervalMinutes
	}
	if req.BreakDurationMinutes > 0 {
		settings.BreakDurationMinutes = req.BreakDurationMinutes
	}
	if req.MaxNominationsPerUser > 0 {
		settings.MaxNominationsPerUser = req.MaxNominationsPerUser
	}

	if err := a.settings.Save(settings); err != nil {
		a.log.Error("Failed to save settings", "error", err)
		response.InternalServerError(c, "Failed to save settings")
		return
	}

	a.log.Info("Settings updated by admin", "admin_id", identity.UserID)
	a.publish(c, bus.ChangeEvent{CycleID: a.activeCycleID(), Kind: bus.KindStatus, UserID: identity.UserID})
	response.SuccessResponse(c, http.StatusOK, "Settings updated", settings)
}

func (a *AdminHandler) publish(c *gin.Context, event bus.ChangeEvent) {
	if err := a.bus.Publish(c.Request.Context(), event); err != nil {
		a.log.Warn("Failed to publish change event", "cycle_id", event.CycleID, "kind", event.Kind, "error", err)
	}
}
