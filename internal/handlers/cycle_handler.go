package handlers

import (
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/middleware"
	"github.com/gravadigital/movienight-api/internal/response"
	"github.com/gravadigital/movienight-api/internal/validation"
)

// CycleHandler serves the daily cycle: reading today's state and accepting
// the three submission kinds. Every accepted submission is broadcast on the
// change bus so the evaluation driver can re-run the phase machine.
type CycleHandler struct {
	cycles   cycle.Repository
	movies   movie.Repository
	settings cycle.SettingsRepository
	bus      bus.Bus
	cfg      *config.Config
	loc      *time.Location
	now      func() time.Time
	log      *charmlog.Logger
}

// NewCycleHandler wires the cycle endpoints.
func NewCycleHandler(
	cycles cycle.Repository,
	movies movie.Repository,
	settings cycle.SettingsRepository,
	changeBus bus.Bus,
	cfg *config.Config,
	loc *time.Location,
) *CycleHandler {
	return &CycleHandler{
		cycles:   cycles,
		movies:   movies,
		settings: settings,
		bus:      changeBus,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		log:      logger.Handler("cycle_handler"),
	}
}

// CycleResponse is the cycle document plus derived dashboard data.
type CycleResponse struct {
	*cycle.DailyCycle
	Showtime *cycle.Showtime `json:"showtime,omitempty"`
}

func (h *CycleHandler) activeCycleID() string {
	return cycle.ActiveCycleID(h.now().In(h.loc))
}

// GetCurrent handles GET /api/cycle. Opening the app creates today's cycle
// if nobody has yet; concurrent first-opens collapse into a single record.
func (h *CycleHandler) GetCurrent(c *gin.Context) {
	cycleID := h.activeCycleID()

	current, err := h.cycles.GetOrCreate(cycleID)
	if err != nil {
		h.log.Error("Failed to load active cycle", "cycle_id", cycleID, "error", err)
		response.InternalServerError(c, "Failed to load the daily cycle")
		return
	}

	resp := CycleResponse{DailyCycle: current}
	if current.CurrentStatus == cycle.PhaseDashboardView && current.Winner() != nil {
		showtime, err := cycle.ComputeShowtime(current, h.breakInterval(), h.breakDuration(), h.loc)
		if err != nil {
			h.log.Warn("Failed to compute showtime", "cycle_id", cycleID, "error", err)
		} else {
			resp.Showtime = showtime
		}
	}

	response.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *CycleHandler) breakInterval() int {
	if settings, err := h.settings.Get(); err == nil {
		return settings.BreakIntervalMinutes
	}
	return h.cfg.Cycle.BreakIntervalMinutes
}

func (h *CycleHandler) breakDuration() int {
	if settings, err := h.settings.Get(); err == nil {
		return settings.BreakDurationMinutes
	}
	return h.cfg.Cycle.BreakDurationMinutes
}

// SubmitDecisionRequest is the watching-tonight answer.
type SubmitDecisionRequest struct {
	Decision *bool `json:"decision" binding:"required"`
}

// SubmitDecision handles POST /api/cycle/decision. A user decides once per
// cycle; changing your mind requires an admin reset.
func (h *CycleHandler) SubmitDecision(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.UnauthorizedError(c, "authentication required")
		return
	}

	var req SubmitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return
	}

	cycleID := h.activeCycleID()
	current, err := h.cycles.GetOrCreate(cycleID)
	if err != nil {
		h.log.Error("Failed to load active cycle", "cycle_id", cycleID, "error", err)
		response.InternalServerError(c, "Failed to load the daily cycle")
		return
	}

	if current.CurrentStatus != cycle.PhaseWaitingForDecisions {
		response.ConflictError(c, "The decision window for today is closed")
		return
	}
	if current.HasDecision(identity.UserID) {
		response.ConflictError(c, "You already decided for tonight")
		return
	}

	if err := h.cycles.SetDecision(cycleID, identity.UserID, *req.Decision); err != nil {
		h.log.Error("Failed to store decision", "cycle_id", cycleID, "user_id", identity.UserID, "error", err)
		response.InternalServerError(c, "Failed to store your decision")
		return
	}

	h.log.Info("Decision submitted", "cycle_id", cycleID, "user_id", identity.UserID, "decision", *req.Decision)
	h.publish(c, bus.ChangeEvent{CycleID: cycleID, Kind: bus.KindDecision, UserID: identity.UserID})
	response.SuccessResponse(c, http.StatusOK, "Decision recorded", gin.H{"decision": *req.Decision})
}

// SubmitNominationsRequest carries a user's picks from the shared pool. An
// empty list is a valid opt-out.
type SubmitNominationsRequest struct {
	MovieIDs []string `json:"movie_ids"`
}

// SubmitNominations handles POST /api/cycle/nominations.
func (h *CycleHandler) SubmitNominations(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.UnauthorizedError(c, "authentication required")
		return
	}

	var req SubmitNominationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return
	}

	cycleID := h.activeCycleID()
	current, err := h.cycles.Get(cycleID)
	if err != nil {
		response.NotFoundError(c, "No cycle is active today")
		return
	}

	if current.CurrentStatus != cycle.PhaseGatheringNominations {
		response.ConflictError(c, "Nominations are not open right now")
		return
	}
	if !h.isYesVoter(current, identity.UserID) {
		response.ForbiddenError(c, "Only users watching tonight can nominate")
		return
	}

	pool, err := h.movies.GetByIDs(req.MovieIDs)
	if err != nil {
		h.log.Error("Failed to load nominated movies", "cycle_id", cycleID, "error", err)
		response.InternalServerError(c, "Failed to validate nominations")
		return
	}
	index := movie.PoolIndex(pool)

	if err := validation.ValidateNominations(req.MovieIDs, h.maxNominations(), func(id string) bool {
		_, ok := index[id]
		return ok
	}); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}

	if err := h.cycles.SetNominations(cycleID, identity.UserID, req.MovieIDs); err != nil {
		h.log.Error("Failed to store nominations", "cycle_id", cycleID, "user_id", identity.UserID, "error", err)
		response.InternalServerError(c, "Failed to store your nominations")
		return
	}

	h.log.Info("Nominations submitted", "cycle_id", cycleID, "user_id", identity.UserID, "count", len(req.MovieIDs))
	h.publish(c, bus.ChangeEvent{CycleID: cycleID, Kind: bus.KindNomination, UserID: identity.UserID})
	response.SuccessResponse(c, http.StatusOK, "Nominations recorded", gin.H{"movie_ids": req.MovieIDs})
}

func (h *CycleHandler) maxNominations() int {
	if settings, err := h.settings.Get(); err == nil {
		return settings.MaxNominationsPerUser
	}
	return h.cfg.Cycle.MaxNominationsPerUser
}

// SubmitVoteRequest is one ranked ballot.
type SubmitVoteRequest struct {
	TopPick    string `json:"top_pick"`
	SecondPick string `json:"second_pick"`
	ThirdPick  string `json:"third_pick"`
}

// SubmitVote handles POST /api/cycle/vote. Re-submitting replaces the
// user's previous ballot as long as voting is still open.
func (h *CycleHandler) SubmitVote(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.UnauthorizedError(c, "authentication required")
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return
	}

	cycleID := h.activeCycleID()
	current, err := h.cycles.Get(cycleID)
	if err != nil {
		response.NotFoundError(c, "No cycle is active today")
		return
	}

	if current.CurrentStatus != cycle.PhaseGatheringVotes {
		response.ConflictError(c, "Voting is not open right now")
		return
	}
	if !h.isYesVoter(current, identity.UserID) {
		response.ForbiddenError(c, "Only users watching tonight can vote")
		return
	}

	ballot := cycle.Ballot{
		TopPick:    req.TopPick,
		SecondPick: req.SecondPick,
		ThirdPick:  req.ThirdPick,
	}
	if err := validation.ValidateBallot(ballot, current.NominatedMovieIDs()); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}

	if err := h.cycles.SetVote(cycleID, identity.UserID, ballot); err != nil {
		h.log.Error("Failed to store vote", "cycle_id", cycleID, "user_id", identity.UserID, "error", err)
		response.InternalServerError(c, "Failed to store your vote")
		return
	}

	h.log.Info("Vote submitted", "cycle_id", cycleID, "user_id", identity.UserID)
	h.publish(c, bus.ChangeEvent{CycleID: cycleID, Kind: bus.KindVote, UserID: identity.UserID})
	response.SuccessResponse(c, http.StatusOK, "Vote recorded", ballot)
}

func (h *CycleHandler) isYesVoter(current *cycle.DailyCycle, userID string) bool {
	decision, ok := current.DecisionsMap()[userID]
	return ok && decision
}

func (h *CycleHandler) publish(c *gin.Context, event bus.ChangeEvent) {
	if err := h.bus.Publish(c.Request.Context(), event); err != nil {
		h.log.Warn("Failed to publish change event", "cycle_id", event.CycleID, "kind", event.Kind, "error", err)
	}
}
