package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/storage/memory"
)

type adminFixture struct {
	handler  *AdminHandler
	cycles   *memory.InMemoryCycleRepository
	settings *memory.InMemorySettingsRepository
	router   *gin.Engine
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &adminFixture{
		cycles:   memory.NewInMemoryCycleRepository("03:30"),
		settings: testSettingsRepo(),
	}
	f.handler = NewAdminHandler(f.cycles, f.settings, bus.NewLocalBus(), time.UTC)
	f.handler.now = func() time.Time { return handlerTestTime }

	f.router = gin.New()
	f.router.Use(identityMiddleware("admin"))
	f.router.POST("/api/admin/cycle/advance", f.handler.ForceAdvance)
	f.router.POST("/api/admin/cycle/reset", f.handler.ResetCycle)
	f.router.GET("/api/admin/settings", f.handler.GetSettings)
	f.router.PUT("/api/admin/settings", f.handler.UpdateSettings)
	return f
}

func (f *adminFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *adminFixture) seedNominationsPhase(t *testing.T, nominations map[string][]string) {
	t.Helper()
	_, err := f.cycles.GetOrCreate(handlerCycleID)
	require.NoError(t, err)
	require.NoError(t, f.cycles.SetDecision(handlerCycleID, "alice", true))
	require.NoError(t, f.cycles.SetDecision(handlerCycleID, "bob", true))
	_, err = f.cycles.AdvanceStatus(handlerCycleID, cycle.PhaseWaitingForDecisions, cycle.PhaseGatheringNominations)
	require.NoError(t, err)
	for userID, ids := range nominations {
		require.NoError(t, f.cycles.SetNominations(handlerCycleID, userID, ids))
	}
}

func TestForceAdvanceOpensVoting(t *testing.T) {
	f := newAdminFixture(t)
	f.seedNominationsPhase(t, map[string][]string{"alice": {"m1"}})

	w := f.do(http.MethodPost, "/api/admin/cycle/advance", "")
	require.Equal(t, http.StatusOK, w.Code)

	c, err := f.cycles.Get(handlerCycleID)
	require.NoError(t, err)
	assert.Equal(t, cycle.PhaseGatheringVotes, c.CurrentStatus)
}

func TestForceAdvanceRequiresNominations(t *testing.T) {
	f := newAdminFixture(t)
	f.seedNominationsPhase(t, nil)

	w := f.do(http.MethodPost, "/api/admin/cycle/advance", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	c, err := f.cycles.Get(handlerCycleID)
	require.NoError(t, err)
	assert.Equal(t, cycle.PhaseGatheringNominations, c.CurrentStatus)
}

func TestForceAdvanceOnlyFromNominationsPhase(t *testing.T) {
	f := newAdminFixture(t)
	_, err := f.cycles.GetOrCreate(handlerCycleID)
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/admin/cycle/advance", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResetCycleWipesTheDay(t *testing.T) {
	f := newAdminFixture(t)
	f.seedNominationsPhase(t, map[string][]string{"alice": {"m1"}})

	w := f.do(http.MethodPost, "/api/admin/cycle/reset", "")
	require.Equal(t, http.StatusOK, w.Code)

	c, err := f.cycles.Get(handlerCycleID)
	require.NoError(t, err)
	assert.Equal(t, cycle.PhaseWaitingForDecisions, c.CurrentStatus)
	assert.Empty(t, c.DecisionsMap())
	assert.Empty(t, c.NominationsMap())
	assert.Empty(t, c.VotesMap())
}

func TestGetSettings(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodGet, "/api/admin/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default_finish_time":"03:30"`)
}

func TestUpdateSettingsMergesNonZeroFields(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodPut, "/api/admin/settings", `{"default_finish_time":"02:00","underdog_boost_threshold":7}`)
	require.Equal(t, http.StatusOK, w.Code)

	settings, err := f.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "02:00", settings.DefaultFinishTime)
	assert.Equal(t, 7, settings.UnderdogBoostThreshold)
	// Untouched fields keep their previous values.
	assert.Equal(t, 40, settings.BreakIntervalMinutes)
	assert.Equal(t, 3, settings.MaxNominationsPerUser)
}

func TestUpdateSettingsRejectsBadFinishTime(t *testing.T) {
	f := newAdminFixture(t)

	w := f.do(http.MethodPut, "/api/admin/settings", `{"default_finish_time":"25:99"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
}
