package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/movienight-api/internal/domain/presence"
	"github.com/gravadigital/movienight-api/internal/storage/memory"
)

func TestPresenceHeartbeatAndActiveUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := memory.NewInMemoryPresenceRepository()
	handler := NewPresenceHandler(repo)

	now := handlerTestTime
	handler.now = func() time.Time { return now }

	router := gin.New()
	router.Use(identityMiddleware("alice"))
	router.POST("/api/users/heartbeat", handler.Heartbeat)
	router.GET("/api/users/active", handler.ActiveUsers)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/heartbeat", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/active", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []presence.ActiveUser `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "alice", envelope.Data[0].UserID)

	// Heartbeats older than the active window drop out of the list.
	now = handlerTestTime.Add(presence.ActiveWindow + time.Minute)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/active", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var stale struct {
		Data []presence.ActiveUser `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stale))
	assert.Empty(t, stale.Data)
}
