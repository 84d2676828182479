package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/storage/memory"
)

type movieFixture struct {
	handler *MovieHandler
	movies  *memory.InMemoryMovieRepository
	router  *gin.Engine
	userID  string
}

func newMovieFixture(t *testing.T, userID string) *movieFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &movieFixture{
		movies: memory.NewInMemoryMovieRepository(),
		userID: userID,
	}
	f.handler = NewMovieHandler(f.movies, nil, nil, bus.NewLocalBus())

	f.router = gin.New()
	f.router.Use(identityMiddleware(userID))
	f.router.GET("/api/movies", f.handler.GetPool)
	f.router.POST("/api/movies", f.handler.Share)
	f.router.GET("/api/movies/:movie_id", f.handler.GetMovie)
	return f
}

func (f *movieFixture) do(method, path, body string) *httptest.ResponseRecorder {
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

const shareBody = `{
	"id": "603",
	"title": "The Matrix",
	"poster_url": "",
	"runtime": 136,
	"release_year": 1999,
	"genre_names": ["Action", "Science Fiction"],
	"short_description": "A hacker learns the truth."
}`

func TestShareAddsMovieToPool(t *testing.T) {
	f := newMovieFixture(t, "alice")

	w := f.do(http.MethodPost, "/api/movies", shareBody)
	require.Equal(t, http.StatusCreated, w.Code)

	m, err := f.movies.GetByID("603")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, "alice", m.OriginalOwner)
	assert.Equal(t, 0, m.NominationStreak)
}

func TestShareSameMovieTwiceKeepsFirstOwner(t *testing.T) {
	f := newMovieFixture(t, "alice")

	w := f.do(http.MethodPost, "/api/movies", shareBody)
	require.Equal(t, http.StatusCreated, w.Code)

	// Bob shares the same catalog entry; he gets the existing record back.
	g := &movieFixture{movies: f.movies, userID: "bob"}
	g.handler = NewMovieHandler(f.movies, nil, nil, bus.NewLocalBus())
	g.router = gin.New()
	g.router.Use(identityMiddleware("bob"))
	g.router.POST("/api/movies", g.handler.Share)

	w = g.do(http.MethodPost, "/api/movies", shareBody)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			OriginalOwner string `json:"original_owner"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "alice", envelope.Data.OriginalOwner)

	pool, err := f.movies.GetAll()
	require.NoError(t, err)
	assert.Len(t, pool, 1)
}

func TestShareRejectsMissingFields(t *testing.T) {
	f := newMovieFixture(t, "alice")

	w := f.do(http.MethodPost, "/api/movies", `{"title":"No ID"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/movies", `{"id":"42"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPool(t *testing.T) {
	f := newMovieFixture(t, "alice")
	for _, id := range []string{"m1", "m2"} {
		_, err := f.movies.Share(movie.NewSharedMovie(id, "Movie "+id, "", 100, 2020, nil, "", "alice"))
		require.NoError(t, err)
	}

	w := f.do(http.MethodGet, "/api/movies", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []movie.SharedMovie `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
}

func TestGetMovieNotFound(t *testing.T) {
	f := newMovieFixture(t, "alice")

	w := f.do(http.MethodGet, "/api/movies/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
