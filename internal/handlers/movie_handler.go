package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/movienight-api/internal/bus"
	"github.com/gravadigital/movienight-api/internal/catalog"
	"github.com/gravadigital/movienight-api/internal/domain/movie"
	"github.com/gravadigital/movienight-api/internal/logger"
	"github.com/gravadigital/movienight-api/internal/metrics"
	"github.com/gravadigital/movienight-api/internal/middleware"
	"github.com/gravadigital/movienight-api/internal/response"
)

// PosterMirror copies a poster image into local object storage.
type PosterMirror interface {
	Store(ctx context.Context, movieID, sourceURL string) (string, error)
}

// MovieHandler serves the shared movie pool and proxies catalog browsing.
type MovieHandler struct {
	movies  movie.Repository
	catalog *catalog.Client
	posters PosterMirror // nil disables poster mirroring
	bus     bus.Bus
	log     *charmlog.Logger
}

// NewMovieHandler wires the movie pool and catalog endpoints.
func NewMovieHandler(movies movie.Repository, catalogClient *catalog.Client, posters PosterMirror, changeBus bus.Bus) *MovieHandler {
	return &MovieHandler{
		movies:  movies,
		catalog: catalogClient,
		posters: posters,
		bus:     changeBus,
		log:     logger.Handler("movie_handler"),
	}
}

// GetPool handles GET /api/movies.
func (h *MovieHandler) GetPool(c *gin.Context) {
	pool, err := h.movies.GetAll()
	if err != nil {
		h.log.Error("Failed to load movie pool", "error", err)
		response.InternalServerError(c, "Failed to load the movie pool")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", pool)
}

// ShareMovieRequest adds a catalog movie to the shared pool.
type ShareMovieRequest struct {
	ID               string   `json:"id" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	PosterURL        string   `json:"poster_url"`
	Runtime          int      `json:"runtime"`
	ReleaseYear      int      `json:"release_year"`
	GenreNames       []string `json:"genre_names"`
	ShortDescription string   `json:"short_description"`
}

// Share handles POST /api/movies. Sharing is first-wins: if the movie is
// already in the pool the call succeeds as a no-op and reports the existing
// record.
func (h *MovieHandler) Share(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.UnauthorizedError(c, "authentication required")
		return
	}

	var req ShareMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Invalid request payload: "+err.Error())
		return
	}

	m := movie.NewSharedMovie(req.ID, req.Title, req.PosterURL, req.Runtime, req.ReleaseYear,
		req.GenreNames, req.ShortDescription, identity.UserID)

	created, err := h.movies.Share(m)
	if err != nil {
		h.log.Error("Failed to share movie", "movie_id", req.ID, "user_id", identity.UserID, "error", err)
		response.BadRequestError(c, "Failed to share movie: "+err.Error())
		return
	}

	if !created {
		metrics.ShareConflicts.Inc()
		h.log.Debug("Movie already in pool", "movie_id", req.ID)
		existing, err := h.movies.GetByID(req.ID)
		if err != nil {
			response.InternalServerError(c, "Failed to load the existing movie")
			return
		}
		response.SuccessResponse(c, http.StatusOK, "Movie was already in the pool", existing)
		return
	}

	metrics.SharedMovies.Inc()
	h.log.Info("Movie shared", "movie_id", req.ID, "title", req.Title, "user_id", identity.UserID)

	h.mirrorPoster(m)

	if err := h.bus.Publish(c.Request.Context(), bus.ChangeEvent{Kind: bus.KindShare, UserID: identity.UserID}); err != nil {
		h.log.Warn("Failed to publish share event", "movie_id", req.ID, "error", err)
	}

	response.SuccessResponse(c, http.StatusCreated, "Movie added to the pool", m)
}

// mirrorPoster copies the poster in the background. Failures only cost us
// the local copy; the original catalog URL stays on the record.
func (h *MovieHandler) mirrorPoster(m *movie.SharedMovie) {
	if h.posters == nil || m.PosterURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := h.posters.Store(ctx, m.ID, m.PosterURL); err != nil {
			h.log.Warn("Failed to mirror poster", "movie_id", m.ID, "error", err)
		}
	}()
}

// GetMovie handles GET /api/movies/:movie_id.
func (h *MovieHandler) GetMovie(c *gin.Context) {
	movieID := c.Param("movie_id")

	m, err := h.movies.GetByID(movieID)
	if err != nil {
		response.NotFoundError(c, "Movie not found in the pool")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", m)
}

// Trending handles GET /api/catalog/trending.
func (h *MovieHandler) Trending(c *gin.Context) {
	result, err := h.catalog.Trending(c.Request.Context())
	if err != nil {
		h.log.Error("Catalog trending lookup failed", "error", err)
		response.InternalServerError(c, "Failed to load trending movies")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", result)
}

// SearchCatalog handles GET /api/catalog/search?query=...&page=N.
func (h *MovieHandler) SearchCatalog(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.BadRequestError(c, "query parameter is required")
		return
	}

	result, err := h.catalog.Search(c.Request.Context(), query, pageParam(c))
	if err != nil {
		h.log.Error("Catalog search failed", "query", query, "error", err)
		response.InternalServerError(c, "Failed to search the catalog")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", result)
}

// CatalogByGenre handles GET /api/catalog/genres/:genre_id?page=N.
func (h *MovieHandler) CatalogByGenre(c *gin.Context) {
	genreID, err := strconv.Atoi(c.Param("genre_id"))
	if err != nil {
		response.BadRequestError(c, "genre_id must be a number")
		return
	}

	result, err := h.catalog.ByGenre(c.Request.Context(), genreID, pageParam(c))
	if err != nil {
		h.log.Error("Catalog genre lookup failed", "genre_id", genreID, "error", err)
		response.InternalServerError(c, "Failed to load movies for the genre")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", result)
}

// CatalogDetails handles GET /api/catalog/movies/:movie_id.
func (h *MovieHandler) CatalogDetails(c *gin.Context) {
	m, err := h.catalog.Details(c.Request.Context(), c.Param("movie_id"))
	if err != nil {
		h.log.Error("Catalog detail lookup failed", "movie_id", c.Param("movie_id"), "error", err)
		response.InternalServerError(c, "Failed to load movie details")
		return
	}
	response.SuccessResponse(c, http.StatusOK, "", m)
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
