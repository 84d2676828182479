// Package catalog wraps the TMDB HTTP API. The app only surfaces movies
// that are streamable on a major subscription service in the configured
// region, so every listing is enriched with watch-provider data before it
// is returned.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/logger"
)

const (
	imageBaseURL        = "https://image.tmdb.org/t/p/w500"
	trendingMoviesLimit = 10
)

// majorStreamerKeywords identifies the subscription services the group
// actually has. Rentals and purchases never count as streamable.
var majorStreamerKeywords = []string{
	"netflix",
	"prime video",
	"apple tv",
	"disney",
	"crave",
	"hbo",
	"paramount",
}

// Movie is a catalog listing enriched with streaming availability.
type Movie struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	PosterURL          string   `json:"poster,omitempty"`
	Runtime            int      `json:"runtime,omitempty"`
	ReleaseYear        int      `json:"release_year,omitempty"`
	GenreNames         []string `json:"genre_names"`
	ShortDescription   string   `json:"short_description,omitempty"`
	VoteAverage        float64  `json:"vote_average,omitempty"`
	IsStreamable       bool     `json:"is_streamable"`
	StreamingProviders []string `json:"streaming_providers"`
}

// SearchResult is one page of catalog listings.
type SearchResult struct {
	Items      []Movie `json:"items"`
	TotalPages int     `json:"total_pages"`
	Page       int     `json:"page"`
}

// Client talks to the TMDB v3 API.
type Client struct {
	baseURL string
	apiKey  string
	region  string
	http    *http.Client
	log     *charmlog.Logger
}

// NewClient builds a catalog client from configuration.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		region:  cfg.Region,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     logger.Catalog(),
	}
}

// tmdbMovie mirrors the fields we read from TMDB list and detail payloads.
type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbListResponse struct {
	Results    []tmdbMovie `json:"results"`
	TotalPages int         `json:"total_pages"`
	Page       int         `json:"page"`
}

type tmdbProvidersResponse struct {
	Results map[string]struct {
		Flatrate []struct {
			ProviderName string `json:"provider_name"`
		} `json:"flatrate"`
	} `json:"results"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

// Trending returns this week's trending movies that are streamable in the
// configured region, capped to a small carousel-sized list.
func (c *Client) Trending(ctx context.Context) (*SearchResult, error) {
	var list tmdbListResponse
	query := url.Values{"region": {c.region}}
	if err := c.getJSON(ctx, "/trending/movie/week", query, &list); err != nil {
		return nil, err
	}

	if len(list.Results) > trendingMoviesLimit {
		list.Results = list.Results[:trendingMoviesLimit]
	}

	items := c.enrichAll(ctx, list.Results)
	return &SearchResult{Items: items, TotalPages: 1, Page: 1}, nil
}

// ByGenre returns one page of popular streamable movies for a genre.
func (c *Client) ByGenre(ctx context.Context, genreID, page int) (*SearchResult, error) {
	var list tmdbListResponse
	query := url.Values{
		"with_genres": {strconv.Itoa(genreID)},
		"region":      {c.region},
		"page":        {strconv.Itoa(page)},
		"sort_by":     {"popularity.desc"},
	}
	if err := c.getJSON(ctx, "/discover/movie", query, &list); err != nil {
		return nil, err
	}

	items := c.enrichAll(ctx, list.Results)
	return &SearchResult{Items: items, TotalPages: max(list.TotalPages, 1), Page: max(list.Page, 1)}, nil
}

// Search looks up movies by title and orders the streamable hits by
// relevance: exact title match first, then prefix, then substring, then
// rating.
func (c *Client) Search(ctx context.Context, searchQuery string, page int) (*SearchResult, error) {
	var list tmdbListResponse
	query := url.Values{
		"query":  {strings.ToLower(searchQuery)},
		"region": {c.region},
		"page":   {strconv.Itoa(page)},
	}
	if err := c.getJSON(ctx, "/search/movie", query, &list); err != nil {
		return nil, err
	}

	if len(list.Results) > 20 {
		list.Results = list.Results[:20]
	}

	items := c.enrichAll(ctx, list.Results)
	sortByRelevance(items, searchQuery)

	return &SearchResult{Items: items, TotalPages: max(list.TotalPages, 1), Page: page}, nil
}

// Details fetches a single movie with full runtime, genre and provider data.
func (c *Client) Details(ctx context.Context, movieID string) (*Movie, error) {
	var detail tmdbMovie
	if err := c.getJSON(ctx, "/movie/"+movieID, nil, &detail); err != nil {
		return nil, err
	}

	m := c.enrich(ctx, detail)
	return &m, nil
}

// enrichAll resolves runtime and provider data for a list of results and
// drops everything that is not streamable on a major service.
func (c *Client) enrichAll(ctx context.Context, results []tmdbMovie) []Movie {
	items := make([]Movie, 0, len(results))
	for _, raw := range results {
		m := c.enrich(ctx, raw)
		if m.IsStreamable {
			items = append(items, m)
		}
	}
	return items
}

func (c *Client) enrich(ctx context.Context, raw tmdbMovie) Movie {
	// List endpoints omit runtime and genres; fill them from the detail
	// endpoint when missing.
	if raw.Runtime == 0 {
		var detail tmdbMovie
		if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", raw.ID), nil, &detail); err != nil {
			c.log.Warn("Failed to fetch movie details", "movie_id", raw.ID, "error", err)
		} else {
			raw.Runtime = detail.Runtime
			raw.Genres = detail.Genres
		}
	}

	providers := c.streamingProviders(ctx, raw.ID)

	genres := make([]string, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		genres = append(genres, g.Name)
	}

	m := Movie{
		ID:                 strconv.Itoa(raw.ID),
		Title:              raw.Title,
		Runtime:            raw.Runtime,
		GenreNames:         genres,
		ShortDescription:   raw.Overview,
		VoteAverage:        raw.VoteAverage,
		IsStreamable:       len(providers) > 0,
		StreamingProviders: providers,
	}
	if raw.PosterPath != "" {
		m.PosterURL = imageBaseURL + raw.PosterPath
	}
	if len(raw.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(raw.ReleaseDate[:4]); err == nil {
			m.ReleaseYear = year
		}
	}
	return m
}

// streamingProviders returns the major subscription services carrying the
// movie in the configured region. Lookup failures degrade to "not
// streamable" rather than erroring the whole listing.
func (c *Client) streamingProviders(ctx context.Context, movieID int) []string {
	var providers tmdbProvidersResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/watch/providers", movieID), nil, &providers); err != nil {
		c.log.Warn("Failed to fetch watch providers", "movie_id", movieID, "error", err)
		return nil
	}

	regional, ok := providers.Results[c.region]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, p := range regional.Flatrate {
		lower := strings.ToLower(p.ProviderName)
		for _, keyword := range majorStreamerKeywords {
			if strings.Contains(lower, keyword) {
				if !seen[p.ProviderName] {
					seen[p.ProviderName] = true
					names = append(names, p.ProviderName)
				}
				break
			}
		}
	}
	return names
}

func sortByRelevance(items []Movie, query string) {
	queryLower := strings.ToLower(query)

	rank := func(m Movie) int {
		title := strings.ToLower(m.Title)
		switch {
		case title == queryLower:
			return 0
		case strings.HasPrefix(title, queryLower):
			return 1
		case strings.Contains(title, queryLower):
			return 2
		default:
			return 3
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := rank(items[i]), rank(items[j])
		if ri != rj {
			return ri < rj
		}
		scoreI := items[i].VoteAverage*10 + float64(items[i].ReleaseYear)/1000
		scoreJ := items[j].VoteAverage*10 + float64(items[j].ReleaseYear)/1000
		return scoreI > scoreJ
	})
}
