package cycle

import (
	"sort"

	"github.com/gravadigital/movienight-api/internal/domain/movie"
)

// ScoringConfig holds the point values and the underdog rule threshold.
type ScoringConfig struct {
	TopPickPoints     int
	SecondPickPoints  int
	ThirdPickPoints   int
	UnderdogThreshold int
}

// DefaultScoringConfig returns the standard 3/2/1 weighting.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TopPickPoints:     3,
		SecondPickPoints:  2,
		ThirdPickPoints:   1,
		UnderdogThreshold: 5,
	}
}

// CandidateScore is one ranked row of the scoring result.
type CandidateScore struct {
	MovieID string `json:"movie_id"`
	Score   int    `json:"score"`
	Runtime int    `json:"runtime"`
}

// ComputeWinner scores every nominated movie from the submitted ballots and
// returns the winner, or nil when no eligible candidate exists.
//
// Scoring: top/second/third pick earn the configured rank points. A movie
// whose pool record has a nomination streak at or above the underdog
// threshold additionally earns +1 for every ballot that names it in any
// slot. Candidates without a pool record are excluded. Ties break toward
// the shorter runtime; a remaining tie is resolved by encounter order.
func ComputeWinner(c *DailyCycle, pool map[string]*movie.SharedMovie, cfg ScoringConfig) *WinningMovie {
	ranking := RankCandidates(c, pool, cfg)
	if len(ranking) == 0 {
		return nil
	}

	top := ranking[0]
	m := pool[top.MovieID]
	return &WinningMovie{
		MovieID:     top.MovieID,
		Title:       m.Title,
		PosterURL:   m.PosterURL,
		Runtime:     m.Runtime,
		ReleaseYear: m.ReleaseYear,
		Score:       top.Score,
	}
}

// RankCandidates returns the full scored ranking, best first. Useful for
// the dashboard view and for tests; ComputeWinner takes the head.
func RankCandidates(c *DailyCycle, pool map[string]*movie.SharedMovie, cfg ScoringConfig) []CandidateScore {
	candidates := c.NominatedMovieIDs()
	if len(candidates) == 0 {
		return nil
	}

	scores := make(map[string]int, len(candidates))
	for _, movieID := range candidates {
		scores[movieID] = 0
	}

	votes := c.Votes.Data()
	for _, ballot := range votes {
		if _, ok := scores[ballot.TopPick]; ok {
			scores[ballot.TopPick] += cfg.TopPickPoints
		}
		if _, ok := scores[ballot.SecondPick]; ok {
			scores[ballot.SecondPick] += cfg.SecondPickPoints
		}
		if _, ok := scores[ballot.ThirdPick]; ok {
			scores[ballot.ThirdPick] += cfg.ThirdPickPoints
		}
	}

	// Underdog boost: +1 per ballot naming the movie, on top of rank points.
	for _, movieID := range candidates {
		m, ok := pool[movieID]
		if !ok || !m.IsUnderdog(cfg.UnderdogThreshold) {
			continue
		}
		for _, ballot := range votes {
			if ballot.Names(movieID) {
				scores[movieID]++
			}
		}
	}

	ranking := make([]CandidateScore, 0, len(candidates))
	for _, movieID := range candidates {
		m, ok := pool[movieID]
		if !ok {
			// Nominated but never shared into the pool: not a winner candidate.
			continue
		}
		ranking = append(ranking, CandidateScore{
			MovieID: movieID,
			Score:   scores[movieID],
			Runtime: m.Runtime,
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].Runtime < ranking[j].Runtime
	})

	return ranking
}
