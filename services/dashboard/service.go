// Package dashboard serves the cleaned movie table and its aggregate
// views as a JSON api, one endpoint per dashboard panel.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/moviestore"

	"github.com/antzucaro/matchr"
	"github.com/gin-gonic/gin"
)

// fuzzy genre matches below this similarity are ignored
const genreSimilarityFloor = 0.85

type Service struct {
	store moviestore.Store
}

func NewService(store moviestore.Store) Service {
	return Service{store: store}
}

// NewRouter builds the http surface of the dashboard.
func NewRouter(store moviestore.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	service := NewService(store)
	service.Register(router)
	return router
}

func (s Service) Register(router gin.IRouter) {
	api := router.Group("/api")
	api.GET("/summary", s.GetSummary)
	api.GET("/movies", s.GetMovies)
	api.GET("/movies.csv", s.DownloadMovies)
	api.GET("/top", s.GetTop)
	api.GET("/genres", s.GetGenres)
	api.GET("/genres/distribution", s.GetGenreDistribution)
	api.GET("/genres/ratings", s.GetGenreRatingCrosstab)
	api.GET("/ratings/histogram", s.GetRatingHistogram)
	api.GET("/duration/histogram", s.GetDurationHistogram)
	api.GET("/duration/by-genre", s.GetDurationByGenre)
	api.GET("/correlation", s.GetCorrelation)
}

var durationRanges = map[string]string{
	"":     "",
	"all":  "",
	"<2h":  "<2h",
	"2-3h": "2-3h",
	">3h":  ">3h",
}

// filter parses the sidebar-style query params shared by every
// endpoint. Genre params are fuzzily resolved against the genres the
// store actually holds, so a slightly misspelled filter still works.
func (s Service) filter(c *gin.Context) (moviestore.Filter, bool) {
	var f moviestore.Filter

	if raw := c.Query("min_rating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_rating must be a number"})
			return f, false
		}
		f.MinRating = minRating
	}
	if raw := c.Query("min_votes"); raw != "" {
		minVotes, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_votes must be an integer"})
			return f, false
		}
		f.MinVotes = minVotes
	}

	durationRange, ok := durationRanges[c.Query("duration_range")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_range must be one of <2h, 2-3h, >3h"})
		return f, false
	}
	f.DurationRange = durationRange

	if requested := c.QueryArray("genre"); len(requested) > 0 {
		genres, err := s.resolveGenres(c.Request.Context(), requested)
		if err != nil {
			s.internalError(c, err)
			return f, false
		}
		f.Genres = genres
	}

	return f, true
}

// resolveGenres maps user-given genre names onto known genres, taking
// an exact match if there is one and the closest Jaro-Winkler match
// otherwise. Names that resemble nothing pass through untouched (and
// then match no rows).
func (s Service) resolveGenres(ctx context.Context, requested []string) ([]string, error) {
	known, err := s.store.Genres(ctx)
	if err != nil {
		return nil, err
	}

	resolved := make([]string, len(requested))
	for i, raw := range requested {
		name := moviedata.NormalizeGenre(raw)
		resolved[i] = name

		best := genreSimilarityFloor
		for _, candidate := range known {
			if candidate == name {
				resolved[i] = candidate
				break
			}
			similarity := matchr.JaroWinkler(name, candidate, false)
			if similarity > best {
				best = similarity
				resolved[i] = candidate
			}
		}
	}
	return resolved, nil
}

func (s Service) internalError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "dashboard query failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}

func (s Service) GetSummary(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	summary, err := s.store.Summary(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

var movieSortColumns = map[string]bool{
	"":         true,
	"title":    true,
	"rating":   true,
	"votes":    true,
	"duration": true,
	"genre":    true,
}

func (s Service) queryMovies(c *gin.Context) ([]moviedata.Record, bool) {
	f, ok := s.filter(c)
	if !ok {
		return nil, false
	}

	sortBy := c.Query("sort_by")
	if !movieSortColumns[sortBy] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort_by column"})
		return nil, false
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return nil, false
		}
		limit = parsed
	}

	movies, err := s.store.Query(c.Request.Context(), f, moviestore.QueryOptions{
		SortBy: sortBy,
		Desc:   c.Query("order") == "desc",
		Limit:  limit,
	})
	if err != nil {
		s.internalError(c, err)
		return nil, false
	}
	return movies, true
}

func (s Service) GetMovies(c *gin.Context) {
	movies, ok := s.queryMovies(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movies": movies,
		"count":  len(movies),
	})
}

// DownloadMovies streams the filtered table as csv, the same format
// the clean stage writes.
func (s Service) DownloadMovies(c *gin.Context) {
	movies, ok := s.queryMovies(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="movies.csv"`)
	err := moviedata.WriteTable(c.Writer, movies)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to stream csv", "err", err)
	}
}

func (s Service) GetTop(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}

	by := c.DefaultQuery("by", "rating")
	if by != "rating" && by != "votes" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "by must be rating or votes"})
		return
	}

	n := 10
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	movies, err := s.store.Top(c.Request.Context(), f, by, n)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"by":     by,
		"movies": movies,
	})
}

func (s Service) GetGenres(c *gin.Context) {
	genres, err := s.store.Genres(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

func (s Service) GetGenreDistribution(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	counts, err := s.store.GenreCounts(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": counts})
}

// GetGenreRatingCrosstab backs the genre-versus-rating heatmap: one row
// per genre, one column per coarse rating bucket.
func (s Service) GetGenreRatingCrosstab(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	grid, err := s.store.GenreRatingCrosstab(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (s Service) GetDurationHistogram(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	bins, err := s.store.DurationHistogram(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bins": bins})
}

func (s Service) GetRatingHistogram(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	bins, err := s.store.RatingHistogram(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bins": bins})
}

func (s Service) GetDurationByGenre(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	durations, err := s.store.AvgDurationByGenre(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": durations})
}

func (s Service) GetCorrelation(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	correlation, err := s.store.Correlation(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlation": correlation})
}
