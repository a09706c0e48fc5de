// Package moviestore persists cleaned movie tables and answers the
// aggregate queries the dashboard renders.
package moviestore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"moviedash-backend/lib/moviedata"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// ReplaceAll loads a cleaned table into the store, replacing whatever
// was there before. Loading the same table twice is a no-op, insertion
// order (and with it the table's original row order) is kept.
func (s Store) ReplaceAll(ctx context.Context, records []moviedata.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM movies")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (title, rating, votes, duration_minutes, genre)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.Title, r.Rating, r.Votes, r.DurationMinutes, r.Genre)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Filter narrows queries down the same way the dashboard's sidebar
// controls do.
type Filter struct {
	MinRating float64
	MinVotes  int64
	// one of "", "<2h", "2-3h", ">3h"
	DurationRange string
	Genres        []string
}

func (f Filter) where() (string, []any, error) {
	conds := []string{"1=1"}
	var args []any

	if f.MinRating > 0 {
		conds = append(conds, "rating >= ?")
		args = append(args, f.MinRating)
	}
	if f.MinVotes > 0 {
		conds = append(conds, "votes >= ?")
		args = append(args, f.MinVotes)
	}

	switch f.DurationRange {
	case "":
	case "<2h":
		conds = append(conds, "duration_minutes < 120")
	case "2-3h":
		conds = append(conds, "duration_minutes >= 120 AND duration_minutes <= 180")
	case ">3h":
		conds = append(conds, "duration_minutes > 180")
	default:
		return "", nil, fmt.Errorf("unknown duration range: %q", f.DurationRange)
	}

	if len(f.Genres) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Genres)), ",")
		conds = append(conds, fmt.Sprintf("genre IN (%s)", placeholders))
		for _, g := range f.Genres {
			args = append(args, g)
		}
	}

	return strings.Join(conds, " AND "), args, nil
}

var sortColumns = map[string]string{
	"":         "id",
	"title":    "title",
	"rating":   "rating",
	"votes":    "votes",
	"duration": "duration_minutes",
	"genre":    "genre",
}

type QueryOptions struct {
	// one of the keys of sortColumns, default is original table order
	SortBy string
	Desc   bool
	// 0 means no limit
	Limit int
}

func (s Store) Query(ctx context.Context, f Filter, opts QueryOptions) ([]moviedata.Record, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort column: %q", opts.SortBy)
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT title, rating, votes, duration_minutes, genre
		FROM movies WHERE %s ORDER BY %s %s
	`, where, column, direction)
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []moviedata.Record
	for rows.Next() {
		var r moviedata.Record
		err := rows.Scan(&r.Title, &r.Rating, &r.Votes, &r.DurationMinutes, &r.Genre)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Top returns the n highest movies by rating or votes.
func (s Store) Top(ctx context.Context, f Filter, by string, n int) ([]moviedata.Record, error) {
	if by != "rating" && by != "votes" {
		return nil, fmt.Errorf("unknown top metric: %q", by)
	}
	if n <= 0 {
		n = 10
	}
	return s.Query(ctx, f, QueryOptions{SortBy: by, Desc: true, Limit: n})
}

type Summary struct {
	Movies      int64   `json:"movies"`
	AvgRating   float64 `json:"avg_rating"`
	TotalVotes  int64   `json:"total_votes"`
	GenreCount  int64   `json:"genre_count"`
	AvgDuration float64 `json:"avg_duration_minutes"`
}

func (s Store) Summary(ctx context.Context, f Filter) (Summary, error) {
	where, args, err := f.where()
	if err != nil {
		return Summary{}, err
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(AVG(rating), 0),
			COALESCE(SUM(votes), 0),
			COUNT(DISTINCT genre),
			COALESCE(AVG(duration_minutes), 0)
		FROM movies WHERE %s
	`, where), args...)

	var out Summary
	err = row.Scan(&out.Movies, &out.AvgRating, &out.TotalVotes, &out.GenreCount, &out.AvgDuration)
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

func (s Store) GenreCounts(ctx context.Context, f Filter) ([]GenreCount, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT genre, COUNT(*) AS n
		FROM movies WHERE %s
		GROUP BY genre ORDER BY n DESC, genre ASC
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []GenreCount
	for rows.Next() {
		var c GenreCount
		err := rows.Scan(&c.Genre, &c.Count)
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// coarse rating buckets for the genre heatmap, each bucket covers
// (low, high] so a rating of exactly 6 lands in the first one
var ratingBinEdges = []float64{0, 6, 7, 8, 9, 10}
var ratingBinLabels = []string{"≤6", "6-7", "7-8", "8-9", "9-10"}

const crosstabGenreLimit = 15

type GenreRatingRow struct {
	Genre string  `json:"genre"`
	Bins  []int64 `json:"bins"`
}

type GenreRatingGrid struct {
	Labels []string         `json:"labels"`
	Rows   []GenreRatingRow `json:"rows"`
}

// GenreRatingCrosstab counts movies per genre and coarse rating bucket,
// keeping the most populous genres. Ratings outside (0,10] fall outside
// every bucket and count toward genre size only.
func (s Store) GenreRatingCrosstab(ctx context.Context, f Filter) (GenreRatingGrid, error) {
	where, args, err := f.where()
	if err != nil {
		return GenreRatingGrid{}, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT genre, rating FROM movies WHERE %s
	`, where), args...)
	if err != nil {
		return GenreRatingGrid{}, err
	}
	defer rows.Close()

	counts := map[string][]int64{}
	totals := map[string]int64{}
	for rows.Next() {
		var genre string
		var rating float64
		err := rows.Scan(&genre, &rating)
		if err != nil {
			return GenreRatingGrid{}, err
		}

		if counts[genre] == nil {
			counts[genre] = make([]int64, len(ratingBinLabels))
		}
		totals[genre]++
		for i := 0; i+1 < len(ratingBinEdges); i++ {
			if rating > ratingBinEdges[i] && rating <= ratingBinEdges[i+1] {
				counts[genre][i]++
				break
			}
		}
	}
	err = rows.Err()
	if err != nil {
		return GenreRatingGrid{}, err
	}

	genres := make([]string, 0, len(totals))
	for g := range totals {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if totals[genres[i]] != totals[genres[j]] {
			return totals[genres[i]] > totals[genres[j]]
		}
		return genres[i] < genres[j]
	})
	if len(genres) > crosstabGenreLimit {
		genres = genres[:crosstabGenreLimit]
	}

	grid := GenreRatingGrid{Labels: ratingBinLabels}
	for _, g := range genres {
		grid.Rows = append(grid.Rows, GenreRatingRow{Genre: g, Bins: counts[g]})
	}
	return grid, nil
}

type GenreDuration struct {
	Genre      string  `json:"genre"`
	AvgMinutes float64 `json:"avg_minutes"`
}

func (s Store) AvgDurationByGenre(ctx context.Context, f Filter) ([]GenreDuration, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT genre, AVG(duration_minutes) AS avg_minutes
		FROM movies WHERE %s
		GROUP BY genre ORDER BY avg_minutes DESC
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var durations []GenreDuration
	for rows.Next() {
		var d GenreDuration
		err := rows.Scan(&d.Genre, &d.AvgMinutes)
		if err != nil {
			return nil, err
		}
		durations = append(durations, d)
	}
	return durations, rows.Err()
}

type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int64   `json:"count"`
}

// RatingHistogram buckets ratings into 20 half-point bins over the
// nominal [0,10] scale. Out-of-range ratings (which the cleaning pass
// deliberately lets through) land in the nearest edge bin.
func (s Store) RatingHistogram(ctx context.Context, f Filter) ([]HistogramBin, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rating FROM movies WHERE %s
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	const binCount = 20
	const binWidth = 0.5

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		bins[i].Low = float64(i) * binWidth
		bins[i].High = float64(i+1) * binWidth
	}

	for rows.Next() {
		var rating float64
		err := rows.Scan(&rating)
		if err != nil {
			return nil, err
		}

		i := int(rating / binWidth)
		if i < 0 {
			i = 0
		}
		if i >= binCount {
			i = binCount - 1
		}
		bins[i].Count++
	}
	return bins, rows.Err()
}

// DurationHistogram buckets runtimes into 20 equal-width bins spanning
// the filtered rows' shortest to longest movie. Unlike the rating
// histogram there is no fixed scale to bin against, so no rows yields
// no bins and a single distinct runtime yields one bin.
func (s Store) DurationHistogram(ctx context.Context, f Filter) ([]HistogramBin, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT duration_minutes FROM movies WHERE %s
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var minutes []float64
	for rows.Next() {
		var m int64
		err := rows.Scan(&m)
		if err != nil {
			return nil, err
		}
		minutes = append(minutes, float64(m))
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	if len(minutes) == 0 {
		return nil, nil
	}

	low, high := minutes[0], minutes[0]
	for _, m := range minutes {
		low = math.Min(low, m)
		high = math.Max(high, m)
	}
	if low == high {
		return []HistogramBin{{Low: low, High: high, Count: int64(len(minutes))}}, nil
	}

	const binCount = 20
	width := (high - low) / binCount

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		bins[i].Low = low + float64(i)*width
		bins[i].High = low + float64(i+1)*width
	}
	for _, m := range minutes {
		i := int((m - low) / width)
		if i >= binCount {
			i = binCount - 1
		}
		bins[i].Count++
	}
	return bins, nil
}

// Correlation computes the Pearson correlation between ratings and
// vote counts over the filtered rows. Fewer than two rows (or zero
// variance on either side) yields 0.
func (s Store) Correlation(ctx context.Context, f Filter) (float64, error) {
	where, args, err := f.where()
	if err != nil {
		return 0, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rating, votes FROM movies WHERE %s
	`, where), args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var xs, ys []float64
	for rows.Next() {
		var rating float64
		var votes int64
		err := rows.Scan(&rating, &votes)
		if err != nil {
			return 0, err
		}
		xs = append(xs, rating)
		ys = append(ys, float64(votes))
	}
	err = rows.Err()
	if err != nil {
		return 0, err
	}

	return pearson(xs, ys), nil
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// Genres lists every distinct genre in the store, sorted.
func (s Store) Genres(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT genre FROM movies ORDER BY genre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var g string
		err := rows.Scan(&g)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
