package moviestore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/moviestore/db"
	"moviedash-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) (Store, context.Context) {
	cleanup := telemetry.SetupForTesting(t, "test:moviestore")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)

	return NewStore(sqlite), ctx
}

var testMovies = []moviedata.Record{
	{Title: "1. Alpha", Rating: 8.1, Votes: 120000, DurationMinutes: 133, Genre: "Action"},
	{Title: "2. Beta", Rating: 7.2, Votes: 5400, DurationMinutes: 95, Genre: "Drama"},
	{Title: "3. Gamma", Rating: 6.9, Votes: 1234, DurationMinutes: 105, Genre: "Horror"},
	{Title: "4. Delta", Rating: 7.7, Votes: 128000, DurationMinutes: 190, Genre: "Action"},
	{Title: "5. Epsilon", Rating: 5.5, Votes: 42, DurationMinutes: 89, Genre: "Comedy"},
	{Title: "6. Zeta", Rating: 8.9, Votes: 310000, DurationMinutes: 166, Genre: "Drama"},
}

func TestReplaceAllAndQuery(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	// loading the same table twice must not duplicate rows
	err = store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	all, err := store.Query(ctx, Filter{}, QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, testMovies, all)

	highRated, err := store.Query(ctx, Filter{MinRating: 7.5}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, highRated, 3)
	// original relative order survives filtering
	require.Equal(t, "1. Alpha", highRated[0].Title)
	require.Equal(t, "4. Delta", highRated[1].Title)
	require.Equal(t, "6. Zeta", highRated[2].Title)

	short, err := store.Query(ctx, Filter{DurationRange: "<2h"}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, short, 3)

	long, err := store.Query(ctx, Filter{DurationRange: ">3h"}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, long, 1)
	require.Equal(t, "4. Delta", long[0].Title)

	action, err := store.Query(ctx, Filter{Genres: []string{"Action", "Comedy"}}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, action, 3)

	_, err = store.Query(ctx, Filter{DurationRange: "bogus"}, QueryOptions{})
	require.Error(t, err)

	_, err = store.Query(ctx, Filter{}, QueryOptions{SortBy: "bogus"})
	require.Error(t, err)
}

func TestTop(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	byRating, err := store.Top(ctx, Filter{}, "rating", 2)
	require.NoError(t, err)
	require.Len(t, byRating, 2)
	require.Equal(t, "6. Zeta", byRating[0].Title)
	require.Equal(t, "1. Alpha", byRating[1].Title)

	byVotes, err := store.Top(ctx, Filter{}, "votes", 1)
	require.NoError(t, err)
	require.Equal(t, "6. Zeta", byVotes[0].Title)

	_, err = store.Top(ctx, Filter{}, "title", 3)
	require.Error(t, err)
}

func TestSummaryAndAggregates(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	summary, err := store.Summary(ctx, Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 6, summary.Movies)
	require.EqualValues(t, 564676, summary.TotalVotes)
	require.EqualValues(t, 4, summary.GenreCount)
	require.InDelta(t, 7.383, summary.AvgRating, 0.001)

	counts, err := store.GenreCounts(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, []GenreCount{
		{Genre: "Action", Count: 2},
		{Genre: "Drama", Count: 2},
		{Genre: "Comedy", Count: 1},
		{Genre: "Horror", Count: 1},
	}, counts)

	durations, err := store.AvgDurationByGenre(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, "Action", durations[0].Genre)
	require.InDelta(t, 161.5, durations[0].AvgMinutes, 0.001)

	genres, err := store.Genres(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Action", "Comedy", "Drama", "Horror"}, genres)
}

func TestRatingHistogram(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	bins, err := store.RatingHistogram(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, bins, 20)

	var total int64
	for _, bin := range bins {
		total += bin.Count
	}
	require.EqualValues(t, 6, total)

	// 8.1 falls into [8.0, 8.5)
	require.EqualValues(t, 1, bins[16].Count)
}

func TestGenreRatingCrosstab(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	grid, err := store.GenreRatingCrosstab(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{"≤6", "6-7", "7-8", "8-9", "9-10"}, grid.Labels)

	// genres ordered by movie count, ties alphabetical
	require.Equal(t, []GenreRatingRow{
		{Genre: "Action", Bins: []int64{0, 0, 1, 1, 0}},
		{Genre: "Drama", Bins: []int64{0, 0, 1, 1, 0}},
		{Genre: "Comedy", Bins: []int64{1, 0, 0, 0, 0}},
		{Genre: "Horror", Bins: []int64{0, 1, 0, 0, 0}},
	}, grid.Rows)
}

func TestDurationHistogram(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	bins, err := store.DurationHistogram(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, bins, 20)

	var total int64
	for _, bin := range bins {
		total += bin.Count
	}
	require.EqualValues(t, 6, total)

	// the bins span the fixture's 89 to 190 minute range, the
	// shortest movie lands in the first bin, the longest in the last
	require.InDelta(t, 89, bins[0].Low, 0.001)
	require.InDelta(t, 190, bins[19].High, 0.001)
	require.EqualValues(t, 1, bins[0].Count)
	require.EqualValues(t, 1, bins[19].Count)

	none, err := store.DurationHistogram(ctx, Filter{MinRating: 9.9})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCorrelation(t *testing.T) {
	store, ctx := setupStore(t)

	err := store.ReplaceAll(ctx, testMovies)
	require.NoError(t, err)

	corr, err := store.Correlation(ctx, Filter{})
	require.NoError(t, err)
	// higher rated movies in the fixture have more votes
	require.Greater(t, corr, 0.5)
	require.LessOrEqual(t, corr, 1.0)

	none, err := store.Correlation(ctx, Filter{MinRating: 9.9})
	require.NoError(t, err)
	require.Equal(t, 0.0, none)
}
