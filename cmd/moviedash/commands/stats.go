package commands

import (
	"fmt"
	"os"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/moviestore"
	"moviedash-backend/lib/moviestore/db"
	"moviedash-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsMinRating *float64
var statsMinVotes *int64
var statsDuration *string
var statsGenres *[]string
var statsTop *int
var statsBy *string

func init() {
	statsMinRating = statsCmd.Flags().Float64("min-rating", 0, "Only count movies rated at least this.")
	statsMinVotes = statsCmd.Flags().Int64("min-votes", 0, "Only count movies with at least this many votes.")
	statsDuration = statsCmd.Flags().String("duration", "", "Duration bucket, one of <2h, 2-3h, >3h.")
	statsGenres = statsCmd.Flags().StringArray("genre", nil, "Only count these genres, repeatable.")
	statsTop = statsCmd.Flags().Int("top", 10, "How many top movies to list.")
	statsBy = statsCmd.Flags().String("by", "rating", "Rank top movies by rating or votes.")
	rootCmd.AddCommand(statsCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var statsCmd = &cobra.Command{
	Use:   "stats [--min-rating <x>] [--genre <g>]... [--top <n> --by rating|votes]",
	Short: "Renders summary statistics and a top movie list from the database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()
		store := moviestore.NewStore(database)

		genres := make([]string, len(*statsGenres))
		for i, g := range *statsGenres {
			genres[i] = moviedata.NormalizeGenre(g)
		}
		filter := moviestore.Filter{
			MinRating:     *statsMinRating,
			MinVotes:      *statsMinVotes,
			DurationRange: *statsDuration,
			Genres:        genres,
		}

		summary, err := store.Summary(ctx, filter)
		if err != nil {
			serviceutil.Fatal("failed to query summary", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Movies", "Avg rating", "Total votes", "Genres", "Avg duration"})
		t.AppendRow(table.Row{
			summary.Movies,
			fmt.Sprintf("%.1f/10", summary.AvgRating),
			summary.TotalVotes,
			summary.GenreCount,
			fmt.Sprintf("%.0f min", summary.AvgDuration),
		})
		t.Render()

		top, err := store.Top(ctx, filter, *statsBy, *statsTop)
		if err != nil {
			serviceutil.Fatal("failed to query top movies", err)
		}

		t = newTable()
		t.AppendHeader(table.Row{"Title", "Rating", "Votes", "Duration", "Genre"})
		for _, m := range top {
			t.AppendRow(table.Row{
				m.Title,
				m.Rating,
				m.Votes,
				fmt.Sprintf("%dm", m.DurationMinutes),
				m.Genre,
			})
		}
		t.Render()
	},
}
