package commands

import (
	"log/slog"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var cleanIn *string
var cleanOut *string

func init() {
	cleanIn = cleanCmd.Flags().String("in", "raw_movies.csv", "The raw csv to clean.")
	cleanOut = cleanCmd.Flags().String("out", "movies_cleaned.csv", "The csv file to write cleaned rows to.")
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean [--in <path/to/raw.csv>] [--out <path/to/cleaned.csv>]",
	Short: "Normalizes a raw movie csv, dropping rows with unparseable fields.",
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := moviedata.ReadTableFile(*cleanIn)
		if err != nil {
			serviceutil.Fatal("failed to read raw csv", err)
		}

		records, report := moviedata.CleanTable(raw)

		err = moviedata.WriteTableFile(*cleanOut, records)
		if err != nil {
			serviceutil.Fatal("failed to write cleaned csv", err)
		}

		slog.Info(
			"cleaning finished",
			"read", report.Read,
			"kept", report.Kept,
			"dropped", report.Dropped,
			"out", *cleanOut,
		)
		if report.Dropped > 0 {
			slog.Warn(
				"dropped rows by field",
				"rating", report.BadRating,
				"votes", report.BadVotes,
				"duration", report.BadDuration,
				"genre", report.BadGenre,
			)
		}
	},
}
