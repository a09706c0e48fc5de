package commands

import (
	"log/slog"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/moviestore"
	"moviedash-backend/lib/moviestore/db"
	"moviedash-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var loadIn *string

func init() {
	loadIn = loadCmd.Flags().String("in", "movies_cleaned.csv", "The cleaned csv to load.")
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load [--in <path/to/cleaned.csv>]",
	Short: "Loads a cleaned movie csv into the configured database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		raw, err := moviedata.ReadTableFile(*loadIn)
		if err != nil {
			serviceutil.Fatal("failed to read cleaned csv", err)
		}

		// cleaning is a projection, re-running it over an already
		// cleaned table only catches rows that were edited by hand
		records, report := moviedata.CleanTable(raw)
		if report.Dropped > 0 {
			slog.Warn("input contained unclean rows", "dropped", report.Dropped)
		}

		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		store := moviestore.NewStore(database)
		err = store.ReplaceAll(cmd.Context(), records)
		if err != nil {
			serviceutil.Fatal("failed to load movies", err)
		}

		slog.Info("load finished", "rows", len(records))
	},
}
