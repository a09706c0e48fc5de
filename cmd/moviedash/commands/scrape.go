package commands

import (
	"log/slog"
	"time"

	"moviedash-backend/lib/moviedata"
	"moviedash-backend/lib/restyutil"
	"moviedash-backend/lib/scrapers/imdb"
	"moviedash-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var scrapeOut *string
var scrapePages *int

func init() {
	scrapeOut = scrapeCmd.Flags().String("out", "raw_movies.csv", "The csv file to write scraped rows to.")
	scrapePages = scrapeCmd.Flags().Int("pages", 0, "Override the configured per-genre page limit.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--out <path/to/raw.csv>] [--pages <n>]",
	Short: "Scrapes the year's movie listing pages and writes a raw csv.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if *scrapePages > 0 {
			cfg.Scrape.MaxPages = *scrapePages
		}

		if *verbose {
			imdb.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/imdb"))
		}

		client, err := imdb.NewClient(imdb.ClientOptions{BaseUrl: cfg.Scrape.BaseUrl})
		if err != nil {
			serviceutil.Fatal("failed to initialize scrape client", err)
		}

		slog.Info("scraping listing", "year", cfg.Scrape.Year, "genres", cfg.Scrape.Genres)

		t1 := time.Now()
		records, err := client.Scrape(cmd.Context(), imdb.ScrapeOptions{
			Year:     cfg.Scrape.Year,
			Genres:   cfg.Scrape.Genres,
			MaxPages: cfg.Scrape.MaxPages,
		})
		if err != nil {
			slog.Error("some listing pages failed", "err", err)
		}
		if len(records) == 0 {
			serviceutil.Fatal("scrape yielded no rows", err)
		}

		err = moviedata.WriteRawTableFile(*scrapeOut, records)
		if err != nil {
			serviceutil.Fatal("failed to write raw csv", err)
		}

		slog.Info(
			"scrape finished",
			"rows", len(records),
			"out", *scrapeOut,
			"seconds", time.Since(t1).Seconds(),
		)
	},
}
