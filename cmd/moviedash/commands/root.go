package commands

import (
	"context"
	"fmt"
	"os"

	"moviedash-backend/lib/configutil"
	configsqlite "moviedash-backend/lib/configutil/sqlite"
	"moviedash-backend/lib/serviceutil"
	"moviedash-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

type ScrapeConfig struct {
	BaseUrl  string   `json:"base_url"`
	Year     int      `json:"year"`
	Genres   []string `json:"genres"`
	MaxPages int      `json:"max_pages"`
}

type Config struct {
	Database configsqlite.Struct `json:"database"`
	Scrape   ScrapeConfig        `json:"scrape"`
}

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "moviedash",
	Short: "moviedash scrapes, cleans and serves a yearly movie listing table.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

// loadConfig reads config.json5 (plus config.local.json5 overrides)
// and fills in the defaults a missing file would leave empty.
func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	if cfg.Database.File == "" && cfg.Database.Url == "" {
		cfg.Database.File = "movies.db"
	}
	if cfg.Scrape.Year == 0 {
		cfg.Scrape.Year = 2024
	}
	return cfg
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
