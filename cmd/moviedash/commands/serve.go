package commands

import (
	"context"

	"moviedash-backend/lib/moviestore"
	"moviedash-backend/lib/moviestore/db"
	"moviedash-backend/lib/serviceutil"
	"moviedash-backend/lib/telemetry"
	"moviedash-backend/services/dashboard"

	"github.com/spf13/cobra"
)

var servePort *int

func init() {
	servePort = serveCmd.Flags().Int("port", 8080, "The port the dashboard api listens on.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Serves the dashboard api over the loaded database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		t, err := telemetry.SetupFromEnv(ctx, "dashboard")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		database, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		router := dashboard.NewRouter(moviestore.NewStore(database))
		go serviceutil.StartHttpServer(*servePort, router)

		<-ctx.Done()
	},
}
