package turismo

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dasdy/turismo/db"
	"github.com/dasdy/turismo/table"
	"github.com/dasdy/turismo/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	port        int
	storagePath string
	dev         bool
	loadDelay   time.Duration
	revealDelay time.Duration
	sessionTTL  time.Duration
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard",
	Long: `Serve the web dashboard. Every browser session gets its own uploaded table
and control values, kept in SQLite (in memory unless --storage points to a file).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.Debug("Config", "file", viper.ConfigFileUsed(), "settings", viper.AllSettings())

		storage, err := db.NewStorageFromPath(storagePath)
		if err != nil {
			return fmt.Errorf("could not open %s as sqlite file: %w", storagePath, err)
		}
		defer storage.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return web.StartServer(ctx, port, storage, table.NewCache(), web.Options{
			Dev:         dev,
			LoadDelay:   loadDelay,
			RevealDelay: revealDelay,
			SessionTTL:  sessionTTL,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080,
		"Port on which server should be watching")

	serveCmd.Flags().StringVarP(
		&storagePath,
		"storage",
		"s",
		db.MemoryPath,
		"SQLite path for session preferences")

	serveCmd.Flags().BoolVar(&dev,
		"dev",
		false,
		"Enable developer mode")

	serveCmd.Flags().DurationVar(&loadDelay, "load-delay", 500*time.Millisecond,
		"Pause before an uploaded file is shown")

	serveCmd.Flags().DurationVar(&revealDelay, "reveal-delay", 1500*time.Millisecond,
		"Pause before filtered data is shown")

	serveCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 24*time.Hour,
		"Forget sessions idle for longer than this, 0 keeps them forever")
}
