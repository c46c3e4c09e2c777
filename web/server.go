package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dasdy/turismo/db"
	"github.com/dasdy/turismo/logging"
	"github.com/dasdy/turismo/table"
	"github.com/dasdy/turismo/web/routes"
)

// Options are the knobs of the dashboard server that do not come from storage.
type Options struct {
	Dev         bool
	LoadDelay   time.Duration
	RevealDelay time.Duration
	SessionTTL  time.Duration
}

func disableCacheInDevMode(dev bool, next http.Handler) http.Handler {
	if !dev {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func BuildServer(storage db.Storage, tables *table.Cache, opts Options) http.Handler {
	handler := routes.ServerHandler{
		Storage:     storage,
		Tables:      tables,
		LoadDelay:   opts.LoadDelay,
		RevealDelay: opts.RevealDelay,
		SessionTTL:  opts.SessionTTL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.IndexHandle)
	mux.HandleFunc("POST /upload", handler.UploadHandle)
	mux.HandleFunc("POST /preferences", handler.PreferencesHandle)
	mux.HandleFunc("GET /export.csv", handler.ExportHandle)
	mux.HandleFunc("GET /charts/{kind}", handler.ChartHandle)

	return disableCacheInDevMode(opts.Dev, handler.WithSession(mux))
}

// StartServer serves the dashboard until ctx is cancelled.
func StartServer(ctx context.Context, port int, storage db.Storage, tables *table.Cache, opts Options) error {
	ctx = logging.AppendCtx(ctx, slog.Int("port", port))
	slog.InfoContext(ctx, "Running interface")

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           BuildServer(storage, tables, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("could not run server: %w", err)
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server: %w", err)
		}

		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not run server: %w", err)
		}

		return nil
	}
}
