package main

import (
	"log/slog"
	"os"

	"github.com/dasdy/turismo/cmd/turismo"
	"github.com/dasdy/turismo/logging"
)

func main() {
	// Wrapping slog.Default().Handler() in ContextHandler deadlocks on slog's internal mutex, so
	// the handler is built from scratch.
	slog.SetDefault(logging.NewLogger(os.Stderr, false))

	turismo.Execute()
}
