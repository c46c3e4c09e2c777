package routes

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/dasdy/turismo/table"
)

// ExportHandle offers the currently filtered row as a CSV download.
func (s *ServerHandler) ExportHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := s.requireTable(ctx)
	if err != nil {
		writeStateError(ctx, w, err)

		return
	}

	sel := BuildSelection(state.table, state.prefs)

	var buf bytes.Buffer
	if err := table.Export(&buf, table.Filter(state.table, sel.City, sel.Year)); err != nil {
		slog.ErrorContext(ctx, "Failed to export", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table.ExportFileName+`"`)

	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(ctx, "Failed to write export", "error", err)
	}
}
