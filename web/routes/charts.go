package routes

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dasdy/turismo/charts"
	"github.com/dasdy/turismo/model"
)

// ChartHandle draws one chart for the session's current selection. With format=json the
// figure description is returned instead of an image.
func (s *ServerHandler) ChartHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := model.ParseChartKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)

		return
	}

	format := r.URL.Query().Get("format")

	var imageFormat charts.Format

	if format != "json" {
		if format == "" {
			format = string(charts.FormatSVG)
		}

		imageFormat, err = charts.ParseFormat(format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
	}

	state, err := s.requireTable(ctx)
	if err != nil {
		writeStateError(ctx, w, err)

		return
	}

	sel := BuildSelection(state.table, state.prefs)

	fig, err := charts.Build(kind, state.table, sel.City, sel.Theme)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)

		return
	}

	var buf bytes.Buffer

	contentType := "application/json"
	if imageFormat == "" {
		err = json.NewEncoder(&buf).Encode(fig)
	} else {
		contentType = imageFormat.ContentType()
		err = charts.Render(&buf, fig, imageFormat)
	}

	if err != nil {
		slog.ErrorContext(ctx, "Failed to draw chart", "kind", kind, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")

	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(ctx, "Failed to write chart", "error", err)
	}
}
