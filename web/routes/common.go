package routes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/a-h/templ"
	"github.com/dasdy/turismo/db"
	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
)

var errNoDataset = errors.New("no dataset uploaded for this session")

// ServerHandler holds all dependencies needed for the web server handlers.
type ServerHandler struct {
	Storage     db.Storage
	Tables      *table.Cache
	LoadDelay   time.Duration
	RevealDelay time.Duration
	SessionTTL  time.Duration
}

// SafeRenderTemplate safely renders a templ component to an http.ResponseWriter.
func SafeRenderTemplate(ctx context.Context, component templ.Component, w http.ResponseWriter) error {
	// Do not write to w because it implies 200 status
	var buf bytes.Buffer

	err := component.Render(ctx, &buf)
	if err != nil {
		return fmt.Errorf("could not render template: %w", err)
	}

	// Template executed successfully to the buffer.
	// Now, copy it over to the ResponseWriter
	// This implies a 200 OK status code
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")

	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(ctx, "Failed to write response", "error", err)

		return fmt.Errorf("could not write to response writer: %w", err)
	}

	return nil
}

// BuildSelection resolves the stored preferences against the table: a city or year that is
// unset or not in the table falls back to the first one.
func BuildSelection(t *model.Table, prefs model.Preferences) model.Selection {
	sel := model.Selection{
		Theme: model.Theme{FontColor: prefs.FontColor, PanelColor: prefs.PanelColor},
	}

	cities := t.Cities()
	if prefs.City != nil && slices.Contains(cities, *prefs.City) {
		sel.City = *prefs.City
	} else if len(cities) > 0 {
		sel.City = cities[0]
	}

	if prefs.Year != nil && slices.Contains(t.Columns, *prefs.Year) {
		sel.Year = *prefs.Year
	} else if len(t.Columns) > 0 {
		sel.Year = t.Columns[0]
	}

	return sel
}

type sessionState struct {
	session string
	prefs   model.Preferences
	table   *model.Table
}

// loadState reads the session's preferences and table. The table is nil when nothing was
// uploaded or the cached table is gone.
func (s *ServerHandler) loadState(ctx context.Context) (sessionState, error) {
	state := sessionState{session: SessionFrom(ctx)}

	prefs, err := s.Storage.Preferences(ctx, state.session)
	if err != nil {
		return state, fmt.Errorf("could not load preferences: %w", err)
	}

	state.prefs = prefs

	key, err := s.Storage.Dataset(ctx, state.session)
	if err != nil {
		return state, fmt.Errorf("could not load dataset key: %w", err)
	}

	if key == "" {
		return state, nil
	}

	t, ok := s.Tables.Get(key)
	if !ok {
		slog.WarnContext(ctx, "Session refers to a table that is not cached", "key", key)

		return state, nil
	}

	state.table = t

	return state, nil
}

// requireTable is loadState for handlers that cannot work without a table.
func (s *ServerHandler) requireTable(ctx context.Context) (sessionState, error) {
	state, err := s.loadState(ctx)
	if err != nil {
		return state, err
	}

	if state.table == nil {
		return state, errNoDataset
	}

	return state, nil
}

func writeStateError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errNoDataset) {
		http.Error(w, err.Error(), http.StatusConflict)

		return
	}

	slog.ErrorContext(ctx, "Failed to load session state", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// pause waits d unless the request goes away first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("request cancelled while waiting: %w", ctx.Err())
	}
}
