package routes_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/web/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockComponent implements the templ.Component interface for testing.
type MockComponent struct {
	RenderFunc func(ctx context.Context, w io.Writer) error
}

func (m MockComponent) Render(ctx context.Context, w io.Writer) error {
	return m.RenderFunc(ctx, w)
}

func TestSafeRenderTemplate(t *testing.T) {
	t.Run("successful render", func(t *testing.T) {
		mockComponent := MockComponent{
			RenderFunc: func(_ context.Context, w io.Writer) error {
				_, err := w.Write([]byte("Olá, mundo!"))
				if err != nil {
					return fmt.Errorf("failed to write data: %w", err)
				}

				return nil
			},
		}

		recorder := httptest.NewRecorder()

		err := routes.SafeRenderTemplate(context.Background(), mockComponent, recorder)
		require.NoError(t, err)

		assert.Equal(t, "text/html; charset=UTF-8", recorder.Header().Get("Content-Type"))
		assert.Equal(t, "Olá, mundo!", recorder.Body.String())
	})

	t.Run("render error", func(t *testing.T) {
		expectedErr := errors.New("render error")
		mockComponent := MockComponent{
			RenderFunc: func(_ context.Context, _ io.Writer) error {
				return expectedErr
			},
		}

		recorder := httptest.NewRecorder()

		err := routes.SafeRenderTemplate(context.Background(), mockComponent, recorder)

		require.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), "could not render template")
		assert.Empty(t, recorder.Body.String())
	})
}

func TestBuildSelection(t *testing.T) {
	tbl := sampleTable(t)

	tests := []struct {
		name     string
		prefs    model.Preferences
		wantCity string
		wantYear string
	}{
		{
			name:     "defaults pick first city and year",
			prefs:    model.DefaultPreferences(),
			wantCity: "Rio",
			wantYear: "2019",
		},
		{
			name:     "stored values are kept",
			prefs:    model.Preferences{City: ptr("Salvador"), Year: ptr("2021")},
			wantCity: "Salvador",
			wantYear: "2021",
		},
		{
			name:     "values from another table fall back",
			prefs:    model.Preferences{City: ptr("Recife"), Year: ptr("1999")},
			wantCity: "Rio",
			wantYear: "2019",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := routes.BuildSelection(tbl, tt.prefs)

			assert.Equal(t, tt.wantCity, sel.City)
			assert.Equal(t, tt.wantYear, sel.Year)
		})
	}

	t.Run("theme comes from preferences", func(t *testing.T) {
		sel := routes.BuildSelection(tbl, model.Preferences{FontColor: "#000000", PanelColor: "#FFFFFF"})

		assert.Equal(t, model.Theme{FontColor: "#000000", PanelColor: "#FFFFFF"}, sel.Theme)
	})

	t.Run("empty table gives empty selection", func(t *testing.T) {
		sel := routes.BuildSelection(&model.Table{CityColumn: "Cidades"}, model.DefaultPreferences())

		assert.Empty(t, sel.City)
		assert.Empty(t, sel.Year)
	})
}

func TestWithSession(t *testing.T) {
	handler, storage := setupHandler(t)
	handler.SessionTTL = 1

	var seen string

	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = routes.SessionFrom(r.Context())
	})

	t.Run("known cookie is reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: routes.SessionCookie, Value: "s1"})
		recorder := httptest.NewRecorder()

		handler.WithSession(next).ServeHTTP(recorder, req)

		assert.Equal(t, "s1", seen)
		assert.Empty(t, recorder.Result().Cookies())
		assert.Zero(t, storage.PruneCalls)
	})

	t.Run("unknown cookie starts a new session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: routes.SessionCookie, Value: "gone"})
		recorder := httptest.NewRecorder()

		handler.WithSession(next).ServeHTTP(recorder, req)

		require.NotEqual(t, "gone", seen)
		assert.NotEmpty(t, seen)

		cookies := recorder.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, routes.SessionCookie, cookies[0].Name)
		assert.Equal(t, seen, cookies[0].Value)
		assert.Equal(t, 1, storage.PruneCalls)
	})

	t.Run("storage failure", func(t *testing.T) {
		storage.ReturnError = errors.New("disk on fire")
		defer func() { storage.ReturnError = nil }()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		recorder := httptest.NewRecorder()

		handler.WithSession(next).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestWithSessionEvictsOrphanTables(t *testing.T) {
	handler, storage := setupHandler(t)
	handler.SessionTTL = time.Microsecond

	orphan, _, err := handler.Tables.Load([]byte("Cidades,2022\nRecife,1\n"))
	require.NoError(t, err)

	storage.Prefs["s2"] = model.DefaultPreferences()
	storage.Datasets["s2"] = orphan
	storage.Idle = []string{"s2"}

	time.Sleep(time.Millisecond)

	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})
	handler.WithSession(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	_, ok := handler.Tables.Get(orphan)
	assert.False(t, ok)

	_, ok = handler.Tables.Get(storage.Datasets["s1"])
	assert.True(t, ok)
	assert.Equal(t, 1, handler.Tables.Len())
}
