package routes

import (
	"log/slog"
	"net/http"

	"github.com/dasdy/turismo/charts"
	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	cs "github.com/dasdy/turismo/web/components"
)

// BuildPageRenderContext builds the render context of the main page. A nil table gives the
// upload-only page.
func (s *ServerHandler) BuildPageRenderContext(t *model.Table, prefs model.Preferences) cs.RenderContext {
	if t == nil {
		return cs.RenderContext{
			Page: cs.PageTypeUpload,
			Selection: model.Selection{
				Theme: model.Theme{FontColor: prefs.FontColor, PanelColor: prefs.PanelColor},
			},
		}
	}

	sel := BuildSelection(t, prefs)
	filtered := table.Filter(t, sel.City, sel.Year)

	items := make([]cs.ChartItem, 0, len(model.ChartKinds))
	for _, kind := range model.ChartKinds {
		items = append(items, cs.ChartItem{Kind: kind, Heading: kind.Heading(), URL: cs.ChartLink(kind)})
	}

	// the histogram library chart has no legend of its own
	for i, item := range items {
		if item.Kind != model.ChartHistogram {
			continue
		}

		for j, series := range charts.Histogram(t, sel.City, sel.Theme).Series {
			items[i].Legend = append(items[i].Legend, cs.LegendItem{Label: series.Name, Color: charts.SeriesColor(j)})
		}
	}

	return cs.RenderContext{
		Page:      cs.PageTypeDashboard,
		Cities:    t.Cities(),
		Years:     t.Columns,
		Selection: sel,
		ShowData:  prefs.ShowData,
		Filtered:  &filtered,
		Summary:   table.Summarize(t),
		Charts:    items,
	}
}

// IndexHandle renders the page and stores the resolved city and year back into the session.
func (s *ServerHandler) IndexHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.InfoContext(ctx, "Handling index page request")

	state, err := s.loadState(ctx)
	if err != nil {
		writeStateError(ctx, w, err)

		return
	}

	renderContext := s.BuildPageRenderContext(state.table, state.prefs)

	if state.table != nil {
		sel := renderContext.Selection

		if state.prefs.City == nil || *state.prefs.City != sel.City {
			if err := s.Storage.SetField(ctx, state.session, model.FieldCity, sel.City); err != nil {
				slog.ErrorContext(ctx, "Failed to store city", "error", err)
			}
		}

		if state.prefs.Year == nil || *state.prefs.Year != sel.Year {
			if err := s.Storage.SetField(ctx, state.session, model.FieldYear, sel.Year); err != nil {
				slog.ErrorContext(ctx, "Failed to store year", "error", err)
			}
		}

		if state.prefs.ShowData {
			if err := pause(ctx, s.RevealDelay); err != nil {
				slog.DebugContext(ctx, "Gave up before showing data", "error", err)

				return
			}
		}
	}

	slog.DebugContext(ctx, "Built render context", "page", renderContext.Page)

	if err := SafeRenderTemplate(ctx, cs.Page(&renderContext), w); err != nil {
		slog.ErrorContext(ctx, "Failed to render page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
