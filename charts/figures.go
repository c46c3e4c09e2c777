// Package charts turns a loaded table into chart descriptions and renders them.
//
// Builders are pure: they take the table, the selected city and the page theme and return
// a model.Figure. Render draws a Figure with go-chart.
package charts

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
)

const (
	yearTitle  = "Ano"
	valueTitle = "%"
	countTitle = "count"
)

// Builder produces the figure of one chart kind.
type Builder func(t *model.Table, city string, theme model.Theme) model.Figure

var builders = map[model.ChartKind]Builder{
	model.ChartBar:       Bar,
	model.ChartLine:      Line,
	model.ChartPie:       Pie,
	model.ChartHistogram: Histogram,
	model.ChartScatter:   Scatter,
}

// Build dispatches to the builder of the given kind.
func Build(kind model.ChartKind, t *model.Table, city string, theme model.Theme) (model.Figure, error) {
	b, ok := builders[kind]
	if !ok {
		return model.Figure{}, fmt.Errorf("no builder for chart kind %q", kind)
	}

	return b(t, city, theme), nil
}

// BuildAll builds every chart in page order.
func BuildAll(t *model.Table, sel model.Selection) []model.Figure {
	figures := make([]model.Figure, 0, len(model.ChartKinds))
	for _, kind := range model.ChartKinds {
		figures = append(figures, builders[kind](t, sel.City, sel.Theme))
	}

	return figures
}

func citySeries(t *model.Table, city string) ([]string, model.Series) {
	points := table.Transpose(t, city)

	categories := make([]string, len(points))
	series := model.Series{Name: city, Values: make([]model.Cell, len(points))}

	for i, p := range points {
		categories[i] = p.Year
		series.Values[i] = p.Value
	}

	return categories, series
}

// Bar plots the city's values with years on the horizontal axis.
func Bar(t *model.Table, city string, theme model.Theme) model.Figure {
	categories, series := citySeries(t, city)

	return model.Figure{
		Kind:       model.ChartBar,
		Title:      "Gráfico de barras para " + city,
		XTitle:     yearTitle,
		YTitle:     city,
		Categories: categories,
		Series:     []model.Series{series},
		Theme:      theme,
	}
}

// Line is the same data as Bar drawn as a line.
func Line(t *model.Table, city string, theme model.Theme) model.Figure {
	categories, series := citySeries(t, city)

	return model.Figure{
		Kind:       model.ChartLine,
		Title:      "Gráfico de linhas para " + city,
		XTitle:     yearTitle,
		YTitle:     city,
		Categories: categories,
		Series:     []model.Series{series},
		Theme:      theme,
	}
}

// Pie uses the city's present values as slices labelled by year.
func Pie(t *model.Table, city string, theme model.Theme) model.Figure {
	fig := model.Figure{
		Kind:  model.ChartPie,
		Title: "Distribuição dos valores para " + city,
		Theme: theme,
	}

	for _, p := range table.Transpose(t, city) {
		if p.Value.Valid {
			fig.Slices = append(fig.Slices, model.Slice{Label: p.Year, Value: p.Value.Value})
		}
	}

	return fig
}

// Histogram counts the present values of every city into shared bins, one series per city.
func Histogram(t *model.Table, _ string, theme model.Theme) model.Figure {
	fig := model.Figure{
		Kind:   model.ChartHistogram,
		Title:  "Distribuição dos Valores por Cidades",
		XTitle: valueTitle,
		YTitle: countTitle,
		Theme:  theme,
	}

	long := table.DropMissing(table.Melt(t))
	if len(long) == 0 {
		return fig
	}

	values := make([]float64, len(long))
	for i, r := range long {
		values[i] = r.Value.Value
	}

	edges := binEdges(values)
	nbins := len(edges) - 1

	fig.Categories = make([]string, nbins)
	for i := range nbins {
		fig.Categories[i] = formatBin(edges[i], edges[i+1])
	}

	byCity := make(map[string]int)

	for _, r := range long {
		ix, ok := byCity[r.City]
		if !ok {
			ix = len(fig.Series)
			byCity[r.City] = ix
			fig.Series = append(fig.Series, model.Series{Name: r.City, Values: zeroCounts(nbins)})
		}

		b := binIndex(edges, r.Value.Value)
		fig.Series[ix].Values[b].Value++
	}

	return fig
}

// Scatter plots value against year for every city that has no missing value.
func Scatter(t *model.Table, _ string, theme model.Theme) model.Figure {
	fig := model.Figure{
		Kind:       model.ChartScatter,
		Title:      "Valores das Cidades por Ano",
		XTitle:     yearTitle,
		YTitle:     valueTitle,
		Categories: t.Columns,
		Theme:      theme,
	}

	complete := table.CompleteRows(t)
	byCity := make(map[string]int)

	for _, r := range table.Melt(complete) {
		ix, ok := byCity[r.City]
		if !ok {
			ix = len(fig.Series)
			byCity[r.City] = ix
			fig.Series = append(fig.Series, model.Series{Name: r.City})
		}

		fig.Series[ix].Values = append(fig.Series[ix].Values, r.Value)
	}

	return fig
}

// binEdges splits the value range into Sturges' number of equal bins.
func binEdges(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if lo == hi {
		return []float64{lo - 0.5, hi + 0.5}
	}

	n := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	width := (hi - lo) / float64(n)

	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}

	edges[n] = hi

	return edges
}

// binIndex finds the half-open bin holding v; the last bin is closed.
func binIndex(edges []float64, v float64) int {
	last := len(edges) - 2
	for i := range last {
		if v < edges[i+1] {
			return i
		}
	}

	return last
}

func zeroCounts(n int) []model.Cell {
	counts := make([]model.Cell, n)
	for i := range counts {
		counts[i] = model.Number(0)
	}

	return counts
}

func formatBin(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', 2, 64) + "-" + strconv.FormatFloat(hi, 'f', 2, 64)
}
