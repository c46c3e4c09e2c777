package charts

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dasdy/turismo/model"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

const (
	Width  = 640
	Height = 400
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}

	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}

	return chart.SVG
}

// Palette holds the series colors, shared with the page legend.
var Palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// SeriesColor returns the hex color of the i-th series.
func SeriesColor(i int) string {
	return Palette[i%len(Palette)]
}

var transparent = drawing.Color{R: 255, G: 255, B: 255, A: 0}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// Render draws the figure. When the chart library refuses the data an empty chart with
// the figure's title and theme is drawn instead.
func Render(w io.Writer, fig model.Figure, format Format) error {
	var buf bytes.Buffer

	if err := chartFor(fig).Render(format.provider(), &buf); err != nil {
		slog.Warn("Could not draw chart, drawing an empty one", "kind", fig.Kind, "error", err)
		buf.Reset()

		if err := emptyChart(fig).Render(format.provider(), &buf); err != nil {
			return fmt.Errorf("could not draw empty %s chart: %w", fig.Kind, err)
		}
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("could not write %s chart: %w", fig.Kind, err)
	}

	return nil
}

func chartFor(fig model.Figure) renderable {
	if fig.Empty() {
		return emptyChart(fig)
	}

	switch fig.Kind {
	case model.ChartBar:
		return barChart(fig)
	case model.ChartLine:
		return lineChart(fig)
	case model.ChartPie:
		return pieChart(fig)
	case model.ChartHistogram:
		return histogramChart(fig)
	case model.ChartScatter:
		return scatterChart(fig)
	default:
		return emptyChart(fig)
	}
}

// ParseColor reads "#RRGGBB" or "#RGB", falling back when the value is not a hex color.
func ParseColor(value string, fallback drawing.Color) drawing.Color {
	hex := strings.TrimSpace(value)
	if !model.IsHexColor(hex) {
		return fallback
	}

	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

type themeStyles struct {
	background chart.Style
	canvas     chart.Style
	title      chart.Style
	axis       chart.Style
	font       drawing.Color
}

func stylesFor(theme model.Theme) themeStyles {
	bg := ParseColor(theme.PanelColor, drawing.ColorWhite)
	font := ParseColor(theme.FontColor, drawing.ColorBlack)

	return themeStyles{
		background: chart.Style{
			FillColor:   bg,
			StrokeColor: bg,
			Padding:     chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		canvas: chart.Style{FillColor: bg, StrokeColor: bg},
		title:  chart.Style{FontColor: font, FontSize: 14},
		axis:   chart.Style{FontColor: font, StrokeColor: font},
		font:   font,
	}
}

func seriesStyle(i int) drawing.Color {
	return ParseColor(SeriesColor(i), drawing.ColorBlue)
}

// pointStyle draws markers without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: transparent,
		DotWidth:    5,
		DotColor:    col,
	}
}

// categoryTicks labels the categories at 1..n. The unlabelled ticks at 0.5 and n+0.5 pin the
// axis range, which the library derives from the ticks.
func categoryTicks(categories []string) []chart.Tick {
	n := len(categories)

	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: 0.5})

	for i, c := range categories {
		ticks = append(ticks, chart.Tick{Value: float64(i + 1), Label: c})
	}

	return append(ticks, chart.Tick{Value: float64(n) + 0.5})
}

func categoryRange(n int) *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: 0.5, Max: float64(n) + 0.5}
}

// valueRange spans the present values with a small margin, always with a non-zero delta.
func valueRange(fig model.Figure, includeZero bool) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)

	for _, s := range fig.Series {
		for _, v := range s.Values {
			if v.Valid {
				lo = math.Min(lo, v.Value)
				hi = math.Max(hi, v.Value)
			}
		}
	}

	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}

	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	pad := (hi - lo) * 0.05
	if includeZero && lo == 0 {
		return &chart.ContinuousRange{Min: 0, Max: hi + pad}
	}

	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func barChart(fig model.Figure) chart.BarChart {
	st := stylesFor(fig.Theme)
	series := fig.Series[0]

	bars := make([]chart.Value, len(fig.Categories))
	for i, c := range fig.Categories {
		bars[i] = chart.Value{
			Label: c,
			Value: series.Values[i].Value,
			Style: chart.Style{FillColor: seriesStyle(0), StrokeColor: seriesStyle(0)},
		}
	}

	barWidth := max(8, (Width-120)/max(1, len(bars))-10)

	return chart.BarChart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		BarWidth:   barWidth,
		BarSpacing: 10,
		Background: st.background,
		Canvas:     st.canvas,
		XAxis:      st.axis,
		YAxis: chart.YAxis{
			Name:      fig.YTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     valueRange(fig, true),
		},
		Bars: bars,
	}
}

func lineChart(fig model.Figure) chart.Chart {
	st := stylesFor(fig.Theme)
	col := seriesStyle(0)

	xs := make([]float64, 0, len(fig.Categories))
	ys := make([]float64, 0, len(fig.Categories))

	for i, v := range fig.Series[0].Values {
		if v.Valid {
			xs = append(xs, float64(i+1))
			ys = append(ys, v.Value)
		}
	}

	return chart.Chart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		Background: st.background,
		Canvas:     st.canvas,
		XAxis: chart.XAxis{
			Name:      fig.XTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     categoryRange(len(fig.Categories)),
			Ticks:     categoryTicks(fig.Categories),
		},
		YAxis: chart.YAxis{
			Name:      fig.YTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     valueRange(fig, false),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    fig.Series[0].Name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: col,
					StrokeWidth: 2,
					DotColor:    col,
					DotWidth:    3,
				},
			},
		},
	}
}

func pieChart(fig model.Figure) renderable {
	st := stylesFor(fig.Theme)

	values := make([]chart.Value, 0, len(fig.Slices))

	for i, s := range fig.Slices {
		// the library cannot draw non-positive slices
		if s.Value <= 0 {
			continue
		}

		values = append(values, chart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: chart.Style{FillColor: seriesStyle(i), StrokeColor: st.background.FillColor, FontColor: st.font},
		})
	}

	if len(values) == 0 {
		return emptyChart(fig)
	}

	return chart.PieChart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		Background: st.background,
		Canvas:     st.canvas,
		SliceStyle: chart.Style{FontColor: st.font},
		Values:     values,
	}
}

// histogramBar is one city's share of a bin, in canvas pixels.
type histogramBar struct {
	series int
	box    chart.Box
}

// countTicks spreads at most eight integer ticks from zero up to at least maxCount.
func countTicks(maxCount float64) ([]chart.Tick, float64) {
	step := math.Max(1, math.Ceil(maxCount/8))
	top := step * math.Max(1, math.Ceil(maxCount/step))

	ticks := make([]chart.Tick, 0, int(top/step)+1)
	for v := 0.0; v <= top; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', 0, 64)})
	}

	return ticks, top
}

// binTotals sums the counts of every city per bin.
func binTotals(fig model.Figure) []float64 {
	totals := make([]float64, len(fig.Categories))

	for _, s := range fig.Series {
		for i, v := range s.Values {
			if v.Valid && i < len(totals) {
				totals[i] += v.Value
			}
		}
	}

	return totals
}

// histogramBars stacks the city counts of every bin, scaled so top reaches the canvas top.
func histogramBars(fig model.Figure, canvas chart.Box, top float64) []histogramBar {
	n := len(fig.Categories)
	if n == 0 || top <= 0 {
		return nil
	}

	slot := float64(canvas.Width()) / float64(n)
	half := slot * 0.4
	yPixel := func(v float64) int {
		return canvas.Bottom - int(math.Round(v/top*float64(canvas.Height())))
	}

	var bars []histogramBar

	for i := range fig.Categories {
		center := float64(canvas.Left) + slot*(float64(i)+0.5)

		var stacked float64

		for j, s := range fig.Series {
			v := s.Values[i]
			if !v.Valid || v.Value <= 0 {
				continue
			}

			bottom := yPixel(stacked)
			stacked += v.Value

			bars = append(bars, histogramBar{
				series: j,
				box: chart.Box{
					Left:   int(math.Round(center - half)),
					Right:  int(math.Round(center + half)),
					Top:    yPixel(stacked),
					Bottom: bottom,
				},
			})
		}
	}

	return bars
}

// histogramChart draws the bins as stacked boxes on a count axis. The library's stacked bar
// chart normalizes every bar to 100%, so the boxes are drawn as a chart element instead.
func histogramChart(fig model.Figure) chart.Chart {
	st := stylesFor(fig.Theme)
	n := len(fig.Categories)
	ticks, top := countTicks(slices.Max(append(binTotals(fig), 0)))

	return chart.Chart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		Background: st.background,
		Canvas:     st.canvas,
		XAxis: chart.XAxis{
			Name:      fig.XTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     categoryRange(n),
			Ticks:     categoryTicks(fig.Categories),
		},
		YAxis: chart.YAxis{
			Name:      fig.YTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     &chart.ContinuousRange{Min: 0, Max: top},
			Ticks:     ticks,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0.5, float64(n) + 0.5},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: transparent, DotColor: transparent},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, canvas chart.Box, _ chart.Style) {
				for _, bar := range histogramBars(fig, canvas, top) {
					col := seriesStyle(bar.series)
					chart.Draw.Box(r, bar.box, chart.Style{FillColor: col, StrokeColor: st.background.FillColor, StrokeWidth: 1})
				}
			},
		},
	}
}

func scatterChart(fig model.Figure) chart.Chart {
	st := stylesFor(fig.Theme)

	series := make([]chart.Series, 0, len(fig.Series))

	for j, s := range fig.Series {
		xs := make([]float64, 0, len(s.Values))
		ys := make([]float64, 0, len(s.Values))

		for i, v := range s.Values {
			if v.Valid {
				xs = append(xs, float64(i+1))
				ys = append(ys, v.Value)
			}
		}

		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(seriesStyle(j)),
		})
	}

	c := chart.Chart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		Background: st.background,
		Canvas:     st.canvas,
		XAxis: chart.XAxis{
			Name:      fig.XTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     categoryRange(len(fig.Categories)),
			Ticks:     categoryTicks(fig.Categories),
		},
		YAxis: chart.YAxis{
			Name:      fig.YTitle,
			NameStyle: st.axis,
			Style:     st.axis,
			Range:     valueRange(fig, false),
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c, chart.Style{
		FillColor:   st.background.FillColor,
		FontColor:   st.font,
		StrokeColor: st.font,
	})}

	return c
}

// emptyChart keeps the title and theme of a figure that has nothing to draw.
func emptyChart(fig model.Figure) chart.Chart {
	st := stylesFor(fig.Theme)

	return chart.Chart{
		Title:      fig.Title,
		TitleStyle: st.title,
		Width:      Width,
		Height:     Height,
		Background: st.background,
		Canvas:     st.canvas,
		XAxis: chart.XAxis{
			Style: st.axis,
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		YAxis: chart.YAxis{
			Style: st.axis,
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: transparent, DotColor: transparent},
			},
		},
	}
}
