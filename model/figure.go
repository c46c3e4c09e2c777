package model

import "fmt"

type ChartKind string

const (
	ChartBar       ChartKind = "bar"
	ChartLine      ChartKind = "line"
	ChartPie       ChartKind = "pie"
	ChartHistogram ChartKind = "histogram"
	ChartScatter   ChartKind = "scatter"
)

// ChartKinds lists the charts in the order the page shows them.
var ChartKinds = []ChartKind{ChartBar, ChartLine, ChartPie, ChartHistogram, ChartScatter}

func ParseChartKind(s string) (ChartKind, error) {
	for _, k := range ChartKinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown chart kind %q", s)
}

// Heading is the section title the page puts above a chart.
func (k ChartKind) Heading() string {
	switch k {
	case ChartBar:
		return "Gráfico de Barras"
	case ChartLine:
		return "Gráfico de Linhas"
	case ChartPie:
		return "Gráfico de Pizza"
	case ChartHistogram:
		return "Histograma"
	case ChartScatter:
		return "Gráfico de Dispersão"
	default:
		return string(k)
	}
}

// Series is one named set of values aligned with Figure.Categories.
type Series struct {
	Name   string `json:"name"`
	Values []Cell `json:"values"`
}

type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Figure is a renderer-independent chart description.
type Figure struct {
	Kind       ChartKind `json:"kind"`
	Title      string    `json:"title"`
	XTitle     string    `json:"xTitle,omitempty"`
	YTitle     string    `json:"yTitle,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Slices     []Slice   `json:"slices,omitempty"`
	Theme      Theme     `json:"theme"`
}

// Empty reports whether the figure has nothing to draw.
func (f Figure) Empty() bool {
	if f.Kind == ChartPie {
		return len(f.Slices) == 0
	}

	for _, s := range f.Series {
		for _, v := range s.Values {
			if v.Valid {
				return false
			}
		}
	}

	return true
}
