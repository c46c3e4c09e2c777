package components

import "github.com/dasdy/turismo/model"

type PageType string

const (
	PageTypeUpload    PageType = "upload"
	PageTypeDashboard PageType = "dashboard"
)

type LegendItem struct {
	Label string
	Color string
}

type ChartItem struct {
	Kind    model.ChartKind
	Heading string
	URL     string
	Legend  []LegendItem
}

// RenderContext is everything the page needs for one render.
type RenderContext struct {
	Page      PageType
	Cities    []string
	Years     []string
	Selection model.Selection
	ShowData  bool
	Filtered  *model.FilteredRow
	Summary   model.Summary
	Charts    []ChartItem
}
