package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Cell is a percentage that may be missing.
type Cell struct {
	Value float64
	Valid bool
}

func Number(v float64) Cell {
	return Cell{Value: v, Valid: true}
}

// String formats the value the way it is exported, empty when missing.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}

	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(c.Value)
}

type Row struct {
	City   string
	Values []Cell
}

// Table is the loaded dataset: one row per city, one column per year label.
type Table struct {
	CityColumn string
	Columns    []string
	Rows       []Row
}

func (t *Table) Cities() []string {
	cities := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cities = append(cities, r.City)
	}

	return cities
}

// Row returns the first row for the given city.
func (t *Table) Row(city string) (Row, bool) {
	for _, r := range t.Rows {
		if r.City == city {
			return r, true
		}
	}

	return Row{}, false
}

// ColumnIndex returns the position of a year label among the value columns, or -1.
func (t *Table) ColumnIndex(year string) int {
	for i, c := range t.Columns {
		if c == year {
			return i
		}
	}

	return -1
}

// LongRow is one city x year observation of a melted table.
type LongRow struct {
	City  string
	Year  string
	Value Cell
}

type FilteredRow struct {
	City  string
	Year  string
	Value Cell
}

type Summary struct {
	Records int
	Mean    Cell
}

const (
	DefaultFontColor  = "#FFFFFF"
	DefaultPanelColor = "#FFFFFF"
)

// Preferences are the control values remembered for a session.
type Preferences struct {
	City       *string
	Year       *string
	ShowData   bool
	FontColor  string
	PanelColor string
}

func DefaultPreferences() Preferences {
	return Preferences{
		FontColor:  DefaultFontColor,
		PanelColor: DefaultPanelColor,
	}
}

type PreferenceField string

const (
	FieldCity       PreferenceField = "city"
	FieldYear       PreferenceField = "year"
	FieldShowData   PreferenceField = "show_data"
	FieldFontColor  PreferenceField = "font_color"
	FieldPanelColor PreferenceField = "panel_color"
)

var PreferenceFields = []PreferenceField{FieldCity, FieldYear, FieldShowData, FieldFontColor, FieldPanelColor}

// Selection is what the page currently shows, resolved against the loaded table.
type Selection struct {
	City  string
	Year  string
	Theme Theme
}

type Theme struct {
	FontColor  string `json:"fontColor"`
	PanelColor string `json:"panelColor"`
}

// IsHexColor accepts "#RGB" and "#RRGGBB", with or without the leading hash.
func IsHexColor(s string) bool {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}

	for _, r := range strings.ToLower(hex) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}

	return true
}
