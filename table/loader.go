package table

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dasdy/turismo/model"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// MissingToken marks a missing percentage in the input file.
const MissingToken = "-"

var ErrMalformed = errors.New("malformed table")

// nanValues are the tokens read as missing. City names such as "NA" stay as they are.
var nanValues = []string{MissingToken, ""}

// Load reads a comma delimited file whose first column holds city names and whose
// remaining columns are year labels. Cells use a comma as decimal separator; any cell
// that cannot be read as a number becomes missing.
func Load(r io.Reader) (*model.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read table: %w", err)
	}

	df := readCSV(data, true)
	if df.Err != nil {
		if t, ok := headerOnly(data); ok {
			return t, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrMalformed, df.Err)
	}

	names := df.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrMalformed)
	}

	cities := df.Col(names[0])
	t := &model.Table{
		CityColumn: names[0],
		Columns:    append([]string(nil), names[1:]...),
		Rows:       make([]model.Row, cities.Len()),
	}

	for i := range cities.Len() {
		city := cities.Elem(i)
		t.Rows[i].Values = make([]model.Cell, len(t.Columns))

		if !city.IsNA() {
			t.Rows[i].City = city.String()
		}
	}

	for j, name := range t.Columns {
		col := df.Col(name)
		for i := range col.Len() {
			e := col.Elem(i)
			if e.IsNA() {
				continue
			}

			t.Rows[i].Values[j] = ParseCell(e.String())
		}
	}

	return t, nil
}

func readCSV(data []byte, header bool) dataframe.DataFrame {
	return dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(header),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
		dataframe.WithLazyQuotes(true),
	)
}

// headerOnly builds a table without rows from a file that has nothing but its header,
// which gota refuses as an empty frame.
func headerOnly(data []byte) (*model.Table, bool) {
	df := readCSV(data, false)
	if df.Err != nil || df.Nrow() != 1 || df.Ncol() == 0 {
		return nil, false
	}

	names := make([]string, df.Ncol())
	for j, col := range df.Names() {
		names[j] = df.Col(col).Elem(0).String()
	}

	return &model.Table{CityColumn: names[0], Columns: names[1:]}, true
}

// ParseCell coerces a raw cell to a number, accepting either decimal separator.
// The missing token and anything unparsable yield an invalid cell.
func ParseCell(raw string) model.Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == MissingToken {
		return model.Cell{}
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return model.Cell{}
	}

	return model.Number(v)
}
