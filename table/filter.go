package table

import (
	"fmt"
	"io"

	"github.com/dasdy/turismo/model"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Export column headers.
const (
	ColumnCity  = "Cidade"
	ColumnYear  = "Ano"
	ColumnValue = "%"
)

// ExportFileName is the name offered for the filtered download.
const ExportFileName = "dados_filtrados.csv"

// Filter picks the cell at (city, year). An unknown city or year gives a missing value.
func Filter(t *model.Table, city, year string) model.FilteredRow {
	result := model.FilteredRow{City: city, Year: year}

	row, ok := t.Row(city)
	if !ok {
		return result
	}

	if ix := t.ColumnIndex(year); ix >= 0 {
		result.Value = row.Values[ix]
	}

	return result
}

// Export writes the filtered row as a one-row CSV with a header and no index column.
func Export(w io.Writer, row model.FilteredRow) error {
	df := dataframe.LoadRecords(
		[][]string{
			{ColumnCity, ColumnYear, ColumnValue},
			{row.City, row.Year, row.Value.String()},
		},
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("could not build export: %w", df.Err)
	}

	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("could not write export: %w", err)
	}

	return nil
}
