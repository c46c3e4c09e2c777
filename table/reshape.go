package table

import "github.com/dasdy/turismo/model"

// Melt turns the wide table into one row per city and year, in row-major order.
func Melt(t *model.Table) []model.LongRow {
	result := make([]model.LongRow, 0, len(t.Rows)*len(t.Columns))

	for _, row := range t.Rows {
		for j, year := range t.Columns {
			result = append(result, model.LongRow{City: row.City, Year: year, Value: row.Values[j]})
		}
	}

	return result
}

// DropMissing keeps the long rows that carry a value.
func DropMissing(rows []model.LongRow) []model.LongRow {
	result := make([]model.LongRow, 0, len(rows))

	for _, r := range rows {
		if r.Value.Valid {
			result = append(result, r)
		}
	}

	return result
}

// CompleteRows returns a table without the rows that miss the city or any value.
func CompleteRows(t *model.Table) *model.Table {
	result := &model.Table{CityColumn: t.CityColumn, Columns: t.Columns}

	for _, row := range t.Rows {
		complete := row.City != ""

		for _, v := range row.Values {
			if !v.Valid {
				complete = false

				break
			}
		}

		if complete {
			result.Rows = append(result.Rows, row)
		}
	}

	return result
}

// Transpose returns the city's values keyed by year, in column order.
// Unknown cities yield all missing values.
func Transpose(t *model.Table, city string) []model.LongRow {
	row, ok := t.Row(city)

	result := make([]model.LongRow, len(t.Columns))
	for j, year := range t.Columns {
		result[j] = model.LongRow{City: city, Year: year}
		if ok {
			result[j].Value = row.Values[j]
		}
	}

	return result
}
