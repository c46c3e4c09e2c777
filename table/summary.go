package table

import "github.com/dasdy/turismo/model"

// Summarize counts the records and averages the per-year means. Years without any
// value are left out of the average.
func Summarize(t *model.Table) model.Summary {
	summary := model.Summary{Records: len(t.Rows)}

	var total float64

	means := 0

	for j := range t.Columns {
		var sum float64

		n := 0

		for _, row := range t.Rows {
			if v := row.Values[j]; v.Valid {
				sum += v.Value
				n++
			}
		}

		if n > 0 {
			total += sum / float64(n)
			means++
		}
	}

	if means > 0 {
		summary.Mean = model.Number(total / float64(means))
	}

	return summary
}
