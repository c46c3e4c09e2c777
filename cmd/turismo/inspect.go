package turismo

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	gotable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print a CSV table the way the dashboard reads it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args[0], os.Stderr)
		if err != nil {
			return err
		}

		return printTable(cmd.OutOrStdout(), t)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printTable(w io.Writer, t *model.Table) error {
	tw := gotable.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(gotable.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := gotable.Row{t.CityColumn}
	for _, year := range t.Columns {
		header = append(header, year)
	}

	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := gotable.Row{r.City}
		for _, v := range r.Values {
			row = append(row, inspectCell(v))
		}

		tw.AppendRow(row)
	}

	tw.Render()

	summary := table.Summarize(t)

	mean := "nan"
	if summary.Mean.Valid {
		mean = strconv.FormatFloat(summary.Mean.Value, 'f', 6, 64)
	}

	if _, err := fmt.Fprintf(w, "\nTotal de registros: %d\nMédia de valores por cidade e ano: %s\n", summary.Records, mean); err != nil {
		return fmt.Errorf("failed writing summary: %w", err)
	}

	return nil
}

func inspectCell(c model.Cell) string {
	if !c.Valid {
		return table.MissingToken
	}

	return c.String()
}
