package turismo

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	"github.com/spf13/cobra"
)

var (
	exportCity string
	exportYear string
	exportOut  string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the value of one city and year as CSV",
	Long: `Filter a table to one city and one year and write the result with the same
layout as the dashboard download. Unknown or missing city and year fall back to
the first ones in the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args[0], os.Stderr)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if exportOut != "" {
			file, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("could not create %s: %w", exportOut, err)
			}
			defer file.Close()

			out = file
		}

		return exportSelection(out, t, exportCity, exportYear)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportCity, "city", "c", "", "City to export")
	exportCmd.Flags().StringVarP(&exportYear, "year", "y", "", "Year to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}

func exportSelection(w io.Writer, t *model.Table, city, year string) error {
	sel := selectionFor(t, city, year, model.Theme{})
	slog.Debug("Exporting", "city", sel.City, "year", sel.Year)

	if err := table.Export(w, table.Filter(t, sel.City, sel.Year)); err != nil {
		return fmt.Errorf("could not export %s/%s: %w", sel.City, sel.Year, err)
	}

	return nil
}
