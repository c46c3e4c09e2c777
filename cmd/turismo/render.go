package turismo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dasdy/turismo/charts"
	"github.com/dasdy/turismo/logging"
	"github.com/dasdy/turismo/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	renderCity       string
	renderDir        string
	renderFormat     string
	renderFontColor  string
	renderPanelColor string
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Draw the five dashboard charts into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := charts.ParseFormat(renderFormat)
		if err != nil {
			return err
		}

		t, err := loadTable(args[0], os.Stderr)
		if err != nil {
			return err
		}

		sel := selectionFor(t, renderCity, "", model.Theme{FontColor: renderFontColor, PanelColor: renderPanelColor})

		paths, err := renderCharts(cmd.Context(), t, sel, renderDir, format)
		if err != nil {
			return err
		}

		for _, path := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderCity, "city", "c", "", "City for the per-city charts")
	renderCmd.Flags().StringVarP(&renderDir, "dir", "d", ".", "Output directory")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", string(charts.FormatSVG), "Image format: svg or png")
	renderCmd.Flags().StringVar(&renderFontColor, "font-color", model.DefaultFontColor, "Chart text color")
	renderCmd.Flags().StringVar(&renderPanelColor, "panel-color", model.DefaultPanelColor, "Chart background color")
}

// renderCharts writes every chart kind to dir concurrently and returns the files in chart order.
func renderCharts(ctx context.Context, t *model.Table, sel model.Selection, dir string, format charts.Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", dir, err)
	}

	figures := charts.BuildAll(t, sel)
	paths := make([]string, len(figures))

	g, ctx := errgroup.WithContext(ctx)

	for i, fig := range figures {
		paths[i] = filepath.Join(dir, string(fig.Kind)+"."+string(format))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return writeChart(logging.AppendCtx(ctx, slog.String("chart", string(fig.Kind))), paths[i], fig, format)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

func writeChart(ctx context.Context, path string, fig model.Figure, format charts.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer file.Close()

	if err := charts.Render(file, fig, format); err != nil {
		return fmt.Errorf("could not render %s: %w", path, err)
	}

	slog.DebugContext(ctx, "Wrote chart", "path", path)

	return nil
}
