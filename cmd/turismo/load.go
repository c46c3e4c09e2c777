package turismo

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	"github.com/dasdy/turismo/web/routes"
	"github.com/schollz/progressbar/v3"
)

// loadTable reads a CSV file with a progress bar on progress, then parses it.
func loadTable(path string, progress io.Writer) (*model.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer file.Close()

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Loading "+path),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), file); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	if err := bar.Finish(); err != nil {
		slog.Error("could not finish progress bar", "error", err)
	}

	t, err := table.Load(&buf)
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", path, err)
	}

	slog.Debug("Loaded table", "path", path, "cities", len(t.Rows), "years", len(t.Columns))

	return t, nil
}

// selectionFor resolves the requested city and year the same way the dashboard does.
func selectionFor(t *model.Table, city, year string, theme model.Theme) model.Selection {
	prefs := model.Preferences{FontColor: theme.FontColor, PanelColor: theme.PanelColor}
	if city != "" {
		prefs.City = &city
	}

	if year != "" {
		prefs.Year = &year
	}

	return routes.BuildSelection(t, prefs)
}
