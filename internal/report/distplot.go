package report

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mosaic-data/eyemap.report/internal/eyemap"
	"github.com/mosaic-data/eyemap.report/internal/security"
)

// SaveDistributionPlot writes a histogram PNG of an entity's non-zero column
// totals for one metric. Returns the written path.
func SaveDistributionPlot(dir, entity string, metric eyemap.Metric, columns []eyemap.ColumnData) (string, error) {
	var values plotter.Values
	for _, col := range columns {
		if v := col.Total(metric); v > 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no non-zero %s values for %s", metric, entity)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s per-column %s", entity, metric)
	p.X.Label.Text = metric.String()
	p.Y.Label.Text = "columns"

	bins := 20
	if len(values) < bins {
		bins = len(values)
	}
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return "", fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(hist)

	path := filepath.Join(dir, fmt.Sprintf("%s_%s_dist.png", security.SanitizeFilename(entity), metric))
	if err := p.Save(7*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save distribution plot: %w", err)
	}
	return path, nil
}
