package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mosaic-data/eyemap.report/internal/eyemap"
)

// RegionTotals sums an entity's column totals per region for both metrics.
func RegionTotals(columns []eyemap.ColumnData) (regions []string, synapses, cells []float64) {
	synByRegion := make(map[string]float64)
	cellByRegion := make(map[string]float64)
	for _, col := range columns {
		synByRegion[col.Region] += col.TotalSynapses
		cellByRegion[col.Region] += col.TotalCells
	}

	for region := range synByRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	for _, region := range regions {
		synapses = append(synapses, synByRegion[region])
		cells = append(cells, cellByRegion[region])
	}
	return regions, synapses, cells
}

// RegionTotalsChart renders an HTML bar chart of per-region synapse and cell
// totals for one entity.
func RegionTotalsChart(entity string, columns []eyemap.ColumnData) ([]byte, error) {
	regions, synapses, cells := RegionTotals(columns)

	synData := make([]opts.BarData, len(regions))
	cellData := make([]opts.BarData, len(regions))
	for i := range regions {
		synData[i] = opts.BarData{Value: synapses[i]}
		cellData[i] = opts.BarData{Value: cells[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s region totals", entity),
			Width:     "700px",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s totals by region", entity),
			Subtitle: fmt.Sprintf("%d regions", len(regions)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(regions)
	bar.AddSeries("synapses", synData)
	bar.AddSeries("cells", cellData)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render totals chart for %s: %w", entity, err)
	}
	return buf.Bytes(), nil
}
