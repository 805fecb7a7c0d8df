package eyemap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mosaic-data/eyemap.report/internal/security"
)

// Format selects the panel output encoding.
type Format int

const (
	FormatSVG Format = iota
	FormatPNG
)

// ParseFormat converts an output format tag ("svg", "png") into a Format.
func ParseFormat(tag string) (Format, error) {
	switch tag {
	case "svg", "vector", "":
		return FormatSVG, nil
	case "png", "raster":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("unknown output format %q", tag)
}

func (f Format) String() string {
	if f == FormatPNG {
		return "png"
	}
	return "svg"
}

// Panel is one rendered eyemap: a region/side/metric combination for one
// entity. Exactly one of SVG or PNG is populated, according to the request
// format.
type Panel struct {
	Entity string
	Region string
	Side   Side
	Metric Metric
	SVG    string
	PNG    []byte

	// ColumnCount and StateCounts summarise the classification, for report
	// captions and tests.
	ColumnCount int
	StateCounts map[State]int
}

// Renderer ties the processor, layout, and scene renderers together for a
// dataset snapshot. All fields are read-only after construction; a single
// Renderer may serve concurrent render calls.
type Renderer struct {
	Universe  Universe
	Scales    map[Metric]Scale
	HexSize   float64
	Spacing   float64
	Precision int
	Layout    LayoutOptions

	raster *RasterRenderer
}

// NewRenderer builds a Renderer over an immutable universe and per-metric
// color scales.
func NewRenderer(u Universe, scales map[Metric]Scale, hexSize, spacing float64, precision int) *Renderer {
	return &Renderer{
		Universe:  u,
		Scales:    scales,
		HexSize:   hexSize,
		Spacing:   spacing,
		Precision: precision,
		raster:    NewRasterRenderer(),
	}
}

// RenderEntity renders every region of the universe for one entity, side,
// and set of metrics. SideCombined expands to one panel per concrete side
// present in the universe. The returned map is keyed region, then metric
// tag; for combined requests the region key carries a side suffix
// ("ME/R") since both sides of a region may appear.
func (r *Renderer) RenderEntity(entity string, records []Record, side Side, metrics []Metric, format Format) (map[string]map[string]Panel, error) {
	cols, err := PartitionColumns(records, side)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", entity, err)
	}

	sides := []Side{side}
	if side == SideCombined {
		sides = []Side{SideRight, SideLeft, SideMiddle}
	}

	out := make(map[string]map[string]Panel)
	for _, s := range sides {
		for _, region := range r.Universe.Regions(s) {
			for _, metric := range metrics {
				panel, err := r.renderPanel(entity, cols, region, s, metric, format)
				if err != nil {
					return nil, err
				}
				if panel == nil {
					continue
				}
				key := region
				if side == SideCombined {
					key = region + "/" + s.String()
				}
				if out[key] == nil {
					out[key] = make(map[string]Panel)
				}
				out[key][metric.String()] = *panel
			}
		}
	}
	return out, nil
}

// renderPanel runs classify → layout → serialize for one panel. A region
// with an empty universe yields nil so the caller can omit the panel.
func (r *Renderer) renderPanel(entity string, cols EntityColumns, region string, side Side, metric Metric, format Format) (*Panel, error) {
	proc := Processor{Universe: r.Universe, HexSize: r.HexSize, Spacing: r.Spacing}
	scale := r.Scales[metric]

	hexes := proc.Columns(cols, region, side, metric, scale)
	if len(hexes) == 0 {
		return nil, nil
	}

	layout := ComputeLayout(hexes, r.HexSize, r.Layout)
	placed := layout.PlaceAll(hexes)

	panel := &Panel{
		Entity:      entity,
		Region:      region,
		Side:        side,
		Metric:      metric,
		ColumnCount: len(placed),
		StateCounts: make(map[State]int, 3),
	}
	for _, h := range placed {
		panel.StateCounts[h.State]++
	}

	title := fmt.Sprintf("%s %s (%s) %s", entity, region, side, metric)

	switch format {
	case FormatPNG:
		png, err := r.raster.Render(placed, layout, title, r.HexSize)
		if err != nil {
			return nil, fmt.Errorf("render %s %s %s: %w", entity, region, metric, err)
		}
		panel.PNG = png
	default:
		min, max := scale.rangeFor(region)
		svg := SVGRenderer{Precision: r.Precision}
		panel.SVG = svg.Render(placed, layout, title, scale.Ramp.Colors, min, max, r.HexSize)
	}
	return panel, nil
}

// WritePanels persists rendered panels under dir in a fresh uuid-named run
// directory and returns the run ID and the written file paths. File names
// are <entity>_<region>_<side>_<metric>.<ext>; entity and region come from
// the graph and are sanitized before they touch the filesystem. An empty
// panel set writes nothing and creates no run directory.
func WritePanels(dir, entity string, panels map[string]map[string]Panel) (string, []string, error) {
	count := 0
	for _, byMetric := range panels {
		count += len(byMetric)
	}
	if count == 0 {
		return "", nil, nil
	}

	runID := uuid.NewString()
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create run dir: %w", err)
	}

	var files []string
	for _, byMetric := range panels {
		for _, panel := range byMetric {
			name := fmt.Sprintf("%s_%s_%s_%s",
				security.SanitizeFilename(entity), security.SanitizeFilename(panel.Region),
				panel.Side, panel.Metric)
			var path string
			var err error
			if panel.PNG != nil {
				path = filepath.Join(runDir, name+".png")
				err = os.WriteFile(path, panel.PNG, 0o644)
			} else {
				path = filepath.Join(runDir, name+".svg")
				err = os.WriteFile(path, []byte(panel.SVG), 0o644)
			}
			if err != nil {
				return "", nil, fmt.Errorf("write panel %s: %w", name, err)
			}
			files = append(files, path)
		}
	}
	return runID, files, nil
}
