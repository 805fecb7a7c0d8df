package eyemap

import (
	"fmt"
	"sort"

	"github.com/mosaic-data/eyemap.report/internal/colormap"
	"github.com/mosaic-data/eyemap.report/internal/hexgrid"
)

// State is the three-way existence classification of a column for one
// entity.
type State int

const (
	// HasData: the entity has a column entry with a positive total for the
	// selected metric at this coordinate.
	HasData State = iota
	// ExistsNoData: some entity in the dataset has data at this coordinate
	// in this region, but the current entity has none (or a zero total).
	ExistsNoData
	// NotInRegion: the coordinate is absent from the current entity's data
	// for this region entirely.
	NotInRegion
)

func (s State) String() string {
	switch s {
	case HasData:
		return "has_data"
	case ExistsNoData:
		return "exists_no_data"
	case NotInRegion:
		return "not_in_region"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Scale selects the value-to-color policy for a render pass: one ramp with
// fixed thresholds over a global [Min, Max] range, or per-region observed
// ranges when Regional is set.
type Scale struct {
	Ramp     colormap.Ramp
	Min      float64
	Max      float64
	Regional bool
	ByRegion map[string]colormap.MinMax
}

// Color maps one raw value to a fill color under this scale.
func (s Scale) Color(v float64, region string) string {
	if s.Regional {
		return s.Ramp.ForRegionalValue(v, region, s.ByRegion)
	}
	return s.Ramp.ForValue(v, s.Min, s.Max)
}

// rangeFor returns the normalization range the scale applies in a region,
// used for legend labels.
func (s Scale) rangeFor(region string) (float64, float64) {
	if s.Regional {
		mm := s.ByRegion[region]
		return mm.Min, mm.Max
	}
	return s.Min, s.Max
}

// Hexagon is the render-ready unit for one column coordinate: pixel
// position, fill and stroke colors, tooltip text, and (for columns with
// sublayer data) parallel per-sublayer color and tooltip arrays, index
// aligned with the entity's LayerMetric sequence. Hexagons are created per
// render call and discarded after serialization.
type Hexagon struct {
	Coord       ColumnCoord
	Pos         hexgrid.Pixel
	State       State
	Value       float64
	Fill        string
	Stroke      string
	Tooltip     string
	LayerColors []string
	LayerTips   []string
}

// Processor classifies and colors every coordinate of a region universe for
// one entity. It holds only read-only inputs, so independent render calls
// may run concurrently.
type Processor struct {
	Universe Universe
	// HexSize is the hexagon circumradius in pixels; Spacing scales the
	// center-to-center distance (1.0 packs hexagons edge to edge).
	HexSize float64
	Spacing float64
}

// EffectiveSize is the projection scale: hex size times spacing factor.
func (p *Processor) EffectiveSize() float64 {
	spacing := p.Spacing
	if spacing <= 0 {
		spacing = 1
	}
	return p.HexSize * spacing
}

// Columns produces the ordered hexagon list for one (entity, region, side,
// metric) over the complete region universe. Every universe coordinate
// yields exactly one descriptor; an entity with no data anywhere in the
// region still gets a full grid of ExistsNoData/NotInRegion hexagons. A
// region absent from the universe yields an empty list so the caller can
// drop the panel.
//
// Classification per coordinate:
//   - no entry in the entity's map for this exact (region, side, coord):
//     NotInRegion when the entity has other columns in this region (a real
//     gap in its territory), ExistsNoData when the entity has no footprint
//     in the region at all. A present entry with a zero total for the
//     selected metric also classifies as ExistsNoData: zero signal and no
//     signal render identically (white with border), by decision recorded
//     in DESIGN.md.
//   - positive total → HasData with a value-mapped fill, plus per-sublayer
//     color/tooltip arrays when the column carries LayerMetric entries.
//
// Output order is sorted by (hex1, hex2) so the result is deterministic for
// fixed inputs.
func (p *Processor) Columns(entity EntityColumns, region string, side Side, metric Metric, scale Scale) []Hexagon {
	rc := p.Universe.Columns(region, side)
	if rc == nil {
		return nil
	}

	coords := make([]ColumnCoord, 0, len(rc.Coords))
	for c := range rc.Coords {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Hex1 != coords[j].Hex1 {
			return coords[i].Hex1 < coords[j].Hex1
		}
		return coords[i].Hex2 < coords[j].Hex2
	})

	size := p.EffectiveSize()
	out := make([]Hexagon, 0, len(coords))
	for _, coord := range coords {
		hex := Hexagon{
			Coord: coord,
			Pos:   hexgrid.HexToPixel(coord.Hex1, coord.Hex2, rc.MinHex1, rc.MinHex2, size, side.Mirrored()),
		}

		cd, present := entity.Lookup(region, side, coord)
		total := 0.0
		if present {
			total = cd.Total(metric)
		}

		switch {
		case !present && p.entityTouchesRegion(entity, region, side):
			// The entity demonstrably innervates this region but never
			// reaches this column: a real absence, rendered dark.
			hex.State = NotInRegion
			hex.Fill = colormap.NotInRegion
			hex.Tooltip = fmt.Sprintf("not available in %s", region)
		case total <= 0:
			hex.State = ExistsNoData
			hex.Fill = colormap.ExistsNoData
			hex.Stroke = colormap.ExistsNoDataStroke
			hex.Tooltip = fmt.Sprintf("%s %s: no data for current entity", region, coord)
		default:
			hex.State = HasData
			hex.Value = total
			hex.Fill = scale.Color(total, region)
			hex.Tooltip = fmt.Sprintf("%s %s\n%s: %g", region, coord, metric, total)
			if len(cd.Layers) > 0 {
				hex.LayerColors = make([]string, len(cd.Layers))
				hex.LayerTips = make([]string, len(cd.Layers))
				for i, layer := range cd.Layers {
					hex.LayerColors[i] = scale.Color(layer.Value, region)
					hex.LayerTips[i] = fmt.Sprintf("%g\nlayer %d: %g %s", layer.Value, layer.Index, layer.LayerTotal(metric), metric)
				}
			}
		}
		out = append(out, hex)
	}
	return out
}

// entityTouchesRegion reports whether the entity has any column entry for
// the region on this side. It decides NotInRegion versus ExistsNoData for
// coordinates the entity lacks: a region the entity occupies partially shows
// dark-gray gaps, while a region it never reaches renders entirely as
// white bordered exists-no-data columns (the universe says the columns are
// there; this entity just has nothing to say about any of them).
func (p *Processor) entityTouchesRegion(entity EntityColumns, region string, side Side) bool {
	bySide, ok := entity[side]
	if !ok {
		return false
	}
	for key := range bySide {
		if key.Region == region {
			return true
		}
	}
	return false
}
