// Package eyemap renders hexagonal eyemap panels: one hexagon per spatial
// column of a layered brain region, colored by a per-column metric and
// annotated with per-sublayer breakdowns. The package classifies every
// column coordinate of a region into one of three existence states for the
// entity being rendered, maps metric values to colors, and emits SVG or PNG
// panels with embedded tooltip metadata.
package eyemap

import (
	"fmt"
	"math"
)

// Metric selects which per-column quantity drives the coloring.
type Metric int

const (
	MetricSynapses Metric = iota // total synapse count / density
	MetricCells                  // contributing cell (neuron) count
)

// ParseMetric converts a metric tag into a Metric. Unknown tags are a caller
// programming error and are surfaced immediately.
func ParseMetric(tag string) (Metric, error) {
	switch tag {
	case "synapses", "synapse_density":
		return MetricSynapses, nil
	case "cells", "cell_count":
		return MetricCells, nil
	}
	return 0, fmt.Errorf("unknown metric tag %q", tag)
}

func (m Metric) String() string {
	switch m {
	case MetricSynapses:
		return "synapses"
	case MetricCells:
		return "cells"
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Side is the body-laterality tag. It is a closed enum: raw side strings are
// parsed exactly once at the data boundary, so an unrecognised tag fails
// there instead of silently rendering nothing.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideMiddle
	// SideCombined selects records from every side at once. It is a query
	// selector only; individual panels are always rendered for a concrete
	// side.
	SideCombined
)

// ParseSide converts a raw side tag ("L", "R", "M", "combined") into a Side.
func ParseSide(tag string) (Side, error) {
	switch tag {
	case "R", "r", "right":
		return SideRight, nil
	case "L", "l", "left":
		return SideLeft, nil
	case "M", "m", "middle":
		return SideMiddle, nil
	case "combined", "both":
		return SideCombined, nil
	}
	return 0, fmt.Errorf("unknown side tag %q", tag)
}

func (s Side) String() string {
	switch s {
	case SideRight:
		return "R"
	case SideLeft:
		return "L"
	case SideMiddle:
		return "M"
	case SideCombined:
		return "combined"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Mirrored reports whether pixel positions for this side are mirrored about
// the y axis. Only the left side mirrors.
func (s Side) Mirrored() bool { return s == SideLeft }

// ColumnCoord identifies a hexagonal column by its raw index pair. It is an
// immutable value type used as a map key; equality is by value.
type ColumnCoord struct {
	Hex1 int
	Hex2 int
}

func (c ColumnCoord) String() string { return fmt.Sprintf("(%d,%d)", c.Hex1, c.Hex2) }

// LayerMetric is one sublayer's contribution to a column. Index is 1-based
// and contiguous within a column. Value is the derived quantity used to
// color the sublayer independently of the column total.
type LayerMetric struct {
	Index    int
	Synapses float64
	Cells    float64
	Value    float64
}

// ColumnData is one entity's data for a single (region, side, coordinate)
// triple. Instances are built once from a query record and never mutated;
// replace, don't mutate. Callers producing Layers must keep the totals equal
// to the layer sums for tooltip fidelity; the renderer does not re-validate.
type ColumnData struct {
	Region        string
	Side          Side
	Coord         ColumnCoord
	TotalSynapses float64
	TotalCells    float64
	Layers        []LayerMetric
}

// Total returns the column total for the selected metric.
func (c ColumnData) Total(m Metric) float64 {
	if m == MetricCells {
		return c.TotalCells
	}
	return c.TotalSynapses
}

// LayerTotal returns the selected metric for one sublayer.
func (l LayerMetric) LayerTotal(m Metric) float64 {
	if m == MetricCells {
		return l.Cells
	}
	return l.Synapses
}

// Record is a raw per-column row as supplied by the query layer, before the
// side tag has been validated. This is the boundary where malformed input
// fails fast.
type Record struct {
	Entity   string
	Region   string
	SideTag  string
	Hex1     int
	Hex2     int
	Synapses float64
	Cells    float64
	Layers   []LayerMetric
}

// ToColumnData validates a raw record and converts it into ColumnData.
// Unknown side tags and non-finite counts are validation errors; they are
// never coerced.
func (r Record) ToColumnData() (ColumnData, error) {
	side, err := ParseSide(r.SideTag)
	if err != nil {
		return ColumnData{}, fmt.Errorf("record %s %s(%d,%d): %w", r.Region, r.SideTag, r.Hex1, r.Hex2, err)
	}
	if side == SideCombined {
		return ColumnData{}, fmt.Errorf("record %s (%d,%d): side tag %q is a selector, not a data tag", r.Region, r.Hex1, r.Hex2, r.SideTag)
	}
	if math.IsNaN(r.Synapses) || math.IsInf(r.Synapses, 0) || math.IsNaN(r.Cells) || math.IsInf(r.Cells, 0) {
		return ColumnData{}, fmt.Errorf("record %s %s(%d,%d): non-finite counts", r.Region, r.SideTag, r.Hex1, r.Hex2)
	}
	return ColumnData{
		Region:        r.Region,
		Side:          side,
		Coord:         ColumnCoord{Hex1: r.Hex1, Hex2: r.Hex2},
		TotalSynapses: r.Synapses,
		TotalCells:    r.Cells,
		Layers:        r.Layers,
	}, nil
}
