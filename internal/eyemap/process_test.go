package eyemap

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mosaic-data/eyemap.report/internal/colormap"
)

// snapshotUniverse builds the dataset used across the classification tests:
// ME/R has three columns (one with data for Tm1), LO/R has two columns
// contributed only by other entities.
func snapshotUniverse(t *testing.T) Universe {
	t.Helper()
	u, err := BuildUniverse([]Record{
		rec("Tm1", "ME", "R", 27, 11, 400, 3),
		rec("Dm4", "ME", "R", 26, 10, 120, 2),
		rec("Dm4", "ME", "R", 28, 12, 80, 1),
		rec("Dm4", "LO", "R", 27, 11, 90, 2),
		rec("Dm4", "LO", "R", 26, 10, 30, 1),
	})
	if err != nil {
		t.Fatalf("BuildUniverse: %v", err)
	}
	return u
}

func tm1Columns(t *testing.T) EntityColumns {
	t.Helper()
	cols, err := PartitionColumns([]Record{
		rec("Tm1", "ME", "R", 27, 11, 400, 3),
	}, SideRight)
	if err != nil {
		t.Fatalf("PartitionColumns: %v", err)
	}
	return cols
}

func testScale() Scale {
	return Scale{Ramp: colormap.Reds, Min: 0, Max: 400}
}

func TestClassifyPartialRegion(t *testing.T) {
	// ME/R: the entity has data at (27,11) only. The other two universe
	// columns are gaps in its territory and classify dark-gray.
	proc := Processor{Universe: snapshotUniverse(t), HexSize: 10, Spacing: 1}
	hexes := proc.Columns(tm1Columns(t), "ME", SideRight, MetricSynapses, testScale())

	if len(hexes) != 3 {
		t.Fatalf("got %d descriptors for ME/R, want 3", len(hexes))
	}

	byCoord := make(map[ColumnCoord]Hexagon, len(hexes))
	for _, h := range hexes {
		byCoord[h.Coord] = h
	}

	with := byCoord[ColumnCoord{27, 11}]
	if with.State != HasData {
		t.Errorf("(27,11) state = %s, want has_data", with.State)
	}
	if with.Fill == colormap.NoData || with.Fill == colormap.NotInRegion {
		t.Errorf("(27,11) fill = %s, want a value color", with.Fill)
	}

	for _, coord := range []ColumnCoord{{26, 10}, {28, 12}} {
		h := byCoord[coord]
		if h.State != NotInRegion {
			t.Errorf("%s state = %s, want not_in_region", coord, h.State)
		}
		if h.Fill != colormap.NotInRegion {
			t.Errorf("%s fill = %s, want dark-gray sentinel", coord, h.Fill)
		}
		if !strings.Contains(h.Tooltip, "not available in ME") {
			t.Errorf("%s tooltip = %q", coord, h.Tooltip)
		}
	}
}

func TestClassifyRegionWithoutEntityData(t *testing.T) {
	// LO/R: other entities populate the universe but Tm1 has no LO data at
	// all; every column renders white with a border.
	proc := Processor{Universe: snapshotUniverse(t), HexSize: 10, Spacing: 1}
	hexes := proc.Columns(tm1Columns(t), "LO", SideRight, MetricSynapses, testScale())

	if len(hexes) != 2 {
		t.Fatalf("got %d descriptors for LO/R, want 2", len(hexes))
	}
	for _, h := range hexes {
		if h.State != ExistsNoData {
			t.Errorf("%s state = %s, want exists_no_data", h.Coord, h.State)
		}
		if h.Fill != colormap.ExistsNoData || h.Stroke != colormap.ExistsNoDataStroke {
			t.Errorf("%s fill/stroke = %s/%s, want bordered white", h.Coord, h.Fill, h.Stroke)
		}
		if len(h.LayerColors) != 0 {
			t.Errorf("%s carries layer arrays without data", h.Coord)
		}
	}
}

func TestClassifyZeroTotalIsExistsNoData(t *testing.T) {
	u := snapshotUniverse(t)
	cols, err := PartitionColumns([]Record{
		rec("Tm1", "ME", "R", 27, 11, 400, 3),
		rec("Tm1", "ME", "R", 26, 10, 0, 0), // row present, zero signal
	}, SideRight)
	if err != nil {
		t.Fatal(err)
	}

	proc := Processor{Universe: u, HexSize: 10, Spacing: 1}
	hexes := proc.Columns(cols, "ME", SideRight, MetricSynapses, testScale())
	for _, h := range hexes {
		if h.Coord == (ColumnCoord{26, 10}) && h.State != ExistsNoData {
			t.Errorf("zero-total column state = %s, want exists_no_data", h.State)
		}
	}
}

func TestClassifyCompleteness(t *testing.T) {
	proc := Processor{Universe: snapshotUniverse(t), HexSize: 10, Spacing: 1}
	scale := testScale()

	for _, region := range []string{"ME", "LO"} {
		hexes := proc.Columns(tm1Columns(t), region, SideRight, MetricSynapses, scale)
		want := len(proc.Universe.Columns(region, SideRight).Coords)
		if len(hexes) != want {
			t.Errorf("%s: %d descriptors, want %d (one per universe coordinate)", region, len(hexes), want)
		}
		for _, h := range hexes {
			if h.State == HasData && h.Value <= 0 {
				t.Errorf("%s %s: has_data with non-positive total", region, h.Coord)
			}
		}
	}
}

func TestClassifyUnknownRegionYieldsEmptyList(t *testing.T) {
	proc := Processor{Universe: snapshotUniverse(t), HexSize: 10, Spacing: 1}
	hexes := proc.Columns(tm1Columns(t), "LOP", SideRight, MetricSynapses, testScale())
	if len(hexes) != 0 {
		t.Errorf("unknown region produced %d descriptors, want none", len(hexes))
	}
}

func TestClassifyDeterminism(t *testing.T) {
	proc := Processor{Universe: snapshotUniverse(t), HexSize: 10, Spacing: 1}
	scale := testScale()
	cols := tm1Columns(t)

	first := proc.Columns(cols, "ME", SideRight, MetricSynapses, scale)
	second := proc.Columns(cols, "ME", SideRight, MetricSynapses, scale)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("classification not deterministic (-first +second):\n%s", diff)
	}
}

func TestLayerArraysAligned(t *testing.T) {
	u := snapshotUniverse(t)
	cols, err := PartitionColumns([]Record{
		{
			Entity: "Tm1", Region: "ME", SideTag: "R", Hex1: 27, Hex2: 11,
			Synapses: 400, Cells: 3,
			Layers: []LayerMetric{
				{Index: 1, Synapses: 100, Cells: 1, Value: 0.8},
				{Index: 2, Synapses: 250, Cells: 1, Value: 2.1},
				{Index: 3, Synapses: 50, Cells: 1, Value: 0.4},
			},
		},
	}, SideRight)
	if err != nil {
		t.Fatal(err)
	}

	proc := Processor{Universe: u, HexSize: 10, Spacing: 1}
	hexes := proc.Columns(cols, "ME", SideRight, MetricSynapses, testScale())

	var target *Hexagon
	for i := range hexes {
		if hexes[i].Coord == (ColumnCoord{27, 11}) {
			target = &hexes[i]
		}
	}
	if target == nil {
		t.Fatal("missing descriptor for (27,11)")
	}
	if len(target.LayerColors) != 3 || len(target.LayerTips) != 3 {
		t.Fatalf("layer arrays %d/%d, want 3/3", len(target.LayerColors), len(target.LayerTips))
	}
	// Each sublayer tooltip starts with the numeric value then a newline.
	if !strings.HasPrefix(target.LayerTips[1], "2.1\n") {
		t.Errorf("layer tooltip = %q, want numeric value prefix", target.LayerTips[1])
	}
}

func TestMirroredSidesShareY(t *testing.T) {
	u, err := BuildUniverse([]Record{
		rec("Tm1", "ME", "R", 5, 3, 10, 1),
		rec("Tm1", "ME", "R", 6, 4, 10, 1),
		rec("Tm1", "ME", "L", 5, 3, 10, 1),
		rec("Tm1", "ME", "L", 6, 4, 10, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	cols, err := PartitionColumns([]Record{
		rec("Tm1", "ME", "R", 5, 3, 10, 1),
		rec("Tm1", "ME", "R", 6, 4, 10, 1),
		rec("Tm1", "ME", "L", 5, 3, 10, 1),
		rec("Tm1", "ME", "L", 6, 4, 10, 1),
	}, SideCombined)
	if err != nil {
		t.Fatal(err)
	}

	proc := Processor{Universe: u, HexSize: 8, Spacing: 1.05}
	right := proc.Columns(cols, "ME", SideRight, MetricSynapses, testScale())
	left := proc.Columns(cols, "ME", SideLeft, MetricSynapses, testScale())

	if len(right) != len(left) {
		t.Fatalf("side panels differ in size: %d vs %d", len(right), len(left))
	}
	for i := range right {
		if right[i].Pos.X != -left[i].Pos.X || right[i].Pos.Y != left[i].Pos.Y {
			t.Errorf("coord %s: right %+v vs left %+v, want mirrored x, shared y",
				right[i].Coord, right[i].Pos, left[i].Pos)
		}
	}
}
