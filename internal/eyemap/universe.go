package eyemap

import "fmt"

// RegionSide keys universe lookups: one coordinate universe per anatomical
// region per body side.
type RegionSide struct {
	Region string
	Side   Side
}

// CoordSet is a set of column coordinates.
type CoordSet map[ColumnCoord]struct{}

// RegionColumns is the universe entry for one (region, side): the union of
// every column coordinate observed anywhere in the dataset, plus the minimum
// index pair used to recentre the grid so all entities of a region render in
// the same frame.
type RegionColumns struct {
	Coords  CoordSet
	MinHex1 int
	MinHex2 int
}

// Universe holds, for every (region, side), the set of column coordinates
// known to exist across all entities in a dataset snapshot. It is built once
// per snapshot and must never be mutated afterwards: concurrent render calls
// share it without locking.
type Universe map[RegionSide]*RegionColumns

// BuildUniverse scans the dataset-wide record snapshot (every entity, not
// just the one being rendered) and accumulates the per-(region, side)
// coordinate sets. A coordinate seen only for some other entity still exists
// in the region; the current entity simply has no data there. Records with
// invalid side tags abort the build.
func BuildUniverse(records []Record) (Universe, error) {
	u := make(Universe)
	for _, rec := range records {
		side, err := ParseSide(rec.SideTag)
		if err != nil {
			return nil, fmt.Errorf("build universe: %w", err)
		}
		if side == SideCombined {
			return nil, fmt.Errorf("build universe: record for %s carries selector tag %q", rec.Region, rec.SideTag)
		}
		key := RegionSide{Region: rec.Region, Side: side}
		rc, ok := u[key]
		if !ok {
			rc = &RegionColumns{
				Coords:  make(CoordSet),
				MinHex1: rec.Hex1,
				MinHex2: rec.Hex2,
			}
			u[key] = rc
		}
		rc.Coords[ColumnCoord{Hex1: rec.Hex1, Hex2: rec.Hex2}] = struct{}{}
		if rec.Hex1 < rc.MinHex1 {
			rc.MinHex1 = rec.Hex1
		}
		if rec.Hex2 < rc.MinHex2 {
			rc.MinHex2 = rec.Hex2
		}
	}
	return u, nil
}

// Columns returns the universe entry for a (region, side), or nil when the
// region is unknown. A nil entry is data, not an error: the caller omits the
// panel for a region with no columns anywhere in the dataset.
func (u Universe) Columns(region string, side Side) *RegionColumns {
	return u[RegionSide{Region: region, Side: side}]
}

// Regions returns the distinct region names present for a side.
func (u Universe) Regions(side Side) []string {
	seen := make(map[string]struct{})
	var out []string
	for key := range u {
		if key.Side != side {
			continue
		}
		if _, dup := seen[key.Region]; dup {
			continue
		}
		seen[key.Region] = struct{}{}
		out = append(out, key.Region)
	}
	return out
}

// RegionCoord keys a single entity's column lookup within one side.
type RegionCoord struct {
	Region string
	Coord  ColumnCoord
}

// EntityColumns is one entity's data partitioned by actual side tag, keyed
// for single-column lookups during classification. Coordinates are scoped to
// their region: the same integer pair in two regions stays distinct.
type EntityColumns map[Side]map[RegionCoord]ColumnData

// PartitionColumns groups one entity's records by (region, coordinate) under
// each record's own side tag. With a concrete target side only that side's
// records are included; SideCombined includes records from every side, still
// indexed per actual side.
func PartitionColumns(records []Record, target Side) (EntityColumns, error) {
	out := make(EntityColumns)
	for _, rec := range records {
		cd, err := rec.ToColumnData()
		if err != nil {
			return nil, fmt.Errorf("partition columns: %w", err)
		}
		if target != SideCombined && cd.Side != target {
			continue
		}
		bySide, ok := out[cd.Side]
		if !ok {
			bySide = make(map[RegionCoord]ColumnData)
			out[cd.Side] = bySide
		}
		bySide[RegionCoord{Region: cd.Region, Coord: cd.Coord}] = cd
	}
	return out, nil
}

// Lookup returns the entity's column data for an exact (region, side,
// coordinate), if any.
func (e EntityColumns) Lookup(region string, side Side, coord ColumnCoord) (ColumnData, bool) {
	bySide, ok := e[side]
	if !ok {
		return ColumnData{}, false
	}
	cd, ok := bySide[RegionCoord{Region: region, Coord: coord}]
	return cd, ok
}
