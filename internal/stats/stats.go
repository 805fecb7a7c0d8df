// Package stats computes the dataset-wide statistics that drive eyemap
// coloring: per-region observed value ranges and quantile-based bucket
// thresholds. The pass runs once per dataset snapshot; its outputs are
// read-only and shared by every render call.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mosaic-data/eyemap.report/internal/colormap"
	"github.com/mosaic-data/eyemap.report/internal/eyemap"
)

// Summary aggregates column totals across every entity in a snapshot.
type Summary struct {
	// byRegion holds per-(metric, region) observed ranges over non-zero
	// totals.
	byRegion map[eyemap.Metric]map[string]colormap.MinMax
	// values holds every non-zero total per metric, for quantile thresholds.
	values map[eyemap.Metric][]float64
}

// Collect scans the dataset snapshot and accumulates ranges and value
// populations for both metrics. Zero totals are excluded: zero is the
// absence-of-signal state and must not drag ranges toward the floor.
func Collect(records []eyemap.Record) *Summary {
	s := &Summary{
		byRegion: make(map[eyemap.Metric]map[string]colormap.MinMax),
		values:   make(map[eyemap.Metric][]float64),
	}
	for _, metric := range []eyemap.Metric{eyemap.MetricSynapses, eyemap.MetricCells} {
		s.byRegion[metric] = make(map[string]colormap.MinMax)
	}

	for _, rec := range records {
		s.observe(eyemap.MetricSynapses, rec.Region, rec.Synapses)
		s.observe(eyemap.MetricCells, rec.Region, rec.Cells)
	}
	for _, metric := range []eyemap.Metric{eyemap.MetricSynapses, eyemap.MetricCells} {
		sort.Float64s(s.values[metric])
	}
	return s
}

func (s *Summary) observe(metric eyemap.Metric, region string, v float64) {
	if v <= 0 {
		return
	}
	mm, ok := s.byRegion[metric][region]
	if !ok {
		mm = colormap.MinMax{Min: v, Max: v}
	} else {
		if v < mm.Min {
			mm.Min = v
		}
		if v > mm.Max {
			mm.Max = v
		}
	}
	s.byRegion[metric][region] = mm
	s.values[metric] = append(s.values[metric], v)
}

// MinMax returns the per-region observed range table for a metric. The map
// is owned by the summary; callers must not mutate it.
func (s *Summary) MinMax(metric eyemap.Metric) map[string]colormap.MinMax {
	return s.byRegion[metric]
}

// GlobalRange returns the dataset-wide range for a metric. An empty
// population yields a zero range, which the color mapper treats as
// degenerate rather than an error.
func (s *Summary) GlobalRange(metric eyemap.Metric) (float64, float64) {
	vals := s.values[metric]
	if len(vals) == 0 {
		return 0, 0
	}
	return vals[0], vals[len(vals)-1]
}

// Thresholds derives buckets+1 boundaries over [0, 1] so that each color
// bucket holds roughly an equal share of the observed non-zero values
// (empirical quantiles of the normalized population). With no data the
// boundaries fall back to an even split.
func (s *Summary) Thresholds(metric eyemap.Metric, buckets int) []float64 {
	if buckets <= 0 {
		return nil
	}
	out := make([]float64, buckets+1)
	min, max := s.GlobalRange(metric)
	vals := s.values[metric]

	if len(vals) == 0 || min >= max {
		for i := range out {
			out[i] = float64(i) / float64(buckets)
		}
		return out
	}

	normalized := make([]float64, len(vals))
	for i, v := range vals {
		normalized[i] = colormap.Normalize(v, min, max)
	}
	// vals is sorted and Normalize is monotonic, so normalized is sorted.
	for i := 1; i < buckets; i++ {
		out[i] = stat.Quantile(float64(i)/float64(buckets), stat.Empirical, normalized, nil)
	}
	out[0] = 0
	out[buckets] = 1
	return out
}

// Scale assembles the render color scale for a metric. The ramp is resampled
// to the configured bucket count first. With regional set, colors normalize
// against each region's own range; otherwise the global range with quantile
// thresholds applies.
func (s *Summary) Scale(metric eyemap.Metric, ramp colormap.Ramp, regional bool, buckets int) eyemap.Scale {
	ramp = ramp.Resample(buckets)
	if regional {
		return eyemap.Scale{
			Ramp:     ramp,
			Regional: true,
			ByRegion: s.MinMax(metric),
		}
	}
	min, max := s.GlobalRange(metric)
	return eyemap.Scale{
		Ramp: ramp.WithThresholds(s.Thresholds(metric, len(ramp.Colors))),
		Min:  min,
		Max:  max,
	}
}
