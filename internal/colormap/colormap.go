// Package colormap maps eyemap metric values to presentation colors.
//
// The mapping is deliberately bucketed rather than interpolated: a ramp is an
// ordered list of hex colors plus N+1 threshold boundaries partitioning the
// normalized range into N buckets. Bucketing keeps adjacent columns with
// similar values visually identical, which reads better on a hex grid than a
// continuous gradient. Sentinel colors cover the non-value states (no data,
// column not present in the region).
package colormap

// Sentinel colors for the non-value column states. ExistsNoData is nominally
// white like NoData; renderers distinguish it by drawing a visible stroke
// (ExistsNoDataStroke) around the hexagon.
const (
	NoData            = "#ffffff"
	NotInRegion       = "#4d4d4d"
	ExistsNoData      = "#ffffff"
	ExistsNoDataStroke = "#a0a0a0"
)

// MinMax is an observed value range for one region (and one metric).
type MinMax struct {
	Min float64
	Max float64
}

// Ramp is an ordered color ramp (lightest to darkest) with bucket
// thresholds. Thresholds has exactly len(Colors)+1 entries; bucket i covers
// [Thresholds[i], Thresholds[i+1]), with the final bucket inclusive of its
// upper bound.
type Ramp struct {
	Colors     []string
	Thresholds []float64
}

// Reds is the default synapse-density ramp used by eyemap panels.
var Reds = Ramp{
	Colors:     []string{"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"},
	Thresholds: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
}

// Blues is the cell-count ramp.
var Blues = Ramp{
	Colors:     []string{"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"},
	Thresholds: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
}

// ByName returns a named builtin ramp, defaulting to Reds for unknown names.
func ByName(name string) Ramp {
	switch name {
	case "blues":
		return Blues
	default:
		return Reds
	}
}

// Resample returns a ramp with exactly buckets colors drawn evenly from this
// ramp (endpoints preserved) and even thresholds. A non-positive bucket count
// or one matching the current color count returns the ramp unchanged.
func (r Ramp) Resample(buckets int) Ramp {
	if buckets <= 0 || buckets == len(r.Colors) || len(r.Colors) == 0 {
		return r
	}
	colors := make([]string, buckets)
	for i := range colors {
		idx := 0
		if buckets > 1 {
			idx = i * (len(r.Colors) - 1) / (buckets - 1)
		}
		colors[i] = r.Colors[idx]
	}
	thresholds := make([]float64, buckets+1)
	for i := range thresholds {
		thresholds[i] = float64(i) / float64(buckets)
	}
	return Ramp{Colors: colors, Thresholds: thresholds}
}

// WithThresholds returns a copy of the ramp using the supplied bucket
// boundaries. The boundary count must be len(Colors)+1; anything else keeps
// the ramp's own thresholds, so a misconfigured caller degrades to the
// default bucketing instead of panicking mid-render.
func (r Ramp) WithThresholds(thresholds []float64) Ramp {
	if len(thresholds) != len(r.Colors)+1 {
		return r
	}
	out := r
	out.Thresholds = thresholds
	return out
}

// Normalize rescales v linearly into [0, 1] over [min, max], clamped at both
// ends. A degenerate range (min == max) normalizes to 0 rather than dividing
// by zero; a flat region is legitimate data, not an error.
func Normalize(v, min, max float64) float64 {
	if min >= max {
		return 0
	}
	t := (v - min) / (max - min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// BucketIndex returns the bucket for a normalized value t. Values below the
// first boundary clamp to bucket 0 and values at or above the last boundary
// clamp to the final bucket.
func (r Ramp) BucketIndex(t float64) int {
	for i := 0; i < len(r.Colors); i++ {
		if t >= r.Thresholds[i] && t < r.Thresholds[i+1] {
			return i
		}
	}
	if t >= r.Thresholds[len(r.Thresholds)-1] {
		return len(r.Colors) - 1
	}
	return 0
}

// ForNormalized returns the ramp color for an already-normalized value.
func (r Ramp) ForNormalized(t float64) string {
	return r.Colors[r.BucketIndex(t)]
}

// ForValue maps a raw value to a color over the [min, max] range. Zero is
// always the absence-of-signal state and maps to the NoData sentinel,
// regardless of where the normalized range would otherwise place it.
func (r Ramp) ForValue(v, min, max float64) string {
	if v == 0 {
		return NoData
	}
	return r.ForNormalized(Normalize(v, min, max))
}

// ForRegionalValue is ForValue with the range looked up per region. An
// unknown region falls back to a zero range, so every non-zero value lands
// in the lightest bucket rather than erroring; a region missing from the
// stats table is the common case this engine exists to tolerate.
func (r Ramp) ForRegionalValue(v float64, region string, byRegion map[string]MinMax) string {
	mm := byRegion[region]
	return r.ForValue(v, mm.Min, mm.Max)
}
