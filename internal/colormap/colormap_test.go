package colormap

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		v, min, max, want float64
	}{
		{50, 0, 100, 0.5},
		{0, 0, 100, 0},
		{100, 0, 100, 1},
		{150, 0, 100, 1},   // clamp high
		{-10, 0, 100, 0},   // clamp low
		{5, 10, 10, 0},     // degenerate range
		{5, 10, 2, 0},      // inverted range treated as degenerate
		{30, 20, 40, 0.5},
	}
	for _, c := range cases {
		if got := Normalize(c.v, c.min, c.max); got != c.want {
			t.Errorf("Normalize(%v, %v, %v) = %v, want %v", c.v, c.min, c.max, got, c.want)
		}
	}
}

func TestZeroIsWhite(t *testing.T) {
	ranges := [][2]float64{{0, 1}, {0, 100}, {-50, 50}, {3, 7}}
	for _, r := range ranges {
		if got := Reds.ForValue(0, r[0], r[1]); got != NoData {
			t.Errorf("ForValue(0, %v, %v) = %q, want NoData sentinel", r[0], r[1], got)
		}
	}
}

func TestBucketMonotonicity(t *testing.T) {
	vals := []float64{1, 5, 20, 40, 55, 79, 80, 99, 100}
	prev := -1
	for _, v := range vals {
		idx := Reds.BucketIndex(Normalize(v, 0, 100))
		if idx < prev {
			t.Errorf("bucket index decreased at v=%v: %d < %d", v, idx, prev)
		}
		prev = idx
	}
}

func TestBucketBoundaries(t *testing.T) {
	// Bucket i covers [t[i], t[i+1]); the final bucket includes its upper bound.
	if got := Reds.BucketIndex(0); got != 0 {
		t.Errorf("BucketIndex(0) = %d, want 0", got)
	}
	if got := Reds.BucketIndex(0.2); got != 1 {
		t.Errorf("BucketIndex(0.2) = %d, want 1 (lower bound inclusive)", got)
	}
	if got := Reds.BucketIndex(1); got != len(Reds.Colors)-1 {
		t.Errorf("BucketIndex(1) = %d, want last bucket", got)
	}
}

func TestForRegionalValueUnknownRegion(t *testing.T) {
	byRegion := map[string]MinMax{"ME": {Min: 0, Max: 400}}

	// Known region uses its range.
	if got := Reds.ForRegionalValue(400, "ME", byRegion); got != Reds.Colors[len(Reds.Colors)-1] {
		t.Errorf("max value in known region = %q, want darkest bucket", got)
	}
	// Unknown region falls back to a zero range: non-zero values land in the
	// lightest bucket, and nothing panics.
	if got := Reds.ForRegionalValue(123, "LOP", byRegion); got != Reds.Colors[0] {
		t.Errorf("non-zero value in unknown region = %q, want lightest bucket", got)
	}
	if got := Reds.ForRegionalValue(0, "LOP", byRegion); got != NoData {
		t.Errorf("zero in unknown region = %q, want NoData", got)
	}
}

func TestWithThresholds(t *testing.T) {
	custom := Reds.WithThresholds([]float64{0, 0.5, 0.7, 0.8, 0.9, 1})
	if custom.BucketIndex(0.4) != 0 {
		t.Errorf("custom thresholds ignored: bucket(0.4) = %d", custom.BucketIndex(0.4))
	}

	// Wrong boundary count keeps the ramp's own thresholds.
	bad := Reds.WithThresholds([]float64{0, 1})
	if bad.BucketIndex(0.5) != Reds.BucketIndex(0.5) {
		t.Error("mis-sized thresholds should be rejected")
	}
}

func TestResample(t *testing.T) {
	three := Reds.Resample(3)
	if len(three.Colors) != 3 || len(three.Thresholds) != 4 {
		t.Fatalf("Resample(3) sizes = %d colors, %d thresholds", len(three.Colors), len(three.Thresholds))
	}
	// Endpoints of the source ramp survive resampling.
	if three.Colors[0] != Reds.Colors[0] {
		t.Errorf("lightest color = %q, want %q", three.Colors[0], Reds.Colors[0])
	}
	if three.Colors[2] != Reds.Colors[len(Reds.Colors)-1] {
		t.Errorf("darkest color = %q, want %q", three.Colors[2], Reds.Colors[len(Reds.Colors)-1])
	}
	for i := range three.Thresholds {
		want := float64(i) / 3
		if three.Thresholds[i] != want {
			t.Errorf("threshold[%d] = %v, want %v", i, three.Thresholds[i], want)
		}
	}

	// Matching or non-positive bucket counts leave the ramp unchanged.
	if got := Reds.Resample(len(Reds.Colors)); len(got.Colors) != len(Reds.Colors) || got.Colors[1] != Reds.Colors[1] {
		t.Error("Resample to current size should be a no-op")
	}
	if got := Reds.Resample(0); len(got.Colors) != len(Reds.Colors) {
		t.Error("Resample(0) should be a no-op")
	}
}
