package hexgrid

import (
	"math"
	"strings"
	"testing"
)

func TestHexToAxialRecentring(t *testing.T) {
	// The minimum observed pair maps to the origin.
	a := HexToAxial(12, 7, 12, 7)
	if a.Q != 0 || a.R != 0 {
		t.Errorf("HexToAxial(min,min) = %+v, want origin", a)
	}

	// Changing the minima shifts every output by the same vector.
	base := HexToAxial(20, 15, 10, 5)
	shifted := HexToAxial(20, 15, 11, 6)
	if shifted.Q-base.Q != -(11-10)+(6-5) || shifted.R-base.R != -(6 - 5) {
		t.Errorf("min shift not a pure translation: base=%+v shifted=%+v", base, shifted)
	}
}

func TestHexToAxialLinearity(t *testing.T) {
	const k = 7
	// Translating hex1 by k moves every axial output by the same vector,
	// independent of the input coordinate.
	var dq, dr int
	for i, pair := range [][2]int{{0, 0}, {3, 9}, {-4, 2}, {27, 11}} {
		a := HexToAxial(pair[0], pair[1], -5, -5)
		b := HexToAxial(pair[0]+k, pair[1], -5, -5)
		if i == 0 {
			dq, dr = b.Q-a.Q, b.R-a.R
			continue
		}
		if b.Q-a.Q != dq || b.R-a.R != dr {
			t.Errorf("translation by %d not constant at %v: got (%d,%d), want (%d,%d)",
				k, pair, b.Q-a.Q, b.R-a.R, dq, dr)
		}
	}
}

func TestAxialToPixelMirrorSymmetry(t *testing.T) {
	coords := []Axial{{0, 0}, {1, 0}, {0, 1}, {-3, 2}, {5, -7}, {11, 4}}
	for _, size := range []float64{1, 6.5, 20} {
		for _, a := range coords {
			right := AxialToPixel(a, size, false)
			left := AxialToPixel(a, size, true)
			if right.X != -left.X {
				t.Errorf("size %v axial %+v: right.X=%v want %v", size, a, right.X, -left.X)
			}
			if right.Y != left.Y {
				t.Errorf("size %v axial %+v: y differs across sides: %v vs %v", size, a, right.Y, left.Y)
			}
		}
	}
}

func TestAxialToPixelSpacing(t *testing.T) {
	const size = 10.0
	// Horizontal neighbour along q: 1.5*size in x, sqrt(3)/2*size in y.
	p := AxialToPixel(Axial{Q: 1, R: 0}, size, false)
	if math.Abs(p.X-15) > 1e-9 || math.Abs(p.Y-size*math.Sqrt(3)/2) > 1e-9 {
		t.Errorf("q-neighbour at %+v", p)
	}
	// Vertical neighbour along r: pure y step of sqrt(3)*size.
	p = AxialToPixel(Axial{Q: 0, R: 1}, size, false)
	if p.X != 0 || math.Abs(p.Y-size*math.Sqrt(3)) > 1e-9 {
		t.Errorf("r-neighbour at %+v", p)
	}
}

func TestHexToPixelComposition(t *testing.T) {
	for _, mirrored := range []bool{false, true} {
		got := HexToPixel(27, 11, 20, 8, 12, mirrored)
		want := AxialToPixel(HexToAxial(27, 11, 20, 8), 12, mirrored)
		if got != want {
			t.Errorf("mirrored=%v: HexToPixel=%+v, composed=%+v", mirrored, got, want)
		}
	}
}

func TestPathTokenCount(t *testing.T) {
	for _, size := range []float64{0.1, 1, 8, 250} {
		path := Path(size, 2)
		tokens := strings.Fields(path)
		if len(tokens) != 6 {
			t.Errorf("size %v: path has %d tokens, want 6: %q", size, len(tokens), path)
		}
		for _, tok := range tokens {
			if strings.Count(tok, ",") != 1 {
				t.Errorf("size %v: malformed point %q", size, tok)
			}
		}
	}
}

func TestVerticesFirstOnXAxis(t *testing.T) {
	v := Vertices(10, 3)
	if v[0] != "10.000,0.000" {
		t.Errorf("first vertex = %q, want on +x axis", v[0])
	}
}
