// Package hexgrid converts eyemap column indices into pixel-space hexagon
// positions. All functions are pure arithmetic: column index pairs are
// recentred into axial coordinates, projected to flat-top hex pixel
// positions, and optionally mirrored for the left body side.
package hexgrid

import (
	"fmt"
	"math"
	"strings"
)

// Axial is a recentred axial hex coordinate. Q runs along the oblique
// column axis, R along the row axis.
type Axial struct {
	Q int
	R int
}

// Pixel is a position in render space. Y grows downward (SVG convention).
type Pixel struct {
	X float64
	Y float64
}

// HexToAxial recentres a raw (hex1, hex2) column index pair into an axial
// coordinate using the minimum observed indices as the origin offset, so the
// grid lands near the origin regardless of the absolute index range in the
// source data. The mapping is linear: translating the inputs by a constant
// translates every output by the same vector.
func HexToAxial(hex1, hex2, minHex1, minHex2 int) Axial {
	h1 := hex1 - minHex1
	h2 := hex2 - minHex2
	return Axial{
		Q: h1 - h2,
		R: h2,
	}
}

// AxialToPixel projects an axial coordinate to a pixel position using the
// flat-top hex layout with circumradius size. When mirrored is true (left
// body side) the x coordinate is negated; y is never affected by side.
func AxialToPixel(a Axial, size float64, mirrored bool) Pixel {
	q := float64(a.Q)
	r := float64(a.R)
	x := size * 1.5 * q
	y := size * math.Sqrt(3) * (r + q/2)
	if mirrored {
		x = -x
	}
	return Pixel{X: x, Y: y}
}

// HexToPixel composes HexToAxial and AxialToPixel.
func HexToPixel(hex1, hex2, minHex1, minHex2 int, size float64, mirrored bool) Pixel {
	return AxialToPixel(HexToAxial(hex1, hex2, minHex1, minHex2), size, mirrored)
}

// Vertices returns the six corner points of a regular flat-top hexagon
// centred at the origin with the given circumradius, as "x,y" strings
// formatted to precision decimal digits. Corners are evaluated at 60°
// steps starting from angle 0, so the first vertex sits on the +x axis.
func Vertices(size float64, precision int) []string {
	pts := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 3
		x := size * math.Cos(angle)
		y := size * math.Sin(angle)
		pts = append(pts, fmt.Sprintf("%.*f,%.*f", precision, x, precision, y))
	}
	return pts
}

// Path returns the hexagon corner points joined with spaces, suitable for an
// SVG polygon points attribute.
func Path(size float64, precision int) string {
	return strings.Join(Vertices(size, precision), " ")
}
