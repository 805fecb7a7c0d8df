package eyemap

import "github.com/mosaic-data/eyemap.report/internal/hexgrid"

// Layout is the pixel frame of one rendered panel: the bounding box of the
// hexagon centers padded by the hex radius and margin, plus the legend strip
// and title band. All placement math happens here; the scene renderers only
// serialize positions they are handed.
type Layout struct {
	Margin      float64
	TitleHeight float64
	LegendWidth float64
	LegendGap   float64

	// Bounding box of the raw hexagon centers.
	MinX, MinY, MaxX, MaxY float64

	// Width and Height cover grid, margins, title band, and legend strip.
	Width  float64
	Height float64
}

// LayoutOptions tune panel framing. Zero values fall back to defaults that
// match the report page styling.
type LayoutOptions struct {
	Margin      float64
	TitleHeight float64
	LegendWidth float64
	LegendGap   float64
}

const (
	defaultMargin      = 12.0
	defaultTitleHeight = 28.0
	defaultLegendWidth = 22.0
	defaultLegendGap   = 14.0
)

// ComputeLayout derives the panel frame from a descriptor list. hexSize is
// the circumradius used when the descriptors were projected; it pads the
// bounding box so corner vertices stay inside the frame. An empty
// descriptor list yields a frame that still fits the title and legend.
func ComputeLayout(hexes []Hexagon, hexSize float64, opts LayoutOptions) Layout {
	l := Layout{
		Margin:      opts.Margin,
		TitleHeight: opts.TitleHeight,
		LegendWidth: opts.LegendWidth,
		LegendGap:   opts.LegendGap,
	}
	if l.Margin == 0 {
		l.Margin = defaultMargin
	}
	if l.TitleHeight == 0 {
		l.TitleHeight = defaultTitleHeight
	}
	if l.LegendWidth == 0 {
		l.LegendWidth = defaultLegendWidth
	}
	if l.LegendGap == 0 {
		l.LegendGap = defaultLegendGap
	}

	for i, h := range hexes {
		if i == 0 {
			l.MinX, l.MaxX = h.Pos.X, h.Pos.X
			l.MinY, l.MaxY = h.Pos.Y, h.Pos.Y
			continue
		}
		if h.Pos.X < l.MinX {
			l.MinX = h.Pos.X
		}
		if h.Pos.X > l.MaxX {
			l.MaxX = h.Pos.X
		}
		if h.Pos.Y < l.MinY {
			l.MinY = h.Pos.Y
		}
		if h.Pos.Y > l.MaxY {
			l.MaxY = h.Pos.Y
		}
	}

	// Pad by the circumradius so the outermost hexagon corners are inside
	// the frame.
	l.MinX -= hexSize
	l.MinY -= hexSize
	l.MaxX += hexSize
	l.MaxY += hexSize

	gridW := l.MaxX - l.MinX
	gridH := l.MaxY - l.MinY
	l.Width = gridW + 2*l.Margin + l.LegendGap + l.LegendWidth
	l.Height = gridH + 2*l.Margin + l.TitleHeight
	return l
}

// Place translates a descriptor position into the panel's local frame:
// origin at the panel's top-left, title band above the grid, legend strip to
// the right. Renderers receive pre-translated positions and do no further
// coordinate math.
func (l Layout) Place(p hexgrid.Pixel) hexgrid.Pixel {
	return hexgrid.Pixel{
		X: p.X - l.MinX + l.Margin,
		Y: p.Y - l.MinY + l.Margin + l.TitleHeight,
	}
}

// PlaceAll returns a copy of the descriptor list with every position
// translated into the panel frame.
func (l Layout) PlaceAll(hexes []Hexagon) []Hexagon {
	out := make([]Hexagon, len(hexes))
	for i, h := range hexes {
		h.Pos = l.Place(h.Pos)
		out[i] = h
	}
	return out
}

// LegendX returns the left edge of the legend strip.
func (l Layout) LegendX() float64 {
	return l.Width - l.Margin - l.LegendWidth
}

// GridHeight returns the height of the hexagon area inside the frame.
func (l Layout) GridHeight() float64 {
	return l.MaxY - l.MinY
}
