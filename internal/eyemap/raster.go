package eyemap

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
)

// RasterRenderer renders a placed descriptor list to a PNG payload for
// callers that request raster output instead of SVG markup. The per-layer
// tooltip metadata has no raster representation; raster panels carry fills
// only.
type RasterRenderer struct {
	bufPool sync.Pool
}

// NewRasterRenderer creates a renderer with a reusable encode buffer pool.
func NewRasterRenderer() *RasterRenderer {
	return &RasterRenderer{
		bufPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// Render draws the hexagons into a white canvas sized by the layout and
// returns the encoded PNG bytes.
func (r *RasterRenderer) Render(hexes []Hexagon, l Layout, title string, hexSize float64) ([]byte, error) {
	w := int(math.Ceil(l.Width))
	h := int(math.Ceil(l.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster render: degenerate panel %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	if title != "" {
		dc.SetHexColor("#000000")
		dc.DrawString(title, l.Margin, l.TitleHeight-8)
	}

	for _, hex := range hexes {
		drawHexagon(dc, hex.Pos.X, hex.Pos.Y, hexSize)
		dc.SetHexColor(hex.Fill)
		if hex.Stroke != "" {
			dc.FillPreserve()
			dc.SetHexColor(hex.Stroke)
			dc.SetLineWidth(1)
			dc.Stroke()
		} else {
			dc.Fill()
		}
	}

	return r.encode(dc)
}

// drawHexagon traces a flat-top hexagon path centred at (x, y), matching the
// vertex orientation of the SVG polygon path.
func drawHexagon(dc *gg.Context, x, y, size float64) {
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 3
		vx := x + size*math.Cos(angle)
		vy := y + size*math.Sin(angle)
		if i == 0 {
			dc.MoveTo(vx, vy)
		} else {
			dc.LineTo(vx, vy)
		}
	}
	dc.ClosePath()
}

func (r *RasterRenderer) encode(dc *gg.Context) ([]byte, error) {
	buf := r.bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode panel png: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
