package eyemap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mosaic-data/eyemap.report/internal/hexgrid"
)

// SVGRenderer serializes a placed descriptor list into SVG markup. It does
// no coordinate math: positions arrive pre-translated by Layout.Place, and
// the renderer only writes out descriptor fields, the legend strip, and the
// title band.
//
// Per-hexagon tooltip metadata is embedded as two machine-readable
// attributes, data-layer-colors and data-layer-tooltips: JSON string arrays
// of identical length, index-aligned with the entity's sublayer sequence.
// Client-side tooltip code parses these attributes directly, so their JSON
// encoding is a compatibility contract.
type SVGRenderer struct {
	// Precision is the decimal precision of hexagon vertex coordinates.
	Precision int
}

// attrEscaper covers the characters that terminate a single-quoted XML
// attribute. json.Marshal already escapes <, > and & inside string values.
var attrEscaper = strings.NewReplacer("&", "&amp;", "'", "&#39;")

func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// Render produces the SVG panel for one (entity, region, metric, side). The
// hexes must already be placed into the layout frame. legendMin/legendMax
// label the value range the fill colors span; legendColors is the ramp in
// bucket order, lightest first.
func (r SVGRenderer) Render(hexes []Hexagon, l Layout, title string, legendColors []string, legendMin, legendMax float64, hexSize float64) string {
	precision := r.Precision
	if precision <= 0 {
		precision = 2
	}
	path := hexgrid.Path(hexSize, precision)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		l.Width, l.Height, l.Width, l.Height)
	b.WriteString("\n")

	if title != "" {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="15" font-weight="bold">%s</text>`,
			l.Margin, l.TitleHeight-8, escapeText(title))
		b.WriteString("\n")
	}

	b.WriteString(`<g class="columns">` + "\n")
	for _, h := range hexes {
		fmt.Fprintf(&b, `<polygon points="%s" transform="translate(%.*f,%.*f)" fill="%s"`,
			path, precision, h.Pos.X, precision, h.Pos.Y, h.Fill)
		if h.Stroke != "" {
			fmt.Fprintf(&b, ` stroke="%s" stroke-width="1"`, h.Stroke)
		}
		if len(h.LayerColors) > 0 {
			fmt.Fprintf(&b, ` data-layer-colors='%s' data-layer-tooltips='%s'`,
				attrEscaper.Replace(mustJSON(h.LayerColors)),
				attrEscaper.Replace(mustJSON(h.LayerTips)))
		}
		b.WriteString(">")
		if h.Tooltip != "" {
			fmt.Fprintf(&b, "<title>%s</title>", escapeText(h.Tooltip))
		}
		b.WriteString("</polygon>\n")
	}
	b.WriteString("</g>\n")

	r.renderLegend(&b, l, legendColors, legendMin, legendMax)

	b.WriteString("</svg>\n")
	return b.String()
}

// renderLegend draws the vertical color strip on the right edge, darkest
// bucket at the top, with the range endpoints labelled.
func (r SVGRenderer) renderLegend(b *strings.Builder, l Layout, colors []string, min, max float64) {
	if len(colors) == 0 {
		return
	}
	x := l.LegendX()
	top := l.Margin + l.TitleHeight
	height := l.GridHeight()
	step := height / float64(len(colors))

	b.WriteString(`<g class="legend">` + "\n")
	for i, c := range colors {
		// colors run lightest to darkest; draw darkest at the top.
		y := top + float64(len(colors)-1-i)*step
		fmt.Fprintf(b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			x, y, l.LegendWidth, step, c)
		b.WriteString("\n")
	}
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%g</text>`,
		x-4, top+8, max)
	b.WriteString("\n")
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%g</text>`,
		x-4, top+height, min)
	b.WriteString("\n</g>\n")
}

func mustJSON(v []string) string {
	data, err := json.Marshal(v)
	if err != nil {
		// []string cannot fail to marshal.
		panic(err)
	}
	return string(data)
}
