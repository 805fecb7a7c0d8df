// Package report assembles entity report pages from rendered eyemap panels.
// A page inlines the SVG panels directly so the tooltip hook can read the
// per-layer data attributes without any fetch round trips.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mosaic-data/eyemap.report/internal/eyemap"
	"github.com/mosaic-data/eyemap.report/internal/security"
)

// PanelView is one rendered panel plus the labels the template needs.
type PanelView struct {
	Key    string // "region/side"
	Metric string
	Title  string
	SVG    template.HTML
}

// PageData is the template context for one entity page.
type PageData struct {
	Entity    string
	Dataset   string
	Generated string
	Panels    []PanelView
}

var pageTemplate = template.Must(template.New("entity").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Entity}} eyemaps</title>
<style>
body { font-family: sans-serif; margin: 1.5em; background: #fafafa; }
h1 { font-size: 1.4em; }
.meta { color: #666; font-size: 0.85em; margin-bottom: 1em; }
.panel { display: inline-block; margin: 0.75em; padding: 0.5em; background: #fff;
         border: 1px solid #ddd; border-radius: 4px; vertical-align: top; }
.panel h2 { font-size: 0.95em; margin: 0 0 0.4em 0; }
#layer-tip { position: fixed; display: none; pointer-events: none; background: #222;
             color: #eee; padding: 4px 8px; border-radius: 3px; font-size: 0.8em;
             white-space: pre; z-index: 10; }
</style>
</head>
<body>
<h1>{{.Entity}}</h1>
<div class="meta">dataset {{.Dataset}} &middot; generated {{.Generated}}</div>
{{range .Panels}}<div class="panel">
<h2>{{.Title}}</h2>
{{.SVG}}
</div>
{{end}}<div id="layer-tip"></div>
<script>
(function () {
	var tip = document.getElementById("layer-tip");
	document.addEventListener("mousemove", function (ev) {
		var hex = ev.target.closest ? ev.target.closest("polygon[data-layer-tooltips]") : null;
		if (!hex) { tip.style.display = "none"; return; }
		var tips = JSON.parse(hex.getAttribute("data-layer-tooltips"));
		var colors = JSON.parse(hex.getAttribute("data-layer-colors"));
		tip.textContent = tips.join("\n");
		tip.style.borderLeft = "4px solid " + (colors[0] || "#fff");
		tip.style.left = (ev.clientX + 12) + "px";
		tip.style.top = (ev.clientY + 12) + "px";
		tip.style.display = "block";
	});
})();
</script>
</body>
</html>
`))

// BuildPage renders the HTML report page for one entity. Panels arrive keyed
// by "region/side" then metric tag; output ordering is sorted on both keys so
// regenerated pages diff cleanly.
func BuildPage(entity, dataset, generated string, panels map[string]map[string]eyemap.Panel) ([]byte, error) {
	var views []PanelView
	for key, byMetric := range panels {
		for metric, panel := range byMetric {
			if len(panel.SVG) == 0 {
				continue
			}
			views = append(views, PanelView{
				Key:    key,
				Metric: metric,
				Title:  fmt.Sprintf("%s %s (%s)", key, metric, entity),
				SVG:    template.HTML(panel.SVG),
			})
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Key != views[j].Key {
			return views[i].Key < views[j].Key
		}
		return views[i].Metric < views[j].Metric
	})

	data := PageData{
		Entity:    entity,
		Dataset:   dataset,
		Generated: generated,
		Panels:    views,
	}

	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page for %s: %w", entity, err)
	}
	return []byte(buf.String()), nil
}

// WritePage writes an entity page under dir as <entity>.html.
func WritePage(dir, entity string, page []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(dir, security.SanitizeFilename(entity)+".html")
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page: %w", err)
	}
	return path, nil
}
