package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mosaic-data/eyemap.report/internal/colormap"
	"github.com/mosaic-data/eyemap.report/internal/config"
	"github.com/mosaic-data/eyemap.report/internal/db"
	"github.com/mosaic-data/eyemap.report/internal/eyemap"
	"github.com/mosaic-data/eyemap.report/internal/httputil"
	"github.com/mosaic-data/eyemap.report/internal/report"
	"github.com/mosaic-data/eyemap.report/internal/stats"
	"github.com/mosaic-data/eyemap.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// ColumnSource supplies raw column records, normally the neo4j query layer.
type ColumnSource interface {
	Entities(ctx context.Context) ([]string, error)
	EntityColumns(ctx context.Context, entity string) ([]eyemap.Record, error)
	Dataset() string
}

type Server struct {
	source ColumnSource
	cache  *db.DB
	cfg    *config.RenderConfig

	// renderer and entities are replaced wholesale by Warmup; panels built
	// from a stale renderer are still internally consistent. gen counts
	// warmups and versions the panel cache keys, so an in-flight request
	// holding the previous renderer cannot park a stale panel under a key
	// the new generation will read.
	mu       sync.RWMutex
	renderer *eyemap.Renderer
	entities []string
	records  map[string][]eyemap.Record
	gen      uint64

	panels *lru.Cache[string, eyemap.Panel]
}

func NewServer(source ColumnSource, cache *db.DB, cfg *config.RenderConfig) (*Server, error) {
	panels, err := lru.New[string, eyemap.Panel](cfg.GetPanelCacheLen())
	if err != nil {
		return nil, fmt.Errorf("failed to create panel cache: %w", err)
	}
	return &Server{
		source: source,
		cache:  cache,
		cfg:    cfg,
		panels: panels,
	}, nil
}

// fetchRecords returns an entity's records, preferring the sqlite memo and
// falling back to the graph database on a miss.
func (s *Server) fetchRecords(ctx context.Context, entity string) ([]eyemap.Record, error) {
	if s.cache != nil {
		records, hit, err := s.cache.GetColumns(s.source.Dataset(), entity, s.cfg.GetCacheTTL())
		if err != nil {
			log.Printf("column cache read for %s failed: %v", entity, err)
		} else if hit {
			return records, nil
		}
	}

	records, err := s.source.EntityColumns(ctx, entity)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.PutColumns(s.source.Dataset(), entity, records); err != nil {
			log.Printf("column cache write for %s failed: %v", entity, err)
		}
	}
	return records, nil
}

// Warmup fetches every entity's columns, reconciles the coordinate universe
// across them, and swaps in a fresh renderer. It must run once before the
// render endpoints serve anything useful.
func (s *Server) Warmup(ctx context.Context) error {
	entities, err := s.source.Entities(ctx)
	if err != nil {
		return fmt.Errorf("warmup entity listing failed: %w", err)
	}

	var all []eyemap.Record
	records := make(map[string][]eyemap.Record, len(entities))
	for _, entity := range entities {
		recs, err := s.fetchRecords(ctx, entity)
		if err != nil {
			return fmt.Errorf("warmup fetch for %s failed: %w", entity, err)
		}
		records[entity] = recs
		all = append(all, recs...)
	}

	universe, err := eyemap.BuildUniverse(all)
	if err != nil {
		return fmt.Errorf("warmup universe build failed: %w", err)
	}

	summary := stats.Collect(all)
	scales := map[eyemap.Metric]eyemap.Scale{
		eyemap.MetricSynapses: summary.Scale(eyemap.MetricSynapses,
			colormap.ByName(s.cfg.GetSynapseRamp()), s.cfg.GetRegionalScales(), s.cfg.GetColorBuckets()),
		eyemap.MetricCells: summary.Scale(eyemap.MetricCells,
			colormap.ByName(s.cfg.GetCellRamp()), s.cfg.GetRegionalScales(), s.cfg.GetColorBuckets()),
	}

	renderer := eyemap.NewRenderer(universe, scales,
		s.cfg.GetHexSize(), s.cfg.GetHexSpacing(), s.cfg.GetPrecision())

	s.mu.Lock()
	s.renderer = renderer
	s.entities = entities
	s.records = records
	s.gen++
	s.mu.Unlock()
	s.panels.Purge()

	log.Printf("warmup complete: %d entities, %d column rows", len(entities), len(all))
	return nil
}

func (s *Server) snapshot() (*eyemap.Renderer, []string, map[string][]eyemap.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer, s.entities, s.records, s.gen
}

// panelCacheKey versions cached panels by warmup generation alongside the
// request parameters.
func panelCacheKey(gen uint64, entity, region string, side eyemap.Side, metric eyemap.Metric, format eyemap.Format) string {
	return strings.Join([]string{
		strconv.FormatUint(gen, 10), entity, region,
		side.String(), metric.String(), format.String(),
	}, "|")
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entities", s.listEntities)
	mux.HandleFunc("/api/eyemap", s.showEyemap)
	mux.HandleFunc("/api/report", s.showReport)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", s.healthz)
	if s.cache != nil {
		s.cache.AttachAdminRoutes(mux)
	}
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	renderer, _, _, _ := s.snapshot()
	if renderer == nil {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ok")
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	_, entities, _, _ := s.snapshot()
	if entities == nil {
		entities = []string{}
	}
	httputil.WriteJSONOK(w, entities)
}

// showEyemap renders one panel on demand. Query params: entity (required),
// region (required), side (default R), metric (default synapses), format
// (default svg).
func (s *Server) showEyemap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	renderer, _, records, gen := s.snapshot()
	if renderer == nil {
		httputil.Unavailable(w, "Renderer not warmed up yet")
		return
	}

	entity := r.URL.Query().Get("entity")
	region := r.URL.Query().Get("region")
	if entity == "" || region == "" {
		httputil.BadRequest(w, "Missing 'entity' or 'region' parameter")
		return
	}

	side, err := eyemap.ParseSide(defaultParam(r, "side", "R"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if side == eyemap.SideCombined {
		httputil.BadRequest(w, "Combined side renders are batch only; request one side")
		return
	}
	metric, err := eyemap.ParseMetric(defaultParam(r, "metric", "synapses"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	format, err := eyemap.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	cacheKey := panelCacheKey(gen, entity, region, side, metric, format)
	panel, ok := s.panels.Get(cacheKey)
	if !ok {
		recs, ok := records[entity]
		if !ok {
			httputil.NotFound(w, fmt.Sprintf("Unknown entity %q", entity))
			return
		}
		panels, err := renderer.RenderEntity(entity, recs, side, []eyemap.Metric{metric}, format)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Render failed: %v", err))
			return
		}
		byMetric, ok := panels[region]
		if !ok {
			httputil.NotFound(w, fmt.Sprintf("No %s panel for region %q side %s", metric, region, side))
			return
		}
		panel = byMetric[metric.String()]
		s.panels.Add(cacheKey, panel)
	}

	if format == eyemap.FormatPNG {
		w.Header().Set("Content-Type", "image/png")
		w.Write(panel.PNG)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(panel.SVG))
}

// showReport serves the full HTML report page for one entity, rendering all
// regions and sides.
func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	renderer, _, records, _ := s.snapshot()
	if renderer == nil {
		httputil.Unavailable(w, "Renderer not warmed up yet")
		return
	}

	entity := r.URL.Query().Get("entity")
	if entity == "" {
		httputil.BadRequest(w, "Missing 'entity' parameter")
		return
	}
	recs, ok := records[entity]
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("Unknown entity %q", entity))
		return
	}

	metrics := []eyemap.Metric{eyemap.MetricSynapses, eyemap.MetricCells}
	panels, err := renderer.RenderEntity(entity, recs, eyemap.SideCombined, metrics, eyemap.FormatSVG)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Render failed: %v", err))
		return
	}

	page, err := report.BuildPage(entity, s.source.Dataset(), time.Now().UTC().Format(time.RFC3339), panels)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Page build failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.cache == nil {
		httputil.NotFound(w, "Run history requires the cache database")
		return
	}

	runs, err := s.cache.ReportRuns()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.ReportRun{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	settings := map[string]interface{}{
		"version":         version.Version,
		"dataset":         s.source.Dataset(),
		"hex_size":        s.cfg.GetHexSize(),
		"hex_spacing":     s.cfg.GetHexSpacing(),
		"precision":       s.cfg.GetPrecision(),
		"synapse_ramp":    s.cfg.GetSynapseRamp(),
		"cell_ramp":       s.cfg.GetCellRamp(),
		"regional_scales": s.cfg.GetRegionalScales(),
	}
	httputil.WriteJSONOK(w, settings)
}

func defaultParam(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
