// Command eyemap-report batch-generates eyemap panels and report pages for a
// set of entity types, writing everything under a per-run output directory.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mosaic-data/eyemap.report/internal/colormap"
	"github.com/mosaic-data/eyemap.report/internal/config"
	"github.com/mosaic-data/eyemap.report/internal/db"
	"github.com/mosaic-data/eyemap.report/internal/eyemap"
	"github.com/mosaic-data/eyemap.report/internal/neuquery"
	"github.com/mosaic-data/eyemap.report/internal/report"
	"github.com/mosaic-data/eyemap.report/internal/security"
	"github.com/mosaic-data/eyemap.report/internal/stats"
	"github.com/mosaic-data/eyemap.report/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to render config JSON (optional)")
	entityList = flag.String("entities", "", "Comma-separated entity types (default: all in dataset)")
	sideTag    = flag.String("side", "combined", "Side to render: R, L, M, or combined")
	formatTag  = flag.String("format", "svg", "Panel format: svg or png")
	outputDir  = flag.String("out", "", "Output directory (overrides config)")
	workers    = flag.Int("workers", 0, "Concurrent render workers (overrides config)")
	withPlots  = flag.Bool("plots", false, "Also write per-entity distribution plots and totals charts")
)

func main() {
	flag.Parse()

	log.Printf("eyemap-report %s", version.String())

	cfg := config.EmptyRenderConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadRenderConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	side, err := eyemap.ParseSide(*sideTag)
	if err != nil {
		log.Fatalf("Invalid side: %v", err)
	}
	format, err := eyemap.ParseFormat(*formatTag)
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	outDir := cfg.GetOutputDir()
	if *outputDir != "" {
		outDir = *outputDir
	}
	if err := security.ValidateOutputDir(outDir); err != nil {
		log.Fatalf("Invalid output directory: %v", err)
	}
	poolSize := cfg.GetWorkers()
	if *workers > 0 {
		poolSize = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, err := db.NewDB(cfg.GetCachePath())
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}
	defer cache.Close()

	store, err := neuquery.NewStore(ctx, neuquery.Config{
		URI:      cfg.GetNeo4jURI(),
		User:     cfg.GetNeo4jUser(),
		Password: neo4jPassword(cfg),
		Database: cfg.GetNeo4jDatabase(),
		Dataset:  cfg.GetDataset(),
		Timeout:  cfg.GetQueryTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to graph database: %v", err)
	}
	defer store.Close(context.Background())

	entities := splitEntities(*entityList)
	if len(entities) == 0 {
		entities, err = store.Entities(ctx)
		if err != nil {
			log.Fatalf("Failed to list entities: %v", err)
		}
	}
	if len(entities) == 0 {
		log.Fatal("No entities to render")
	}

	// One pass over every entity to reconcile the coordinate universe and
	// collect the color scale statistics; renders reuse these records.
	records := make(map[string][]eyemap.Record, len(entities))
	var all []eyemap.Record
	for _, entity := range entities {
		recs, err := fetchRecords(ctx, store, cache, cfg, entity)
		if err != nil {
			log.Fatalf("Fetch for %s failed: %v", entity, err)
		}
		records[entity] = recs
		all = append(all, recs...)
	}

	universe, err := eyemap.BuildUniverse(all)
	if err != nil {
		log.Fatalf("Universe build failed: %v", err)
	}
	summary := stats.Collect(all)
	scales := map[eyemap.Metric]eyemap.Scale{
		eyemap.MetricSynapses: summary.Scale(eyemap.MetricSynapses,
			colormap.ByName(cfg.GetSynapseRamp()), cfg.GetRegionalScales(), cfg.GetColorBuckets()),
		eyemap.MetricCells: summary.Scale(eyemap.MetricCells,
			colormap.ByName(cfg.GetCellRamp()), cfg.GetRegionalScales(), cfg.GetColorBuckets()),
	}
	renderer := eyemap.NewRenderer(universe, scales,
		cfg.GetHexSize(), cfg.GetHexSpacing(), cfg.GetPrecision())
	metrics := []eyemap.Metric{eyemap.MetricSynapses, eyemap.MetricCells}

	log.Printf("rendering %d entities with %d workers (side %s, format %s)",
		len(entities), poolSize, side, format)

	// bounded worker pool
	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range jobs {
				if err := generate(renderer, cache, cfg, outDir, entity, records[entity], side, metrics, format, *withPlots); err != nil {
					log.Printf("FAILED %s: %v", entity, err)
				}
			}
		}()
	}

	queued := 0
dispatch:
	for _, entity := range entities {
		select {
		case jobs <- entity:
			queued++
		case <-ctx.Done():
			log.Printf("interrupted after queueing %d entities", queued)
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	log.Printf("done: %d of %d entities queued", queued, len(entities))
}

// generate renders and writes one entity's panels, page, and optional plots.
func generate(renderer *eyemap.Renderer, cache *db.DB, cfg *config.RenderConfig,
	outDir, entity string, records []eyemap.Record, side eyemap.Side,
	metrics []eyemap.Metric, format eyemap.Format, plots bool) error {

	panels, err := renderer.RenderEntity(entity, records, side, metrics, format)
	if err != nil {
		return err
	}

	runID, files, err := eyemap.WritePanels(outDir, entity, panels)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Printf("no panels for %s, skipping", entity)
		return nil
	}
	runDir := filepath.Dir(files[0])

	if format == eyemap.FormatSVG {
		page, err := report.BuildPage(entity, cfg.GetDataset(),
			time.Now().UTC().Format(time.RFC3339), panels)
		if err != nil {
			return err
		}
		if _, err := report.WritePage(runDir, entity, page); err != nil {
			return err
		}
	}

	if plots {
		columns := make([]eyemap.ColumnData, 0, len(records))
		for _, rec := range records {
			col, err := rec.ToColumnData()
			if err != nil {
				return err
			}
			columns = append(columns, col)
		}
		chart, err := report.RegionTotalsChart(entity, columns)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(runDir, "totals.html"), chart, 0o644); err != nil {
			return err
		}
		for _, metric := range metrics {
			if _, err := report.SaveDistributionPlot(runDir, entity, metric, columns); err != nil {
				log.Printf("distribution plot for %s %s skipped: %v", entity, metric, err)
			}
		}
	}

	if err := cache.RecordReportRun(runID, entity, runDir, int64(len(files))); err != nil {
		return err
	}
	log.Printf("wrote %d panels for %s to %s", len(files), entity, runDir)
	return nil
}

func fetchRecords(ctx context.Context, store *neuquery.Store, cache *db.DB,
	cfg *config.RenderConfig, entity string) ([]eyemap.Record, error) {

	records, hit, err := cache.GetColumns(cfg.GetDataset(), entity, cfg.GetCacheTTL())
	if err != nil {
		log.Printf("cache read for %s failed: %v", entity, err)
	} else if hit {
		return records, nil
	}

	records, err = store.EntityColumns(ctx, entity)
	if err != nil {
		return nil, err
	}
	if err := cache.PutColumns(cfg.GetDataset(), entity, records); err != nil {
		log.Printf("cache write for %s failed: %v", entity, err)
	}
	return records, nil
}

func splitEntities(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// neo4jPassword prefers the environment over the config file so credentials
// stay out of checked-in JSON.
func neo4jPassword(cfg *config.RenderConfig) string {
	if pw := os.Getenv("NEO4J_PASSWORD"); pw != "" {
		return pw
	}
	return cfg.GetNeo4jPassword()
}
