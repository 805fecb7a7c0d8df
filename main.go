package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mosaic-data/eyemap.report/internal/api"
	"github.com/mosaic-data/eyemap.report/internal/config"
	"github.com/mosaic-data/eyemap.report/internal/db"
	"github.com/mosaic-data/eyemap.report/internal/neuquery"
	"github.com/mosaic-data/eyemap.report/internal/version"
)

var (
	configPath    = flag.String("config", "", "Path to render config JSON (optional)")
	listen        = flag.String("listen", "", "Listen address (overrides config)")
	migrationsDir = flag.String("migrations", "migrations", "Path to schema migrations")
)

func main() {
	flag.Parse()

	log.Printf("eyemap server %s", version.String())

	cfg := config.EmptyRenderConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadRenderConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Subcommand dispatch: "eyemap-report migrate up" etc.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], cfg.GetCachePath(), *migrationsDir)
		return
	}

	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}

	cache, err := db.NewDB(cfg.GetCachePath())
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	server, err := api.NewServer(store, cache, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	var wg sync.WaitGroup

	// warmup routine: initial fetch plus periodic refresh so new snapshot
	// uploads show up without a restart
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Warmup(ctx); err != nil {
			log.Printf("initial warmup failed: %v", err)
		}
		ticker := time.NewTicker(cfg.GetCacheTTL())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if pruned, err := cache.PruneColumns(cfg.GetCacheTTL()); err != nil {
					log.Printf("cache prune failed: %v", err)
				} else if pruned > 0 {
					log.Printf("pruned %d stale cache entries", pruned)
				}
				if err := server.Warmup(ctx); err != nil {
					log.Printf("refresh warmup failed: %v", err)
				}
			case <-ctx.Done():
				log.Printf("warmup routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpServer := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(server.ServeMux()),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// neo4jPassword prefers the environment over the config file so credentials
// stay out of checked-in JSON.
func neo4jPassword(cfg *config.RenderConfig) string {
	if pw := os.Getenv("NEO4J_PASSWORD"); pw != "" {
		return pw
	}
	return cfg.GetNeo4jPassword()
}
