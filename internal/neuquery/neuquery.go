// Package neuquery reads per-column connectivity data from the neo4j graph
// database. Queries are read-only; the graph is the source of truth and the
// sqlite layer memoizes results locally.
package neuquery

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mosaic-data/eyemap.report/internal/eyemap"
	"github.com/mosaic-data/eyemap.report/internal/monitoring"
)

var logf = monitoring.Prefixed("[neuquery] ")

// Store wraps a neo4j driver with the queries the report service needs.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	dataset  string
	timeout  time.Duration
}

// Config holds the connection settings for the graph database. A positive
// Timeout bounds every query; zero disables the per-query deadline.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
	Dataset  string
	Timeout  time.Duration
}

// NewStore connects to neo4j and verifies connectivity before returning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", cfg.URI, err)
	}
	logf("connected to %s (database %q, dataset %q)", cfg.URI, cfg.Database, cfg.Dataset)

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Store{driver: driver, database: database, dataset: cfg.Dataset, timeout: cfg.Timeout}, nil
}

// queryContext derives the context a single query runs under, applying the
// configured timeout when one is set.
func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Dataset returns the dataset tag all queries are scoped to.
func (s *Store) Dataset() string { return s.dataset }

const entityColumnsCypher = `
MATCH (n:Neuron {type: $entity, dataset: $dataset})-[w:Innervates]->(c:Column)
RETURN c.roi AS region, c.side AS side, c.hex1 AS hex1, c.hex2 AS hex2,
       w.synapses AS synapses, w.cells AS cells, w.layers AS layers
ORDER BY region, side, hex1, hex2`

// EntityColumns fetches every column row for one entity type across all
// regions and sides. Rows that fail validation abort the whole fetch; a
// partially mapped result set would silently distort the maps downstream.
func (s *Store) EntityColumns(ctx context.Context, entity string) ([]eyemap.Record, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, entityColumnsCypher, map[string]any{
			"entity":  entity,
			"dataset": s.dataset,
		})
		if err != nil {
			return nil, err
		}

		var records []eyemap.Record
		for result.Next(ctx) {
			rec, err := recordFromRow(entity, result.Record().AsMap())
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("column query for %q failed: %w", entity, err)
	}
	records := rows.([]eyemap.Record)
	logf("fetched %d column rows for %s", len(records), entity)
	return records, nil
}

const entitiesCypher = `
MATCH (n:Neuron {dataset: $dataset})-[:Innervates]->(:Column)
RETURN DISTINCT n.type AS type ORDER BY type`

// Entities lists every entity type in the dataset that has column data.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, entitiesCypher, map[string]any{"dataset": s.dataset})
		if err != nil {
			return nil, err
		}

		var types []string
		for result.Next(ctx) {
			v, ok := result.Record().Get("type")
			if !ok {
				continue
			}
			if name, ok := v.(string); ok && name != "" {
				types = append(types, name)
			}
		}
		return types, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("entity listing failed: %w", err)
	}
	return rows.([]string), nil
}

// recordFromRow maps one cypher result row onto an eyemap.Record. The graph
// stores hex indices as integers; anything else is data corruption and fails
// the fetch.
func recordFromRow(entity string, row map[string]any) (eyemap.Record, error) {
	region, err := stringField(row, "region")
	if err != nil {
		return eyemap.Record{}, err
	}
	side, err := stringField(row, "side")
	if err != nil {
		return eyemap.Record{}, err
	}
	hex1, err := intField(row, "hex1")
	if err != nil {
		return eyemap.Record{}, fmt.Errorf("column %s/%s: %w", region, side, err)
	}
	hex2, err := intField(row, "hex2")
	if err != nil {
		return eyemap.Record{}, fmt.Errorf("column %s/%s: %w", region, side, err)
	}
	synapses, err := floatField(row, "synapses")
	if err != nil {
		return eyemap.Record{}, fmt.Errorf("column %s/%s(%d,%d): %w", region, side, hex1, hex2, err)
	}
	cells, err := floatField(row, "cells")
	if err != nil {
		return eyemap.Record{}, fmt.Errorf("column %s/%s(%d,%d): %w", region, side, hex1, hex2, err)
	}

	layers, err := layersField(row["layers"])
	if err != nil {
		return eyemap.Record{}, fmt.Errorf("column %s/%s(%d,%d): %w", region, side, hex1, hex2, err)
	}

	return eyemap.Record{
		Entity:   entity,
		Region:   region,
		SideTag:  side,
		Hex1:     hex1,
		Hex2:     hex2,
		Synapses: synapses,
		Cells:    cells,
		Layers:   layers,
	}, nil
}

// layersField maps the optional per-sublayer list. A null property means the
// column has no sublayer breakdown, which is valid.
func layersField(v any) ([]eyemap.LayerMetric, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("layers has type %T, want list", v)
	}

	layers := make([]eyemap.LayerMetric, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("layers[%d] has type %T, want map", i, item)
		}
		index, err := intField(entry, "index")
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		synapses, err := floatField(entry, "synapses")
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		cells, err := floatField(entry, "cells")
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		value, err := floatField(entry, "value")
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		layers = append(layers, eyemap.LayerMetric{
			Index:    index,
			Synapses: synapses,
			Cells:    cells,
			Value:    value,
		})
	}
	return layers, nil
}

func stringField(row map[string]any, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return s, nil
}

// intField accepts only integral values. The bolt protocol delivers graph
// integers as int64; a float here means the hex index was stored wrong.
func intField(row map[string]any, key string) (int, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("field %q has type %T, want integer", key, v)
	}
	return int(n), nil
}

// floatField accepts float64 or int64; counts may be stored either way.
func floatField(row map[string]any, key string) (float64, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing field %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("field %q has type %T, want number", key, v)
}
