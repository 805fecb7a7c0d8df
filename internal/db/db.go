// Package db is the local sqlite layer for the eyemap report service. It
// caches per-entity column query results so repeated renders do not hit the
// graph database, and records every generated report run for the history
// pages.
package db

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/mosaic-data/eyemap.report/internal/eyemap"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS column_cache (
			dataset           TEXT NOT NULL,
			entity            TEXT NOT NULL,
			records           TEXT NOT NULL,
			fetched_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (dataset, entity)
		);
		CREATE TABLE IF NOT EXISTS report_runs (
			run_id            TEXT PRIMARY KEY,
			entity            TEXT NOT NULL,
			output_dir        TEXT,
			panel_count       BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// PutColumns stores an entity's raw column records for a dataset, replacing
// any prior entry. Records are stored as a single JSON document; the cache is
// a memo, not a queryable copy of the graph.
func (db *DB) PutColumns(dataset, entity string, records []eyemap.Record) error {
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode column records: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO column_cache (dataset, entity, records, fetched_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(dataset, entity) DO UPDATE SET
			records = excluded.records,
			fetched_at = excluded.fetched_at`,
		dataset, entity, string(blob),
	)
	if err != nil {
		return err
	}
	return nil
}

// GetColumns returns the cached records for (dataset, entity) if an entry
// exists and is younger than ttl. The second return value reports a cache
// hit; a stale or missing entry is not an error.
func (db *DB) GetColumns(dataset, entity string, ttl time.Duration) ([]eyemap.Record, bool, error) {
	var blob, fetchedRaw string
	err := db.QueryRow(
		`SELECT records, fetched_at FROM column_cache WHERE dataset = ? AND entity = ?`,
		dataset, entity,
	).Scan(&blob, &fetchedRaw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fetchedAt, err := parseSQLiteTime(fetchedRaw)
	if err != nil {
		return nil, false, fmt.Errorf("bad fetched_at for %s/%s: %w", dataset, entity, err)
	}
	if ttl > 0 && time.Since(fetchedAt) > ttl {
		return nil, false, nil
	}

	var records []eyemap.Record
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached records for %s/%s: %w", dataset, entity, err)
	}
	return records, true, nil
}

// PruneColumns deletes cache entries older than ttl and returns how many
// rows were removed.
func (db *DB) PruneColumns(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).UTC()
	res, err := db.Exec(`DELETE FROM column_cache WHERE fetched_at < ?`, cutoff.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CachedEntities lists the entities cached for a dataset, newest first.
func (db *DB) CachedEntities(dataset string) ([]string, error) {
	rows, err := db.Query(
		`SELECT entity FROM column_cache WHERE dataset = ? ORDER BY fetched_at DESC`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entities, nil
}

// parseSQLiteTime parses the text timestamps sqlite's CURRENT_TIMESTAMP
// produces. They are always UTC.
func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

type ReportRun struct {
	RunID      string
	Entity     string
	OutputDir  string
	PanelCount int64
	Timestamp  time.Time
}

func (r *ReportRun) String() string {
	return fmt.Sprintf("RunID: %s, Entity: %s, OutputDir: %s, PanelCount: %d", r.RunID, r.Entity, r.OutputDir, r.PanelCount)
}

// RecordReportRun logs one completed report generation.
func (db *DB) RecordReportRun(runID, entity, outputDir string, panelCount int64) error {
	_, err := db.Exec(
		`INSERT INTO report_runs (run_id, entity, output_dir, panel_count) VALUES (?, ?, ?, ?)`,
		runID, entity, outputDir, panelCount,
	)
	if err != nil {
		return err
	}
	return nil
}

func (db *DB) ReportRuns() ([]ReportRun, error) {
	rows, err := db.Query(`SELECT run_id, entity, output_dir, panel_count, timestamp
		FROM report_runs ORDER BY timestamp DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var run ReportRun
		var ts string
		if err := rows.Scan(
			&run.RunID,
			&run.Entity,
			&run.OutputDir,
			&run.PanelCount,
			&ts,
		); err != nil {
			return nil, err
		}
		if run.Timestamp, err = parseSQLiteTime(ts); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://eyemap-cache.db", db.DB, &tailsql.DBOptions{
		Label: "Eyemap cache DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		// Send the backup file to the client
		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()

		// Copy the backup file content to the gzip writer
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
