package db

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestMigrations materializes a migrations directory mirroring the
// shipped schema so migration tests do not depend on the working directory.
func writeTestMigrations(t *testing.T) string {
	t.Helper()

	files := map[string]string{
		"000001_column_cache.up.sql": `CREATE TABLE IF NOT EXISTS column_cache (
			dataset    TEXT NOT NULL,
			entity     TEXT NOT NULL,
			records    TEXT NOT NULL,
			fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (dataset, entity)
		);`,
		"000001_column_cache.down.sql": `DROP TABLE IF EXISTS column_cache;`,
		"000002_report_runs.up.sql": `CREATE TABLE IF NOT EXISTS report_runs (
			run_id      TEXT PRIMARY KEY,
			entity      TEXT NOT NULL,
			output_dir  TEXT,
			panel_count BIGINT,
			timestamp   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		"000002_report_runs.down.sql": `DROP TABLE IF EXISTS report_runs;`,
	}

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write migration %s: %v", name, err)
		}
	}
	return dir
}
