package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical render defaults file.
// This is the single source of truth for all default render values.
const DefaultConfigPath = "config/render.defaults.json"

// RenderConfig represents the root configuration for the eyemap render
// pipeline. The schema matches the /api/eyemap/params endpoint so the same
// JSON can be used for both startup configuration and runtime updates.
type RenderConfig struct {
	// Hexagon geometry params
	HexSize    *float64 `json:"hex_size,omitempty"`
	HexSpacing *float64 `json:"hex_spacing,omitempty"` // multiplier applied to hex_size
	Precision  *int     `json:"precision,omitempty"`   // SVG coordinate decimal places

	// Color params
	SynapseRamp    *string `json:"synapse_ramp,omitempty"` // "reds" or "blues"
	CellRamp       *string `json:"cell_ramp,omitempty"`
	RegionalScales *bool   `json:"regional_scales,omitempty"`
	ColorBuckets   *int    `json:"color_buckets,omitempty"`

	// Query params
	Neo4jURI      *string `json:"neo4j_uri,omitempty"`
	Neo4jUser     *string `json:"neo4j_user,omitempty"`
	Neo4jPassword *string `json:"neo4j_password,omitempty"`
	Neo4jDatabase *string `json:"neo4j_database,omitempty"`
	Dataset       *string `json:"dataset,omitempty"`
	QueryTimeout  *string `json:"query_timeout,omitempty"` // duration string like "30s"

	// Cache params
	CachePath     *string `json:"cache_path,omitempty"` // sqlite file, empty disables
	CacheTTL      *string `json:"cache_ttl,omitempty"`  // duration string like "24h"
	PanelCacheLen *int    `json:"panel_cache_len,omitempty"`

	// Server params
	ListenAddr *string `json:"listen_addr,omitempty"`
	OutputDir  *string `json:"output_dir,omitempty"`

	// Batch params
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRenderConfig returns a RenderConfig with all fields set to nil.
// Use LoadRenderConfig to load actual values from the defaults file.
func EmptyRenderConfig() *RenderConfig {
	return &RenderConfig{}
}

// LoadRenderConfig loads a RenderConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadRenderConfig(path string) (*RenderConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyRenderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RenderConfig) Validate() error {
	if c.HexSize != nil && *c.HexSize <= 0 {
		return fmt.Errorf("hex_size must be positive, got %f", *c.HexSize)
	}

	if c.HexSpacing != nil {
		if *c.HexSpacing < 1 || *c.HexSpacing > 2 {
			return fmt.Errorf("hex_spacing must be between 1 and 2, got %f", *c.HexSpacing)
		}
	}

	if c.Precision != nil {
		if *c.Precision < 0 || *c.Precision > 10 {
			return fmt.Errorf("precision must be between 0 and 10, got %d", *c.Precision)
		}
	}

	if c.SynapseRamp != nil && !validRamp(*c.SynapseRamp) {
		return fmt.Errorf("unknown synapse_ramp %q", *c.SynapseRamp)
	}
	if c.CellRamp != nil && !validRamp(*c.CellRamp) {
		return fmt.Errorf("unknown cell_ramp %q", *c.CellRamp)
	}

	if c.ColorBuckets != nil && *c.ColorBuckets < 2 {
		return fmt.Errorf("color_buckets must be at least 2, got %d", *c.ColorBuckets)
	}

	// Validate QueryTimeout can be parsed if set
	if c.QueryTimeout != nil && *c.QueryTimeout != "" {
		if _, err := time.ParseDuration(*c.QueryTimeout); err != nil {
			return fmt.Errorf("invalid query_timeout '%s': %w", *c.QueryTimeout, err)
		}
	}

	// Validate CacheTTL can be parsed if set
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}

	if c.PanelCacheLen != nil && *c.PanelCacheLen < 0 {
		return fmt.Errorf("panel_cache_len must be non-negative, got %d", *c.PanelCacheLen)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	return nil
}

func validRamp(name string) bool {
	return name == "reds" || name == "blues"
}

// GetHexSize returns the hex_size value or the default.
func (c *RenderConfig) GetHexSize() float64 {
	if c.HexSize == nil {
		return 10.0 // default
	}
	return *c.HexSize
}

// GetHexSpacing returns the hex_spacing value or the default.
func (c *RenderConfig) GetHexSpacing() float64 {
	if c.HexSpacing == nil {
		return 1.05
	}
	return *c.HexSpacing
}

// GetPrecision returns the precision value or the default.
func (c *RenderConfig) GetPrecision() int {
	if c.Precision == nil {
		return 3
	}
	return *c.Precision
}

// GetSynapseRamp returns the synapse_ramp value or the default.
func (c *RenderConfig) GetSynapseRamp() string {
	if c.SynapseRamp == nil {
		return "reds"
	}
	return *c.SynapseRamp
}

// GetCellRamp returns the cell_ramp value or the default.
func (c *RenderConfig) GetCellRamp() string {
	if c.CellRamp == nil {
		return "blues"
	}
	return *c.CellRamp
}

// GetRegionalScales returns the regional_scales value or the default.
func (c *RenderConfig) GetRegionalScales() bool {
	if c.RegionalScales == nil {
		return true // default: normalize within each region
	}
	return *c.RegionalScales
}

// GetColorBuckets returns the color_buckets value or the default.
func (c *RenderConfig) GetColorBuckets() int {
	if c.ColorBuckets == nil {
		return 5
	}
	return *c.ColorBuckets
}

// GetNeo4jURI returns the neo4j_uri value or the default.
func (c *RenderConfig) GetNeo4jURI() string {
	if c.Neo4jURI == nil {
		return "neo4j://localhost:7687"
	}
	return *c.Neo4jURI
}

// GetNeo4jUser returns the neo4j_user value or the default.
func (c *RenderConfig) GetNeo4jUser() string {
	if c.Neo4jUser == nil {
		return "neo4j"
	}
	return *c.Neo4jUser
}

// GetNeo4jPassword returns the neo4j_password value or the default.
func (c *RenderConfig) GetNeo4jPassword() string {
	if c.Neo4jPassword == nil {
		return ""
	}
	return *c.Neo4jPassword
}

// GetNeo4jDatabase returns the neo4j_database value or the default.
func (c *RenderConfig) GetNeo4jDatabase() string {
	if c.Neo4jDatabase == nil {
		return "neo4j"
	}
	return *c.Neo4jDatabase
}

// GetDataset returns the dataset value or the default.
func (c *RenderConfig) GetDataset() string {
	if c.Dataset == nil {
		return "optic-lobe:v1.1"
	}
	return *c.Dataset
}

// GetQueryTimeout parses and returns the QueryTimeout as a time.Duration.
func (c *RenderConfig) GetQueryTimeout() time.Duration {
	if c.QueryTimeout == nil || *c.QueryTimeout == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.QueryTimeout)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetCachePath returns the cache_path value or the default.
func (c *RenderConfig) GetCachePath() string {
	if c.CachePath == nil {
		return "eyemap-cache.db"
	}
	return *c.CachePath
}

// GetCacheTTL parses and returns the CacheTTL as a time.Duration.
func (c *RenderConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 24 * time.Hour // default
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 24 * time.Hour // default on parse error
	}
	return d
}

// GetPanelCacheLen returns the panel_cache_len value or the default.
func (c *RenderConfig) GetPanelCacheLen() int {
	if c.PanelCacheLen == nil {
		return 256
	}
	return *c.PanelCacheLen
}

// GetListenAddr returns the listen_addr value or the default.
func (c *RenderConfig) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetOutputDir returns the output_dir value or the default.
func (c *RenderConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "reports"
	}
	return *c.OutputDir
}

// GetWorkers returns the workers value or the default.
func (c *RenderConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}
