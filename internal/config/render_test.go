package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmptyRenderConfigDefaults(t *testing.T) {
	cfg := EmptyRenderConfig()

	// All getters must supply defaults when nothing is set.
	if cfg.GetHexSize() != 10.0 {
		t.Errorf("GetHexSize() = %f, want 10.0", cfg.GetHexSize())
	}
	if cfg.GetHexSpacing() != 1.05 {
		t.Errorf("GetHexSpacing() = %f, want 1.05", cfg.GetHexSpacing())
	}
	if cfg.GetPrecision() != 3 {
		t.Errorf("GetPrecision() = %d, want 3", cfg.GetPrecision())
	}
	if cfg.GetSynapseRamp() != "reds" {
		t.Errorf("GetSynapseRamp() = %q, want \"reds\"", cfg.GetSynapseRamp())
	}
	if cfg.GetCellRamp() != "blues" {
		t.Errorf("GetCellRamp() = %q, want \"blues\"", cfg.GetCellRamp())
	}
	if cfg.GetRegionalScales() != true {
		t.Errorf("GetRegionalScales() = %v, want true", cfg.GetRegionalScales())
	}
	if cfg.GetColorBuckets() != 5 {
		t.Errorf("GetColorBuckets() = %d, want 5", cfg.GetColorBuckets())
	}
	if cfg.GetQueryTimeout() != 30*time.Second {
		t.Errorf("GetQueryTimeout() = %v, want 30s", cfg.GetQueryTimeout())
	}
	if cfg.GetCacheTTL() != 24*time.Hour {
		t.Errorf("GetCacheTTL() = %v, want 24h", cfg.GetCacheTTL())
	}
	if cfg.GetPanelCacheLen() != 256 {
		t.Errorf("GetPanelCacheLen() = %d, want 256", cfg.GetPanelCacheLen())
	}
	if cfg.GetListenAddr() != ":8080" {
		t.Errorf("GetListenAddr() = %q, want \":8080\"", cfg.GetListenAddr())
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("GetWorkers() = %d, want 4", cfg.GetWorkers())
	}
}

func TestLoadRenderConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "hex_size": 14,
  "hex_spacing": 1.1,
  "precision": 2,
  "synapse_ramp": "blues",
  "regional_scales": false,
  "query_timeout": "10s",
  "listen_addr": ":9090",
  "workers": 8
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadRenderConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.HexSize == nil || *cfg.HexSize != 14 {
		t.Errorf("Expected HexSize 14, got %v", cfg.HexSize)
	}
	if cfg.GetHexSpacing() != 1.1 {
		t.Errorf("GetHexSpacing() = %f, want 1.1", cfg.GetHexSpacing())
	}
	if cfg.GetPrecision() != 2 {
		t.Errorf("GetPrecision() = %d, want 2", cfg.GetPrecision())
	}
	if cfg.GetSynapseRamp() != "blues" {
		t.Errorf("GetSynapseRamp() = %q, want \"blues\"", cfg.GetSynapseRamp())
	}
	if cfg.GetRegionalScales() != false {
		t.Errorf("GetRegionalScales() = %v, want false", cfg.GetRegionalScales())
	}
	if cfg.GetQueryTimeout() != 10*time.Second {
		t.Errorf("GetQueryTimeout() = %v, want 10s", cfg.GetQueryTimeout())
	}
	if cfg.GetListenAddr() != ":9090" {
		t.Errorf("GetListenAddr() = %q, want \":9090\"", cfg.GetListenAddr())
	}
	if cfg.GetWorkers() != 8 {
		t.Errorf("GetWorkers() = %d, want 8", cfg.GetWorkers())
	}

	// Omitted fields still fall back to defaults.
	if cfg.GetCellRamp() != "blues" {
		t.Errorf("GetCellRamp() = %q, want default \"blues\"", cfg.GetCellRamp())
	}
	if cfg.GetCacheTTL() != 24*time.Hour {
		t.Errorf("GetCacheTTL() = %v, want default 24h", cfg.GetCacheTTL())
	}
}

func TestLoadRenderConfigMissing(t *testing.T) {
	_, err := LoadRenderConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadRenderConfigWrongExtension(t *testing.T) {
	_, err := LoadRenderConfig("config.yaml")
	if err == nil {
		t.Error("Expected error for non-json extension, got nil")
	}
}

func TestLoadRenderConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "hex_size": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadRenderConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *RenderConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     &RenderConfig{},
			wantErr: false,
		},
		{
			name: "valid full config",
			cfg: &RenderConfig{
				HexSize:      ptrFloat64(12),
				HexSpacing:   ptrFloat64(1.2),
				Precision:    ptrInt(4),
				SynapseRamp:  ptrString("reds"),
				ColorBuckets: ptrInt(5),
				QueryTimeout: ptrString("15s"),
				Workers:      ptrInt(2),
			},
			wantErr: false,
		},
		{
			name: "non-positive hex size",
			cfg: &RenderConfig{
				HexSize: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "spacing below 1",
			cfg: &RenderConfig{
				HexSpacing: ptrFloat64(0.9),
			},
			wantErr: true,
		},
		{
			name: "spacing above 2",
			cfg: &RenderConfig{
				HexSpacing: ptrFloat64(2.5),
			},
			wantErr: true,
		},
		{
			name: "negative precision",
			cfg: &RenderConfig{
				Precision: ptrInt(-1),
			},
			wantErr: true,
		},
		{
			name: "unknown ramp",
			cfg: &RenderConfig{
				SynapseRamp: ptrString("greens"),
			},
			wantErr: true,
		},
		{
			name: "too few color buckets",
			cfg: &RenderConfig{
				ColorBuckets: ptrInt(1),
			},
			wantErr: true,
		},
		{
			name: "invalid query timeout",
			cfg: &RenderConfig{
				QueryTimeout: ptrString("invalid"),
			},
			wantErr: true,
		},
		{
			name: "invalid cache ttl",
			cfg: &RenderConfig{
				CacheTTL: ptrString("soon"),
			},
			wantErr: true,
		},
		{
			name: "negative panel cache",
			cfg: &RenderConfig{
				PanelCacheLen: ptrInt(-1),
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			cfg: &RenderConfig{
				Workers: ptrInt(0),
			},
			wantErr: true,
		},
		{
			name: "regional scales flag alone",
			cfg: &RenderConfig{
				RegionalScales: ptrBool(false),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
