package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Recommend.Alpha != 0.6 {
		t.Errorf("expected alpha 0.6, got %v", cfg.Recommend.Alpha)
	}
	if cfg.Planner.WeaknessThreshold != 60 || cfg.Planner.StrengthThreshold != 85 {
		t.Errorf("expected thresholds 60/85, got %v/%v", cfg.Planner.WeaknessThreshold, cfg.Planner.StrengthThreshold)
	}
	if cfg.Planner.SimpleStrongThreshold != 80 {
		t.Errorf("expected simple strong threshold 80, got %v", cfg.Planner.SimpleStrongThreshold)
	}
	if cfg.Explanation.Timeout != 20*time.Second {
		t.Errorf("expected 20s explanation timeout, got %v", cfg.Explanation.Timeout)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
recommend:
  alpha: 0.3
explanation:
  enabled: true
  provider: anthropic
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Recommend.Alpha != 0.3 {
		t.Errorf("expected alpha 0.3, got %v", cfg.Recommend.Alpha)
	}
	if cfg.Explanation.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic', got %q", cfg.Explanation.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Recommend.TopK != 10 {
		t.Errorf("expected default top_k 10, got %d", cfg.Recommend.TopK)
	}
	if cfg.Models.CFCandidates != 500 {
		t.Errorf("expected default cf_candidates 500, got %d", cfg.Models.CFCandidates)
	}
}

func TestParseRejectsInvalidAlpha(t *testing.T) {
	if _, err := parse([]byte("recommend:\n  alpha: 1.5\n")); err == nil {
		t.Error("expected error for alpha outside [0,1]")
	}
}

func TestParseRejectsInvertedThresholds(t *testing.T) {
	data := []byte("planner:\n  weakness_threshold: 90\n  strength_threshold: 85\n")
	if _, err := parse(data); err == nil {
		t.Error("expected error when weakness threshold exceeds strength threshold")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Models.ContentIndex != "content_index.json" {
		t.Errorf("expected content index file from default config, got %q", cfg.Models.ContentIndex)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestArtifactPaths(t *testing.T) {
	cfg := Default()
	cfg.Models.ModelDir = "/srv/models"
	if got := cfg.ContentIndexPath(); got != filepath.Join("/srv/models", "content_index.json") {
		t.Errorf("unexpected content index path %q", got)
	}

	cfg.Models.AffinityModel = "/abs/affinity.json"
	if got := cfg.AffinityModelPath(); got != "/abs/affinity.json" {
		t.Errorf("expected absolute artifact path to be kept, got %q", got)
	}
}
