package config

import (
	"testing"
)

func TestMatchThreshold_Override(t *testing.T) {
	cfg := &Config{
		Attendance: AttendanceConfig{Threshold: 0.35},
		Engine:     EngineConfig{Model: "facenet128"},
		Thresholds: ThresholdsConfig{
			Models: map[string]ModelThreshold{
				"facenet128": {Threshold: 0.5},
			},
		},
	}

	if got := cfg.MatchThreshold(); got != 0.35 {
		t.Errorf("expected override threshold 0.35, got %v", got)
	}
}

func TestMatchThreshold_ModelDefault(t *testing.T) {
	cfg := &Config{
		Engine: EngineConfig{Model: "arcface_r100"},
		Thresholds: ThresholdsConfig{
			Models: map[string]ModelThreshold{
				"arcface_r100": {Threshold: 0.4},
			},
		},
	}

	if got := cfg.MatchThreshold(); got != 0.4 {
		t.Errorf("expected model threshold 0.4, got %v", got)
	}
}

func TestMatchThreshold_Fallback(t *testing.T) {
	cfg := &Config{
		Engine: EngineConfig{Model: "some-unknown-model"},
	}

	if got := cfg.MatchThreshold(); got != 0.5 {
		t.Errorf("expected fallback threshold 0.5, got %v", got)
	}
}

func TestStorageBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		url     string
		want    string
	}{
		{"explicit backend wins", "sqlite", "postgres://x", "sqlite"},
		{"postgres when url set", "", "postgres://x", "postgres"},
		{"sqlite when nothing set", "", "", "sqlite"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{Backend: tc.backend, URL: tc.url}}
			if got := cfg.StorageBackend(); got != tc.want {
				t.Errorf("StorageBackend() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoad_EmbeddedThresholds(t *testing.T) {
	cfg := Load()

	if len(cfg.Thresholds.Models) == 0 {
		t.Fatal("expected embedded thresholds to be loaded")
	}

	m, ok := cfg.Thresholds.Models["facenet128"]
	if !ok {
		t.Fatal("expected facenet128 threshold to be present")
	}
	if m.Threshold != 0.5 {
		t.Errorf("expected facenet128 threshold 0.5, got %v", m.Threshold)
	}
}

func TestLoad_EngineDefaults(t *testing.T) {
	t.Setenv("FACE_ENGINE", "")
	t.Setenv("FACE_ENGINE_MODEL", "")

	cfg := Load()

	if cfg.Engine.Provider != "faceserv" {
		t.Errorf("expected default provider 'faceserv', got %q", cfg.Engine.Provider)
	}
	if cfg.Engine.Model != "facenet128" {
		t.Errorf("expected default model 'facenet128', got %q", cfg.Engine.Model)
	}
	if cfg.Engine.MaxSide != 1280 {
		t.Errorf("expected default max side 1280, got %d", cfg.Engine.MaxSide)
	}
}
