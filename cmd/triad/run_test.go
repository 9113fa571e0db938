package main

import (
	"testing"

	"github.com/triadworks/triad/internal/config"
)

func TestResolveMaxIterations(t *testing.T) {
	tests := []struct {
		name string
		flag int
		cfg  *config.Config
		want int
	}{
		{"flag wins", 5, &config.Config{Defaults: config.DefaultsConfig{MaxIterations: 2}}, 5},
		{"config when no flag", 0, &config.Config{Defaults: config.DefaultsConfig{MaxIterations: 2}}, 2},
		{"built-in fallback", 0, &config.Config{}, 3},
		{"nil config", 0, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveMaxIterations(tt.flag, tt.cfg); got != tt.want {
				t.Errorf("resolveMaxIterations(%d) = %d, want %d", tt.flag, got, tt.want)
			}
		})
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "defaults.max_iterations", "7"); err != nil {
		t.Fatalf("set max_iterations: %v", err)
	}
	if cfg.Defaults.MaxIterations != 7 {
		t.Errorf("max_iterations = %d, want 7", cfg.Defaults.MaxIterations)
	}

	if err := setConfigValue(cfg, "defaults.max_iterations", "zero"); err == nil {
		t.Error("non-numeric max_iterations should fail")
	}
	if err := setConfigValue(cfg, "defaults.max_iterations", "0"); err == nil {
		t.Error("zero max_iterations should fail")
	}

	if err := setConfigValue(cfg, "bedrock.enabled", "true"); err != nil {
		t.Fatalf("set bedrock.enabled: %v", err)
	}
	if !cfg.Bedrock.Enabled {
		t.Error("bedrock.enabled should be true")
	}

	if err := setConfigValue(cfg, "anthropic.api_key", "not-a-key"); err == nil {
		t.Error("malformed API key should fail validation")
	}

	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestGetConfigValueMasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	value, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if value == cfg.Anthropic.APIKey {
		t.Error("API key should be masked for display")
	}
}
