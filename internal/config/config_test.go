package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.MaxIterations != 3 {
		t.Errorf("expected default max_iterations 3, got %d", cfg.Defaults.MaxIterations)
	}

	if cfg.Bedrock.Enabled {
		t.Error("expected bedrock to be disabled by default")
	}

	if cfg.Anthropic.APIKey != "" {
		t.Errorf("expected empty default API key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: sk-ant-test-key
bedrock:
  enabled: true
  region: us-west-2
  profile: dev
defaults:
  max_iterations: 5
  model: claude-sonnet-4-20250514
  prompts_file: prompts.yaml
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-test-key" {
		t.Errorf("api_key = %q", cfg.Anthropic.APIKey)
	}
	if !cfg.Bedrock.Enabled {
		t.Error("bedrock.enabled should be true")
	}
	if cfg.Bedrock.Region != "us-west-2" {
		t.Errorf("bedrock.region = %q", cfg.Bedrock.Region)
	}
	if cfg.Bedrock.Profile != "dev" {
		t.Errorf("bedrock.profile = %q", cfg.Bedrock.Profile)
	}
	if cfg.Defaults.MaxIterations != 5 {
		t.Errorf("max_iterations = %d, want 5", cfg.Defaults.MaxIterations)
	}
	if cfg.Defaults.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", cfg.Defaults.Model)
	}
	if cfg.Defaults.PromptsFile != "prompts.yaml" {
		t.Errorf("prompts_file = %q", cfg.Defaults.PromptsFile)
	}
}

func TestLoadFromPathPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: sk-ant-only-key\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-only-key" {
		t.Errorf("api_key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Defaults.MaxIterations != 3 {
		t.Errorf("max_iterations = %d, want default 3", cfg.Defaults.MaxIterations)
	}
}

func TestLoadFromPathExpandsEnvReferences(t *testing.T) {
	t.Setenv("TRIAD_TEST_KEY", "sk-ant-from-env")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: ${TRIAD_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-saved-key"
	cfg.Defaults.MaxIterations = 7

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if loaded.Anthropic.APIKey != "sk-ant-saved-key" {
		t.Errorf("api_key = %q", loaded.Anthropic.APIKey)
	}
	if loaded.Defaults.MaxIterations != 7 {
		t.Errorf("max_iterations = %d, want 7", loaded.Defaults.MaxIterations)
	}
}
