package config

import (
	"errors"
	"os"
	"testing"
)

func TestResolveAPIKey(t *testing.T) {
	t.Run("environment wins over config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")

		cfg := &Config{
			Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"},
		}
		key, source, err := cfg.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey: %v", err)
		}
		if key != "sk-ant-env-key" {
			t.Errorf("key = %q, want the env key", key)
		}
		if source != KeySourceEnv {
			t.Errorf("source = %q, want %q", source, KeySourceEnv)
		}
	})

	t.Run("falls back to config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		os.Unsetenv("ANTHROPIC_API_KEY")

		cfg := &Config{
			Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"},
		}
		key, source, err := cfg.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey: %v", err)
		}
		if key != "sk-ant-config-key" {
			t.Errorf("key = %q, want the config key", key)
		}
		if source != KeySourceConfig {
			t.Errorf("source = %q, want %q", source, KeySourceConfig)
		}
	})

	t.Run("expands env reference in config value", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		os.Unsetenv("ANTHROPIC_API_KEY")
		t.Setenv("TRIAD_TEST_KEY", "sk-ant-referenced-key")

		cfg := &Config{
			Anthropic: AnthropicConfig{APIKey: "${TRIAD_TEST_KEY}"},
		}
		key, _, err := cfg.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey: %v", err)
		}
		if key != "sk-ant-referenced-key" {
			t.Errorf("key = %q, want the referenced key", key)
		}
	})

	t.Run("unresolved reference is not a key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		os.Unsetenv("ANTHROPIC_API_KEY")

		cfg := &Config{
			Anthropic: AnthropicConfig{APIKey: "${TRIAD_UNSET_VARIABLE}"},
		}
		if _, _, err := cfg.ResolveAPIKey(); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("error = %v, want ErrNoAPIKey", err)
		}
	})

	t.Run("no key anywhere", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		os.Unsetenv("ANTHROPIC_API_KEY")

		_, source, err := (&Config{}).ResolveAPIKey()
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("error = %v, want ErrNoAPIKey", err)
		}
		if source != KeySourceNone {
			t.Errorf("source = %q, want %q", source, KeySourceNone)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "sk-ant-REDACTED", false},
		{"empty key", "", true},
		{"wrong prefix", "sk-openai-12345678901234567890", true},
		{"too short", "sk-ant-abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"valid key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "short", "***"},
		{"barely too short to mask", "sk-ant-12345678", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.expected {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}
