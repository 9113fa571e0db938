package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey means neither the environment nor any config file yielded a
// usable Anthropic API key.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// KeySource names where a resolved API key came from, for display in
// `triad config`.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config file"
	KeySourceNone   KeySource = "none"
)

// ResolveAPIKey returns the Anthropic API key this configuration yields
// and where it came from. The ANTHROPIC_API_KEY environment variable wins
// over the config file; a configured value may itself reference an
// environment variable with ${VAR} syntax.
func (c *Config) ResolveAPIKey() (string, KeySource, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, KeySourceEnv, nil
	}
	if c != nil {
		if key := expandKeyRef(c.Anthropic.APIKey); key != "" {
			return key, KeySourceConfig, nil
		}
	}
	return "", KeySourceNone, ErrNoAPIKey
}

// expandKeyRef expands environment references in a configured key value.
// A reference to an unset variable resolves to empty rather than leaking
// the literal placeholder into API calls.
func expandKeyRef(raw string) string {
	if raw == "" {
		return ""
	}
	key := os.ExpandEnv(raw)
	if strings.Contains(key, "${") {
		return ""
	}
	return key
}

// ValidateAPIKey checks that a key is shaped like an Anthropic key. It
// does not call the API; a well-formed key can still be revoked or wrong.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, "sk-ant-"):
		return fmt.Errorf("API key must start with %q", "sk-ant-")
	case len(key) < 20:
		return errors.New("API key is too short to be valid")
	}
	return nil
}

// MaskAPIKey redacts a key for terminal display, keeping just enough of
// the prefix and suffix to tell keys apart.
func MaskAPIKey(key string) string {
	const prefixLen, suffixLen = 7, 4
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= prefixLen+suffixLen+4:
		return "***"
	default:
		return key[:prefixLen] + "..." + key[len(key)-suffixLen:]
	}
}
