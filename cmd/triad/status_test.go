package main

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTruncateGoal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short goal unchanged", "fix the login bug", "fix the login bug"},
		{
			"long goal clipped",
			strings.Repeat("a", 100),
			strings.Repeat("a", 69) + "...",
		},
		{
			"multibyte goal clipped on rune boundaries",
			strings.Repeat("日本語テキスト", 20),
			strings.Repeat("日本語テキスト", 11) + "日本語" + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateGoal(tt.in)
			if got != tt.want {
				t.Errorf("truncateGoal(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateGoal(%q) produced invalid UTF-8: %q", tt.in, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h30m"},
		{48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
