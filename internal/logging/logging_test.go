package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHonorsLevel(t *testing.T) {
	log := New("warn")
	ctx := context.Background()
	if log.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be suppressed at warn level")
	}
	if !log.Enabled(ctx, slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
