package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:     slog.LevelInfo,
		Format:    "json",
		Component: ComponentStore,
		Output:    &buf,
	})

	logger.Info("refresh complete", FieldOwnerID, "alice")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line[FieldComponent] != ComponentStore {
		t.Errorf("component = %v, want %q", line[FieldComponent], ComponentStore)
	}
	if line[FieldOwnerID] != "alice" {
		t.Errorf("owner_id = %v", line[FieldOwnerID])
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Debug("suppressed")
	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("below-level output = %q", buf.String())
	}

	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Fatal("warn line missing")
	}
}

func TestWithComponentRetags(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Component: ComponentApp, Output: &buf})

	child := logger.WithComponent(ComponentSession)
	if child.Component() != ComponentSession {
		t.Fatalf("component = %q", child.Component())
	}
	if logger.Component() != ComponentApp {
		t.Fatalf("parent component mutated to %q", logger.Component())
	}
}
