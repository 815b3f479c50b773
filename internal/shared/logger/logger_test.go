package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"fleets-server/internal/shared/config"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LoggingConfig{Level: "warn", JSONFormat: true}, &buf)

	log.Info("dropped")
	log.Warn("kept", "player", "alice")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["player"] != "alice" {
		t.Errorf("entry = %v", entry)
	}
}

func TestParseLogLevelDefaultsToDebug(t *testing.T) {
	if got := parseLogLevel("verbose"); got.String() != "DEBUG" {
		t.Errorf("level = %v", got)
	}
}
