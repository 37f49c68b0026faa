package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for level, want := range testCases {
		if got := ParseLevel(level); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := NewLogger(Options{Level: "warn", Stderr: &buf})
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "id", "obj1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "id=obj1") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	logger, closer := NewLogger(Options{Dir: dir, Level: "debug"})

	logger.Debug("written", "coverage", "cov1")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "eoxs.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if record["msg"] != "written" || record["coverage"] != "cov1" || record["prog"] != "eoxs" {
		t.Errorf("unexpected record %v", record)
	}
	source, _ := record["source"].(map[string]interface{})
	if file, _ := source["file"].(string); file != "logging_test.go" {
		t.Errorf("source path not trimmed: %v", record["source"])
	}
}
