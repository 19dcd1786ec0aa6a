package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/savewarden/savewarden/agent/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("retention: backed up", "file", "a.baronysave")
	out := buf.String()
	if !strings.Contains(out, "msg=\"retention: backed up\"") || !strings.Contains(out, "file=a.baronysave") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Warn("monitor: snapshot failed", "err", "boom")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["level"] != "WARN" || rec["err"] != "boom" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}

func TestSetLevel_AppliesAtRuntime(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "info"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Debug("before")
	l.SetLevel(config.LogConfig{Level: "debug"})
	l.Debug("after")

	out := buf.String()
	if strings.Contains(out, "msg=before") {
		t.Error("debug record logged before level change")
	}
	if !strings.Contains(out, "msg=after") {
		t.Errorf("debug record missing after level change: %q", out)
	}
	if !strings.Contains(out, "level changed") {
		t.Errorf("level change not logged: %q", out)
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "savewarden.log")
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("monitor: watching", "dir", "/saves")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "monitor: watching") {
		t.Errorf("log file missing record: %q", data)
	}
	if !strings.Contains(buf.String(), "monitor: watching") {
		t.Errorf("stderr writer missing record: %q", buf.String())
	}
}
