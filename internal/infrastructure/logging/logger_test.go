package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	return string(data)
}

func TestLogger_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelInfo)

	log.With("component", "mqtt").Info("connected", "broker", "localhost:1883")

	line := readLog(t, path)
	// 2026-01-02 15:04:05 [INFO] [mqtt] connected broker=localhost:1883
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[INFO\] \[mqtt\] connected broker=localhost:1883\n$`)
	if !re.MatchString(line) {
		t.Errorf("unexpected line format: %q", line)
	}
}

func TestLogger_TagBracketOmittedWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelInfo)

	log.Info("no tag here")

	line := readLog(t, path)
	if strings.Contains(line, "[]") || !strings.Contains(line, "[INFO] no tag here") {
		t.Errorf("unexpected line: %q", line)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelWarn)

	log.Debug("filtered")
	log.Info("filtered")
	log.Warn("kept")
	log.Error("kept")

	content := readLog(t, path)
	if strings.Contains(content, "filtered") {
		t.Errorf("lines below level leaked: %q", content)
	}
	if got := strings.Count(content, "kept"); got != 2 {
		t.Errorf("expected 2 kept lines, got %d: %q", got, content)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelInfo)

	log.Trace("before")
	log.SetLevel(LevelTrace)
	log.Trace("after")

	content := readLog(t, path)
	if strings.Contains(content, "before") {
		t.Error("trace line emitted before level change")
	}
	if !strings.Contains(content, "[TRACE] after") {
		t.Errorf("trace line missing after level change: %q", content)
	}
}

func TestLogger_SetLevelAffectsDerivedLoggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelInfo)
	tagged := log.With("component", "rules")

	log.SetLevel(LevelError)
	tagged.Info("filtered")
	tagged.Error("kept")

	content := readLog(t, path)
	if strings.Contains(content, "filtered") {
		t.Errorf("derived logger ignored level change: %q", content)
	}
	if !strings.Contains(content, "[ERROR] [rules] kept") {
		t.Errorf("derived logger line missing: %q", content)
	}
}

func TestLogger_FatalLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelFatal)

	log.Error("filtered")
	log.Fatal("set-version failed")

	content := readLog(t, path)
	if strings.Contains(content, "filtered") {
		t.Error("error line emitted at fatal level")
	}
	if !strings.Contains(content, "[FATAL] set-version failed") {
		t.Errorf("fatal line missing: %q", content)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"ERROR", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotgw.log")
	log := New(path, LevelInfo)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 25; j++ {
				log.Info("concurrent line")
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	content := readLog(t, path)
	if got := strings.Count(content, "concurrent line"); got != 200 {
		t.Errorf("expected 200 lines, got %d", got)
	}
}
