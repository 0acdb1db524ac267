package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoadYAML_Flattening(t *testing.T) {
	content := `
a:
  b:
    - x
    - y
network:
  http_api:
    host: 0.0.0.0
    port: 8080
nested:
  - - first
    - second
precision: 1.50
`
	m := NewMap()
	if err := m.LoadYAML(writeFile(t, "config.yaml", content)); err != nil {
		t.Fatalf("LoadYAML() error = %v", err)
	}

	want := map[string]string{
		"a.b[0]":                "x",
		"a.b[1]":                "y",
		"network.http_api.host": "0.0.0.0",
		"network.http_api.port": "8080",
		"nested[0][0]":          "first",
		"nested[0][1]":          "second",
		"precision":             "1.50",
	}
	for k, v := range want {
		got, ok := m.GetString(k)
		if !ok {
			t.Errorf("key %q missing", k)
			continue
		}
		if got != v {
			t.Errorf("key %q = %q, want %q", k, got, v)
		}
	}
	if m.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(want))
	}
}

func TestLoadYAML_OnlyScalarsProduceEntries(t *testing.T) {
	m := NewMap()
	if err := m.LoadYAML(writeFile(t, "config.yaml", "a:\n  b: [x, y]\n")); err != nil {
		t.Fatalf("LoadYAML() error = %v", err)
	}
	for _, k := range []string{"a", "a.b"} {
		if m.Has(k) {
			t.Errorf("non-scalar key %q should not be present", k)
		}
	}
}

func TestLoadYAML_Malformed(t *testing.T) {
	m := NewMap()
	if err := m.LoadYAML(writeFile(t, "config.yaml", "invalid: [yaml: content")); err == nil {
		t.Error("LoadYAML() expected error for malformed YAML, got nil")
	}
}

func TestLoadYAML_MissingFile(t *testing.T) {
	m := NewMap()
	if err := m.LoadYAML("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadYAML() expected error for missing file, got nil")
	}
}

func TestLoadKeyValues(t *testing.T) {
	content := `
# full line comment
version = 1.2.3
package_path=staging/update.pkg   # trailing comment
sha256 =
no_equals_line
 = empty_key_skipped
staged_at_unix_ms=1700000000000
`
	m := NewMap()
	if err := m.LoadKeyValues(writeFile(t, "staged.kv", content)); err != nil {
		t.Fatalf("LoadKeyValues() error = %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"version", "1.2.3"},
		{"package_path", "staging/update.pkg"},
		{"sha256", ""},
		{"staged_at_unix_ms", "1700000000000"},
	}
	for _, tt := range tests {
		got, ok := m.GetString(tt.key)
		if !ok || got != tt.want {
			t.Errorf("GetString(%q) = %q, %v; want %q, true", tt.key, got, ok, tt.want)
		}
	}
	if m.Has("no_equals_line") {
		t.Error("line without '=' should be skipped")
	}
	if m.Len() != len(tests) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(tests))
	}
}

func TestMerge_LastWriteWins(t *testing.T) {
	m := NewMap()
	if err := m.LoadKeyValues(writeFile(t, "a.kv", "key=first")); err != nil {
		t.Fatalf("LoadKeyValues() error = %v", err)
	}
	if err := m.LoadKeyValues(writeFile(t, "b.kv", "key=second")); err != nil {
		t.Fatalf("LoadKeyValues() error = %v", err)
	}
	if got, _ := m.GetString("key"); got != "second" {
		t.Errorf("merged key = %q, want %q", got, "second")
	}
}

func TestGetInt64(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   int64
		wantOK bool
	}{
		{"positive", "42", 42, true},
		{"negative", "-17", -17, true},
		{"zero", "0", 0, true},
		{"plus sign rejected", "+5", 0, false},
		{"hex rejected", "0x10", 0, false},
		{"float rejected", "1.5", 0, false},
		{"empty", "", 0, false},
		{"bare minus", "-", 0, false},
		{"trailing junk", "12a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap()
			m.Set("k", tt.value)
			got, ok := m.GetInt64("k")
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("GetInt64(%q) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	m := NewMap()
	if _, ok := m.GetInt64("absent"); ok {
		t.Error("GetInt64 on absent key should report absent")
	}
}

func TestGetBool(t *testing.T) {
	trues := []string{"1", "true", "TRUE", "Yes", "on", "ON"}
	falses := []string{"0", "false", "No", "off", "OFF", "FALSE"}
	for _, v := range trues {
		m := NewMap()
		m.Set("k", v)
		got, ok := m.GetBool("k")
		if !ok || !got {
			t.Errorf("GetBool(%q) = %v, %v; want true, true", v, got, ok)
		}
	}
	for _, v := range falses {
		m := NewMap()
		m.Set("k", v)
		got, ok := m.GetBool("k")
		if !ok || got {
			t.Errorf("GetBool(%q) = %v, %v; want false, true", v, got, ok)
		}
	}

	m := NewMap()
	m.Set("k", "maybe")
	if _, ok := m.GetBool("k"); ok {
		t.Error("GetBool on unrecognised value should report absent")
	}
}

func TestMissing(t *testing.T) {
	m := NewMap()
	m.Set("present", "v")
	msgs := m.Missing("present", "mqtt.broker_host", "mqtt.broker_port")
	if len(msgs) != 2 {
		t.Fatalf("Missing() returned %d messages, want 2", len(msgs))
	}
	if msgs[0] != "missing config key: mqtt.broker_host" {
		t.Errorf("unexpected message: %q", msgs[0])
	}
}
