package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestInMemory(t *testing.T) {
	cfg := &C{DataDir: "memory"}
	if !cfg.InMemory() {
		t.Error("InMemory() should be true when DataDir is \"memory\"")
	}
	cfg.DataDir = "/var/lib/aether"
	if cfg.InMemory() {
		t.Error("InMemory() should be false for an on-disk path")
	}
}

func TestEnvKVRendersTaggedFields(t *testing.T) {
	cfg := C{
		AppName: "aether", Port: 3334, EnableNative: true,
		Owners: []string{"abc", "def"}, MaxSkewSeconds: 60,
	}
	kvs := EnvKV(cfg)
	got := map[string]string{}
	for _, kv := range kvs {
		got[kv.Key] = kv.Value
	}
	if got["AETHER_APP_NAME"] != "aether" {
		t.Errorf("AETHER_APP_NAME = %q, want %q", got["AETHER_APP_NAME"], "aether")
	}
	if got["AETHER_PORT"] != "3334" {
		t.Errorf("AETHER_PORT = %q, want %q", got["AETHER_PORT"], "3334")
	}
	if got["AETHER_ENABLE_NATIVE"] != "true" {
		t.Errorf("AETHER_ENABLE_NATIVE = %q, want %q", got["AETHER_ENABLE_NATIVE"], "true")
	}
	if got["AETHER_OWNERS"] != "abc,def" {
		t.Errorf("AETHER_OWNERS = %q, want %q", got["AETHER_OWNERS"], "abc,def")
	}
}

func TestPrintEnvIsSortedByKey(t *testing.T) {
	cfg := &C{AppName: "aether", Port: 3334, TTL: time.Minute}
	var buf bytes.Buffer
	PrintEnv(cfg, &buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i-1] > lines[i] {
			t.Fatalf("PrintEnv() output is not sorted: %q appears before %q", lines[i-1], lines[i])
		}
	}
}

func TestLoadDotEnvParsesKeyValueLines(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	contents := "# comment\nAETHER_PORT=4000\n\nAETHER_APP_NAME = myrelay\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture .env: %v", err)
	}
	m, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv() errored: %v", err)
	}
	if m["AETHER_PORT"] != "4000" {
		t.Errorf("AETHER_PORT = %q, want %q", m["AETHER_PORT"], "4000")
	}
	if m["AETHER_APP_NAME"] != "myrelay" {
		t.Errorf("AETHER_APP_NAME = %q, want %q", m["AETHER_APP_NAME"], "myrelay")
	}
	if _, ok := m["# comment"]; ok {
		t.Error("loadDotEnv() should skip comment lines")
	}
}
