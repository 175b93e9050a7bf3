package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: bench-1
    ssh:
      host: 192.168.1.50
      username: fio
      password: secret
      command: sudo ./presence_radar
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Window.Length.Duration != 120*time.Second {
		t.Fatalf("expected window length default 120s, got %s", cfg.Window.Length)
	}
	if cfg.Liveness.Timeout.Duration != 10*time.Second {
		t.Fatalf("expected liveness timeout default 10s, got %s", cfg.Liveness.Timeout)
	}
	if cfg.Tick.Interval.Duration != 100*time.Millisecond {
		t.Fatalf("expected tick interval default 100ms, got %s", cfg.Tick.Interval)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default http addr :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Archive.Table != "radar_samples" {
		t.Fatalf("expected default archive table radar_samples, got %s", cfg.Archive.Table)
	}
	if cfg.Sidecar.FallbackAfter.Duration != 30*time.Second {
		t.Fatalf("expected sidecar fallback_after default 30s, got %s", cfg.Sidecar.FallbackAfter)
	}

	src := cfg.Sources[0]
	if src.Transport != "ssh" {
		t.Fatalf("expected default transport ssh, got %s", src.Transport)
	}
	if src.Tag != "bench-1" {
		t.Fatalf("expected tag fallback to source id, got %s", src.Tag)
	}
	if src.SSH.Port != 22 {
		t.Fatalf("expected ssh port default 22, got %d", src.SSH.Port)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: lab
    transport: exec
    exec:
      command: cat
      args: ["radar.log"]
window:
  length: 5m
liveness:
  timeout: 30s
viewport:
  min_duration: 15s
  max_duration: 2h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Window.Length.Duration != 5*time.Minute {
		t.Fatalf("expected window length 5m, got %s", cfg.Window.Length)
	}
	if cfg.Liveness.Timeout.Duration != 30*time.Second {
		t.Fatalf("expected liveness timeout 30s, got %s", cfg.Liveness.Timeout)
	}
	if cfg.Viewport.MaxDuration.Duration != 2*time.Hour {
		t.Fatalf("expected viewport max 2h, got %s", cfg.Viewport.MaxDuration)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "no sources",
			data: "window:\n  length: 60s\n",
			want: "at least one source",
		},
		{
			name: "duplicate ids",
			data: `
sources:
  - id: a
    transport: exec
    exec: {command: cat}
  - id: a
    transport: exec
    exec: {command: cat}
`,
			want: "duplicate source id",
		},
		{
			name: "unknown transport",
			data: `
sources:
  - id: a
    transport: carrier-pigeon
`,
			want: "unknown transport",
		},
		{
			name: "ssh missing host",
			data: `
sources:
  - id: a
    ssh:
      username: fio
      command: ./radar
`,
			want: "ssh config",
		},
		{
			name: "bad duration",
			data: `
sources:
  - id: a
    transport: exec
    exec: {command: cat}
window:
  length: soon
`,
			want: "invalid duration",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.data)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
