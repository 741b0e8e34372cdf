package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
)

func parseFlags(t *testing.T, args ...string) (*configFlags, *pflag.FlagSet) {
	t.Helper()
	f := &configFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f, fs
}

func TestResolve_DefaultsAndShortFlags(t *testing.T) {
	f, fs := parseFlags(t, "-l", "192.168.1.132", "-f", "10.0.0.5:8080", "-u", "/api", "-t", "2.5", "-i", "0", "-d", "/tmp/spool")
	cfg, err := f.resolve(fs)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if cfg.Listen != "192.168.1.132" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "192.168.1.132")
	}
	if cfg.URLPrefix != "/api" {
		t.Errorf("URLPrefix = %q, want %q", cfg.URLPrefix, "/api")
	}
	if cfg.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.Timeout)
	}
	if cfg.Interval != 0 {
		t.Errorf("Interval = %v, want 0", cfg.Interval)
	}
	if cfg.DataDir != "/tmp/spool" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/spool")
	}
	if cfg.Replay.ReadTimeout != config.Default().Replay.ReadTimeout {
		t.Errorf("Replay.ReadTimeout = %v, want default %v", cfg.Replay.ReadTimeout, config.Default().Replay.ReadTimeout)
	}
}

func TestResolve_FlagsOverrideFileOnlyWhenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpcopy.json")
	data := `{"listen": "10.1.2.3:8000", "forward": "shadow:9000", "timeout": "30s", "interval": "5s", "replay": {"max_concurrent": 4}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	f, fs := parseFlags(t, "--config", path, "-i", "2", "--max-replays", "8")
	cfg, err := f.resolve(fs)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s from file", cfg.Timeout)
	}
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s from flag", cfg.Interval)
	}
	if cfg.Forward != "shadow:9000" {
		t.Errorf("Forward = %q, want %q", cfg.Forward, "shadow:9000")
	}
	if cfg.Replay.MaxConcurrent != 8 {
		t.Errorf("Replay.MaxConcurrent = %d, want 8", cfg.Replay.MaxConcurrent)
	}
}

func TestResolve_ZeroTimeoutSettlesImmediately(t *testing.T) {
	f, fs := parseFlags(t, "-l", "10.0.0.1", "-f", "10.0.0.5", "-t", "0")
	cfg, err := f.resolve(fs)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing listen", []string{"-f", "10.0.0.5"}},
		{"missing forward", []string{"-l", "10.0.0.1"}},
		{"hostname listen", []string{"-l", "example.com", "-f", "10.0.0.5"}},
		{"negative interval", []string{"-l", "10.0.0.1", "-f", "10.0.0.5", "-i", "-1"}},
		{"negative timeout", []string{"-l", "10.0.0.1", "-f", "10.0.0.5", "--timeout=-1"}},
		{"bad backend", []string{"-l", "10.0.0.1", "-f", "10.0.0.5", "--stats-backend", "etcd"}},
		{"missing config file", []string{"--config", "/nonexistent/httpcopy.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, fs := parseFlags(t, tt.args...)
			if _, err := f.resolve(fs); err == nil {
				t.Errorf("resolve(%v) error = nil, want error", tt.args)
			}
		})
	}
}
