package server

import (
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("arenad", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Mode != ModeStdio || cfg.Addr != ":8080" || cfg.AdminAddr != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Spawn() != DefaultSpawn {
		t.Fatalf("spawn = %+v, want %+v", cfg.Spawn(), DefaultSpawn)
	}
	if cfg.InboxSize != 256 || cfg.SendQueue != 64 || cfg.Verbosity != 0 {
		t.Fatalf("unexpected queue/verbosity defaults %+v", cfg)
	}
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("ARENAD_MODE", "ws")
	t.Setenv("ARENAD_ADDR", ":9000")
	t.Setenv("ARENAD_SPAWN_X", "10")

	fs := flag.NewFlagSet("arenad", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-v", "-v", "-json"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Mode != ModeWS {
		t.Fatalf("mode = %q, want ws from env", cfg.Mode)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("addr = %q, want flag override", cfg.Addr)
	}
	if cfg.SpawnX != 10 || cfg.SpawnY != 150 {
		t.Fatalf("spawn = (%v,%v), want (10,150)", cfg.SpawnX, cfg.SpawnY)
	}
	if cfg.Verbosity != 2 || !cfg.JSONLog {
		t.Fatalf("verbosity/json = %d/%v, want 2/true", cfg.Verbosity, cfg.JSONLog)
	}
	if lo := cfg.LogOptions(); lo.Verbosity != 2 || !lo.JSON {
		t.Fatalf("unexpected log options %+v", lo)
	}
}

func TestParseConfigEnvError(t *testing.T) {
	t.Setenv("ARENAD_INBOX_SIZE", "lots")
	fs := flag.NewFlagSet("arenad", flag.ContinueOnError)
	_, err := ParseConfig(fs, nil)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestParseConfigValidation(t *testing.T) {
	for _, args := range [][]string{
		{"-mode", "tcp"},
		{"-inbox", "0"},
		{"-send-queue", "-1"},
	} {
		fs := flag.NewFlagSet("arenad", flag.ContinueOnError)
		if _, err := ParseConfig(fs, args); err == nil {
			t.Fatalf("args %v: expected validation error", args)
		}
	}
}
