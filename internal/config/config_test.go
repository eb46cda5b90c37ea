package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpec(t *testing.T) {
	cfg := Default()
	if cfg.HeartbeatIntervalMS != 500 {
		t.Errorf("HeartbeatIntervalMS = %d, want 500", cfg.HeartbeatIntervalMS)
	}
	if cfg.LivenessTTLMS != 2500 {
		t.Errorf("LivenessTTLMS = %d, want 2500", cfg.LivenessTTLMS)
	}
	if cfg.MaxRelayHops != 3 {
		t.Errorf("MaxRelayHops = %d, want 3", cfg.MaxRelayHops)
	}
	if cfg.ChatWindowMS != 10_000 || cfg.ChatMax != 5 {
		t.Errorf("chat rate defaults = %d/%d, want 10000/5", cfg.ChatWindowMS, cfg.ChatMax)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7946 {
		t.Errorf("Port = %d, want default 7946", cfg.Port)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("max_peers: 64\nport: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPeers != 64 {
		t.Errorf("MaxPeers = %d, want 64", cfg.MaxPeers)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	// Untouched fields keep their defaults.
	if cfg.HeartbeatIntervalMS != 500 {
		t.Errorf("HeartbeatIntervalMS = %d, want default 500", cfg.HeartbeatIntervalMS)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SWARMTALK_PORT", "1234")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 1234 {
		t.Errorf("Port = %d, want env override 1234", cfg.Port)
	}
}

func TestValidateRejectsImpossibleCombinations(t *testing.T) {
	cfg := Default()
	cfg.LivenessTTLMS = cfg.HeartbeatIntervalMS
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when TTL does not exceed heartbeat interval")
	}

	cfg = Default()
	cfg.MaxRelayHops = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero hop budget")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	if cfg.HeartbeatInterval().Milliseconds() != 500 {
		t.Errorf("HeartbeatInterval = %v, want 500ms", cfg.HeartbeatInterval())
	}
	if cfg.LivenessTTL().Milliseconds() != 2500 {
		t.Errorf("LivenessTTL = %v, want 2500ms", cfg.LivenessTTL())
	}
}
