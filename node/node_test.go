package node

import (
	"testing"
	"time"
)

func TestStartAndStopDoNotHangOrPanic(t *testing.T) {
	cfg := DefaultConfig
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GossipWorkers = 1
	cfg.TxGenInterval = Duration{50 * time.Millisecond}

	n := New(cfg)
	if err := n.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	n.Stop()
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/lumenchain.toml"); err == nil {
		t.Error("expected an error loading a nonexistent config file")
	}
}

func TestDurationUnmarshalTOML(t *testing.T) {
	var d Duration
	if err := d.UnmarshalTOML([]byte(`"1500ms"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Duration != 1500*time.Millisecond {
		t.Errorf("expected 1500ms, got %v", d.Duration)
	}
}

func TestDurationUnmarshalTOMLRejectsMalformed(t *testing.T) {
	var d Duration
	if err := d.UnmarshalTOML([]byte(`"not-a-duration"`)); err == nil {
		t.Error("expected an error for a malformed duration")
	}
}
