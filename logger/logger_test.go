package logger

import (
	"testing"
)

func TestConfig_ApplyDefaults_Success(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfig_Validate_BadLevel(t *testing.T) {
	cfg := &Config{Level: "loud", Format: "json", Output: "stdout"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestLogger_WithComponent_Success(t *testing.T) {
	l := Nop().WithComponent("session")
	// must not panic and must return a distinct logger
	l.Info("hello")
	l.Warn("reuse detected", Fields(FieldFamilyID, "fam-1"))
}

func TestFields_OddPairsIgnored(t *testing.T) {
	m := Fields("a", 1, "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("expected only complete pairs, got %v", m)
	}
}
