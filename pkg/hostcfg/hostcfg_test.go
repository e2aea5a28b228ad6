package hostcfg

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Skin != "classic" || cfg.Scale != 2 || cfg.Remote.Port != 2323 {
		t.Errorf("Default = %+v", cfg)
	}
}

func TestLoadFromReader(t *testing.T) {
	yaml := `
skin: modern
scale: 3
remote:
  enabled: true
  port: 4000
  psk: super-secret-1
log_level: debug
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Skin != "modern" || cfg.Scale != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Remote.Enabled || cfg.Remote.Port != 4000 || cfg.Remote.PSK != "super-secret-1" {
		t.Errorf("remote = %+v", cfg.Remote)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("skin: modern\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Skin != "modern" {
		t.Errorf("skin = %q", cfg.Skin)
	}
	if cfg.Scale != 2 || cfg.Remote.Port != 2323 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestScaleClamped(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("scale: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scale != 1 {
		t.Errorf("scale = %d, want clamp to 1", cfg.Scale)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("OASIS_SKIN", "modern")
	cfg, err := LoadFromReader(strings.NewReader("skin: classic\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Skin != "modern" {
		t.Errorf("env override ignored: %q", cfg.Skin)
	}
}

func TestBadYAMLFails(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(":\n\t- broken")); err == nil {
		t.Error("parse of broken yaml succeeded")
	}
}
