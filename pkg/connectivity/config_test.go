package connectivity

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected %d workers, got %d", runtime.GOMAXPROCS(0), cfg.Workers)
	}
	if cfg.TieBreak != "creation-order" {
		t.Errorf("expected creation-order, got %s", cfg.TieBreak)
	}
	if cfg.AutoNamePrefix != "Net-" {
		t.Errorf("expected Net- prefix, got %q", cfg.AutoNamePrefix)
	}
}

func TestConfigValidateFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
	if cfg.GridQuantum != 0.0001 {
		t.Errorf("expected default quantum, got %v", cfg.GridQuantum)
	}
	if cfg.Workers < 1 {
		t.Errorf("expected workers filled, got %d", cfg.Workers)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"negative workers", Config{Workers: -1}, "Workers: must be at least 1"},
		{"too many workers", Config{Workers: 1000}, "Workers: must not exceed 256"},
		{"negative quantum", Config{GridQuantum: -1}, "GridQuantum: must be greater than 0"},
		{"unknown policy", Config{TieBreak: "random"}, "TieBreak: must be one of"},
		{"long prefix", Config{AutoNamePrefix: strings.Repeat("x", 40)}, "AutoNamePrefix: must not exceed 32"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schnet.yaml")
	data := "workers: 3\ntie_break: lexical\nprefix_root_names: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Workers)
	}
	if cfg.TieBreak != "lexical" {
		t.Errorf("expected lexical, got %s", cfg.TieBreak)
	}
	if !cfg.PrefixRootNames {
		t.Error("expected prefix_root_names to be set")
	}
	if cfg.AutoNamePrefix != "Net-" {
		t.Errorf("expected unset fields to keep defaults, got %q", cfg.AutoNamePrefix)
	}
	tb, err := cfg.TieBreaker()
	if err != nil || tb.Name() != "lexical" {
		t.Errorf("expected lexical tie breaker, got %v (%v)", tb, err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("grid_quantum: 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(invalid); err == nil {
		t.Error("expected validation error")
	}
}

func TestPrefixRootNames(t *testing.T) {
	src := NewMemorySource()
	src.Add(RootSheet(), wire("w", 0, 0, 10, 0), local("l", "EN", 0, 0), global("g", "PWR", 50, 50))
	cfg := DefaultConfig()
	cfg.PrefixRootNames = true
	g, err := New(src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Refresh(t.Context()); err != nil {
		t.Fatal(err)
	}
	if got := nameOf(t, g, "w", RootSheet()); got != "/EN" {
		t.Errorf("expected /EN, got %q", got)
	}
	if got := nameOf(t, g, "g", RootSheet()); got != "PWR" {
		t.Errorf("global names are never prefixed, got %q", got)
	}
}
