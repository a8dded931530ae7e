package shard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"openshard.dev/internal/housing"
)

func TestLoadConfig_RepoDefault(t *testing.T) {
	cfg, err := LoadConfig("../../configs/shard.yaml")
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if cfg.Addr == "" || cfg.DBPath == "" {
		t.Fatalf("shipped config missing basics: %+v", cfg)
	}
	if len(cfg.Maps) == 0 {
		t.Fatalf("shipped config defines no maps")
	}
	rules := cfg.Rules()
	if rules.Era != housing.EraAOS {
		t.Fatalf("shipped era %v, want aos", rules.Era)
	}
	if rules.DecayPeriod != 336*time.Hour {
		t.Fatalf("shipped decay period %v", rules.DecayPeriod)
	}
	if cfg.SweepInterval() <= 0 || cfg.SaveInterval() <= 0 {
		t.Fatalf("shipped intervals did not parse")
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if cfg.Addr != ":7775" {
		t.Fatalf("default addr %q", cfg.Addr)
	}
	if cfg.Era != "aos" {
		t.Fatalf("default era %q", cfg.Era)
	}
	if len(cfg.Maps) != 2 {
		t.Fatalf("default maps: %+v", cfg.Maps)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_NormalizesAndValidates(t *testing.T) {
	path := writeConfig(t, `
addr: ""
era: "SE"
decay_period: ""
maps:
  - name: Felucca
  - name: Ilshenar
    no_housing: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7775" {
		t.Fatalf("blank addr not defaulted: %q", cfg.Addr)
	}
	if cfg.Era != "se" {
		t.Fatalf("era not lowercased: %q", cfg.Era)
	}
	if cfg.Rules().Era != housing.EraSE {
		t.Fatalf("era conversion: %v", cfg.Rules().Era)
	}
	if !cfg.Maps[1].NoHousing {
		t.Fatalf("no_housing flag lost")
	}
}

func TestLoadConfig_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad era", "era: renaissance\n"},
		{"bad duration", "decay_period: fortnight\n"},
		{"dup maps", "maps:\n  - name: Felucca\n  - name: Felucca\n"},
		{"empty map name", "maps:\n  - name: \"\"\n"},
		{"negative t2a", "maps:\n  - name: Felucca\n    t2a: {x: 0, y: 0, width: -1, height: 0}\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.body)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
	}
}
