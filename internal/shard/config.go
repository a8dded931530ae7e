package shard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"openshard.dev/internal/housing"
)

type Config struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`

	// AuditDir, when set, enables the compressed house event journal.
	AuditDir string `yaml:"audit_dir"`

	// ComponentsPath points at the buildable-components catalog; empty
	// falls back to the built-in era tables.
	ComponentsPath string `yaml:"components_path"`

	Era      string `yaml:"era"`
	AOSRules bool   `yaml:"aos_rules"`

	DecayEnabled bool   `yaml:"decay_enabled"`
	DynamicDecay bool   `yaml:"dynamic_decay"`
	DecayPeriod  string `yaml:"decay_period"`
	SweepEvery   string `yaml:"sweep_every"`
	SaveEvery    string `yaml:"save_every"`

	MaxCoOwners       int `yaml:"max_co_owners"`
	MaxFriends        int `yaml:"max_friends"`
	MaxBans           int `yaml:"max_bans"`
	HousesPerAccount  int `yaml:"houses_per_account"`
	CustomizationCost int `yaml:"customization_cost"`

	Maps []MapSpec `yaml:"maps"`
}

type MapSpec struct {
	Name      string `yaml:"name"`
	NoHousing bool   `yaml:"no_housing"`

	// T2A marks the legacy land rectangle where placement is banned on an
	// otherwise housable facet.
	T2A *RectSpec `yaml:"t2a,omitempty"`
}

type RectSpec struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func LoadConfig(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("shard.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("shard.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	base := housing.DefaultRules()
	return Config{
		Addr:             ":7775",
		DBPath:           "data/houses.db",
		Era:              "aos",
		AOSRules:         base.AOSRules,
		DecayEnabled:     base.DecayEnabled,
		DynamicDecay:     base.DynamicDecay,
		DecayPeriod:      base.DecayPeriod.String(),
		SweepEvery:       "1m",
		SaveEvery:        "5m",
		MaxCoOwners:      base.MaxCoOwners,
		MaxFriends:       base.MaxFriends,
		MaxBans:          base.MaxBans,
		HousesPerAccount: base.HousesPerAccount,
		Maps: []MapSpec{
			{Name: "Felucca", T2A: &RectSpec{X: 5120, Y: 0, Width: 1024, Height: 4096}},
			{Name: "Trammel", T2A: &RectSpec{X: 5120, Y: 0, Width: 1024, Height: 4096}},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":7775"
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = "data/houses.db"
	}
	c.Era = strings.ToLower(strings.TrimSpace(c.Era))
	if c.Era == "" {
		c.Era = "aos"
	}
	if strings.TrimSpace(c.DecayPeriod) == "" {
		c.DecayPeriod = housing.DefaultRules().DecayPeriod.String()
	}
	if strings.TrimSpace(c.SweepEvery) == "" {
		c.SweepEvery = "1m"
	}
	if strings.TrimSpace(c.SaveEvery) == "" {
		c.SaveEvery = "5m"
	}
	if c.MaxCoOwners <= 0 {
		c.MaxCoOwners = housing.DefaultRules().MaxCoOwners
	}
	if c.MaxFriends <= 0 {
		c.MaxFriends = housing.DefaultRules().MaxFriends
	}
	if c.MaxBans <= 0 {
		c.MaxBans = housing.DefaultRules().MaxBans
	}
	if c.HousesPerAccount <= 0 {
		c.HousesPerAccount = housing.DefaultRules().HousesPerAccount
	}
	if len(c.Maps) == 0 {
		c.Maps = []MapSpec{{Name: "Felucca"}}
	}
}

func (c Config) Validate() error {
	if _, err := housing.ParseEra(c.Era); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.DecayPeriod); err != nil {
		return fmt.Errorf("decay_period: %w", err)
	}
	if _, err := time.ParseDuration(c.SweepEvery); err != nil {
		return fmt.Errorf("sweep_every: %w", err)
	}
	if _, err := time.ParseDuration(c.SaveEvery); err != nil {
		return fmt.Errorf("save_every: %w", err)
	}
	seen := map[string]bool{}
	for _, m := range c.Maps {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return fmt.Errorf("map name must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate map name: %s", name)
		}
		seen[name] = true
		if m.T2A != nil && (m.T2A.Width < 0 || m.T2A.Height < 0) {
			return fmt.Errorf("map %s: t2a bounds must not be negative", name)
		}
	}
	return nil
}

// Rules converts the validated config into the housing rule set.
func (c Config) Rules() housing.Rules {
	era, _ := housing.ParseEra(c.Era)
	period, _ := time.ParseDuration(c.DecayPeriod)
	return housing.Rules{
		Era:               era,
		AOSRules:          c.AOSRules,
		DecayEnabled:      c.DecayEnabled,
		DynamicDecay:      c.DynamicDecay,
		DecayPeriod:       period,
		MaxCoOwners:       c.MaxCoOwners,
		MaxFriends:        c.MaxFriends,
		MaxBans:           c.MaxBans,
		HousesPerAccount:  c.HousesPerAccount,
		CustomizationCost: c.CustomizationCost,
	}
}

func (c Config) SweepInterval() time.Duration {
	d, _ := time.ParseDuration(c.SweepEvery)
	return d
}

func (c Config) SaveInterval() time.Duration {
	d, _ := time.ParseDuration(c.SaveEvery)
	return d
}
