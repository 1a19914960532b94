package ai

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tier names a skill level.
type Tier string

const (
	Beginner     Tier = "beginner"
	Intermediate Tier = "intermediate"
	Advanced     Tier = "advanced"
)

var Tiers = []Tier{Beginner, Intermediate, Advanced}

var ErrUnknownTier = errors.New("unknown ai tier")

// ParseTier accepts the tier names in lower case.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Weights tune the advanced evaluation.
type Weights struct {
	Radius     int     `yaml:"radius"`
	Territory  float64 `yaml:"territory"`
	Influence  float64 `yaml:"influence"`
	Connection float64 `yaml:"connection"`
	Response   float64 `yaml:"response"`
	SelfAtari  float64 `yaml:"self_atari"`
}

// TierConfig is the pacing and tuning of one tier.
type TierConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	MinThink    time.Duration `yaml:"min_think"`
	MaxThink    time.Duration `yaml:"max_think"`
	Timeout     time.Duration `yaml:"timeout"`
	CenterBias  float64       `yaml:"center_bias"`
	Weights     Weights       `yaml:"weights"`
}

// Config is the tier table. It is copied into the selector and never changed.
type Config struct {
	Tiers map[Tier]TierConfig `yaml:"tiers"`
}

//go:embed tiers.yaml
var defaultTiers []byte

// DefaultConfig returns the built-in tier table.
func DefaultConfig() Config {
	cfg, err := parseConfig(defaultTiers)
	if err != nil {
		panic("ai: embedded tiers.yaml: " + err.Error())
	}
	return cfg
}

// LoadConfig reads a tier table from a YAML file. An empty path yields the
// built-in table.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read ai tiers: %w", err)
	}
	return parseConfig(raw)
}

func parseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse ai tiers: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every tier is present and its pacing fits its timeout.
func (c Config) Validate() error {
	for _, t := range Tiers {
		tc, ok := c.Tiers[t]
		if !ok {
			return fmt.Errorf("ai tiers: missing %q", t)
		}
		if tc.MinThink < 0 || tc.MaxThink < tc.MinThink {
			return fmt.Errorf("ai tiers: %q think range %s..%s is invalid", t, tc.MinThink, tc.MaxThink)
		}
		if tc.Timeout <= tc.MaxThink {
			return fmt.Errorf("ai tiers: %q timeout %s must exceed max think %s", t, tc.Timeout, tc.MaxThink)
		}
		if tc.CenterBias < 0 || tc.CenterBias > 1 {
			return fmt.Errorf("ai tiers: %q center bias %v outside [0,1]", t, tc.CenterBias)
		}
	}
	return nil
}

func (c Config) clone() Config {
	cp := Config{Tiers: make(map[Tier]TierConfig, len(c.Tiers))}
	for k, v := range c.Tiers {
		cp.Tiers[k] = v
	}
	return cp
}
