// Package config loads simulation settings, configures logging and builds
// reasoners from declarative definitions.
//
// Settings resolve in order: defaults, then an optional YAML file, then
// WORLDSIM_* environment variables. Command-line flags are applied last by
// the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/skirmish"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// SimConfig holds everything the worldsim command needs to start.
type SimConfig struct {
	Seed     int64  `yaml:"seed"`
	DBPath   string `yaml:"db_path"`
	Port     int    `yaml:"port"`      // 0 disables the HTTP API
	AdminKey string `yaml:"admin_key"` // Bearer token for POST endpoints. Empty = POST disabled.

	Agents        int    `yaml:"agents"`         // Initial population of a fresh world
	MinPopulation int    `yaml:"min_population"` // Daily immigration floor; 0 disables
	DecideEvery   uint64 `yaml:"decide_every"`   // Ticks between decisions
	Workers       int    `yaml:"workers"`        // Decision-phase parallelism; 0 = GOMAXPROCS

	Speed        float64       `yaml:"speed"`
	TickInterval time.Duration `yaml:"tick_interval"`

	Fallback string `yaml:"fallback"` // clear | mark-idle | keep
	Reasoner string `yaml:"reasoner"` // Optional YAML reasoner file; built-in survival reasoner when empty

	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string `yaml:"log_format"` // auto | text | json

	World    world.GenConfig `yaml:"world"`
	Skirmish skirmish.Rules  `yaml:"skirmish"`
}

// Default returns the settings used when nothing else is configured.
func Default() SimConfig {
	return SimConfig{
		Seed:         42,
		DBPath:       "data/worldsim.db",
		Port:         8080,
		Agents:       50,
		DecideEvery:  10,
		Speed:        1,
		TickInterval: time.Second,
		Fallback:     agents.FallbackClear.String(),
		LogLevel:     "info",
		LogFormat:    "auto",
		World:        world.DefaultGenConfig(),
		Skirmish:     skirmish.DefaultRules(),
	}
}

// GenConfig returns the world generation settings seeded with Seed.
func (c SimConfig) GenConfig() world.GenConfig {
	g := c.World
	g.Seed = c.Seed
	return g
}

// FallbackPolicy parses the configured fallback policy.
func (c SimConfig) FallbackPolicy() (agents.FallbackPolicy, error) {
	return agents.ParseFallbackPolicy(c.Fallback)
}

// Load resolves the configuration. path may be empty.
func Load(path string) (SimConfig, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// mergeFile overlays a YAML file onto c. Unknown keys are rejected.
func (c *SimConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays WORLDSIM_* variables read through getenv.
func (c *SimConfig) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, set func(string) error) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		if err := set(v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
		}
		return nil
	}

	str("WORLDSIM_DB", &c.DBPath)
	str("WORLDSIM_ADMIN_KEY", &c.AdminKey)
	str("WORLDSIM_LOG_LEVEL", &c.LogLevel)
	str("WORLDSIM_LOG_FORMAT", &c.LogFormat)
	str("WORLDSIM_FALLBACK", &c.Fallback)
	str("WORLDSIM_REASONER", &c.Reasoner)

	return errors.Join(
		num("WORLDSIM_SEED", func(v string) (err error) {
			c.Seed, err = strconv.ParseInt(v, 10, 64)
			return err
		}),
		num("WORLDSIM_PORT", func(v string) (err error) {
			c.Port, err = strconv.Atoi(v)
			return err
		}),
		num("WORLDSIM_AGENTS", func(v string) (err error) {
			c.Agents, err = strconv.Atoi(v)
			return err
		}),
		num("WORLDSIM_DECIDE_EVERY", func(v string) (err error) {
			c.DecideEvery, err = strconv.ParseUint(v, 10, 64)
			return err
		}),
		num("WORLDSIM_SPEED", func(v string) (err error) {
			c.Speed, err = strconv.ParseFloat(v, 64)
			return err
		}),
	)
}

// Validate reports every problem with c at once.
func (c SimConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Port < 0 || c.Port > 65535 {
		bad("port %d out of range", c.Port)
	}
	if c.Agents < 0 {
		bad("agents must be >= 0, got %d", c.Agents)
	}
	if c.MinPopulation < 0 {
		bad("min_population must be >= 0, got %d", c.MinPopulation)
	}
	if c.Workers < 0 {
		bad("workers must be >= 0, got %d", c.Workers)
	}
	if c.Speed < 0 {
		bad("speed must be >= 0, got %v", c.Speed)
	}
	if c.TickInterval <= 0 {
		bad("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.World.Radius <= 0 {
		bad("world radius must be positive, got %d", c.World.Radius)
	}
	if c.Skirmish.Range <= 0 {
		bad("skirmish range must be positive, got %v", c.Skirmish.Range)
	}
	if _, err := c.FallbackPolicy(); err != nil {
		bad("%v", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		bad("%v", err)
	}
	switch c.LogFormat {
	case "", "auto", "text", "json":
	default:
		bad("log_format must be auto, text or json, got %q", c.LogFormat)
	}
	return errors.Join(errs...)
}
