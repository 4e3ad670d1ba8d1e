// Package config loads the run configuration: YAML on top of defaults, then
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/homestead/internal/agents"
	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/engine"
	"github.com/talgya/homestead/internal/world"
)

// Environment variables that override the file.
const (
	EnvAdminKey = "HOMESTEAD_ADMIN_KEY"
	EnvDB       = "HOMESTEAD_DB"
	EnvPort     = "HOMESTEAD_PORT"
)

type Config struct {
	Seed     int64  `yaml:"seed"`
	LogLevel string `yaml:"log_level"`

	Map        MapConfig        `yaml:"map"`
	Population PopulationConfig `yaml:"population"`
	Engine     EngineConfig     `yaml:"engine"`
	Behavior   agents.Params    `yaml:"behavior"`
	Storage    StorageConfig    `yaml:"storage"`
	API        APIConfig        `yaml:"api"`
}

// MapConfig selects the geography: an ASCII map file, or a generated grid
// when Path is empty.
type MapConfig struct {
	Path      string  `yaml:"path"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	MaxCost   uint16  `yaml:"max_cost"`
	HedgeLvl  float64 `yaml:"hedge_level"`
	RoadCount int     `yaml:"roads"`
}

// PopulationConfig sizes the households. Capacities are in item units.
type PopulationConfig struct {
	Farmsteads       int     `yaml:"farmsteads"`
	Residents        int     `yaml:"residents"`
	PersonalCapacity float64 `yaml:"personal_capacity"`
	LarderCapacity   float64 `yaml:"larder_capacity"`
	FieldCapacity    float64 `yaml:"field_capacity"`
	StartingFood     uint32  `yaml:"starting_food"`
	StartingWater    uint32  `yaml:"starting_water"`
}

type EngineConfig struct {
	TickMillis     int     `yaml:"tick_ms"`          // Real time per logic tick at speed 1
	UpdatesPerTick int     `yaml:"updates_per_tick"` // Travel frames per logic tick
	Workers        int     `yaml:"workers"`          // 0 = GOMAXPROCS
	Speed          float64 `yaml:"speed"`
	MaxTicks       int     `yaml:"max_ticks"` // Stop after this many ticks; 0 runs until signalled
}

type StorageConfig struct {
	DBPath     string `yaml:"db_path"`     // Empty disables the journal
	TraceDir   string `yaml:"trace_dir"`   // Empty disables the trace
	TraceEvery int    `yaml:"trace_every"` // Ticks between trace lines
}

type APIConfig struct {
	Port     int    `yaml:"port"` // 0 disables the server
	AdminKey string `yaml:"-"`    // Environment only
}

// Default returns the standard village configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	return Config{
		Seed:     42,
		LogLevel: "info",
		Map: MapConfig{
			Width:     gen.Width,
			Height:    gen.Height,
			MaxCost:   gen.MaxCost,
			HedgeLvl:  gen.HedgeLvl,
			RoadCount: gen.RoadCount,
		},
		Population: PopulationConfig{
			Farmsteads:       8,
			Residents:        1,
			PersonalCapacity: 30,
			LarderCapacity:   200,
			FieldCapacity:    500,
			StartingFood:     40,
			StartingWater:    20,
		},
		Engine: EngineConfig{
			TickMillis:     100,
			UpdatesPerTick: 4,
			Speed:          1,
		},
		Behavior: agents.DefaultParams(),
		Storage: StorageConfig{
			DBPath:     "data/homestead.db",
			TraceEvery: 1,
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	c.API.AdminKey = getenv(EnvAdminKey)
	if v := getenv(EnvDB); v != "" {
		c.Storage.DBPath = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.API.Port = port
	}
	return nil
}

// Validate reports every nonsensical value at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if c.Map.Path == "" {
		check(c.Map.Width > 0 && c.Map.Height > 0, "map: size %dx%d must be positive", c.Map.Width, c.Map.Height)
		check(c.Map.HedgeLvl >= 0 && c.Map.HedgeLvl <= 1, "map: hedge_level %v outside [0,1]", c.Map.HedgeLvl)
	}
	check(c.Population.Farmsteads >= 0, "population: farmsteads %d is negative", c.Population.Farmsteads)
	check(c.Population.Residents >= 0, "population: residents %d is negative", c.Population.Residents)
	check(c.Population.PersonalCapacity > 0, "population: personal_capacity must be positive")
	check(c.Population.LarderCapacity > 0, "population: larder_capacity must be positive")
	check(c.Population.FieldCapacity > 0, "population: field_capacity must be positive")
	check(c.Engine.TickMillis > 0, "engine: tick_ms %d must be positive", c.Engine.TickMillis)
	check(c.Engine.UpdatesPerTick > 0, "engine: updates_per_tick %d must be positive", c.Engine.UpdatesPerTick)
	check(c.Engine.Workers >= 0, "engine: workers %d is negative", c.Engine.Workers)
	check(c.Engine.Speed >= 0 && c.Engine.Speed <= engine.MaxSpeed, "engine: speed %v outside [0,%v]", c.Engine.Speed, engine.MaxSpeed)
	check(c.Engine.MaxTicks >= 0, "engine: max_ticks %d is negative", c.Engine.MaxTicks)
	check(c.Storage.TraceEvery >= 0, "storage: trace_every %d is negative", c.Storage.TraceEvery)
	check(c.API.Port >= 0 && c.API.Port < 65536, "api: port %d out of range", c.API.Port)

	b := c.Behavior
	check(b.Speed > 0 && b.Speed < 1, "behavior: speed %v must be in (0,1) tiles per tick", b.Speed)
	check(b.FatigueThreshold < b.ExhaustionThreshold, "behavior: fatigue_threshold must be below exhaustion_threshold")
	check(b.BreakfastHour >= 0 && b.BreakfastHour < b.DinnerHour && b.DinnerHour < world.HoursPerDay,
		"behavior: meal hours %d and %d out of order", b.BreakfastHour, b.DinnerHour)
	check(b.WorkDuration > 0, "behavior: work_duration must be positive")
	check(b.ReplyWait >= 0 && b.RetryWait >= 0, "behavior: waits must not be negative")

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GenConfig returns the generator settings for the map section.
func (c Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Width:     c.Map.Width,
		Height:    c.Map.Height,
		Seed:      c.Seed,
		MaxCost:   c.Map.MaxCost,
		HedgeLvl:  c.Map.HedgeLvl,
		RoadCount: c.Map.RoadCount,
	}
}

// PopulationConfig returns the settlement settings.
func (c Config) PopulationConfig() engine.PopulationConfig {
	p := c.Population
	return engine.PopulationConfig{
		Farmsteads: p.Farmsteads,
		Household: agents.Household{
			PersonalCapacity: economy.Units(p.PersonalCapacity),
			LarderCapacity:   economy.Units(p.LarderCapacity),
			FieldCapacity:    economy.Units(p.FieldCapacity),
			StartingFood:     p.StartingFood,
			StartingWater:    p.StartingWater,
			Residents:        p.Residents,
		},
		Params: c.Behavior,
		Seed:   c.Seed,
	}
}

// TickInterval returns the real time per logic tick at speed 1.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Engine.TickMillis) * time.Millisecond
}
