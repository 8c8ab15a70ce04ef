package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Special rule kinds
const (
	RuleMasterOnce    = "masterOnce"
	RuleRotationOnce  = "rotationOnce"
	RuleForbidWeekend = "forbidWeekend"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Roster sources
const (
	RosterSourceDatabase = "database"
	RosterSourceSheets   = "sheets"
)

// Default limits used when the rules section leaves them unset
const (
	DefaultSoftWeekTarget   = 4
	DefaultHardWeekCap      = 5
	DefaultSoftStreakTarget = 2
	DefaultHardStreakCap    = 3
	DefaultWindowWeeks      = 2
	DefaultLockTTL          = 30 * time.Second
)

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// RosterConfig selects where workers, locations and eligibility settings are read from
type RosterConfig struct {
	Source       string `yaml:"source,omitempty" validate:"omitempty,oneof=database sheets"`
	SheetID      string `yaml:"sheetID,omitempty" validate:"required_if=Source sheets"`
	WorkersTab   string `yaml:"workersTab,omitempty" validate:"required_if=Source sheets"`
	LocationsTab string `yaml:"locationsTab,omitempty" validate:"required_if=Source sheets"`
	SettingsTab  string `yaml:"settingsTab,omitempty" validate:"required_if=Source sheets"`
}

// WindowConfig controls the planning window and tie-breaking
type WindowConfig struct {
	Weeks        int    `yaml:"weeks,omitempty" validate:"omitempty,min=1,max=8"`
	WeekendFirst bool   `yaml:"weekendFirst,omitempty"`
	Randomize    bool   `yaml:"randomize,omitempty"`
	Seed         *int64 `yaml:"seed,omitempty"`
}

// SpecialRule is a named per-worker exception.
// masterOnce uses Location, rotationOnce and forbidWeekend use Locations.
type SpecialRule struct {
	Kind      string   `yaml:"kind" validate:"required,oneof=masterOnce rotationOnce forbidWeekend"`
	Worker    string   `yaml:"worker" validate:"required"`
	Location  string   `yaml:"location,omitempty"`
	Locations []string `yaml:"locations,omitempty" validate:"dive,required"`
}

// RulesConfig holds the limits and named exceptions applied during allocation
type RulesConfig struct {
	SoftWeekTarget       int           `yaml:"softWeekTarget,omitempty" validate:"omitempty,min=1"`
	HardWeekCap          int           `yaml:"hardWeekCap,omitempty" validate:"omitempty,min=1,max=7"`
	SoftStreakTarget     int           `yaml:"softStreakTarget,omitempty" validate:"omitempty,min=1"`
	HardStreakCap        int           `yaml:"hardStreakCap,omitempty" validate:"omitempty,min=1"`
	WeekendOnlyLocations []string      `yaml:"weekendOnlyLocations,omitempty" validate:"dive,required"`
	ConflictPairs        [][]string    `yaml:"conflictPairs,omitempty" validate:"dive,len=2,dive,required"`
	SpecialRules         []SpecialRule `yaml:"specialRules,omitempty" validate:"dive"`
}

// RolloverConfig defines the weekly boundary at which published weeks are archived
type RolloverConfig struct {
	RRule    string `yaml:"rrule" validate:"required"`
	Timezone string `yaml:"timezone" validate:"required"`
}

// LockConfig configures the window lock. An empty RedisAddr selects the in-process lock.
type LockConfig struct {
	RedisAddr     string        `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword string        `yaml:"redisPassword,omitempty"`
	RedisDB       int           `yaml:"redisDB,omitempty" validate:"min=0"`
	TTL           time.Duration `yaml:"ttl,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" validate:"required"`
	Roster   RosterConfig   `yaml:"roster,omitempty"`
	Window   WindowConfig   `yaml:"window,omitempty"`
	Rules    RulesConfig    `yaml:"rules,omitempty"`
	Rollover RolloverConfig `yaml:"rollover" validate:"required"`
	Lock     LockConfig     `yaml:"lock,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from rota_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "rota_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset optional values
func (cfg *Config) ApplyDefaults() {
	if cfg.Roster.Source == "" {
		cfg.Roster.Source = RosterSourceDatabase
	}
	if cfg.Window.Weeks == 0 {
		cfg.Window.Weeks = DefaultWindowWeeks
	}
	if cfg.Rules.SoftWeekTarget == 0 {
		cfg.Rules.SoftWeekTarget = DefaultSoftWeekTarget
	}
	if cfg.Rules.HardWeekCap == 0 {
		cfg.Rules.HardWeekCap = DefaultHardWeekCap
	}
	if cfg.Rules.SoftStreakTarget == 0 {
		cfg.Rules.SoftStreakTarget = DefaultSoftStreakTarget
	}
	if cfg.Rules.HardStreakCap == 0 {
		cfg.Rules.HardStreakCap = DefaultHardStreakCap
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = DefaultLockTTL
	}
}

// Validate validates the configuration struct, the rule table, the rollover rrule and the timezone
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	rules := cfg.Rules
	if rules.SoftWeekTarget != 0 && rules.HardWeekCap != 0 && rules.SoftWeekTarget > rules.HardWeekCap {
		return fmt.Errorf("softWeekTarget (%d) must not exceed hardWeekCap (%d)", rules.SoftWeekTarget, rules.HardWeekCap)
	}
	if rules.SoftStreakTarget != 0 && rules.HardStreakCap != 0 && rules.SoftStreakTarget > rules.HardStreakCap {
		return fmt.Errorf("softStreakTarget (%d) must not exceed hardStreakCap (%d)", rules.SoftStreakTarget, rules.HardStreakCap)
	}

	for i, pair := range rules.ConflictPairs {
		if pair[0] == pair[1] {
			return fmt.Errorf("conflictPairs[%d] names the same worker twice: %s", i, pair[0])
		}
	}

	for i, rule := range rules.SpecialRules {
		switch rule.Kind {
		case RuleMasterOnce:
			if rule.Location == "" {
				return fmt.Errorf("specialRules[%d] (%s) requires location", i, rule.Kind)
			}
			if len(rule.Locations) > 0 {
				return fmt.Errorf("specialRules[%d] (%s) takes a single location, not locations", i, rule.Kind)
			}
		default:
			if len(rule.Locations) == 0 {
				return fmt.Errorf("specialRules[%d] (%s) requires at least one location in locations", i, rule.Kind)
			}
			if rule.Location != "" {
				return fmt.Errorf("specialRules[%d] (%s) takes locations, not location", i, rule.Kind)
			}
		}
	}

	if _, err := rrule.StrToRRule(cfg.Rollover.RRule); err != nil {
		return fmt.Errorf("invalid rrule in rollover: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Rollover.Timezone); err != nil {
		return fmt.Errorf("invalid timezone in rollover: %w", err)
	}

	return nil
}

// Location returns the rollover time zone
func (r RolloverConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// findConfigFile searches for rota_config.yaml in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "rota_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "rota_config.yaml"
	if env != "" {
		configFileName = "rota_config." + env + ".yaml"
	}
	return findFile(configFileName)
}
