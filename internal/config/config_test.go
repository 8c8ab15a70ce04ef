package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "rota.db"},
		Rules: RulesConfig{
			WeekendOnlyLocations: []string{"Aviapark"},
			ConflictPairs:        [][]string{{"Kate", "Anna"}},
			SpecialRules: []SpecialRule{
				{Kind: RuleMasterOnce, Worker: "Anna", Location: "Workshops"},
				{Kind: RuleRotationOnce, Worker: "Kate", Locations: []string{"Aquarium 1", "Cartoon Park"}},
				{Kind: RuleForbidWeekend, Worker: "Liz", Locations: []string{"Aquarium 0"}},
			},
		},
		Rollover: RolloverConfig{
			RRule:    "FREQ=WEEKLY;BYDAY=SU;BYHOUR=22;BYMINUTE=0;BYSECOND=0",
			Timezone: "Europe/Moscow",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, RosterSourceDatabase, cfg.Roster.Source)
	assert.Equal(t, 2, cfg.Window.Weeks)
	assert.Equal(t, 4, cfg.Rules.SoftWeekTarget)
	assert.Equal(t, 5, cfg.Rules.HardWeekCap)
	assert.Equal(t, 2, cfg.Rules.SoftStreakTarget)
	assert.Equal(t, 3, cfg.Rules.HardStreakCap)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		errContains string
	}{
		{
			name:        "missing database driver",
			mutate:      func(cfg *Config) { cfg.Database.Driver = "" },
			errContains: "validation failed",
		},
		{
			name:        "unknown database driver",
			mutate:      func(cfg *Config) { cfg.Database.Driver = "mysql" },
			errContains: "validation failed",
		},
		{
			name:        "sheets roster without sheet id",
			mutate:      func(cfg *Config) { cfg.Roster.Source = RosterSourceSheets },
			errContains: "validation failed",
		},
		{
			name:        "soft week target above hard cap",
			mutate:      func(cfg *Config) { cfg.Rules.SoftWeekTarget = 6; cfg.Rules.HardWeekCap = 5 },
			errContains: "softWeekTarget",
		},
		{
			name:        "soft streak target above hard cap",
			mutate:      func(cfg *Config) { cfg.Rules.SoftStreakTarget = 4 },
			errContains: "softStreakTarget",
		},
		{
			name:        "conflict pair with one name",
			mutate:      func(cfg *Config) { cfg.Rules.ConflictPairs = [][]string{{"Kate"}} },
			errContains: "validation failed",
		},
		{
			name:        "conflict pair naming the same worker",
			mutate:      func(cfg *Config) { cfg.Rules.ConflictPairs = [][]string{{"Kate", "Kate"}} },
			errContains: "same worker",
		},
		{
			name: "unknown rule kind",
			mutate: func(cfg *Config) {
				cfg.Rules.SpecialRules = []SpecialRule{{Kind: "always", Worker: "Kate", Location: "X"}}
			},
			errContains: "validation failed",
		},
		{
			name: "master rule without location",
			mutate: func(cfg *Config) {
				cfg.Rules.SpecialRules = []SpecialRule{{Kind: RuleMasterOnce, Worker: "Anna"}}
			},
			errContains: "requires location",
		},
		{
			name: "rotation rule without locations",
			mutate: func(cfg *Config) {
				cfg.Rules.SpecialRules = []SpecialRule{{Kind: RuleRotationOnce, Worker: "Kate"}}
			},
			errContains: "requires at least one location",
		},
		{
			name:        "invalid rrule",
			mutate:      func(cfg *Config) { cfg.Rollover.RRule = "INVALID_RRULE_SYNTAX" },
			errContains: "invalid rrule",
		},
		{
			name:        "invalid timezone",
			mutate:      func(cfg *Config) { cfg.Rollover.Timezone = "Mars/Olympus" },
			errContains: "invalid timezone",
		},
		{
			name:        "bad redis address",
			mutate:      func(cfg *Config) { cfg.Lock.RedisAddr = "not an address" },
			errContains: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rota_config.yaml")

	configContent := `database:
  driver: postgres
  dsn: postgres://localhost:5432/rota
window:
  weeks: 3
  weekendFirst: true
  seed: 42
rules:
  hardWeekCap: 6
  weekendOnlyLocations:
    - Aviapark
    - Aquarium 3
  conflictPairs:
    - [Kate, Anna]
  specialRules:
    - kind: masterOnce
      worker: Anna
      location: Workshops
    - kind: rotationOnce
      worker: Kate
      locations: [Aquarium 1, Aquarium 0, Cartoon Park]
rollover:
  rrule: FREQ=WEEKLY;BYDAY=SU;BYHOUR=22
  timezone: Europe/Moscow
lock:
  redisAddr: localhost:6379
  ttl: 1m
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Window.Weeks)
	assert.True(t, cfg.Window.WeekendFirst)
	require.NotNil(t, cfg.Window.Seed)
	assert.Equal(t, int64(42), *cfg.Window.Seed)
	assert.Equal(t, 6, cfg.Rules.HardWeekCap)
	assert.Equal(t, 4, cfg.Rules.SoftWeekTarget, "unset limits take defaults")
	assert.Equal(t, []string{"Aviapark", "Aquarium 3"}, cfg.Rules.WeekendOnlyLocations)
	assert.Equal(t, [][]string{{"Kate", "Anna"}}, cfg.Rules.ConflictPairs)
	require.Len(t, cfg.Rules.SpecialRules, 2)
	assert.Equal(t, "Workshops", cfg.Rules.SpecialRules[0].Location)
	assert.Len(t, cfg.Rules.SpecialRules[1].Locations, 3)
	assert.Equal(t, RosterSourceDatabase, cfg.Roster.Source)
	assert.Equal(t, time.Minute, cfg.Lock.TTL)

	loc, err := cfg.Rollover.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rota_config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database: [unclosed"), 0644))

	_, err := LoadFromPath(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_MissingRollover(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rota_config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database:\n  driver: sqlite\n  dsn: rota.db\n"), 0644))

	_, err := LoadFromPath(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/rota_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
