package config

import (
	"commute-planner/internal/domain"
	"commute-planner/internal/services"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

// unsetAfter removes variables that godotenv wrote into the process environment.
func unsetAfter(t *testing.T, keys ...string) {
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TZ", "Europe/Zurich")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Europe/Zurich", cfg.Location().String())
	assert.False(t, cfg.Weekly())
	assert.Equal(t, 5*time.Minute, cfg.BucketWidth())
	assert.Equal(t, 24*time.Hour, cfg.StoreOptions().TTL)
	assert.Equal(t, 5000, cfg.StoreOptions().MaxEntries)

	w := cfg.Workday()
	assert.Equal(t, "05:00", w.WindowStart.String())
	assert.Equal(t, "09:00", w.LatestArrival.String())
	assert.Equal(t, 480, w.WorkMinutes)
	assert.Equal(t, 30, w.LunchMinMinutes)
	assert.Equal(t, 60, w.LunchMaxMinutes)
	assert.Equal(t, 5, w.LunchStepMinutes)

	ext := cfg.Extension()
	assert.Equal(t, 30, ext.StepMinutes)
	assert.Equal(t, 6, ext.WorseStreakLimit)
	assert.Equal(t, 10.0, ext.TargetSaveMinutes)
	assert.Equal(t, "22:00", ext.Latest.String())
	assert.Nil(t, ext.MaxLeave)
	assert.Nil(t, ext.Penalty.After)

	assert.Error(t, cfg.RequireAPIKey())
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "test.env", `
GOOGLE_MAPS_API_KEY=secret
ORIGIN_ADDRESS=Bahnhofstrasse 1, Zürich
DESTINATION_ADDRESS=Hauptstrasse 5, Baden
WORK_HOURS=8.5
FRIDAY_LATEST_LOCAL=16:00
GYM_ADDRESSES=Gym A; ;Gym B
`)
	unsetAfter(t, "GOOGLE_MAPS_API_KEY", "ORIGIN_ADDRESS", "DESTINATION_ADDRESS",
		"WORK_HOURS", "FRIDAY_LATEST_LOCAL", "GYM_ADDRESSES")

	cfg, err := Load(LoadOptions{EnvFile: path})
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireAPIKey())
	assert.Equal(t, domain.Route{Home: "Bahnhofstrasse 1, Zürich", Office: "Hauptstrasse 5, Baden"}, cfg.Route())
	assert.Equal(t, 510, cfg.Workday().WorkMinutes)
	require.NotNil(t, cfg.Extension().FridayLatest)
	assert.Equal(t, "16:00", cfg.Extension().FridayLatest.String())

	bank := domain.NewTimebank(30, 600)
	gym := cfg.Gym(time.Date(2025, 3, 3, 7, 0, 0, 0, cfg.Location()), 45, bank)
	assert.Equal(t, []string{"Gym A", "Gym B"}, gym.Locations)
	assert.Equal(t, 30, gym.AvailableBalanceMinutes)
	assert.Equal(t, 510, gym.WorkMinutes)
	assert.Equal(t, 45, gym.LunchMinutes)
	assert.Equal(t, services.LeaveEarly, gym.LeaveMode)
}

func TestLoadMissingExplicitEnvFile(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
	assert.Error(t, err)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeFile(t, "planner.yaml", `
latest_arrival_local: "08:30"
step_minutes: 10
weekly_blocks: "office,open,open"
weekly_ho_percent: 20
cache_backend: sqlite
cache_path: /tmp/cache.db
`)
	t.Setenv("STEP_MINUTES", "15")

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.Equal(t, "08:30", cfg.Workday().LatestArrival.String())
	assert.Equal(t, 15, cfg.Workday().StepMinutes)
	assert.Equal(t, BackendSqlite, cfg.CacheBackend)
	assert.True(t, cfg.Weekly())
	assert.Equal(t, domain.WeekBlocks{domain.ModeOffice, domain.ModeOpen, domain.ModeOpen, domain.ModeOpen, domain.ModeOpen}, cfg.Blocks())

	week := cfg.Week(cfg.WeekStart(time.Now()), true)
	assert.Equal(t, 20.0, week.HomeQuotaPercent)
	assert.Equal(t, "11:00", week.AfternoonWindowStart.String())
	assert.Equal(t, "13:30", week.AfternoonArrival.String())
	assert.True(t, week.Optimize)
}

func TestLoadJSONFile(t *testing.T) {
	path := writeFile(t, "planner.json", `{"EXTEND_TARGET_SAVE_MIN": 5.5, "LATE_PENALTY_AFTER": "18:00", "LATE_PENALTY_PER_MIN": 0.5}`)

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	ext := cfg.Extension()
	assert.Equal(t, 5.5, ext.TargetSaveMinutes)
	require.NotNil(t, ext.Penalty.After)
	assert.Equal(t, "18:00", ext.Penalty.After.String())
	assert.Equal(t, 0.5, ext.Penalty.PerMinute)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "planner.toml", "a = 1")
	_, err := Load(LoadOptions{File: path})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestSlotKeysTakePrecedence(t *testing.T) {
	t.Setenv("WEEKLY_BLOCKS", "OFFICE,OFFICE,OFFICE,OFFICE,OFFICE")
	t.Setenv("MO_AM", "home")
	t.Setenv("MO_PM", "office")
	t.Setenv("FR_AM", "off")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.True(t, cfg.Weekly())
	assert.Equal(t, domain.ModeHomeAM, cfg.Blocks()[0])
	assert.Equal(t, domain.ModeHomeFull, cfg.Blocks()[1])
	assert.Equal(t, domain.ModeOff, cfg.Blocks()[4])
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad clock", func(c *Config) { c.LatestArrival = "9am" }},
		{"bad optional clock", func(c *Config) { c.MaxLeave = "25:00" }},
		{"bad zone", func(c *Config) { c.TZ = "Mars/Olympus" }},
		{"inverted lunch", func(c *Config) { c.LunchMinMinutes = 60; c.LunchMaxMinutes = 30 }},
		{"zero step", func(c *Config) { c.StepMinutes = 0 }},
		{"negative budget", func(c *Config) { c.MaxCallsPerRun = -1 }},
		{"unknown backend", func(c *Config) { c.CacheBackend = "redis" }},
		{"postgres without dsn", func(c *Config) { c.CacheBackend = BackendPostgres }},
		{"unknown block", func(c *Config) { c.WeeklyBlocks = "OFFICE,BEACH" }},
		{"bad start date", func(c *Config) { c.WeeklyStartDate = "03/03/2025" }},
		{"unknown leave mode", func(c *Config) { c.GymLeaveMode = "never" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrConfig)
		})
	}
}

func TestDisabledCacheNeedsNoDSN(t *testing.T) {
	cfg := Defaults()
	cfg.CacheBackend = BackendPostgres
	cfg.CacheDisable = true
	assert.NoError(t, cfg.Validate())
}

func TestWeekStartAndDay(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	loc := cfg.Location()

	thursday := time.Date(2025, 3, 6, 15, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, loc), cfg.WeekStart(thursday))

	sunday := time.Date(2025, 3, 9, 15, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, loc), cfg.WeekStart(sunday))

	cfg.WeeklyStartDate = "2025-03-10"
	require.NoError(t, cfg.Validate())
	loc = cfg.Location()
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, loc), cfg.WeekStart(thursday))

	cfg.DayOffset = 1
	assert.True(t, time.Date(2025, 3, 7, 0, 0, 0, 0, loc).Equal(cfg.Day(thursday)))
}
