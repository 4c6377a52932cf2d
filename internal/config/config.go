// Package config loads planner settings from a .env file, an optional
// YAML/JSON file and the process environment.
package config

import (
	"commute-planner/internal/adapters/cache"
	"commute-planner/internal/adapters/routes"
	"commute-planner/internal/domain"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/services"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	BackendFile     = "file"
	BackendSqlite   = "sqlite"
	BackendPostgres = "postgres"
)

const DefaultEnvFile = ".env"

// Config mirrors the flat keys of the .env file. Keys in a config file match
// case-insensitively, so both LATEST_ARRIVAL_LOCAL and latest_arrival_local work.
type Config struct {
	APIKey               string `json:"GOOGLE_MAPS_API_KEY"`
	RoutesURL            string `json:"ROUTES_URL"`
	OracleTimeoutSeconds int    `json:"ORACLE_TIMEOUT_SECONDS"`
	OracleMaxAttempts    int    `json:"ORACLE_MAX_ATTEMPTS"`

	OriginAddress      string `json:"ORIGIN_ADDRESS"`
	DestinationAddress string `json:"DESTINATION_ADDRESS"`
	TZ                 string `json:"TZ"`

	LatestArrival        string  `json:"LATEST_ARRIVAL_LOCAL"`
	MorningWindowStart   string  `json:"MORNING_WINDOW_START_LOCAL"`
	AfternoonArrival     string  `json:"AFTERNOON_ARRIVAL_LOCAL"`
	AfternoonWindowStart string  `json:"AFTERNOON_WINDOW_START_LOCAL"`
	WorkHours            float64 `json:"WORK_HOURS"`
	LunchMinMinutes      int     `json:"LUNCH_MIN_MINUTES"`
	LunchMaxMinutes      int     `json:"LUNCH_MAX_MINUTES"`
	LunchStepMinutes     int     `json:"LUNCH_STEP_MINUTES"`
	PersonalBreakMinutes int     `json:"PERSONAL_BREAK_MINUTES"`
	StepMinutes          int     `json:"STEP_MINUTES"`
	DayOffset            int     `json:"DAY_OFFSET"`

	ExtendStepMinutes  int     `json:"EXTEND_STEP_MINUTES"`
	ExtendWorseSteps   int     `json:"EXTEND_WORSE_STEPS"`
	ExtendLatest       string  `json:"EXTEND_LATEST_LOCAL"`
	ExtendTargetSave   float64 `json:"EXTEND_TARGET_SAVE_MIN"`
	MaxLeave           string  `json:"MAX_LEAVE_LOCAL"`
	FridayLatest       string  `json:"FRIDAY_LATEST_LOCAL"`
	LatePenaltyAfter   string  `json:"LATE_PENALTY_AFTER"`
	LatePenaltyPerMin  float64 `json:"LATE_PENALTY_PER_MIN"`
	OptimizeHorizonMin int     `json:"OPTIMIZE_HORIZON_MINUTES"`

	WeeklyBlocks    string  `json:"WEEKLY_BLOCKS"`
	WeeklyStartDate string  `json:"WEEKLY_START_DATE"`
	WeeklyHOPercent float64 `json:"WEEKLY_HO_PERCENT"`
	MoAM            string  `json:"MO_AM"`
	MoPM            string  `json:"MO_PM"`
	TuAM            string  `json:"TU_AM"`
	TuPM            string  `json:"TU_PM"`
	WeAM            string  `json:"WE_AM"`
	WePM            string  `json:"WE_PM"`
	ThAM            string  `json:"TH_AM"`
	ThPM            string  `json:"TH_PM"`
	FrAM            string  `json:"FR_AM"`
	FrPM            string  `json:"FR_PM"`

	GymAddresses        string `json:"GYM_ADDRESSES"`
	GymTrainingMin      int    `json:"GYM_TRAINING_MIN"`
	GymTrainingMax      int    `json:"GYM_TRAINING_MAX"`
	GymTrainingStep     int    `json:"GYM_TRAINING_STEP"`
	GymLeaveMode        string `json:"GYM_LEAVE_MODE"`
	GymMaxCombos        int    `json:"GYM_MAX_COMBOS"`
	TimebankMinutes     int    `json:"TIMEBANK_MINUTES"`
	TimebankCap         int    `json:"TIMEBANK_CAP"`
	TimebankDailyMax    int    `json:"TIMEBANK_DAILY_MAX"`
	TimebankSpendStep   int    `json:"TIMEBANK_SPEND_STEP"`
	BudgetSoftReserve   int    `json:"BUDGET_SOFT_RESERVE"`
	MaxCallsPerRun      int    `json:"MAX_CALLS_PER_RUN"`
	CacheBackend        string `json:"CACHE_BACKEND"`
	CachePath           string `json:"CACHE_PATH"`
	CacheDSN            string `json:"CACHE_DSN"`
	CacheDisable        bool   `json:"CACHE_DISABLE"`
	CacheBucketMinutes  int    `json:"CACHE_BUCKET_MINUTES"`
	CacheTTLHours       int    `json:"CACHE_TTL_HOURS"`
	CacheMaxEntries     int    `json:"CACHE_MAX_ENTRIES"`
	LogLevel            string `json:"LOG_LEVEL"`
	LogFormat           string `json:"LOG_FORMAT"`
	MetricsTextfilePath string `json:"METRICS_TEXTFILE"`

	parsed parsed
}

// parsed holds the values Validate derives from the raw strings.
type parsed struct {
	loc                  *time.Location
	latestArrival        domain.ClockTime
	windowStart          domain.ClockTime
	afternoonArrival     domain.ClockTime
	afternoonWindowStart domain.ClockTime
	extendLatest         domain.ClockTime
	maxLeave             *domain.ClockTime
	fridayLatest         *domain.ClockTime
	penaltyAfter         *domain.ClockTime
	leaveMode            services.LeaveMode
	blocks               domain.WeekBlocks
	weekly               bool
	weekStart            *time.Time
	gyms                 []string
}

// Defaults returns a Config holding the documented default of every key.
func Defaults() Config {
	return Config{
		RoutesURL:            routes.DefaultURL,
		OracleTimeoutSeconds: 20,
		OracleMaxAttempts:    1,
		TZ:                   "Europe/Zurich",
		LatestArrival:        "09:00",
		MorningWindowStart:   "05:00",
		AfternoonArrival:     "13:30",
		AfternoonWindowStart: "11:00",
		WorkHours:            8.0,
		LunchMinMinutes:      30,
		LunchMaxMinutes:      60,
		LunchStepMinutes:     5,
		StepMinutes:          5,
		ExtendStepMinutes:    30,
		ExtendWorseSteps:     6,
		ExtendLatest:         "22:00",
		ExtendTargetSave:     10,
		OptimizeHorizonMin:   services.DefaultHorizonMinutes,
		GymTrainingMin:       60,
		GymTrainingMax:       90,
		GymTrainingStep:      15,
		GymLeaveMode:         string(services.LeaveEarly),
		GymMaxCombos:         60,
		TimebankCap:          600,
		TimebankSpendStep:    15,
		BudgetSoftReserve:    20,
		MaxCallsPerRun:       services.DefaultMaxCallsPerRun,
		CacheBackend:         BackendFile,
		CachePath:            ".pendel_cache.json",
		CacheBucketMinutes:   int(services.DefaultBucketWidth / time.Minute),
		CacheTTLHours:        24,
		CacheMaxEntries:      5000,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}

type LoadOptions struct {
	// EnvFile is loaded into the process environment first. A missing
	// DefaultEnvFile is ignored; any other missing file is an error.
	EnvFile string
	// File is an optional .yaml/.yml/.json file. Environment variables override it.
	File string
}

// Load reads every source, applies defaults and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || opts.EnvFile != "" && opts.EnvFile != DefaultEnvFile {
			return nil, fmt.Errorf("load config: env file %q: %w", envFile, err)
		}
		logger.New("config").Debugf("no %s file found (using environment variables)", envFile)
	}

	k := koanf.New(".")

	if opts.File != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(opts.File)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, domain.ConfigErrorf("unsupported config format %q", ext)
		}
		if err := k.Load(file.Provider(opts.File), parser); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	known := keys()
	if err := k.Load(env.Provider("", ".", func(s string) string {
		if _, ok := known[s]; ok {
			return s
		}
		return ""
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// keys lists every environment key the Config understands.
func keys() map[string]struct{} {
	out := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("json"); tag != "" {
			out[tag] = struct{}{}
		}
	}
	return out
}

// Validate parses the clock times, zone and week settings and checks ranges.
// It must succeed before any of the converter methods are used.
func (c *Config) Validate() error {
	var p parsed
	var err error

	if p.loc, err = time.LoadLocation(strings.TrimSpace(c.TZ)); err != nil {
		return domain.ConfigErrorf("TZ %q: %v", c.TZ, err)
	}

	clocks := []struct {
		key string
		raw string
		dst *domain.ClockTime
	}{
		{"LATEST_ARRIVAL_LOCAL", c.LatestArrival, &p.latestArrival},
		{"MORNING_WINDOW_START_LOCAL", c.MorningWindowStart, &p.windowStart},
		{"AFTERNOON_ARRIVAL_LOCAL", c.AfternoonArrival, &p.afternoonArrival},
		{"AFTERNOON_WINDOW_START_LOCAL", c.AfternoonWindowStart, &p.afternoonWindowStart},
		{"EXTEND_LATEST_LOCAL", c.ExtendLatest, &p.extendLatest},
	}
	for _, ck := range clocks {
		if *ck.dst, err = domain.ParseClockTime(ck.raw); err != nil {
			return fmt.Errorf("%s: %w", ck.key, err)
		}
	}

	optional := []struct {
		key string
		raw string
		dst **domain.ClockTime
	}{
		{"MAX_LEAVE_LOCAL", c.MaxLeave, &p.maxLeave},
		{"FRIDAY_LATEST_LOCAL", c.FridayLatest, &p.fridayLatest},
		{"LATE_PENALTY_AFTER", c.LatePenaltyAfter, &p.penaltyAfter},
	}
	for _, ck := range optional {
		if strings.TrimSpace(ck.raw) == "" {
			continue
		}
		ct, err := domain.ParseClockTime(ck.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", ck.key, err)
		}
		*ck.dst = &ct
	}

	if c.WorkHours < 0 {
		return domain.ConfigErrorf("WORK_HOURS must not be negative, got %v", c.WorkHours)
	}
	if c.LunchMinMinutes < 0 || c.LunchMaxMinutes < c.LunchMinMinutes {
		return domain.ConfigErrorf("lunch range %d..%d is invalid", c.LunchMinMinutes, c.LunchMaxMinutes)
	}
	if c.PersonalBreakMinutes < 0 {
		return domain.ConfigErrorf("PERSONAL_BREAK_MINUTES must not be negative, got %d", c.PersonalBreakMinutes)
	}

	positive := []struct {
		key string
		v   int
	}{
		{"STEP_MINUTES", c.StepMinutes},
		{"EXTEND_STEP_MINUTES", c.ExtendStepMinutes},
		{"EXTEND_WORSE_STEPS", c.ExtendWorseSteps},
		{"CACHE_BUCKET_MINUTES", c.CacheBucketMinutes},
		{"ORACLE_TIMEOUT_SECONDS", c.OracleTimeoutSeconds},
		{"ORACLE_MAX_ATTEMPTS", c.OracleMaxAttempts},
	}
	for _, pv := range positive {
		if pv.v <= 0 {
			return domain.ConfigErrorf("%s must be positive, got %d", pv.key, pv.v)
		}
	}

	nonNegative := []struct {
		key string
		v   int
	}{
		{"MAX_CALLS_PER_RUN", c.MaxCallsPerRun},
		{"BUDGET_SOFT_RESERVE", c.BudgetSoftReserve},
		{"OPTIMIZE_HORIZON_MINUTES", c.OptimizeHorizonMin},
		{"TIMEBANK_MINUTES", c.TimebankMinutes},
		{"TIMEBANK_CAP", c.TimebankCap},
		{"TIMEBANK_DAILY_MAX", c.TimebankDailyMax},
		{"CACHE_TTL_HOURS", c.CacheTTLHours},
		{"CACHE_MAX_ENTRIES", c.CacheMaxEntries},
		{"GYM_MAX_COMBOS", c.GymMaxCombos},
	}
	for _, nv := range nonNegative {
		if nv.v < 0 {
			return domain.ConfigErrorf("%s must not be negative, got %d", nv.key, nv.v)
		}
	}

	if c.LatePenaltyPerMin < 0 {
		return domain.ConfigErrorf("LATE_PENALTY_PER_MIN must not be negative, got %v", c.LatePenaltyPerMin)
	}

	if c.GymTrainingMin < 0 || c.GymTrainingMax < c.GymTrainingMin {
		return domain.ConfigErrorf("gym training range %d..%d is invalid", c.GymTrainingMin, c.GymTrainingMax)
	}
	if p.leaveMode, err = services.ParseLeaveMode(c.GymLeaveMode); err != nil {
		return err
	}
	for _, g := range strings.Split(c.GymAddresses, ";") {
		if g = strings.TrimSpace(g); g != "" {
			p.gyms = append(p.gyms, g)
		}
	}

	switch c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend)); c.CacheBackend {
	case BackendFile, BackendSqlite:
		if strings.TrimSpace(c.CachePath) == "" && !c.CacheDisable {
			return domain.ConfigErrorf("CACHE_PATH is required for the %s cache", c.CacheBackend)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.CacheDSN) == "" && !c.CacheDisable {
			return domain.ConfigErrorf("CACHE_DSN is required for the postgres cache")
		}
	default:
		return domain.ConfigErrorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	slots := c.slots()
	if blocks, ok := domain.BlocksFromSlots(func(key string) string { return slots[key] }); ok {
		p.blocks, p.weekly = blocks, true
	} else {
		if p.blocks, err = domain.ParseBlocks(c.WeeklyBlocks); err != nil {
			return fmt.Errorf("WEEKLY_BLOCKS: %w", err)
		}
		p.weekly = strings.TrimSpace(c.WeeklyBlocks) != ""
	}

	if s := strings.TrimSpace(c.WeeklyStartDate); s != "" {
		start, err := time.ParseInLocation("2006-01-02", s, p.loc)
		if err != nil {
			return domain.ConfigErrorf("WEEKLY_START_DATE %q: expected YYYY-MM-DD", s)
		}
		p.weekStart = &start
	}

	c.parsed = p
	return nil
}

func (c *Config) slots() map[string]string {
	return map[string]string{
		"MO_AM": c.MoAM, "MO_PM": c.MoPM,
		"TU_AM": c.TuAM, "TU_PM": c.TuPM,
		"WE_AM": c.WeAM, "WE_PM": c.WePM,
		"TH_AM": c.ThAM, "TH_PM": c.ThPM,
		"FR_AM": c.FrAM, "FR_PM": c.FrPM,
	}
}

// RequireAPIKey fails when the live oracle has no key configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return domain.ConfigErrorf("GOOGLE_MAPS_API_KEY is required and the Routes API must be enabled for the key")
	}
	return nil
}

func (c *Config) Location() *time.Location { return c.parsed.loc }

func (c *Config) Route() domain.Route {
	return domain.Route{Home: c.OriginAddress, Office: c.DestinationAddress}
}

// Weekly reports whether week blocks were configured, either as WEEKLY_BLOCKS
// or as half-day slot keys. Slot keys take precedence.
func (c *Config) Weekly() bool { return c.parsed.weekly }

func (c *Config) Blocks() domain.WeekBlocks { return c.parsed.blocks }

// Day is today shifted by DAY_OFFSET, at local midnight.
func (c *Config) Day(now time.Time) time.Time {
	today := domain.StartOfDay(now, c.parsed.loc)
	return time.Date(today.Year(), today.Month(), today.Day()+c.DayOffset, 0, 0, 0, 0, c.parsed.loc)
}

// WeekStart is WEEKLY_START_DATE when set, otherwise the Monday of now's week.
func (c *Config) WeekStart(now time.Time) time.Time {
	if c.parsed.weekStart != nil {
		return *c.parsed.weekStart
	}
	today := domain.StartOfDay(now, c.parsed.loc)
	back := (int(today.Weekday()) + 6) % 7
	return time.Date(today.Year(), today.Month(), today.Day()-back, 0, 0, 0, 0, c.parsed.loc)
}

func (c *Config) Workday() services.WorkdaySettings {
	return services.WorkdaySettings{
		WindowStart:          c.parsed.windowStart,
		LatestArrival:        c.parsed.latestArrival,
		StepMinutes:          c.StepMinutes,
		WorkMinutes:          c.workMinutes(),
		LunchMinMinutes:      c.LunchMinMinutes,
		LunchMaxMinutes:      c.LunchMaxMinutes,
		LunchStepMinutes:     c.LunchStepMinutes,
		PersonalBreakMinutes: c.PersonalBreakMinutes,
	}
}

func (c *Config) workMinutes() int {
	return int(math.Round(c.WorkHours * 60))
}

func (c *Config) Extension() services.ExtensionSettings {
	return services.ExtensionSettings{
		StepMinutes:       c.ExtendStepMinutes,
		WorseStreakLimit:  c.ExtendWorseSteps,
		TargetSaveMinutes: c.ExtendTargetSave,
		Latest:            c.parsed.extendLatest,
		MaxLeave:          c.parsed.maxLeave,
		FridayLatest:      c.parsed.fridayLatest,
		Penalty:           domain.LatePenalty{After: c.parsed.penaltyAfter, PerMinute: c.LatePenaltyPerMin},
	}
}

// Week builds the weekly allocation request starting at start.
func (c *Config) Week(start time.Time, optimize bool) services.WeekRequest {
	return services.WeekRequest{
		Start:                start,
		Blocks:               c.parsed.blocks,
		HomeQuotaPercent:     c.WeeklyHOPercent,
		Work:                 c.Workday(),
		AfternoonWindowStart: c.parsed.afternoonWindowStart,
		AfternoonArrival:     c.parsed.afternoonArrival,
		Optimize:             optimize,
		Extension:            c.Extension(),
		HorizonMinutes:       c.OptimizeHorizonMin,
	}
}

// Gym builds the gym search for a day whose office arrival and lunch are known.
func (c *Config) Gym(morningArrival time.Time, lunchMinutes int, bank *domain.Timebank) services.GymRequest {
	return services.GymRequest{
		MorningArrival:          morningArrival,
		WorkMinutes:             c.workMinutes(),
		LunchMinutes:            lunchMinutes,
		PersonalBreakMinutes:    c.PersonalBreakMinutes,
		AvailableBalanceMinutes: bank.Balance(),
		DailyMaxSpendMinutes:    c.TimebankDailyMax,
		SpendStepMinutes:        c.TimebankSpendStep,
		Locations:               c.parsed.gyms,
		TrainingMinMinutes:      c.GymTrainingMin,
		TrainingMaxMinutes:      c.GymTrainingMax,
		TrainingStepMinutes:     c.GymTrainingStep,
		LeaveMode:               c.parsed.leaveMode,
		MaxCombos:               c.GymMaxCombos,
		BudgetSoftReserve:       c.BudgetSoftReserve,
	}
}

func (c *Config) Timebank() *domain.Timebank {
	return domain.NewTimebank(c.TimebankMinutes, c.TimebankCap)
}

func (c *Config) BucketWidth() time.Duration {
	return time.Duration(c.CacheBucketMinutes) * time.Minute
}

func (c *Config) StoreOptions() cache.StoreOptions {
	return cache.StoreOptions{
		TTL:        time.Duration(c.CacheTTLHours) * time.Hour,
		MaxEntries: c.CacheMaxEntries,
	}
}

func (c *Config) OracleOptions(log logger.Logger) routes.Options {
	return routes.Options{
		URL:         c.RoutesURL,
		Timeout:     time.Duration(c.OracleTimeoutSeconds) * time.Second,
		MaxAttempts: c.OracleMaxAttempts,
		Logger:      log,
	}
}
