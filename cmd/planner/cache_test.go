package main

import (
	"bytes"
	"commute-planner/internal/domain"
	"commute-planner/internal/report"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TZ", "Europe/Zurich")
	t.Setenv("LOG_LEVEL", "error")

	// flag values survive between executions of the shared root command
	cfgFile, envFile, outputFlag = "", "", "text"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCacheImportAndStats(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("CACHE_PATH", filepath.Join(dir, "cache.db"))

	now := time.Now()
	payload, err := json.Marshal(map[string]domain.CacheEntry{
		"home||office||Europe/Zurich|2025-03-03 07:00": domain.NewCacheEntry(31, now),
		"home||office||Europe/Zurich|2025-03-03 07:05": domain.NewCacheEntry(33, now),
		"office||home||Europe/Zurich|2025-03-03 16:00": domain.NewCacheEntry(45, now),
	})
	require.NoError(t, err)
	src := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	out, err := execute(t, "cache", "import", src, "--output", "json")
	require.NoError(t, err)

	var res report.CacheStatsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "sqlite", res.Backend)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 3, res.Entries)

	out, err = execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Route duration cache")
	assert.Contains(t, out, "3")
}

func TestCacheStatsDisabled(t *testing.T) {
	t.Setenv("CACHE_DISABLE", "true")

	_, err := execute(t, "cache", "stats")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "cache", "stats", "--output", "xml")
	assert.ErrorIs(t, err, domain.ErrConfig)
}
