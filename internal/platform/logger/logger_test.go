package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("debug", "json", &buf))
	t.Cleanup(func() { _ = Configure("info", "console", nil) })

	l := New("scanner")
	l.Infof("morning best %s", "07:05")
	l.Debugw("candidate", map[string]any{"dur": 42.0})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "scanner", rec["component"])
	assert.Equal(t, "morning best 07:05", rec["message"])
	assert.Equal(t, "info", rec["level"])
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Configure("warn", "json", &buf))
	t.Cleanup(func() { _ = Configure("info", "console", nil) })

	l := New("test")
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warnf("shown")
	l.Errorf("shown")

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestConfigureRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, Configure("info", "xml", nil))
	assert.Error(t, Configure("loud", "json", nil))
}
