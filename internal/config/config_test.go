package config

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-walk/engine/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, navigation.SmoothingPerFrame, c.SmoothingMode())
	assert.Equal(t, time.Duration(0), c.ScanDelay())
	assert.Equal(t, 16.0, c.Navigation.Speed)
	assert.Equal(t, 1.0, c.Collision.Margin)
	assert.Empty(t, c.Viewer.LightmapPath)
	assert.Equal(t, 1.0, c.Viewer.LightmapIntensity)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Viewer.Width = 0 }},
		{"bad log level", func(c *Config) { c.Viewer.LogLevel = "verbose" }},
		{"negative lightmap intensity", func(c *Config) { c.Viewer.LightmapIntensity = -0.5 }},
		{"negative frame limit", func(c *Config) { c.Viewer.FrameLimit = -1 }},
		{"zero speed", func(c *Config) { c.Navigation.Speed = 0 }},
		{"zero look sensitivity", func(c *Config) { c.Navigation.LookSensitivity = 0 }},
		{"zero exponent", func(c *Config) { c.Navigation.JoystickExponent = 0 }},
		{"full deadzone", func(c *Config) { c.Navigation.JoystickDeadzone = 1 }},
		{"smoothing above one", func(c *Config) { c.Navigation.SmoothingFactor = 1.5 }},
		{"zero damping", func(c *Config) { c.Navigation.DampingFactor = 0 }},
		{"no damping", func(c *Config) { c.Navigation.DampingFactor = 1 }},
		{"zero reference rate", func(c *Config) { c.Navigation.ReferenceFrameRate = 0 }},
		{"unknown smoothing", func(c *Config) { c.Navigation.Smoothing = "spring" }},
		{"zero margin", func(c *Config) { c.Collision.Margin = 0 }},
		{"negative min move", func(c *Config) { c.Collision.MinMoveDistance = -0.1 }},
		{"zero leaf size", func(c *Config) { c.Collision.LeafSize = 0 }},
		{"negative workers", func(c *Config) { c.Collision.Workers = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestTimeSmoothingAndScanDelay(t *testing.T) {
	c := DefaultConfig()
	c.Navigation.Smoothing = "time"
	c.Collision.ScanDelayMillis = 500
	require.NoError(t, c.Validate())
	assert.Equal(t, navigation.SmoothingTimeScaled, c.SmoothingMode())
	assert.Equal(t, 500*time.Millisecond, c.ScanDelay())
}

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walkthrough.toml")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walkthrough.toml")
	_, err := Load(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	smoothing := regexp.MustCompile(`(?m)^\s*Smoothing\s*=\s*['"]frame['"]`)
	require.True(t, smoothing.Match(data))

	broken := smoothing.ReplaceAll(data, []byte(`Smoothing = "spring"`))
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	_, err = Load(path)
	assert.ErrorIs(t, err, navigation.ErrUnknownSmoothingMode)
}
