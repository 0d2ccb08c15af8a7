// Package config loads the walkthrough viewer configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-walk/engine/input"
	"github.com/Carmen-Shannon/oxy-walk/engine/navigation"
	"github.com/Carmen-Shannon/oxy-walk/internal/logging"
	"github.com/restartfu/gophig"
)

// DefaultPath is where the binary looks for its config when -config is not given.
const DefaultPath = "./walkthrough.toml"

// Config holds the viewer, navigation and collision settings.
type Config struct {
	Viewer struct {
		Title             string
		Width             int
		Height            int
		ModelPath         string
		LightmapPath      string // HDR or EXR; empty renders without baked light
		LightmapIntensity float64
		LogLevel          string // Can be "debug", "info", "warn", "error"
		FrameLimit        float64
		VSync             bool
		MSAA              bool
		ProfilerEnabled   bool
	}
	Navigation struct {
		Speed                float64
		EyeHeight            float64
		LookSensitivity      float64
		TouchLookSensitivity float64
		JoystickExponent     float64
		JoystickDeadzone     float64
		GamepadLookSpeed     float64 // radians per second at full right-stick deflection
		Smoothing            string  // "frame" or "time"
		SmoothingFactor      float64
		DampingFactor        float64
		ReferenceFrameRate   float64
		StartX               float64
		StartY               float64
		StartZ               float64
	}
	Collision struct {
		Margin          float64
		MinMoveDistance float64
		BackfaceCulling bool
		LeafSize        int
		Workers         int // 0 picks from the CPU count
		ScanDelayMillis int
	}
}

// DefaultConfig returns a config with prefilled default values.
func DefaultConfig() Config {
	c := Config{}

	c.Viewer.Title = "oxy-walk"
	c.Viewer.Width = 1280
	c.Viewer.Height = 720
	c.Viewer.ModelPath = "assets/building.glb"
	c.Viewer.LightmapIntensity = 1.0
	c.Viewer.LogLevel = "info"
	c.Viewer.VSync = true
	c.Viewer.MSAA = true

	c.Navigation.Speed = 16
	c.Navigation.EyeHeight = 6
	c.Navigation.LookSensitivity = input.DefaultLookSensitivity
	c.Navigation.TouchLookSensitivity = input.DefaultTouchLookSensitivity
	c.Navigation.JoystickExponent = input.DefaultJoystickExponent
	c.Navigation.JoystickDeadzone = 0.15
	c.Navigation.GamepadLookSpeed = 2.5
	c.Navigation.Smoothing = navigation.SmoothingPerFrame.String()
	c.Navigation.SmoothingFactor = 0.15
	c.Navigation.DampingFactor = 0.9
	c.Navigation.ReferenceFrameRate = 60
	c.Navigation.StartX = 0
	c.Navigation.StartY = 5
	c.Navigation.StartZ = 5

	c.Collision.Margin = 1.0
	c.Collision.MinMoveDistance = 0.01
	c.Collision.LeafSize = 8
	c.Collision.Workers = 0
	c.Collision.ScanDelayMillis = 0

	return c
}

// Validate reports the first setting that the viewer cannot run with.
func (c Config) Validate() error {
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	if _, err := logging.ParseLogLevel(c.Viewer.LogLevel); err != nil {
		return err
	}
	if c.Viewer.LightmapIntensity < 0 {
		return fmt.Errorf("lightmap intensity must not be negative, got %v", c.Viewer.LightmapIntensity)
	}
	if c.Viewer.FrameLimit < 0 {
		return fmt.Errorf("frame limit must not be negative, got %v", c.Viewer.FrameLimit)
	}

	n := c.Navigation
	if n.Speed <= 0 {
		return fmt.Errorf("navigation speed must be positive, got %v", n.Speed)
	}
	if n.LookSensitivity <= 0 || n.TouchLookSensitivity <= 0 {
		return errors.New("look sensitivities must be positive")
	}
	if n.JoystickExponent <= 0 {
		return fmt.Errorf("joystick exponent must be positive, got %v", n.JoystickExponent)
	}
	if n.JoystickDeadzone < 0 || n.JoystickDeadzone >= 1 {
		return fmt.Errorf("joystick deadzone must be in [0, 1), got %v", n.JoystickDeadzone)
	}
	if !unitFactor(n.SmoothingFactor) {
		return fmt.Errorf("smoothing factor must be in (0, 1], got %v", n.SmoothingFactor)
	}
	if n.DampingFactor <= 0 || n.DampingFactor >= 1 {
		return fmt.Errorf("damping factor must be in (0, 1), got %v", n.DampingFactor)
	}
	if n.ReferenceFrameRate <= 0 {
		return fmt.Errorf("reference frame rate must be positive, got %v", n.ReferenceFrameRate)
	}
	if _, err := navigation.ParseSmoothingMode(n.Smoothing); err != nil {
		return err
	}

	col := c.Collision
	if col.Margin <= 0 {
		return fmt.Errorf("collision margin must be positive, got %v", col.Margin)
	}
	if col.MinMoveDistance < 0 {
		return fmt.Errorf("minimum move distance must not be negative, got %v", col.MinMoveDistance)
	}
	if col.LeafSize <= 0 {
		return fmt.Errorf("leaf size must be positive, got %d", col.LeafSize)
	}
	if col.Workers < 0 || col.ScanDelayMillis < 0 {
		return errors.New("collision workers and scan delay must not be negative")
	}
	return nil
}

func unitFactor(f float64) bool {
	return f > 0 && f <= 1
}

// SmoothingMode returns the parsed navigation smoothing mode.
func (c Config) SmoothingMode() navigation.SmoothingMode {
	mode, _ := navigation.ParseSmoothingMode(c.Navigation.Smoothing)
	return mode
}

// ScanDelay returns the collision scan delay as a duration.
func (c Config) ScanDelay() time.Duration {
	return time.Duration(c.Collision.ScanDelayMillis) * time.Millisecond
}

// Load reads the configuration at path. If the file doesn't exist, it is created with
// default values first. The loaded configuration is validated.
func Load(path string) (Config, error) {
	g := gophig.NewGophig[Config](path, gophig.TOMLMarshaler{}, os.ModePerm)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := g.SaveConf(DefaultConfig()); err != nil {
			return Config{}, fmt.Errorf("write default config: %w", err)
		}
	}
	c, err := g.LoadConf()
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}
