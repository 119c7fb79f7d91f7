package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/labrig/engine/core"
)

const (
	DefaultTargetFPS = 60
	DefaultMaxDelta  = 0.1
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Frames per second the loop aims for.
	TargetFPS int `toml:"target_fps"`
	// Upper bound for a frame delta, in seconds.
	MaxDelta float64 `toml:"max_delta"`
	// Directory of rig files. Empty means the rigs built into the binary.
	RigDir string `toml:"rig_dir"`
	// Reload rig files from RigDir when they change.
	WatchRigs bool `toml:"watch_rigs"`
	// Experience to start: hub, watch, shoe or flight.
	Experience string `toml:"experience"`
	// Stop after this many frames, 0 runs until cancelled.
	MaxFrames uint64 `toml:"max_frames"`
	// Feed the experience scripted input instead of waiting for a user.
	Demo           bool   `toml:"demo"`
	MaxCameraCount uint16 `toml:"max_camera_count"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "The Lab",
		LogLevel:       "info",
		TargetFPS:      DefaultTargetFPS,
		MaxDelta:       DefaultMaxDelta,
		Experience:     "hub",
		Demo:           true,
		MaxCameraCount: 16,
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. Keys that are
// absent keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseApplicationConfig(data)
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("application config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *ApplicationConfig) Validate() error {
	var errs []error
	if c.TargetFPS <= 0 {
		errs = append(errs, fmt.Errorf("target_fps must be > 0, got %d", c.TargetFPS))
	}
	if !(c.MaxDelta > 0) {
		errs = append(errs, fmt.Errorf("max_delta must be > 0, got %v", c.MaxDelta))
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.WatchRigs && c.RigDir == "" {
		errs = append(errs, errors.New("watch_rigs needs rig_dir"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to info.
func (c *ApplicationConfig) Level() core.LogLevel {
	l, err := core.ParseLogLevel(c.LogLevel)
	if err != nil {
		return core.InfoLevel
	}
	return l
}
