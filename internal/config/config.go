// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Number engines.
const (
	EngineKNN       = "knn"
	EngineTesseract = "tesseract"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080". Empty disables HTTP.
	Addr string `koanf:"addr"`

	// FramesDir holds the captured frames to replay.
	FramesDir string `koanf:"frames_dir"`

	// FrameIntervalMS spaces frames whose file names carry no timestamp.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// Realtime paces the replay by the frame timestamps.
	Realtime bool `koanf:"realtime"`

	// TemplatePath is the reference result screen used to build the
	// presence masks.
	TemplatePath string `koanf:"template_path"`

	// NumberSamplesDir and GearPowerSamplesDir hold labelled training
	// images, one sub-directory per label.
	NumberSamplesDir    string `koanf:"number_samples_dir"`
	GearPowerSamplesDir string `koanf:"gearpower_samples_dir"`

	// NumberEngine selects the digit reader: knn or tesseract.
	NumberEngine string `koanf:"number_engine"`

	// ChatterWindowMS and ReentryGuardMS tune the scene debounce.
	ChatterWindowMS int `koanf:"chatter_window_ms"`
	ReentryGuardMS  int `koanf:"reentry_guard_ms"`

	// OffsetX and OffsetY seed the calibration offset.
	OffsetX int `koanf:"offset_x"`
	OffsetY int `koanf:"offset_y"`

	// QueueSize bounds the notification queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the delivered-id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the result store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath locates the database when StoreDriver is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// StoreCapacity bounds the memory store.
	StoreCapacity int `koanf:"store_capacity"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		FrameIntervalMS: 100,
		NumberEngine:    EngineKNN,
		ChatterWindowMS: 1000,
		ReentryGuardMS:  30000,
		QueueSize:       1024,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      4096,
		StoreDriver:     StoreMemory,
		SQLitePath:      "gearscan.db",
		StoreCapacity:   1000,
	}
}

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q", c.LogLevel)
	}
	if c.FrameIntervalMS <= 0 {
		return invalid("frame_interval_ms must be positive")
	}
	if c.ChatterWindowMS < 0 || c.ReentryGuardMS < 0 {
		return invalid("debounce windows must not be negative")
	}
	if c.QueueSize <= 0 {
		return invalid("queue_size must be positive")
	}
	if c.WorkerCount <= 0 {
		return invalid("worker_count must be positive")
	}
	if c.DedupeSize < 0 {
		return invalid("dedupe_size must not be negative")
	}
	switch c.NumberEngine {
	case EngineKNN, EngineTesseract:
	default:
		return invalid("number_engine %q", c.NumberEngine)
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return invalid("sqlite_path must not be empty")
		}
	default:
		return invalid("store_driver %q", c.StoreDriver)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
