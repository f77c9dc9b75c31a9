package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

// EnrichmentConfig tunes the background task enrichment runner.
type EnrichmentConfig struct {
	// Enabled turns background enrichment on. New tasks are still usable
	// without it; they just keep their heuristic defaults.
	Enabled bool `yaml:"enabled"`

	// Workers is the number of concurrent scoring workers.
	Workers int `yaml:"workers"`

	// QueueSize bounds the pending enrichment queue.
	QueueSize int `yaml:"queue_size"`

	// RPS and Burst throttle calls to the scorer.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ErrandConfig tunes the errand demo planner.
type ErrandConfig struct {
	// PermutationLimit caps the travel-ordering batch size.
	PermutationLimit int `yaml:"permutation_limit"`

	// Suggestions is how many random suggestions the demo generates.
	Suggestions int `yaml:"suggestions"`

	// Seed makes the demo reproducible.
	Seed int64 `yaml:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone the day is planned in (e.g.
	// "Asia/Tokyo"). "Local" uses the system zone.
	Timezone string `yaml:"timezone"`

	// Boundaries delimit the plannable day; events outside them never
	// produce gaps.
	Boundaries model.DayBoundaries `yaml:",inline"`

	// DefaultSessionMin is the session length for tasks that carry none.
	DefaultSessionMin int `yaml:"default_session_min"`

	// ReplanCron is a cron-style schedule string (e.g. "*/10 * * * *")
	// used for periodic replanning.
	ReplanCron string `yaml:"replan"`

	// LogLevel is one of DEBUG, INFO, ERROR.
	LogLevel string `yaml:"log_level"`

	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Errand     ErrandConfig     `yaml:"errand"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:          "Local",
		Boundaries:        model.DefaultDayBoundaries(),
		DefaultSessionMin: 30,
		ReplanCron:        "*/10 * * * *",
		LogLevel:          "INFO",
		Enrichment: EnrichmentConfig{
			Enabled:   true,
			Workers:   2,
			QueueSize: 64,
			RPS:       1,
			Burst:     1,
		},
		Errand: ErrandConfig{
			PermutationLimit: 8,
			Suggestions:      8,
			Seed:             1,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly. It never rejects;
// Validate does that.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Boundaries.DayStart == "" {
		c.Boundaries.DayStart = def.Boundaries.DayStart
	}
	if c.Boundaries.DayEnd == "" {
		c.Boundaries.DayEnd = def.Boundaries.DayEnd
	}
	if c.DefaultSessionMin <= 0 {
		c.DefaultSessionMin = def.DefaultSessionMin
	}
	if c.ReplanCron == "" {
		c.ReplanCron = def.ReplanCron
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "ERROR":
		c.LogLevel = strings.ToUpper(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.Enrichment.Workers <= 0 {
		c.Enrichment.Workers = def.Enrichment.Workers
	}
	if c.Enrichment.QueueSize <= 0 {
		c.Enrichment.QueueSize = def.Enrichment.QueueSize
	}
	if c.Enrichment.RPS <= 0 {
		c.Enrichment.RPS = def.Enrichment.RPS
	}
	if c.Enrichment.Burst <= 0 {
		c.Enrichment.Burst = def.Enrichment.Burst
	}
	if c.Errand.PermutationLimit <= 0 {
		c.Errand.PermutationLimit = def.Errand.PermutationLimit
	}
	if c.Errand.Suggestions <= 0 {
		c.Errand.Suggestions = def.Errand.Suggestions
	}
	if c.Errand.Seed == 0 {
		c.Errand.Seed = def.Errand.Seed
	}
}

// Validate rejects configs that cannot be acted on: unknown timezones
// and inverted day boundaries. Callers keep their previous config when
// it fails.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if err := c.Boundaries.Validate(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".homepa-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
