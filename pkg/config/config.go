// Package config loads ratmaze settings from a YAML or JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "ratmaze.yaml"

// Config is the file representation of a maze session.
type Config struct {
	Rows    int      `mapstructure:"rows"`
	Cols    int      `mapstructure:"cols"`
	Speed   int      `mapstructure:"speed"`
	Density float64  `mapstructure:"density"`
	Seed    int64    `mapstructure:"seed"`
	Walls   []string `mapstructure:"walls"`

	Log   LogConfig   `mapstructure:"log"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	Redis RedisConfig `mapstructure:"redis"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig enables the shared run lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Rows:    domain.DefaultRows,
		Cols:    domain.DefaultCols,
		Speed:   pacing.DefaultSpeed,
		Density: domain.DefaultDensity,
		Log:     LogConfig{Level: "info", Format: "text"},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Redis:   RedisConfig{Key: "default"},
	}
}

// Load reads path and overlays it on Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode overlays raw onto cfg. Scalars are weakly typed, so "5" and 5 both work,
// and durations accept strings such as "30s".
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks ranges. When Walls is set it defines the grid size.
func (c *Config) Validate() error {
	if len(c.Walls) > 0 {
		g, err := domain.ParseGrid(c.Walls)
		if err != nil {
			return err
		}
		c.Rows, c.Cols = g.Rows(), g.Cols()
	}
	if c.Rows < domain.MinDimension || c.Cols < domain.MinDimension {
		return fmt.Errorf("%w: %dx%d (minimum %d)", domain.ErrInvalidDimensions, c.Rows, c.Cols, domain.MinDimension)
	}
	if _, err := pacing.DelayForSpeed(c.Speed); err != nil {
		return err
	}
	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("%w: %v (want 0-1)", domain.ErrInvalidDensity, c.Density)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Grid builds the configured grid: the ASCII walls if present, an open grid otherwise.
func (c Config) Grid() (*domain.Grid, error) {
	if len(c.Walls) > 0 {
		return domain.ParseGrid(c.Walls)
	}
	return domain.NewGrid(c.Rows, c.Cols)
}
