package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/ratmaze/internal/logging"
	"github.com/aretw0/ratmaze/pkg/config"
)

// Overrides are command-line values that win over the config file. Nil means unset.
type Overrides struct {
	Rows     *int
	Cols     *int
	Speed    *int
	Density  *float64
	Seed     *int64
	LogLevel *string
}

// LoadConfig reads path and applies the overrides. An empty path uses the default file
// if present.
func LoadConfig(path string, o Overrides) (config.Config, error) {
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	dims := o.Rows != nil || o.Cols != nil
	if o.Rows != nil {
		cfg.Rows = *o.Rows
	}
	if o.Cols != nil {
		cfg.Cols = *o.Cols
	}
	if dims {
		// Explicit dimensions replace a layout from the file.
		cfg.Walls = nil
	}
	if o.Speed != nil {
		cfg.Speed = *o.Speed
	}
	if o.Density != nil {
		cfg.Density = *o.Density
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.LogLevel != nil {
		cfg.Log.Level = *o.LogLevel
	}
	return cfg, cfg.Validate()
}

// createLogger configures the application logger on w (Stderr in the commands).
func createLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, logging.Format(cfg.Format)), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
