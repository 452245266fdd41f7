// Package config reads the gltfdump TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// EnvPath names the environment variable holding the default config path.
const EnvPath = "GLTFDUMP_CONFIG"

// Config holds the tunables of the loader and the command line tool.
type Config struct {
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`

	// AllowDataURI enables base64 data URI buffers.
	AllowDataURI bool `toml:"allow_data_uri"`

	// Workers is the LoadAll pool size.
	Workers int `toml:"workers"`

	Watch WatchConfig `toml:"watch"`
}

// WatchConfig configures file watching.
type WatchConfig struct {
	// DebounceMS is how long to wait for file events to settle, in milliseconds.
	DebounceMS int `toml:"debounce_ms"`
}

// Debounce returns the debounce interval as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:     "warn",
		AllowDataURI: true,
		Workers:      4,
		Watch:        WatchConfig{DebounceMS: 100},
	}
}

// Load reads the configuration at path on top of Default. An empty path
// yields the defaults.
//
// Parameters:
//   - path: the TOML file, or ""
//
// Returns:
//   - Config: the merged configuration
//   - error: ErrIO if the file cannot be read, ErrSchema if it is malformed,
//     has unknown keys, or holds invalid values
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, &common.Error{Kind: common.ErrIO, Index: -1, Name: path, Err: err}
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		var ce *common.Error
		if errors.As(err, &ce) {
			ce.Name = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML from r on top of Default. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the merged configuration
//   - error: ErrSchema if the source is malformed or invalid
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, &common.Error{Kind: common.ErrSchema, Entity: "config", Index: -1, Err: fmt.Errorf("unknown keys:\n%s", strict.String())}
		}
		return Config{}, &common.Error{Kind: common.ErrSchema, Entity: "config", Index: -1, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return &common.Error{Kind: common.ErrSchema, Entity: "config", Index: -1, Name: "log_level", Err: err}
	}
	if c.Workers < 1 {
		return common.Errorf(common.ErrSchema, "config", -1, "workers %d must be at least 1", c.Workers)
	}
	if c.Watch.DebounceMS < 0 {
		return common.Errorf(common.ErrSchema, "config", -1, "watch.debounce_ms %d must not be negative", c.Watch.DebounceMS)
	}
	return nil
}
