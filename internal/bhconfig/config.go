// Package bhconfig loads betterhist's YAML configuration file, grounded
// on the teacher's internal/config.Load/LoadFrom: a missing file is not
// an error, and every field has a documented default.
package bhconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds betterhist's tunables, loaded from
// ~/.betterhist/config.yaml.
type Config struct {
	// HistoryName identifies this shell's history over the HTTP API; if
	// empty, both the session and the `get` command use "history".
	HistoryName string `yaml:"history_name"`
	// SearchDefaultLimit bounds how many results a search returns when
	// the caller doesn't specify one.
	SearchDefaultLimit int `yaml:"search_default_limit"`
	// IdleTickMS is the interval, in milliseconds, at which the proxy
	// loop polls for a silent foreground-process-group change.
	IdleTickMS int `yaml:"idle_tick_ms"`
	// ReadChunkBytes is loaded from the file but not consulted: the proxy
	// reads stdin and the PTY master in fixed 4096-byte chunks.
	ReadChunkBytes int `yaml:"read_chunk_bytes"`
	// RenderWorkers bounds concurrent VT-rendering workers.
	RenderWorkers int `yaml:"render_workers"`
	// DumpOnExit, when true, prints a Markdown-rendered dump of the
	// session's captured commands to stderr when the shell exits.
	DumpOnExit bool `yaml:"dump_on_exit"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		HistoryName:        "",
		SearchDefaultLimit: 10,
		IdleTickMS:         100,
		ReadChunkBytes:     4096,
		RenderWorkers:      4,
		DumpOnExit:         false,
	}
}

// DefaultPath returns ~/.betterhist/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".betterhist", "config.yaml"), nil
}

// Load reads the config file at DefaultPath. A missing file is not an
// error: Default() is returned instead.
func Load() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path, merging it over Default(). A
// missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
