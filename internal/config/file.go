package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

type fileSchema struct {
	Paths    pathsSchema    `toml:"paths"`
	Registry registrySchema `toml:"registry"`
	Liveness livenessSchema `toml:"liveness"`
	Router   routerSchema   `toml:"router"`
	Daemon   daemonSchema   `toml:"daemon"`
	Reminder reminderSchema `toml:"reminder"`
	Speech   speechSchema   `toml:"speech"`
	Log      logSchema      `toml:"log"`
}

type pathsSchema struct {
	BaseDir string `toml:"base_dir"`
}

type registrySchema struct {
	Staleness   string `toml:"staleness"`
	LockTimeout string `toml:"lock_timeout"`
}

type livenessSchema struct {
	Method  string `toml:"method"`
	Timeout string `toml:"timeout"`
}

type routerSchema struct {
	StageTimeout    string `toml:"stage_timeout"`
	FallbackTimeout string `toml:"fallback_timeout"`
	DisplayLength   int    `toml:"display_length"`
}

type daemonSchema struct {
	PollInterval  string `toml:"poll_interval"`
	RatePerMinute int    `toml:"rate_per_minute"`
}

type reminderSchema struct {
	CheckInterval string `toml:"check_interval"`
}

type speechSchema struct {
	Command string `toml:"command"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func toSchema(c Config) fileSchema {
	return fileSchema{
		Paths:    pathsSchema{BaseDir: c.BaseDir},
		Registry: registrySchema{Staleness: c.Staleness.String(), LockTimeout: c.LockTimeout.String()},
		Liveness: livenessSchema{Method: c.LivenessMethod, Timeout: c.LivenessTimeout.String()},
		Router: routerSchema{
			StageTimeout:    c.StageTimeout.String(),
			FallbackTimeout: c.FallbackTimeout.String(),
			DisplayLength:   c.DisplayLength,
		},
		Daemon:   daemonSchema{PollInterval: c.PollInterval.String(), RatePerMinute: c.RatePerMinute},
		Reminder: reminderSchema{CheckInterval: c.ReminderCheckInterval.String()},
		Speech:   speechSchema{Command: c.SpeechCommand},
		Log:      logSchema{Level: c.LogLevel, Format: c.LogFormat},
	}
}

// MarshalTOML renders the effective configuration in the cvoice.toml layout.
func (c Config) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(toSchema(c))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

var ErrConfigExists = errors.New("config file already exists")

// WriteFile stores c at c.FilePath(). An existing file is kept unless force is set.
func (c Config) WriteFile(force bool) (string, error) {
	path := c.FilePath()
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := c.MarshalTOML()
	if err != nil {
		return path, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return path, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return path, fmt.Errorf("write config file: %w", err)
	}

	return path, nil
}
