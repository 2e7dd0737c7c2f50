package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "cvoice"
	configType = "toml"
	envPrefix  = "CVOICE"

	defaultBaseDirName = ".claude-code-tools"

	registryFileName = "claude_instances.json"
	slotFileName     = "notification_request.json"
	modeFileName     = "config.json"
	daemonLockName   = "daemon.lock"
	logDirName       = "logs"
)

const (
	KeyBaseDir               = "paths.base_dir"
	KeyStaleness             = "registry.staleness"
	KeyLockTimeout           = "registry.lock_timeout"
	KeyLivenessMethod        = "liveness.method"
	KeyLivenessTimeout       = "liveness.timeout"
	KeyStageTimeout          = "router.stage_timeout"
	KeyFallbackTimeout       = "router.fallback_timeout"
	KeyDisplayLength         = "router.display_length"
	KeyPollInterval          = "daemon.poll_interval"
	KeyRatePerMinute         = "daemon.rate_per_minute"
	KeyReminderCheckInterval = "reminder.check_interval"
	KeySpeechCommand         = "speech.command"
	KeyLogLevel              = "log.level"
	KeyLogFormat             = "log.format"
)

const (
	LivenessMethodPS     = "ps"
	LivenessMethodSignal = "signal"
)

type Config struct {
	BaseDir               string
	Staleness             time.Duration
	LockTimeout           time.Duration
	LivenessMethod        string
	LivenessTimeout       time.Duration
	StageTimeout          time.Duration
	FallbackTimeout       time.Duration
	DisplayLength         int
	PollInterval          time.Duration
	RatePerMinute         int
	ReminderCheckInterval time.Duration
	SpeechCommand         string
	LogLevel              string
	LogFormat             string
}

func (c Config) RegistryPath() string   { return filepath.Join(c.BaseDir, registryFileName) }
func (c Config) SlotPath() string       { return filepath.Join(c.BaseDir, slotFileName) }
func (c Config) ModePath() string       { return filepath.Join(c.BaseDir, modeFileName) }
func (c Config) DaemonLockPath() string { return filepath.Join(c.BaseDir, daemonLockName) }
func (c Config) LogDir() string         { return filepath.Join(c.BaseDir, logDirName) }
func (c Config) FilePath() string       { return filepath.Join(c.BaseDir, configName+"."+configType) }

// DefaultBaseDir is ~/.claude-code-tools.
func DefaultBaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultBaseDirName), nil
}

func setDefaults(v *viper.Viper, baseDir string) {
	v.SetDefault(KeyBaseDir, baseDir)
	v.SetDefault(KeyStaleness, "30m")
	v.SetDefault(KeyLockTimeout, "500ms")
	v.SetDefault(KeyLivenessMethod, LivenessMethodPS)
	v.SetDefault(KeyLivenessTimeout, "2s")
	v.SetDefault(KeyStageTimeout, "2s")
	v.SetDefault(KeyFallbackTimeout, "15s")
	v.SetDefault(KeyDisplayLength, 100)
	v.SetDefault(KeyPollInterval, "1s")
	v.SetDefault(KeyRatePerMinute, 30)
	v.SetDefault(KeyReminderCheckInterval, "1m")
	v.SetDefault(KeySpeechCommand, "auto")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// Load resolves configuration from defaults, <base>/cvoice.toml and CVOICE_*
// environment variables, in increasing precedence.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	baseDir, err := DefaultBaseDir()
	if err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, baseDir)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(v.GetString(KeyBaseDir))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		BaseDir:               v.GetString(KeyBaseDir),
		Staleness:             v.GetDuration(KeyStaleness),
		LockTimeout:           v.GetDuration(KeyLockTimeout),
		LivenessMethod:        strings.ToLower(strings.TrimSpace(v.GetString(KeyLivenessMethod))),
		LivenessTimeout:       v.GetDuration(KeyLivenessTimeout),
		StageTimeout:          v.GetDuration(KeyStageTimeout),
		FallbackTimeout:       v.GetDuration(KeyFallbackTimeout),
		DisplayLength:         v.GetInt(KeyDisplayLength),
		PollInterval:          v.GetDuration(KeyPollInterval),
		RatePerMinute:         v.GetInt(KeyRatePerMinute),
		ReminderCheckInterval: v.GetDuration(KeyReminderCheckInterval),
		SpeechCommand:         strings.TrimSpace(v.GetString(KeySpeechCommand)),
		LogLevel:              v.GetString(KeyLogLevel),
		LogFormat:             v.GetString(KeyLogFormat),
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return errors.New("base directory is empty")
	}
	absDir, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return fmt.Errorf("resolve base directory: %w", err)
	}
	c.BaseDir = filepath.Clean(absDir)

	switch c.LivenessMethod {
	case LivenessMethodPS, LivenessMethodSignal:
	default:
		return fmt.Errorf("liveness method: unsupported value %q", c.LivenessMethod)
	}

	if c.Staleness <= 0 {
		return fmt.Errorf("registry staleness must be positive, got %s", c.Staleness)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("daemon poll interval must be positive, got %s", c.PollInterval)
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 30
	}
	if c.ReminderCheckInterval <= 0 {
		c.ReminderCheckInterval = time.Minute
	}

	return nil
}
