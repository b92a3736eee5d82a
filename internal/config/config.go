package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envProfileFile        = "NLS_PROFILE_FILE"
	envConfigMode         = "NLS_CONFIG_MODE"
	envSettleWindow       = "NLS_SETTLE_WINDOW"
	envApplyAttempts      = "NLS_APPLY_ATTEMPTS"
	envApplyRetryDelay    = "NLS_APPLY_RETRY_DELAY"
	envCommandTimeout     = "NLS_COMMAND_TIMEOUT"
	envResubscribeInitial = "NLS_RESUBSCRIBE_INITIAL"
	envResubscribeMax     = "NLS_RESUBSCRIBE_MAX"
	envWatchMode          = "NLS_WATCH_MODE"
	envPollInterval       = "NLS_POLL_INTERVAL"
	envApplyCommand       = "NLS_APPLY_COMMAND"
	envCurrentCommand     = "NLS_CURRENT_COMMAND"
	envLogLevel           = "NLS_LOG_LEVEL"
	envLogFile            = "NLS_LOG_FILE"
	envStatePath          = "NLS_STATE_PATH"
	envHealthPort         = "NLS_HEALTH_PORT"
	envMetricsPort        = "NLS_METRICS_PORT"
	envSlackWebhookURL    = "NLS_SLACK_WEBHOOK_URL"
	envWebhookURL         = "NLS_WEBHOOK_URL"
	envWebhookTemplate    = "NLS_WEBHOOK_TEMPLATE"
	envDesktopNotify      = "NLS_DESKTOP_NOTIFY"
	envDryRun             = "NLS_DRY_RUN"
)

const (
	defaultSettleWindow       = 2 * time.Second
	defaultApplyAttempts      = 3
	defaultApplyRetryDelay    = 1 * time.Second
	defaultCommandTimeout     = 10 * time.Second
	defaultResubscribeInitial = 1 * time.Second
	defaultResubscribeMax     = 1 * time.Minute
	defaultPollInterval       = 5 * time.Second
	defaultLogLevel           = "info"
)

// WatchMode selects how network change notifications are obtained.
type WatchMode string

const (
	WatchAuto    WatchMode = "auto"
	WatchCommand WatchMode = "command"
	WatchPoll    WatchMode = "poll"
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	ProfileFile        string
	Mode               Mode
	SettleWindow       time.Duration
	ApplyAttempts      int
	ApplyRetryDelay    time.Duration
	CommandTimeout     time.Duration
	ResubscribeInitial time.Duration
	ResubscribeMax     time.Duration
	WatchMode          WatchMode
	PollInterval       time.Duration
	ApplyCommand       string
	CurrentCommand     string
	LogLevel           string
	LogFile            string
	StatePath          string
	HealthPort         int
	MetricsPort        int
	SlackWebhookURL    string
	WebhookURL         string
	WebhookTemplate    string
	DesktopNotify      bool
	DryRun             bool
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:               ModeAuto,
		SettleWindow:       defaultSettleWindow,
		ApplyAttempts:      defaultApplyAttempts,
		ApplyRetryDelay:    defaultApplyRetryDelay,
		CommandTimeout:     defaultCommandTimeout,
		ResubscribeInitial: defaultResubscribeInitial,
		ResubscribeMax:     defaultResubscribeMax,
		WatchMode:          WatchAuto,
		PollInterval:       defaultPollInterval,
		LogLevel:           defaultLogLevel,
	}

	if value, ok := lookupTrimmed(envProfileFile); ok {
		cfg.ProfileFile = value
	}

	if value, ok := lookupTrimmed(envConfigMode); ok && value != "" {
		mode, err := ParseMode(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envConfigMode, err)
		}
		cfg.Mode = mode
	}

	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{envSettleWindow, &cfg.SettleWindow, false},
		{envApplyRetryDelay, &cfg.ApplyRetryDelay, true},
		{envCommandTimeout, &cfg.CommandTimeout, false},
		{envResubscribeInitial, &cfg.ResubscribeInitial, false},
		{envResubscribeMax, &cfg.ResubscribeMax, false},
		{envPollInterval, &cfg.PollInterval, false},
	}
	for _, d := range durations {
		if err := parseDurationInto(d.key, d.dst, d.allowZero); err != nil {
			return Config{}, err
		}
	}

	if cfg.ResubscribeMax < cfg.ResubscribeInitial {
		return Config{}, fmt.Errorf("%s must not be less than %s", envResubscribeMax, envResubscribeInitial)
	}

	if value, ok := lookupTrimmed(envApplyAttempts); ok && value != "" {
		attempts, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envApplyAttempts, err)
		}
		if attempts < 1 {
			return Config{}, fmt.Errorf("%s must be at least 1", envApplyAttempts)
		}
		cfg.ApplyAttempts = attempts
	}

	if value, ok := lookupTrimmed(envWatchMode); ok && value != "" {
		switch WatchMode(strings.ToLower(value)) {
		case WatchAuto, WatchCommand, WatchPoll:
			cfg.WatchMode = WatchMode(strings.ToLower(value))
		default:
			return Config{}, fmt.Errorf("invalid %s: %q", envWatchMode, value)
		}
	}

	if value, ok := lookupTrimmed(envApplyCommand); ok {
		cfg.ApplyCommand = value
	}
	if value, ok := lookupTrimmed(envCurrentCommand); ok {
		cfg.CurrentCommand = value
	}
	if (cfg.ApplyCommand == "") != (cfg.CurrentCommand == "") {
		return Config{}, fmt.Errorf("%s and %s must be set together", envApplyCommand, envCurrentCommand)
	}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = value
	}
	if value, ok := lookupTrimmed(envLogFile); ok {
		cfg.LogFile = value
	}
	if value, ok := lookupTrimmed(envStatePath); ok {
		cfg.StatePath = value
	}

	var err error
	if cfg.HealthPort, err = parsePort(envHealthPort); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = parsePort(envMetricsPort); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envSlackWebhookURL); ok && value != "" {
		if err := validateURL(value, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookURL); ok && value != "" {
		if err := validateURL(value, envWebhookURL); err != nil {
			return Config{}, err
		}
		cfg.WebhookURL = value
	}
	if value, ok := os.LookupEnv(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}

	if cfg.DesktopNotify, err = parseBool(envDesktopNotify); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = parseBool(envDryRun); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func parseDurationInto(key string, dst *time.Duration, allowZero bool) error {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return fmt.Errorf("%s must be greater than zero", key)
	}
	*dst = d
	return nil
}

func parsePort(key string) (int, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s out of range: %d", key, port)
	}
	return port, nil
}

func parseBool(key string) (bool, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
