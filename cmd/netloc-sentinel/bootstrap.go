package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/logging"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/rs/zerolog"
)

// app holds everything loaded before any command does real work.
type app struct {
	cfg         config.Config
	logger      zerolog.Logger
	closer      io.Closer
	profilePath string
	profiles    *config.ProfileStore
	runner      sysexec.Runner
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flags.mode != "" {
		mode, err := config.ParseMode(flags.mode)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Mode = mode
	}
	if flags.configFile != "" {
		cfg.ProfileFile = flags.configFile
	}
	return cfg, nil
}

// discoverProfileFile locates the profile map for cfg.
func discoverProfileFile(cfg config.Config) (string, error) {
	path, err := config.DefaultSearchEnv().Discover(cfg.Mode, cfg.ProfileFile)
	if errors.Is(err, config.ErrProfileFileNotFound) {
		return "", fmt.Errorf("%w; run 'netloc-sentinel init-config' to create one", err)
	}
	return path, err
}

// bootstrap loads configuration, the profile map and the logger. The log file
// comes from NLS_LOG_FILE or, failing that, the profile map's log_file.
func bootstrap() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path, err := discoverProfileFile(cfg)
	if err != nil {
		return nil, err
	}
	profiles, warnings, err := config.OpenProfileStore(path)
	if err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = profiles.Current().LogFile
	}
	logger, closer, err := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, FilePath: logFile})
	if err != nil {
		// An unwritable log file is not fatal; stdout still works.
		logger = logging.NewWithLevel(cfg.LogLevel)
		logger.Warn().Err(err).Str("path", logFile).Msg("log file unavailable; logging to stdout only")
	}
	profiles.SetLogger(logger)
	for _, w := range warnings {
		logger.Warn().Str("path", path).Msg(w)
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		closer:      closer,
		profilePath: path,
		profiles:    profiles,
		runner:      sysexec.NewExecRunner(cfg.CommandTimeout),
	}, nil
}

func (a *app) platformOptions() platform.Options {
	return platform.Options{
		GOOS:           runtime.GOOS,
		Runner:         a.runner,
		ApplyCommand:   a.cfg.ApplyCommand,
		CurrentCommand: a.cfg.CurrentCommand,
		DryRun:         a.cfg.DryRun,
		WatchMode:      a.cfg.WatchMode,
		PollInterval:   a.cfg.PollInterval,
	}
}

func (a *app) Close() error {
	return a.closer.Close()
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
