package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

const (
	EnvPrefix         = "FAST5SUMMARY"
	DefaultConfigName = "fast5-to-seq-summary"
)

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"fast5-dir":      "fast5Dir",
	"seq-summary-fn": "seqSummaryFn",
	"max-fast5":      "maxFast5",
	"threads":        "threads",
	"basecall-id":    "basecallId",
	"fields":         "fields",
	"include-path":   "includePath",
	"verbose-level":  "verboseLevel",
	"report-format":  "reportFormat",
	"sqlite":         "sqlite",
	"queue-size":     "queueSize",
}

// LoadAndValidate loads configuration from all sources (defaults, file, profile, env,
// flags), validates the merged configuration and sets up the logger. The returned
// Options still need an Opener and Hooks before they can be run.
func LoadAndValidate(cfgFile, profileName, appVersion string, flags *pflag.FlagSet) (seqsummary.Options, *slog.Logger, error) {
	var opts seqsummary.Options
	v := viper.New()

	// Initialize a temporary basic logger for early loading errors
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
			v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
		} else {
			tempLogger.Debug("Cannot resolve home directory, skipping user config locations", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			configFileUsed := cfgFile
			if configFileUsed == "" {
				configFileUsed = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", configFileUsed), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("%w: error reading config file '%s': %w", seqsummary.ErrConfigValidation, configFileUsed, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
	}

	// --- Apply Profile ---
	opts.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		if !v.IsSet(profileKey) {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			err := fmt.Errorf("%w: profile '%s' not found in config file '%s'", seqsummary.ErrConfigValidation, profileName, configPath)
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		profileSettings := v.Sub(profileKey)
		if profileSettings == nil {
			return opts, tempLogger, fmt.Errorf("failed to load profile '%s' settings from config file '%s'", profileName, v.ConfigFileUsed())
		}
		if err := v.MergeConfigMap(profileSettings.AllSettings()); err != nil {
			tempLogger.Error("Error merging profile", slog.String("profile", profileName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
	}

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", name))
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", name, err)
		}
	}

	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, fmt.Errorf("%w: error unmarshalling configuration: %w", seqsummary.ErrConfigValidation, err)
	}

	if flags.Changed("no-tui") {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			opts.TuiEnabled = false
		}
	}
	opts.Fields = splitFields(opts.Fields)

	// --- Setup Final Logger ---
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LogLevel(opts.Verbosity)})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateOptions(&opts); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		return opts, logger, err
	}
	if opts.ConfigFilePath != "" {
		logger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}
	return opts, logger, nil
}

// LogLevel maps the verbosity option to a slog level: 0 warnings, 1 info, 2 and
// above debug.
func LogLevel(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// splitFields accepts both repeated values and comma separated lists.
func splitFields(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, f := range in {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateOptions performs the checks that do not need the filesystem. Path checks
// are left to the engine.
func validateOptions(opts *seqsummary.Options) error {
	if opts.InputPath == "" {
		return fmt.Errorf("%w: --fast5-dir is required", seqsummary.ErrConfigValidation)
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("%w: --seq-summary-fn is required", seqsummary.ErrConfigValidation)
	}
	if opts.Threads < seqsummary.MinThreads {
		return fmt.Errorf("%w: at least %d threads are required, got %d", seqsummary.ErrConfigValidation, seqsummary.MinThreads, opts.Threads)
	}
	if opts.Verbosity < 0 || opts.Verbosity > 2 {
		return fmt.Errorf("%w: verbose level must be 0, 1 or 2, got %d", seqsummary.ErrConfigValidation, opts.Verbosity)
	}
	allowed := []seqsummary.ReportFormat{seqsummary.ReportFormatText, seqsummary.ReportFormatJSON, seqsummary.ReportFormatYAML}
	if !slices.Contains(allowed, opts.ReportFormat) {
		return fmt.Errorf("%w: invalid report format %q (allowed: text, json, yaml)", seqsummary.ErrConfigValidation, opts.ReportFormat)
	}
	if opts.Fields != nil {
		if err := seqsummary.ValidateFields(opts.Fields); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("threads", seqsummary.DefaultThreads)
	v.SetDefault("maxFast5", seqsummary.DefaultMaxFiles)
	v.SetDefault("basecallId", seqsummary.DefaultBasecallID)
	v.SetDefault("fields", seqsummary.DefaultFields)
	v.SetDefault("includePath", seqsummary.DefaultIncludePath)
	v.SetDefault("verboseLevel", seqsummary.DefaultVerbosity)
	v.SetDefault("queueSize", seqsummary.DefaultQueueSize)
	v.SetDefault("reportFormat", string(seqsummary.DefaultReportFormat))
	v.SetDefault("sqlite", "")
	v.SetDefault("tuiEnabled", true)
}
