package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "ctestgen"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	apiKeyFlagName      = "api-key"
	parallelFlagName    = "parallel"
	batchFlagName       = "batch"
	changedOnlyFlagName = "changed-only"
	verboseFlagName     = "verbose"

	apiKeyConfigKey      = "api_key"
	modelConfigKey       = "generate.model"
	timeoutConfigKey     = "generate.timeout"
	parallelConfigKey    = "generate.parallel"
	batchConfigKey       = "generate.batch"
	changedOnlyConfigKey = "generate.changed_only"

	defaultOutputDir  = "tests/generated"
	defaultParallel   = 4
	defaultBatch      = false
	defaultTimeout    = time.Minute * 5
	defaultChangedSet = false

	envPrefix = "CTESTGEN"

	// geminiKeyEnvVar is the credential variable the upstream Gemini tooling
	// conventionally uses; it is honored alongside CTESTGEN_API_KEY.
	geminiKeyEnvVar = "GEMINI_API_KEY"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".ctestgen.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)
	viper.SetDefault(modelConfigKey, "gemini-2.0-flash-exp")
	viper.SetDefault(timeoutConfigKey, int64(defaultTimeout.Seconds()))
	viper.SetDefault(parallelConfigKey, defaultParallel)
	viper.SetDefault(batchConfigKey, defaultBatch)
	viper.SetDefault(changedOnlyConfigKey, defaultChangedSet)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// resolveAPIKey resolves the Gemini credential in order: --api-key flag,
// CTESTGEN_API_KEY / config file, GEMINI_API_KEY, then a .env file.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if key := viper.GetString(apiKeyConfigKey); key != "" {
		return key
	}

	if key := os.Getenv(geminiKeyEnvVar); key != "" {
		return key
	}

	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	return os.Getenv(geminiKeyEnvVar)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
