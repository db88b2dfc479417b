/*
Package log provides the module-tagged loggers used across the committer, based on zerolog
(https://github.com/rs/zerolog).

Loggers are configured by an optional toml file. Every field is optional.

 # default level for all modules: debug/info/warn/error/fatal/panic
 level = "info"

 # console, console_no_color or json
 formatter = "json"

 # stdout, stderr or a file path
 out = "stderr"

 # print source file and line
 caller = false

 timefieldformat = "3:04 PM"

 # per module overrides; only level and out are honoured
 [sender]
 level = "debug"

The file named committer_log.toml is searched in the working directory. Another location
can be given by the COMMITTER_LOGCONFIG environment variable.
*/
package log

import (
	"errors"
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	confFilePathKey     = "LOGCONFIG"
	confEnvPrefix       = "COMMITTER"
	defaultConfFileName = "committer_log"
)

var (
	baseLogger  = zerolog.New(os.Stderr)
	baseLevel   = zerolog.InfoLevel
	logInitLock sync.Mutex
	isLogInit   = false
	viperConf   = viper.New()
)

// Logger is a zerolog logger bound to a module name.
type Logger struct {
	*zerolog.Logger
	name  string
	level zerolog.Level
}

func loadConfigFile() {
	viperConf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConf.SetEnvPrefix(confEnvPrefix)
	viperConf.AutomaticEnv()

	viperConf.SetConfigType("toml")
	viperConf.SetConfigName(defaultConfFileName)
	viperConf.AddConfigPath(".")

	if path := viperConf.GetString(confFilePathKey); path != "" {
		viperConf.SetConfigFile(path)
		baseLogger.Info().Str("file", path).Msg("Init logger using a configuration file")
	}

	if err := viperConf.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			baseLogger.Error().Err(err).Msg("Fail to read logger config file")
		}
	}
}

func initLog() {
	if format := viperConf.GetString("timefieldformat"); format != "" {
		zerolog.TimeFieldFormat = format
	}

	out := os.Stderr
	if name := viperConf.GetString("out"); name != "" {
		o, err := getOutput(name)
		if err != nil {
			baseLogger.Warn().Err(err).Str("outputName", name).Msg("failed to open output writer. set to base out instead")
		} else {
			out = o
			baseLogger = baseLogger.Output(out)
		}
	}

	switch formatter := strings.ToLower(viperConf.GetString("formatter")); formatter {
	case "", "json":
		baseLogger = baseLogger.Output(out)
	case "console":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: colorable.NewColorable(out), NoColor: false, TimeFormat: zerolog.TimeFieldFormat})
	case "console_no_color":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: zerolog.TimeFieldFormat})
	default:
		baseLogger.Warn().Str("formatter", formatter).Msg("Invalid formatter. Only allowed; console/console_no_color/json")
		baseLogger = baseLogger.Output(out)
	}

	if viperConf.GetBool("caller") {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	baseLevel = parseLevel(viperConf.GetString("level"), zerolog.InfoLevel)
	baseLogger = baseLogger.With().Timestamp().Logger().Level(baseLevel)
}

func parseLevel(level string, fallback zerolog.Level) zerolog.Level {
	if level == "" {
		return fallback
	}
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		baseLogger.Warn().Err(err).Str("level", level).Msg("Fail to parse log level")
		return fallback
	}
	return zLevel
}

func ensureInit(withConfig bool) {
	if isLogInit {
		return
	}
	if withConfig {
		loadConfigFile()
	}
	initLog()
	isLogInit = true
}

// NewLogger returns a logger whose entries carry module=moduleName. A [moduleName] table in
// the config file can override the level and output of this logger.
func NewLogger(moduleName string) *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()
	ensureInit(true)

	zLogger := baseLogger.With().Str("module", moduleName).Logger()
	zLevel := baseLevel

	if sub := viperConf.Sub(moduleName); sub != nil {
		if name := sub.GetString("out"); name != "" {
			if out, err := getOutput(name); err == nil {
				zLogger = zLogger.Output(out)
			} else {
				baseLogger.Warn().Err(err).Str("outputName", name).Str("module", moduleName).Msg("failed to open output writer. set to base out instead")
			}
		}
		if level := sub.GetString("level"); level != "" {
			zLevel = parseLevel(level, zerolog.InfoLevel)
			zLogger = zLogger.Level(zLevel)
		}
	}

	return &Logger{
		Logger: &zLogger,
		name:   moduleName,
		level:  zLevel,
	}
}

// Default returns the logger without a module tag.
func Default() *Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()
	ensureInit(false)

	return &Logger{
		Logger: &baseLogger,
		level:  baseLevel,
	}
}

var errEmptyName = errors.New("empty output name")

// getOutput maps stdout, stderr or a file path to a writer.
func getOutput(outName string) (*os.File, error) {
	switch outName {
	case "":
		return nil, errEmptyName
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(outName, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0644)
	}
}

// Name returns the module name, empty for the default logger.
func (logger *Logger) Name() string {
	return logger.name
}

// IsDebugEnabled reports whether debug entries are written.
func (logger *Logger) IsDebugEnabled() bool {
	return logger.level <= zerolog.DebugLevel
}

// Level returns current logger level
func (logger *Logger) Level() string {
	return logger.level.String()
}
