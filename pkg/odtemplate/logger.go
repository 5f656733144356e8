package odtemplate

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelOff silences every level zap can emit through the package logger.
const levelOff = zapcore.FatalLevel + 1

var (
	globalLogger     *zap.Logger
	globalLevel      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	globalLoggerOnce sync.Once
	globalLoggerMu   sync.RWMutex
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		globalLevel.SetLevel(parseLogLevel(GetGlobalConfig().LogLevel))
		logger := NewLogger(zapcore.Lock(os.Stderr), globalLevel)

		globalLoggerMu.Lock()
		if globalLogger == nil {
			globalLogger = logger
		}
		globalLoggerMu.Unlock()
	})
}

// parseLogLevel maps a config level name to a zap level. Unknown names fall
// back to info.
func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "off":
		return levelOff
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a console logger writing to w at the given level.
func NewLogger(w zapcore.WriteSyncer, level zapcore.LevelEnabler) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), w, level)
	return zap.New(core).Named("odtemplate")
}

// SetLogger replaces the package logger. A nil logger discards everything.
func SetLogger(logger *zap.Logger) {
	initGlobalLogger()
	if logger == nil {
		logger = zap.NewNop()
	}
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// GetLogger returns the package logger.
func GetLogger() *zap.Logger {
	initGlobalLogger()
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// UpdateLoggerFromConfig applies the level of the global configuration to the
// default logger.
func UpdateLoggerFromConfig() {
	initGlobalLogger()
	globalLevel.SetLevel(parseLogLevel(GetGlobalConfig().LogLevel))
}
