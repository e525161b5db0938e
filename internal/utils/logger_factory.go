package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates the logging granularities the gitfleet CLI exposes.
type LogLevel string

// Log levels accepted by the --log-level flag.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates the logger output encodings the gitfleet CLI exposes.
type LogFormat string

// Log formats accepted by the --log-format flag.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerFactory builds the zap loggers used by gitfleet commands.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested level and format.
// Blank values fall back to the gitfleet defaults: info level, structured
// encoding. Console output gets human-readable timestamps and level names.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	if len(requestedLogLevel) == 0 {
		requestedLogLevel = LogLevelInfo
	}
	if len(requestedLogFormat) == 0 {
		requestedLogFormat = LogFormatStructured
	}

	zapLevel, levelError := zapLevelFor(requestedLogLevel)
	if levelError != nil {
		return nil, levelError
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLevel)

	switch requestedLogFormat {
	case LogFormatStructured:
		configuration.Encoding = jsonZapEncodingStringConstant
	case LogFormatConsole:
		configuration.Encoding = consoleZapEncodingStringConstant
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	return configuration.Build()
}

func zapLevelFor(requestedLogLevel LogLevel) (zapcore.Level, error) {
	switch requestedLogLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
}
