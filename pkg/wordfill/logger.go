package wordfill

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogOff
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	case LogOff:
		return zapcore.FatalLevel + 1
	default:
		return zapcore.InfoLevel
	}
}

type Fields map[string]any

// Logger is the engine's printf-style logger on top of zap. Loggers derived
// with WithField share their parent's level.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

var (
	globalLogger   *Logger
	globalLoggerMu sync.RWMutex
)

func parseLogLevel(levelStr string) LogLevel {
	switch levelStr {
	case "debug":
		return LogDebug
	case "info":
		return LogInfo
	case "warn":
		return LogWarn
	case "error":
		return LogError
	case "off":
		return LogOff
	default:
		return LogInfo
	}
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// NewLogger returns a logger writing "time [LEVEL] message {fields}" lines to w.
func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:      bracketLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(w)), atom)
	return &Logger{sugar: zap.New(core).Sugar(), level: atom}
}

// NewZapLogger adapts an existing zap logger, e.g. the one a command line
// front end configured. SetLevel can only raise its level.
func NewZapLogger(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	atom := zap.NewAtomicLevelAt(z.Level())
	return &Logger{sugar: z.WithOptions(zap.IncreaseLevel(atom)).Sugar(), level: atom}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

func (l *Logger) IsDebugMode() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{sugar: l.sugar.With(key, value), level: l.level}
}

func (l *Logger) WithFields(fields Fields) *Logger {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{sugar: l.sugar.With(args...), level: l.level}
}

func (l *Logger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.sugar.Sync() }

// Global logging functions

func SetLogger(logger *Logger) {
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

func GetLogger() *Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(os.Stderr, parseLogLevel(GetGlobalConfig().LogLevel))
	}
	return globalLogger
}

func Debug(format string, args ...any) { GetLogger().Debug(format, args...) }
func Info(format string, args ...any)  { GetLogger().Info(format, args...) }
func Warn(format string, args ...any)  { GetLogger().Warn(format, args...) }
func Error(format string, args ...any) { GetLogger().Error(format, args...) }

func WithField(key string, value any) *Logger { return GetLogger().WithField(key, value) }
func WithFields(fields Fields) *Logger        { return GetLogger().WithFields(fields) }

// UpdateLoggerFromConfig updates the global logger based on the current global configuration
func UpdateLoggerFromConfig() {
	GetLogger().SetLevel(parseLogLevel(GetGlobalConfig().LogLevel))
}
