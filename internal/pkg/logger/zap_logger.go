package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

// Rotation limits for the JSON log file.
const (
	maxFileSizeMB = 10
	maxBackups    = 5
	maxAgeDays    = 30
)

// NewZapLogger writes JSON lines at Info and above to a rotated file and mirrors
// everything to stdout. Production keeps stdout as JSON at Info.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig())
	fileCore := zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), zap.InfoLevel)

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	consoleLevel := zap.DebugLevel
	if isProd {
		consoleEncoder = fileEncoder
		consoleLevel = zap.InfoLevel
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), consoleLevel)

	// caller skip 2: ILogger method -> write -> zap
	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(2))
	return &ZapLogger{logger: l}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// NewNopLogger discards everything. Used where no logger was injected and in tests.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zapcore.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zapcore.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zapcore.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zapcore.ErrorLevel, module, message, details)
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	ce := l.logger.Check(level, message)
	if ce == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	fields := []zap.Field{zap.String("module", module), zap.Any("details", details)}
	if err, ok := details["error"]; ok && level >= zapcore.ErrorLevel {
		fields = append(fields, zap.Any("error_ref", err))
	}
	ce.Write(fields...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
