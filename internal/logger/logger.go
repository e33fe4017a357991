package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is a thin key/value wrapper around zap's sugared logger.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

// Printf lets the logger act as a gorm logger writer. gorm renders its
// level into the format ("[warn]", "[error]") or passes the failure as an
// argument for traced queries, so the zap level is picked from those.
func (l *Logger) Printf(format string, args ...interface{}) {
	switch gormLevel(format, args) {
	case "error":
		l.SugaredLogger.Errorf(format, args...)
	case "warn":
		l.SugaredLogger.Warnf(format, args...)
	default:
		l.SugaredLogger.Infof(format, args...)
	}
}

func gormLevel(format string, args []interface{}) string {
	switch {
	case strings.Contains(format, "[error]"):
		return "error"
	case strings.Contains(format, "[warn]"):
		return "warn"
	}
	for _, a := range args {
		switch v := a.(type) {
		case error:
			return "error"
		case string:
			if strings.HasPrefix(v, "SLOW SQL") {
				return "warn"
			}
		}
	}
	return "info"
}
