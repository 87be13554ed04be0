// Package zap wires github.com/forbearing/ogam/logger's subsystem loggers
// to go.uber.org/zap, with file rotation via gopkg.in/natefinch/lumberjack.v2.
// It covers exactly the subsystems this runtime has (session, executor,
// transaction, cache, hydrate, config) rather than a whole application's
// logger set.
package zap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init builds the subsystem loggers from config.App.Logger and replaces
// the package-level no-ops in the logger package with zap-backed ones.
func Init() error {
	cfg := config.App.Logger

	logger.Session = New(cfg, "session")
	logger.Executor = New(cfg, "executor")
	logger.Transaction = New(cfg, "transaction")
	logger.Cache = New(cfg, "cache")
	logger.Hydrate = New(cfg, "hydrate")
	logger.Config = New(cfg, "config")
	return nil
}

// Sync flushes all buffered log entries. Call before process exit.
func Sync() {
	for _, l := range []logger.Logger{
		logger.Session, logger.Executor, logger.Transaction,
		logger.Cache, logger.Hydrate, logger.Config,
	} {
		if zl, ok := l.(*Logger); ok {
			_ = zl.zlog.Sync() //nolint:errcheck
		}
	}
}

// New builds a logger.Logger for the given subsystem name, rotating into
// "<subsystem>.log" inside the configured log directory (or writing to
// stdout when cfg.File is empty/"/dev/stdout").
func New(cfg config.Logger, subsystem string) *Logger {
	core := zapcore.NewCore(newEncoder(cfg), newWriter(cfg, subsystem), newLevel(cfg))
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.FatalLevel))
	return &Logger{zlog: zl}
}

func newWriter(cfg config.Logger, subsystem string) zapcore.WriteSyncer {
	switch strings.TrimSpace(cfg.File) {
	case "", "/dev/stdout":
		return zapcore.AddSync(os.Stdout)
	case "/dev/stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		dir := filepath.Dir(cfg.File)
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(dir, subsystem+".log"),
			MaxAge:     cfg.MaxAge,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		})
	}
}

func newLevel(cfg config.Logger) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func newEncoder(cfg config.Logger) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if strings.EqualFold(cfg.Format, "console") {
		return zapcore.NewConsoleEncoder(enc)
	}
	return zapcore.NewJSONEncoder(enc)
}
