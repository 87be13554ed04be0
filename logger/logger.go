// Package logger declares the logging seam the core packages depend on.
// The core never imports zap directly; it logs through the Logger
// interface and the package-level subsystem loggers below, which default
// to a no-op implementation until something (typically logger/zap) wires
// a real backend in.
package logger

// Logger is the minimal structured-logging contract the runtime depends
// on. Implementations (logger/zap) add whatever else they need.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Debugw(msg string, keysValues ...any)
	Infow(msg string, keysValues ...any)
	Warnw(msg string, keysValues ...any)
	Errorw(msg string, keysValues ...any)

	// With returns a derived logger carrying additional string key/value pairs.
	With(fields ...string) Logger
}

// Subsystem loggers, wired by logger/zap.Init or left as noop.
var (
	Session     Logger = noop{}
	Executor    Logger = noop{}
	Transaction Logger = noop{}
	Cache       Logger = noop{}
	Hydrate     Logger = noop{}
	Config      Logger = noop{}
)

type noop struct{}

func (noop) Debug(args ...any)                  {}
func (noop) Info(args ...any)                   {}
func (noop) Warn(args ...any)                   {}
func (noop) Error(args ...any)                  {}
func (noop) Debugf(format string, args ...any)  {}
func (noop) Infof(format string, args ...any)   {}
func (noop) Warnf(format string, args ...any)   {}
func (noop) Errorf(format string, args ...any)  {}
func (noop) Debugw(msg string, kv ...any)       {}
func (noop) Infow(msg string, kv ...any)        {}
func (noop) Warnw(msg string, kv ...any)        {}
func (noop) Errorw(msg string, kv ...any)       {}
func (n noop) With(fields ...string) Logger     { return n }
