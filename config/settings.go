package config

// ExecutorType enumerates the Executor variants of spec §4.6.
type ExecutorType string

const (
	ExecutorSimple ExecutorType = "simple"
	ExecutorReuse  ExecutorType = "reuse"
	ExecutorBatch  ExecutorType = "batch"
)

// Settings carries the enumerated settings of spec §6.
type Settings struct {
	CacheEnabled             bool         `mapstructure:"cacheEnabled" yaml:"cacheEnabled" default:"true"`
	LazyLoadingEnabled       bool         `mapstructure:"lazyLoadingEnabled" yaml:"lazyLoadingEnabled" default:"false"`
	MapUnderscoreToCamelCase bool         `mapstructure:"mapUnderscoreToCamelCase" yaml:"mapUnderscoreToCamelCase" default:"false"`
	DefaultExecutorType      ExecutorType `mapstructure:"defaultExecutorType" yaml:"defaultExecutorType" default:"simple"`
	DefaultStatementTimeout  int          `mapstructure:"defaultStatementTimeout" yaml:"defaultStatementTimeout"`
	UseGeneratedKeys         bool         `mapstructure:"useGeneratedKeys" yaml:"useGeneratedKeys" default:"false"`
	DebugMode                bool         `mapstructure:"debugMode" yaml:"debugMode" default:"false"`
}

func (s *Settings) setDefault() {
	if len(s.DefaultExecutorType) == 0 {
		s.DefaultExecutorType = ExecutorSimple
	}
}
