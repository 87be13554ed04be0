package config

// Logger configures the zap-backed logger wiring (logger/zap): file
// target, rotation, level, and encoding are all operator-tunable
// without touching code.
type Logger struct {
	File       string `mapstructure:"file" yaml:"file" default:"ogam.log"`
	Level      string `mapstructure:"level" yaml:"level" default:"info"`
	Format     string `mapstructure:"format" yaml:"format" default:"console"` // console|json
	MaxSize    int    `mapstructure:"maxSize" yaml:"maxSize" default:"100"`   // megabytes
	MaxAge     int    `mapstructure:"maxAge" yaml:"maxAge" default:"7"`       // days
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups" default:"10"`
}

func (l *Logger) setDefault() {
	if len(l.Level) == 0 {
		l.Level = "info"
	}
	if len(l.Format) == 0 {
		l.Format = "console"
	}
}
