// Package config loads the process-wide runtime configuration: settings,
// environments, and mapper document paths (spec §6 "Configuration file
// format"). It is consumed by bootstrap code that builds an ogam.Configuration;
// the core library itself never calls Init.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

var (
	App = new(Config)

	configPaths = []string{}
	configFile  = ""
	configName  = "ogam"
	configType  = "yaml"

	inited  bool
	tempdir string
	mu      sync.RWMutex
	cv      *viper.Viper
)

// Config is the top-level document described by spec §6: Settings plus
// the Environments and Mappers groups. TypeAliases and TypeHandlers are
// consumed by the statement-declaration parser (out of scope) and are
// carried here only as opaque name lists for that parser to resolve.
type Config struct {
	Settings     `mapstructure:"settings" yaml:"settings"`
	Environments EnvironmentsConfig          `mapstructure:"environments" yaml:"environments"`
	TypeAliases  map[string]string           `mapstructure:"typeAliases" yaml:"typeAliases"`
	TypeHandlers map[string]string           `mapstructure:"typeHandlers" yaml:"typeHandlers"`
	Mappers      []string                    `mapstructure:"mappers" yaml:"mappers"`
	Cache        Cache                       `mapstructure:"cache" yaml:"cache"`
	Logger       Logger                      `mapstructure:"logger" yaml:"logger"`
	Environment  map[string]EnvironmentEntry `mapstructure:"-" yaml:"-"` // resolved view, filled by Init
}

func (c *Config) setDefault() {
	c.Settings.setDefault()
	c.Cache.setDefault()
	c.Logger.setDefault()
}

// Init initializes the package configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables
//  2. Configuration file
//  3. Default values
func Init() (err error) {
	if flag.Lookup("test.v") == nil {
		if tempdir, err = os.MkdirTemp("", "ogam_"); err != nil {
			return errors.Wrap(err, "failed to create temp dir")
		}
	}

	cv = viper.New()
	cv.AutomaticEnv()
	cv.AllowEmptyEnv(true)
	cv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	App = new(Config)
	App.setDefault()

	if len(configFile) > 0 {
		cv.SetConfigFile(configFile)
	} else {
		cv.SetConfigName(configName)
		cv.SetConfigType(configType)
	}
	cv.AddConfigPath(".")
	cv.AddConfigPath("/etc/ogam/")
	for _, path := range configPaths {
		cv.AddConfigPath(path)
	}

	if err = cv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if flag.Lookup("test.v") == nil {
				if err = os.WriteFile(filepath.Join(tempdir, fmt.Sprintf("%s.%s", configName, configType)), nil, 0o600); err != nil {
					return errors.Wrap(err, "failed to create config file")
				}
			}
		} else {
			return errors.Wrap(err, "failed to read config file")
		}
	}
	if err = cv.Unmarshal(App); err != nil {
		return errors.Wrap(err, "failed to unmarshal config")
	}
	if err = defaults.Set(App); err != nil {
		return errors.Wrap(err, "failed to set config defaults")
	}

	App.Environment = resolveEnvironments(App.Environments)
	inited = true
	return nil
}

// Tempdir returns the scratch directory created by Init, if any.
func Tempdir() string { return tempdir }

// Clean removes the scratch directory created by Init.
func Clean() {
	if len(tempdir) == 0 {
		return
	}
	_ = os.RemoveAll(tempdir) //nolint:errcheck
}

// SetConfigFile sets the config file path. Call before Init.
func SetConfigFile(file string) {
	mu.Lock()
	defer mu.Unlock()
	configFile = file
}

// SetConfigName sets the config file base name, default "ogam". Call before Init.
func SetConfigName(name string) {
	mu.Lock()
	defer mu.Unlock()
	configName = name
}

// SetConfigType sets the config file type, default "yaml". Call before Init.
func SetConfigType(typ string) {
	mu.Lock()
	defer mu.Unlock()
	configType = typ
}

// AddPath adds a custom config search path. Call before Init.
func AddPath(paths ...string) {
	mu.Lock()
	defer mu.Unlock()
	configPaths = append(configPaths, paths...)
}
