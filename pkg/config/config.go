// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is searched for (with a .yaml extension) when no
// --config flag is given.
const DefaultConfigFileName = "tabular-mcp"

// EnvPrefix prefixes every environment override, e.g. TABULAR_LOGGING_LEVEL.
const EnvPrefix = "TABULAR"

// Config is the resolved server configuration. It is built once at startup
// and passed to the components that need it.
type Config struct {
	// DataDir is the only directory tabular files are read from.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// ServerName is reported to clients in the initialize response.
	ServerName string `mapstructure:"server_name" yaml:"server_name"`

	// Watch sends resources/list_changed when files in DataDir change.
	Watch bool `mapstructure:"watch" yaml:"watch"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LoggingConfig controls the zap logger. Logs never go to stdout.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	File  string `mapstructure:"file" yaml:"file"`   // empty means stderr
}

// LoadConfig resolves configuration from v with this priority:
//  1. Flags bound to v
//  2. TABULAR_* environment variables
//  3. Config file (cfgFile, or tabular-mcp.yaml in ., ~/.config/tabular-mcp, /etc/tabular-mcp)
//  4. Defaults
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tabular-mcp")
		v.AddConfigPath("/etc/tabular-mcp/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DataDir = ExpandPath(cfg.DataDir)
	if cfg.Logging.File != "" {
		cfg.Logging.File = ExpandPath(cfg.Logging.File)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if strings.TrimSpace(c.ServerName) == "" {
		return errors.New("server_name must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (want debug, info, warn or error)", c.Logging.Level)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", GetDataDir())
	v.SetDefault("server_name", "tabular-mcp")
	v.SetDefault("watch", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}
