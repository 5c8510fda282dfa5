// Package config manages the plugin's config.yml in its data directory. The
// default file is embedded in the binary, written on first start and layered
// under the user's file and TEMPLATEPLUGIN_* environment variables.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the name of the configuration file inside the data directory.
const FileName = "config.yml"

const envPrefix = "TEMPLATEPLUGIN"

//go:embed config.yml
var defaultConfig []byte

// ErrInvalidConfig is returned when the configuration cannot be parsed or
// fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the plugin configuration.
type Config struct {
	ConfigVersion int  `mapstructure:"config-version" validate:"gte=1"`
	Debug         bool `mapstructure:"debug"`
}

// Default returns the embedded default config.yml.
func Default() []byte {
	return bytes.Clone(defaultConfig)
}

// Path returns the location of config.yml inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// SaveDefault writes the embedded default config.yml into dataDir unless a
// file already exists there. It reports whether the file was written.
func SaveDefault(dataDir string) (bool, error) {
	path := Path(dataDir)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	if err := os.WriteFile(path, defaultConfig, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}

// Load reads config.yml from dataDir on top of the embedded defaults and
// validates the result. A missing file yields the defaults.
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("%w: embedded defaults: %v", ErrInvalidConfig, err)
	}

	v.SetConfigFile(Path(dataDir))
	if err := v.MergeInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &cfg, nil
}
