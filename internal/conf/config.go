// Package conf loads and validates imagecurator settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/logger"
)

// Database backend identifiers
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// EnvPrefix is prepended to environment overrides, e.g. IMAGECURATOR_DATABASE_SQLITE_PATH.
const EnvPrefix = "IMAGECURATOR"

// SQLiteSettings contains settings for the embedded SQLite store
type SQLiteSettings struct {
	Path string `yaml:"path" mapstructure:"path"` // database file path
}

// MySQLSettings contains settings for the optional MySQL backend
type MySQLSettings struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

// DatabaseSettings selects and configures the metadata store
type DatabaseSettings struct {
	Type               string         `yaml:"type" mapstructure:"type"`   // sqlite or mysql
	Debug              bool           `yaml:"debug" mapstructure:"debug"` // log every statement at trace level
	SlowQueryThreshold time.Duration  `yaml:"slowquerythreshold" mapstructure:"slowquerythreshold"`
	SQLite             SQLiteSettings `yaml:"sqlite" mapstructure:"sqlite"`
	MySQL              MySQLSettings  `yaml:"mysql" mapstructure:"mysql"`
}

// TagDictionarySettings points at the read-only canonical tag dictionary
type TagDictionarySettings struct {
	Path     string        `yaml:"path" mapstructure:"path"`         // SQLite file with a tags(tag_id, tag) table, empty disables lookup
	CacheTTL time.Duration `yaml:"cachettl" mapstructure:"cachettl"` // lifetime of cached lookups
}

// SearchSettings holds query defaults
type SearchSettings struct {
	NSFWThreshold   string `yaml:"nsfwthreshold" mapstructure:"nsfwthreshold"` // lowest rating treated as NSFW
	DefaultPageSize int    `yaml:"defaultpagesize" mapstructure:"defaultpagesize"`
	MaxPageSize     int    `yaml:"maxpagesize" mapstructure:"maxpagesize"`
}

// ProcessingSettings controls processed rendition output
type ProcessingSettings struct {
	OutputDir         string `yaml:"outputdir" mapstructure:"outputdir"`
	TargetResolutions []int  `yaml:"targetresolutions" mapstructure:"targetresolutions"` // long-edge sizes in pixels
	Format            string `yaml:"format" mapstructure:"format"`                       // png or jpeg
	JPEGQuality       int    `yaml:"jpegquality" mapstructure:"jpegquality"`
}

// Settings is the root configuration
type Settings struct {
	Debug         bool                  `yaml:"debug" mapstructure:"debug"`
	Database      DatabaseSettings      `yaml:"database" mapstructure:"database"`
	TagDictionary TagDictionarySettings `yaml:"tagdictionary" mapstructure:"tagdictionary"`
	Search        SearchSettings        `yaml:"search" mapstructure:"search"`
	Processing    ProcessingSettings    `yaml:"processing" mapstructure:"processing"`
	Logging       logger.LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// Load reads settings from configPath, or from the default search paths when
// configPath is empty. A missing config file is not an error; defaults and
// environment overrides still apply.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range DefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("error reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_path", configPath).
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}

	return settings, nil
}

// Default returns settings populated only from defaults.
func Default() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	// Defaults always decode; the struct mirrors setDefaultConfig.
	_ = v.Unmarshal(settings)
	return settings
}

// DefaultConfigPaths returns the directories searched for config.yaml
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "imagecurator"))
	}
	return paths
}

// WriteYAML writes settings to path, creating parent directories as needed.
func (s *Settings) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.New(fmt.Errorf("error marshaling settings: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New(fmt.Errorf("error writing config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("config_path", path).
			Build()
	}
	return nil
}
