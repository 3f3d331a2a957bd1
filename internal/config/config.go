package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// DatabaseConfig holds the connection parameters
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`
}

// Config is the file-based configuration. Everything in it can also be
// supplied through flags; flag values win.
type Config struct {
	Database         DatabaseConfig `yaml:"database"`
	SchemaFile       string         `yaml:"schema_file"`
	IgnoreTables     []string       `yaml:"ignore_tables"`
	IgnoreColumns    []string       `yaml:"ignore_columns"`
	AllowColumnDrops bool           `yaml:"allow_column_drops"`
}

// LoadConfig reads a yaml config file. An empty path yields an empty
// config so callers can rely on flags and environment alone.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, models.WrapError(models.ConfigError, err, "read config file %s", configPath)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, models.WrapError(models.ConfigError, err, "parse config file %s", configPath)
	}

	return &config, nil
}

// IgnoreTableSet returns the ignored tables as a set
func (c *Config) IgnoreTableSet() map[string]bool {
	return toSet(c.IgnoreTables)
}

// IgnoreColumnSet returns the ignored columns as a set. Entries may be
// table.column or a bare column name matching every table.
func (c *Config) IgnoreColumnSet() map[string]bool {
	return toSet(c.IgnoreColumns)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = true
		}
	}
	return set
}
